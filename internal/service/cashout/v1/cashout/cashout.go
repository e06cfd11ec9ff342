// Package cashout implements the withdrawal request and review workflow.
package cashout

import (
	"context"
	"fmt"
	"time"

	"github.com/ShiraazMoollatjie/goluhn"
	"github.com/rs/zerolog"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	serviceErrors "github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/service/idgen/v1"
	"github.com/nexaplatform/nexa-rewards/internal/service/notifier/v1"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1"
)

// Withdrawal request lifecycle statuses. A request leaves StatusPending
// exactly once and never re-enters it.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// StatusAll is a listing filter, not a lifecycle status.
const StatusAll = "all"

// Cashout defines attributes of a struct available to its methods.
type Cashout struct {
	withdrawals  storage.WithdrawalVault
	users        storage.Register
	generator    idgen.Generator
	notifier     notifier.Notifier
	rewardConfig *config.RewardConfig
	log          *zerolog.Logger
	now          func() time.Time
}

// InitService initializes a withdrawal workflow service.
func InitService(wv storage.WithdrawalVault, users storage.Register, gen idgen.Generator, ntf notifier.Notifier, rewardConfig *config.RewardConfig, log *zerolog.Logger) (*Cashout, error) {
	if wv == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if users == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil user storage was passed to service initializer"}
	}
	if gen == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil generator was passed to service initializer"}
	}
	if ntf == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil notifier was passed to service initializer"}
	}
	cashout := &Cashout{
		withdrawals:  wv,
		users:        users,
		generator:    gen,
		notifier:     ntf,
		rewardConfig: rewardConfig,
		log:          log,
		now:          time.Now,
	}
	return cashout, nil
}

// SetClock overrides the time source, used by deterministic tests.
func (c *Cashout) SetClock(now func() time.Time) {
	c.now = now
}

// RequestWithdrawal debits the full amount immediately and files a pending
// request. Funds stay debited until a reviewer settles it.
func (c *Cashout) RequestWithdrawal(ctx context.Context, username string, request modeldto.NewWithdrawal) (*modeldto.Withdrawal, error) {
	if request.Amount <= 0 {
		return nil, &serviceErrors.IllegalAmountError{Amount: request.Amount}
	}
	if err := goluhn.Validate(request.AccountNumber); err != nil {
		return nil, &serviceErrors.IllegalAccountNumberError{AccountNumber: request.AccountNumber}
	}
	entry := modelstorage.WithdrawalStorageEntry{
		ID:            c.generator.NewID(),
		Username:      username,
		Amount:        request.Amount,
		BankName:      request.BankName,
		AccountNumber: request.AccountNumber,
		Status:        StatusPending,
		RequestedAt:   c.now(),
	}
	balance, err := c.withdrawals.AddNewWithdrawal(ctx, entry)
	if err != nil {
		return nil, err
	}
	c.log.Info().Msg(fmt.Sprintf("withdrawal %s of %.2f filed for %s, balance now %.2f", entry.ID, entry.Amount, username, balance))
	withdrawal := toDTO(entry)
	return &withdrawal, nil
}

// ReviewWithdrawal settles a pending request with a terminal verdict. When the
// refund policy is on, a rejection credits the amount back.
func (c *Cashout) ReviewWithdrawal(ctx context.Context, id, status string) (*modeldto.Withdrawal, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, &serviceErrors.IllegalStatusError{Status: status}
	}
	refund := status == StatusRejected && c.rewardConfig.RefundOnReject
	entry, err := c.withdrawals.UpdateWithdrawalStatus(ctx, id, status, refund, c.now())
	if err != nil {
		return nil, err
	}
	c.notifyReviewed(ctx, entry)
	withdrawal := toDTO(*entry)
	return &withdrawal, nil
}

// GetWithdrawal returns one request by its identifier.
func (c *Cashout) GetWithdrawal(ctx context.Context, id string) (*modeldto.Withdrawal, error) {
	entry, err := c.withdrawals.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	withdrawal := toDTO(*entry)
	return &withdrawal, nil
}

// GetWithdrawals returns the requests of one user, newest first.
func (c *Cashout) GetWithdrawals(ctx context.Context, username string) ([]modeldto.Withdrawal, error) {
	entries, err := c.withdrawals.GetWithdrawals(ctx, username)
	if err != nil {
		return nil, err
	}
	return toDTOs(entries), nil
}

// GetWithdrawalsByStatus returns all requests in one status for the admin
// panel. StatusAll lifts the filter and lists every request.
func (c *Cashout) GetWithdrawalsByStatus(ctx context.Context, status string) ([]modeldto.Withdrawal, error) {
	if status == StatusAll {
		status = ""
	} else if status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, &serviceErrors.IllegalStatusError{Status: status}
	}
	entries, err := c.withdrawals.GetWithdrawalsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return toDTOs(entries), nil
}

// notifyReviewed sends the verdict email, delivery is best-effort.
func (c *Cashout) notifyReviewed(ctx context.Context, entry *modelstorage.WithdrawalStorageEntry) {
	user, err := c.users.GetUser(ctx, entry.Username)
	if err != nil || user.Email == "" {
		return
	}
	subject := fmt.Sprintf("Your withdrawal was %s", entry.Status)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your withdrawal of %.2f to %s (%s) was <strong>%s</strong>.</p>",
		user.Username, entry.Amount, entry.BankName, entry.AccountNumber, entry.Status)
	if sendErr := c.notifier.Send(ctx, user.Email, subject, body); sendErr != nil {
		c.log.Warn().Err(sendErr).Msg(fmt.Sprintf("withdrawal review notification failed for %s", entry.Username))
	}
}

func toDTO(entry modelstorage.WithdrawalStorageEntry) modeldto.Withdrawal {
	return modeldto.Withdrawal{
		ID:            entry.ID,
		Username:      entry.Username,
		Amount:        entry.Amount,
		BankName:      entry.BankName,
		AccountNumber: entry.AccountNumber,
		Status:        entry.Status,
		RequestedAt:   entry.RequestedAt.Format(time.RFC3339),
	}
}

func toDTOs(entries []modelstorage.WithdrawalStorageEntry) []modeldto.Withdrawal {
	withdrawals := make([]modeldto.Withdrawal, 0, len(entries))
	for _, entry := range entries {
		withdrawals = append(withdrawals, toDTO(entry))
	}
	return withdrawals
}
