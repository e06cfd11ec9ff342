// Package accounts implements signup, login, wallet and profile operations.
package accounts

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	serviceErrors "github.com/nexaplatform/nexa-rewards/internal/service/accounts/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/service/rewards/v1"
	"github.com/nexaplatform/nexa-rewards/internal/service/secretary/v1"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1"
)

// Accounts defines attributes of a struct available to its methods.
type Accounts struct {
	users        storage.Register
	ledger       storage.Ledger
	secretary    secretary.Secretary
	rewards      rewards.Rewards
	rewardConfig *config.RewardConfig
	log          *zerolog.Logger
	now          func() time.Time
}

// InitService initializes an account service.
func InitService(users storage.Register, ledger storage.Ledger, sec secretary.Secretary, rew rewards.Rewards, rewardConfig *config.RewardConfig, log *zerolog.Logger) (*Accounts, error) {
	if users == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if ledger == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil ledger storage was passed to service initializer"}
	}
	if sec == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil secretary was passed to service initializer"}
	}
	if rew == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil reward engine was passed to service initializer"}
	}
	accounts := &Accounts{
		users:        users,
		ledger:       ledger,
		secretary:    sec,
		rewards:      rew,
		rewardConfig: rewardConfig,
		log:          log,
		now:          time.Now,
	}
	return accounts, nil
}

// SetClock overrides the time source, used by deterministic tests.
func (acc *Accounts) SetClock(now func() time.Time) {
	acc.now = now
}

// SignUp creates an account, consumes the access code, seeds the signup bonus
// and hands out a session token. The referral bonus is credited after the
// account exists and its failure never fails the signup.
func (acc *Accounts) SignUp(ctx context.Context, request modeldto.SignupRequest) (string, error) {
	if err := validateSignup(request); err != nil {
		return "", err
	}
	hash, err := acc.secretary.HashPassword(request.Password)
	if err != nil {
		return "", err
	}
	user := modelstorage.UserStorageEntry{
		Username:  request.Username,
		Fullname:  request.Fullname,
		Email:     request.Email,
		Password:  hash,
		Country:   request.Country,
		Phone:     request.Phone,
		CreatedAt: acc.now(),
	}
	err = acc.users.AddNewUser(ctx, user, request.Code, acc.rewardConfig.SignupBonus)
	if err != nil {
		return "", err
	}
	token, err := acc.secretary.NewToken(request.Username)
	if err != nil {
		return "", err
	}
	if request.Ref != "" && !strings.EqualFold(request.Ref, request.Username) {
		if refErr := acc.rewards.ApplyReferralBonus(ctx, request.Ref, request.Username); refErr != nil {
			acc.log.Warn().Err(refErr).Msg(fmt.Sprintf("referral bonus for %s was not credited", request.Ref))
		}
	}
	return token, nil
}

// LoginUser checks credentials and hands out a session token.
func (acc *Accounts) LoginUser(ctx context.Context, request modeldto.LoginRequest) (string, error) {
	user, err := acc.users.GetUser(ctx, request.Username)
	if err != nil {
		return "", err
	}
	err = acc.secretary.CheckPassword(user.Password, request.Password)
	if err != nil {
		return "", &serviceErrors.WrongCredentialsError{Username: request.Username}
	}
	return acc.secretary.NewToken(user.Username)
}

// GetWallet returns the three balances of one user.
func (acc *Accounts) GetWallet(ctx context.Context, username string) (*modeldto.Wallet, error) {
	user, err := acc.users.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	wallet := modeldto.Wallet{
		TotalBalance:     user.TotalBalance,
		AffiliateBalance: user.AffiliateBalance,
		BonusBalance:     user.BonusBalance,
	}
	return &wallet, nil
}

// GetProfile returns the public profile of one user.
func (acc *Accounts) GetProfile(ctx context.Context, username string) (*modeldto.Profile, error) {
	user, err := acc.users.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

// UpdateProfile applies non-empty fields of the update and returns the fresh
// profile. An empty field leaves the stored value untouched.
func (acc *Accounts) UpdateProfile(ctx context.Context, username string, update modeldto.ProfileUpdate) (*modeldto.Profile, error) {
	hash := ""
	if update.Password != "" {
		var err error
		hash, err = acc.secretary.HashPassword(update.Password)
		if err != nil {
			return nil, err
		}
	}
	err := acc.users.UpdateUser(ctx, username, update.Fullname, update.Email, update.Country, update.Phone, hash)
	if err != nil {
		return nil, err
	}
	return acc.GetProfile(ctx, username)
}

// GetTransactions returns the ledger of one user, newest first.
func (acc *Accounts) GetTransactions(ctx context.Context, username string) ([]modeldto.Transaction, error) {
	entries, err := acc.ledger.GetLedgerEntries(ctx, username)
	if err != nil {
		return nil, err
	}
	transactions := make([]modeldto.Transaction, 0, len(entries))
	for _, entry := range entries {
		transactions = append(transactions, modeldto.Transaction{
			Kind:         entry.Kind,
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			Note:         entry.Note,
			CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return transactions, nil
}

// GetWalletLogs returns the wallet movement view derived from the ledger,
// amounts unsigned with an explicit credit or debit direction.
func (acc *Accounts) GetWalletLogs(ctx context.Context, username string) ([]modeldto.WalletLogRecord, error) {
	entries, err := acc.ledger.GetLedgerEntries(ctx, username)
	if err != nil {
		return nil, err
	}
	logs := make([]modeldto.WalletLogRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.Amount == 0 {
			continue
		}
		logs = append(logs, modeldto.WalletLogRecord{
			Amount:      math.Abs(entry.Amount),
			Direction:   entry.Direction,
			Description: entry.Note,
			Reason:      entry.Reason,
			CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return logs, nil
}

func validateSignup(request modeldto.SignupRequest) error {
	switch {
	case request.Username == "":
		return &serviceErrors.ValidationError{Field: "username", Msg: "must not be empty"}
	case request.Password == "":
		return &serviceErrors.ValidationError{Field: "password", Msg: "must not be empty"}
	case request.Fullname == "":
		return &serviceErrors.ValidationError{Field: "fullname", Msg: "must not be empty"}
	case request.Email == "" || !strings.Contains(request.Email, "@"):
		return &serviceErrors.ValidationError{Field: "email", Msg: "must be a valid address"}
	case request.Code == "":
		return &serviceErrors.ValidationError{Field: "code", Msg: "must not be empty"}
	}
	return nil
}

func toProfile(user *modelstorage.UserStorageEntry) *modeldto.Profile {
	return &modeldto.Profile{
		Fullname:  user.Fullname,
		Username:  user.Username,
		Email:     user.Email,
		Country:   user.Country,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
