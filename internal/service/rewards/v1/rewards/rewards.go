// Package rewards implements the reward engine.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/service/notifier/v1"
	serviceErrors "github.com/nexaplatform/nexa-rewards/internal/service/rewards/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

// Engine defines attributes of a struct available to its methods.
type Engine struct {
	storage      storage.RewardVault
	notifier     notifier.Notifier
	rewardConfig *config.RewardConfig
	log          *zerolog.Logger
	now          func() time.Time
}

// InitService initializes a reward engine.
func InitService(st storage.RewardVault, ntf notifier.Notifier, rewardConfig *config.RewardConfig, log *zerolog.Logger) (*Engine, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if ntf == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil notifier was passed to service initializer"}
	}
	engine := &Engine{
		storage:      st,
		notifier:     ntf,
		rewardConfig: rewardConfig,
		log:          log,
		now:          time.Now,
	}
	return engine, nil
}

// SetClock overrides the time source, used by deterministic tests.
func (eng *Engine) SetClock(now func() time.Time) {
	eng.now = now
}

// ApplyReferralBonus credits the configured bonus to the referrer's total and
// affiliate balances and notifies the referrer. Notification failure never
// rolls the credit back.
func (eng *Engine) ApplyReferralBonus(ctx context.Context, referrer, newUser string) error {
	entry, err := eng.storage.CreditReferral(ctx, referrer, newUser, eng.rewardConfig.ReferralBonus, eng.now())
	if err != nil {
		return err
	}
	if entry.Email != "" {
		subject := "You earned a referral bonus!"
		body := fmt.Sprintf(
			"<p>Hello %s,</p><p>You received %.2f as a referral bonus because <strong>%s</strong> signed up using your link.</p><p>Your new balance is %.2f.</p>",
			entry.Username, eng.rewardConfig.ReferralBonus, newUser, entry.TotalBalance)
		if sendErr := eng.notifier.Send(ctx, entry.Email, subject, body); sendErr != nil {
			eng.log.Warn().Err(sendErr).Msg(fmt.Sprintf("referral bonus notification failed for %s", entry.Username))
		}
	}
	return nil
}

// ClaimWatchReward credits a video reward at most once per (user, video) pair.
// A repeated claim comes back as a non-error already-rewarded result.
func (eng *Engine) ClaimWatchReward(ctx context.Context, username, videoID string) (*modeldto.RewardResult, error) {
	reward, balance, err := eng.storage.ClaimWatchReward(ctx, username, videoID, eng.now())
	return eng.toResult(reward, balance, err)
}

// CompleteTask credits a task reward at most once per (user, task) pair.
func (eng *Engine) CompleteTask(ctx context.Context, username, taskID string) (*modeldto.RewardResult, error) {
	reward, balance, err := eng.storage.CompleteTask(ctx, username, taskID, eng.now())
	return eng.toResult(reward, balance, err)
}

func (eng *Engine) toResult(reward, balance float64, err error) (*modeldto.RewardResult, error) {
	if err != nil {
		var alreadyRewardedError *storageErrors.AlreadyRewardedError
		if errors.As(err, &alreadyRewardedError) {
			return &modeldto.RewardResult{AlreadyRewarded: true}, nil
		}
		return nil, err
	}
	return &modeldto.RewardResult{Rewarded: true, Reward: reward, Balance: balance}, nil
}
