// Package rewards provides credit granting for referrals, video watches and task completions.
package rewards

import (
	"context"

	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
)

// Rewards defines a set of methods for types implementing Rewards.
type Rewards interface {
	ApplyReferralBonus(ctx context.Context, referrer, newUser string) error
	ClaimWatchReward(ctx context.Context, username, videoID string) (*modeldto.RewardResult, error)
	CompleteTask(ctx context.Context, username, taskID string) (*modeldto.RewardResult, error)
}
