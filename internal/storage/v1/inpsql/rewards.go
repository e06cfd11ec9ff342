package inpsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

// CreditReferral credits the bonus to the referrer's total and affiliate
// balances and appends one referral_bonus ledger row. Returns the updated
// referrer entry so that callers can notify by email.
func (s *Storage) CreditReferral(ctx context.Context, referrer, newUser string, bonus float64, at time.Time) (*modelstorage.UserStorageEntry, error) {
	chanOk := make(chan *modelstorage.UserStorageEntry, 1)
	chanEr := make(chan error, 1)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer tx.Rollback()
		var entry modelstorage.UserStorageEntry
		err = tx.QueryRowContext(ctx,
			`UPDATE users SET total_balance = total_balance + $1, affiliate_balance = affiliate_balance + $1
			 WHERE LOWER(username) = LOWER($2)
			 RETURNING username, fullname, email, total_balance, affiliate_balance, bonus_balance`,
			bonus, referrer).Scan(&entry.Username, &entry.Fullname, &entry.Email,
			&entry.TotalBalance, &entry.AffiliateBalance, &entry.BonusBalance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				chanEr <- &storageErrors.NotFoundError{Err: err, ID: referrer}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		err = insertLedgerEntry(ctx, tx, entry.Username, "referral_bonus",
			fmt.Sprintf("Referral bonus from %s", newUser), "referral:"+newUser,
			bonus, entry.TotalBalance, at)
		if err != nil {
			chanEr <- err
			return
		}
		if err = tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- &entry
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("crediting referral bonus failed for %s", referrer))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("crediting referral bonus failed for %s", referrer))
		return nil, methodErr
	case entry := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("crediting referral bonus done for %s, referred %s", entry.Username, newUser))
		return entry, nil
	}
}

// ClaimWatchReward credits the video reward at most once per (user, video)
// pair. The idempotency flip and the credit share one transaction.
func (s *Storage) ClaimWatchReward(ctx context.Context, username, videoID string, at time.Time) (float64, float64, error) {
	return s.claimSourceReward(ctx, username, videoID, at, watchRewardSpec)
}

// CompleteTask credits the task reward at most once per (user, task) pair.
func (s *Storage) CompleteTask(ctx context.Context, username, taskID string, at time.Time) (float64, float64, error) {
	return s.claimSourceReward(ctx, username, taskID, at, taskRewardSpec)
}

// rewardSpec captures what differs between the watch and task reward paths.
type rewardSpec struct {
	sourceQuery string
	flipQuery   string
	kind        string
	notePrefix  string
	reasonTag   string
}

var watchRewardSpec = rewardSpec{
	sourceQuery: `SELECT title, reward FROM videos WHERE id = $1`,
	flipQuery: `INSERT INTO watch_logs (username, video_id, rewarded, created_at) VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (username, video_id) DO UPDATE SET rewarded = TRUE WHERE watch_logs.rewarded = FALSE`,
	kind:       "watch_reward",
	notePrefix: "Watched video: ",
	reasonTag:  "watch:",
}

var taskRewardSpec = rewardSpec{
	sourceQuery: `SELECT title, reward FROM tasks WHERE id = $1`,
	flipQuery: `INSERT INTO task_logs (username, task_id, completed, created_at) VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (username, task_id) DO UPDATE SET completed = TRUE WHERE task_logs.completed = FALSE`,
	kind:       "task_reward",
	notePrefix: "Completed task: ",
	reasonTag:  "task:",
}

func (s *Storage) claimSourceReward(ctx context.Context, username, sourceID string, at time.Time, spec rewardSpec) (float64, float64, error) {
	type claimResult struct {
		reward  float64
		balance float64
	}
	chanOk := make(chan claimResult, 1)
	chanEr := make(chan error, 1)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer tx.Rollback()
		var title string
		var reward float64
		err = tx.QueryRowContext(ctx, spec.sourceQuery, sourceID).Scan(&title, &reward)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				chanEr <- &storageErrors.NotFoundError{Err: err, ID: sourceID}
				return
			}
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		res, err := tx.ExecContext(ctx, spec.flipQuery, username, sourceID, at)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if n == 0 {
			chanEr <- &storageErrors.AlreadyRewardedError{Username: username, SourceID: sourceID}
			return
		}
		var balance float64
		err = tx.QueryRowContext(ctx,
			`UPDATE users SET total_balance = total_balance + $1 WHERE username = $2 RETURNING total_balance`,
			reward, username).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				chanEr <- &storageErrors.NotFoundError{Err: err, ID: username}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		err = insertLedgerEntry(ctx, tx, username, spec.kind, spec.notePrefix+title, spec.reasonTag+sourceID, reward, balance, at)
		if err != nil {
			chanEr <- err
			return
		}
		if err = tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- claimResult{reward: reward, balance: balance}
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("claiming %s failed for %s", spec.kind, username))
		return 0, 0, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("claiming %s failed for %s", spec.kind, username))
		return 0, 0, methodErr
	case result := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("claiming %s done for %s, source %s", spec.kind, username, sourceID))
		return result.reward, result.balance, nil
	}
}
