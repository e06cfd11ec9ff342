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

// RecordEntry applies a signed balance delta and appends the matching audit
// row, all-or-nothing. Negative balances are the caller's concern.
func (s *Storage) RecordEntry(ctx context.Context, username, kind, note, reason string, delta float64, at time.Time) (float64, error) {
	// capacity 1 lets the goroutine complete its send and release the mutex
	// even when the caller has already left through ctx.Done
	chanOk := make(chan float64, 1)
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
		var balance float64
		err = tx.QueryRowContext(ctx,
			`UPDATE users SET total_balance = total_balance + $1 WHERE username = $2 RETURNING total_balance`,
			delta, username).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				chanEr <- &storageErrors.NotFoundError{Err: err, ID: username}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		err = insertLedgerEntry(ctx, tx, username, kind, note, reason, delta, balance, at)
		if err != nil {
			chanEr <- err
			return
		}
		if err = tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- balance
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("recording ledger entry failed for %s", username))
		return 0, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("recording ledger entry failed for %s", username))
		return 0, methodErr
	case balance := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("recording ledger entry done for %s, kind %s", username, kind))
		return balance, nil
	}
}

func (s *Storage) GetLedgerEntries(ctx context.Context, username string) ([]modelstorage.LedgerStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, username, kind, amount, balance_after, direction, note, reason, created_at
		 FROM ledger WHERE username = $1 ORDER BY created_at DESC, id DESC`, username)
	if err != nil {
		return nil, &storageErrors.ExecutionPSQLError{Err: err}
	}
	defer rows.Close()
	var entries []modelstorage.LedgerStorageEntry
	for rows.Next() {
		var entry modelstorage.LedgerStorageEntry
		err = rows.Scan(&entry.ID, &entry.Username, &entry.Kind, &entry.Amount, &entry.BalanceAfter,
			&entry.Direction, &entry.Note, &entry.Reason, &entry.CreatedAt)
		if err != nil {
			return nil, &storageErrors.ScanningPSQLError{Err: err}
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return entries, nil
}
