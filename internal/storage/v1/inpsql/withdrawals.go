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

// AddNewWithdrawal debits the balance and files the pending withdrawal in
// one transaction. The balance guard runs inside the conditional update so
// two concurrent requests can never both pass against a stale balance.
func (s *Storage) AddNewWithdrawal(ctx context.Context, entry modelstorage.WithdrawalStorageEntry) (float64, error) {
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
			`UPDATE users SET total_balance = total_balance - $1
			 WHERE username = $2 AND total_balance >= $1
			 RETURNING total_balance`,
			entry.Amount, entry.Username).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				var exists bool
				checkErr := tx.QueryRowContext(ctx,
					`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, entry.Username).Scan(&exists)
				if checkErr != nil {
					chanEr <- &storageErrors.ScanningPSQLError{Err: checkErr}
					return
				}
				if !exists {
					chanEr <- &storageErrors.NotFoundError{Err: err, ID: entry.Username}
					return
				}
				chanEr <- &storageErrors.NotEnoughFundsError{Username: entry.Username, Amount: entry.Amount}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO withdrawals (id, username, amount, bank_name, account_number, status, requested_at)
			 VALUES ($1, $2, $3, $4, $5, 'pending', $6)`,
			entry.ID, entry.Username, entry.Amount, entry.BankName, entry.AccountNumber, entry.RequestedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		err = insertLedgerEntry(ctx, tx, entry.Username, "withdraw_request",
			"User withdrawal requested", "withdraw:"+entry.ID, -entry.Amount, balance, entry.RequestedAt)
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
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding new withdrawal failed for %s", entry.Username))
		return 0, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding new withdrawal failed for %s", entry.Username))
		return 0, methodErr
	case balance := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding new withdrawal done for %s, amount %v", entry.Username, entry.Amount))
		return balance, nil
	}
}

// UpdateWithdrawalStatus moves a pending withdrawal to a terminal status and
// appends the zero-amount audit row. With refund set, a rejection credits the
// amount back inside the same transaction.
func (s *Storage) UpdateWithdrawalStatus(ctx context.Context, id, status string, refund bool, at time.Time) (*modelstorage.WithdrawalStorageEntry, error) {
	chanOk := make(chan *modelstorage.WithdrawalStorageEntry, 1)
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
		var entry modelstorage.WithdrawalStorageEntry
		err = tx.QueryRowContext(ctx,
			`UPDATE withdrawals SET status = $2 WHERE id = $1 AND status = 'pending'
			 RETURNING id, username, amount, bank_name, account_number, status, requested_at`,
			id, status).Scan(&entry.ID, &entry.Username, &entry.Amount, &entry.BankName,
			&entry.AccountNumber, &entry.Status, &entry.RequestedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				var current string
				checkErr := tx.QueryRowContext(ctx, `SELECT status FROM withdrawals WHERE id = $1`, id).Scan(&current)
				if checkErr != nil {
					if errors.Is(checkErr, sql.ErrNoRows) {
						chanEr <- &storageErrors.NotFoundError{Err: checkErr, ID: id}
						return
					}
					chanEr <- &storageErrors.ScanningPSQLError{Err: checkErr}
					return
				}
				chanEr <- &storageErrors.TerminalStatusError{ID: id, Status: current}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		var balance float64
		err = tx.QueryRowContext(ctx, `SELECT total_balance FROM users WHERE username = $1`, entry.Username).Scan(&balance)
		if err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		err = insertLedgerEntry(ctx, tx, entry.Username, "withdraw_"+status,
			fmt.Sprintf("Withdrawal %s", status), "withdraw:"+id, 0, balance, at)
		if err != nil {
			chanEr <- err
			return
		}
		if refund && status == "rejected" {
			err = tx.QueryRowContext(ctx,
				`UPDATE users SET total_balance = total_balance + $1 WHERE username = $2 RETURNING total_balance`,
				entry.Amount, entry.Username).Scan(&balance)
			if err != nil {
				chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
				return
			}
			err = insertLedgerEntry(ctx, tx, entry.Username, "withdraw_refund",
				"Withdrawal rejected, amount returned", "withdraw:"+id, entry.Amount, balance, at)
			if err != nil {
				chanEr <- err
				return
			}
		}
		if err = tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- &entry
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("updating withdrawal status failed for %s", id))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("updating withdrawal status failed for %s", id))
		return nil, methodErr
	case entry := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("updating withdrawal status done for %s, status %s", id, status))
		return entry, nil
	}
}

func (s *Storage) GetWithdrawal(ctx context.Context, id string) (*modelstorage.WithdrawalStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entry modelstorage.WithdrawalStorageEntry
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, amount, bank_name, account_number, status, requested_at
		 FROM withdrawals WHERE id = $1`, id).Scan(&entry.ID, &entry.Username, &entry.Amount,
		&entry.BankName, &entry.AccountNumber, &entry.Status, &entry.RequestedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &storageErrors.NotFoundError{Err: err, ID: id}
		}
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return &entry, nil
}

func (s *Storage) GetWithdrawals(ctx context.Context, username string) ([]modelstorage.WithdrawalStorageEntry, error) {
	return s.queryWithdrawals(ctx,
		`SELECT id, username, amount, bank_name, account_number, status, requested_at
		 FROM withdrawals WHERE username = $1 ORDER BY requested_at DESC`, username)
}

func (s *Storage) GetWithdrawalsByStatus(ctx context.Context, status string) ([]modelstorage.WithdrawalStorageEntry, error) {
	if status == "" {
		return s.queryWithdrawals(ctx,
			`SELECT id, username, amount, bank_name, account_number, status, requested_at
			 FROM withdrawals ORDER BY requested_at DESC`)
	}
	return s.queryWithdrawals(ctx,
		`SELECT id, username, amount, bank_name, account_number, status, requested_at
		 FROM withdrawals WHERE status = $1 ORDER BY requested_at DESC`, status)
}

func (s *Storage) queryWithdrawals(ctx context.Context, query string, args ...interface{}) ([]modelstorage.WithdrawalStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &storageErrors.ExecutionPSQLError{Err: err}
	}
	defer rows.Close()
	var entries []modelstorage.WithdrawalStorageEntry
	for rows.Next() {
		var entry modelstorage.WithdrawalStorageEntry
		err = rows.Scan(&entry.ID, &entry.Username, &entry.Amount, &entry.BankName,
			&entry.AccountNumber, &entry.Status, &entry.RequestedAt)
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
