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

// AddNewUser consumes the access code, creates the user and records the
// signup bonus in the ledger as one transaction.
func (s *Storage) AddNewUser(ctx context.Context, user modelstorage.UserStorageEntry, code string, signupBonus float64) error {
	chanOk := make(chan bool, 1)
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
		err = consumeCodeGuard(ctx, tx, code, user.CreatedAt)
		if err != nil {
			chanEr <- err
			return
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (username, fullname, email, password, country, phone, total_balance, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			user.Username, user.Fullname, user.Email, user.Password, user.Country, user.Phone, signupBonus, user.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: user.Username}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if signupBonus != 0 {
			err = insertLedgerEntry(ctx, tx, user.Username, "signup_bonus", "Signup bonus", "signup", signupBonus, signupBonus, user.CreatedAt)
			if err != nil {
				chanEr <- err
				return
			}
		}
		if err = tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding new user failed for %s", user.Username))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding new user failed for %s", user.Username))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding new user done for %s", user.Username))
		return nil
	}
}

func (s *Storage) GetUser(ctx context.Context, username string) (*modelstorage.UserStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entry modelstorage.UserStorageEntry
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, fullname, email, password, country, phone, total_balance, affiliate_balance, bonus_balance, created_at
		 FROM users WHERE username = $1`, username).Scan(
		&entry.ID, &entry.Username, &entry.Fullname, &entry.Email, &entry.Password, &entry.Country,
		&entry.Phone, &entry.TotalBalance, &entry.AffiliateBalance, &entry.BonusBalance, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &storageErrors.NotFoundError{Err: err, ID: username}
		}
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return &entry, nil
}

// UpdateUser overwrites the passed non-empty profile fields.
func (s *Storage) UpdateUser(ctx context.Context, username string, fullname, email, country, phone, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET
			fullname = CASE WHEN $2 <> '' THEN $2 ELSE fullname END,
			email    = CASE WHEN $3 <> '' THEN $3 ELSE email END,
			country  = CASE WHEN $4 <> '' THEN $4 ELSE country END,
			phone    = CASE WHEN $5 <> '' THEN $5 ELSE phone END,
			password = CASE WHEN $6 <> '' THEN $6 ELSE password END
		 WHERE username = $1`,
		username, fullname, email, country, phone, password)
	if err != nil {
		if isUniqueViolation(err) {
			return &storageErrors.AlreadyExistsError{Err: err, ID: email}
		}
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	if n == 0 {
		return &storageErrors.NotFoundError{ID: username}
	}
	s.log.Info().Msg(fmt.Sprintf("profile update done for %s", username))
	return nil
}

// insertLedgerEntry appends one audit row, callers hold the surrounding transaction.
func insertLedgerEntry(ctx context.Context, q queryExecer, username, kind, note, reason string, amount, balanceAfter float64, at time.Time) error {
	direction := "credit"
	if amount < 0 {
		direction = "debit"
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO ledger (username, kind, amount, balance_after, direction, note, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		username, kind, amount, balanceAfter, direction, note, reason, at)
	if err != nil {
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	return nil
}
