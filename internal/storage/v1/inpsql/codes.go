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

func (s *Storage) AddNewCode(ctx context.Context, entry modelstorage.AccessCodeStorageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO access_codes (code, created_at, expires_at) VALUES ($1, $2, $3)`,
		entry.Code, entry.CreatedAt, entry.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &storageErrors.AlreadyExistsError{Err: err, ID: entry.Code}
		}
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	s.log.Info().Msg(fmt.Sprintf("new access code stored, expires at %s", entry.ExpiresAt.Format(time.RFC3339)))
	return nil
}

func (s *Storage) GetCode(ctx context.Context, code string) (*modelstorage.AccessCodeStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entry modelstorage.AccessCodeStorageEntry
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, code, created_at, expires_at, used FROM access_codes WHERE code = $1`, code).Scan(
		&entry.ID, &entry.Code, &entry.CreatedAt, &entry.ExpiresAt, &entry.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &storageErrors.NotFoundError{Err: err, ID: code}
		}
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return &entry, nil
}

// ConsumeCode flips the used flag, the guard condition makes double
// consumption impossible under concurrent signups.
func (s *Storage) ConsumeCode(ctx context.Context, code string, now time.Time) error {
	chanOk := make(chan bool, 1)
	chanEr := make(chan error, 1)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		err := consumeCodeGuard(ctx, s.DB, code, now)
		if err != nil {
			chanEr <- err
			return
		}
		chanOk <- true
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("consuming access code failed for %s", code))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("consuming access code failed for %s", code))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("consuming access code done for %s", code))
		return nil
	}
}

func (s *Storage) ListCodes(ctx context.Context) ([]modelstorage.AccessCodeStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, code, created_at, expires_at, used FROM access_codes ORDER BY id DESC`)
	if err != nil {
		return nil, &storageErrors.ExecutionPSQLError{Err: err}
	}
	defer rows.Close()
	var entries []modelstorage.AccessCodeStorageEntry
	for rows.Next() {
		var entry modelstorage.AccessCodeStorageEntry
		err = rows.Scan(&entry.ID, &entry.Code, &entry.CreatedAt, &entry.ExpiresAt, &entry.Used)
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

func (s *Storage) SweepCodes(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM access_codes WHERE expires_at < $1 OR used = TRUE`, now)
	if err != nil {
		return 0, &storageErrors.ExecutionPSQLError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &storageErrors.ExecutionPSQLError{Err: err}
	}
	return n, nil
}

// consumeCodeGuard performs the conditional used flip and reports why it
// did not apply. Callers pass either the DB handle or an open transaction.
func consumeCodeGuard(ctx context.Context, q queryExecer, code string, now time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE access_codes SET used = TRUE WHERE code = $1 AND used = FALSE AND expires_at > $2`, code, now)
	if err != nil {
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	if n != 0 {
		return nil
	}
	var used bool
	var expiresAt time.Time
	err = q.QueryRowContext(ctx, `SELECT used, expires_at FROM access_codes WHERE code = $1`, code).Scan(&used, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &storageErrors.NotFoundError{Err: err, ID: code}
		}
		return &storageErrors.ScanningPSQLError{Err: err}
	}
	// an expired code reports expired even when it was also used
	if !expiresAt.After(now) {
		return &storageErrors.CodeExpiredError{Code: code}
	}
	return &storageErrors.CodeAlreadyUsedError{Code: code}
}
