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

func (s *Storage) AddVideo(ctx context.Context, entry modelstorage.VideoStorageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO videos (id, title, url, redirect_url, reward, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Title, entry.URL, entry.RedirectURL, entry.Reward, entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &storageErrors.AlreadyExistsError{Err: err, ID: entry.ID}
		}
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	s.log.Info().Msg(fmt.Sprintf("new video stored, id %s", entry.ID))
	return nil
}

func (s *Storage) GetVideo(ctx context.Context, id string) (*modelstorage.VideoStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entry modelstorage.VideoStorageEntry
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, title, url, redirect_url, reward, created_at FROM videos WHERE id = $1`, id).Scan(
		&entry.ID, &entry.Title, &entry.URL, &entry.RedirectURL, &entry.Reward, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &storageErrors.NotFoundError{Err: err, ID: id}
		}
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return &entry, nil
}

func (s *Storage) GetVideos(ctx context.Context) ([]modelstorage.VideoStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, url, redirect_url, reward, created_at FROM videos ORDER BY created_at DESC`)
	if err != nil {
		return nil, &storageErrors.ExecutionPSQLError{Err: err}
	}
	defer rows.Close()
	var entries []modelstorage.VideoStorageEntry
	for rows.Next() {
		var entry modelstorage.VideoStorageEntry
		err = rows.Scan(&entry.ID, &entry.Title, &entry.URL, &entry.RedirectURL, &entry.Reward, &entry.CreatedAt)
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

func (s *Storage) DeleteVideo(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM videos WHERE id = $1`, id)
}

func (s *Storage) SweepVideos(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.sweepBefore(ctx, `DELETE FROM videos WHERE created_at < $1`, cutoff)
}

func (s *Storage) AddTask(ctx context.Context, entry modelstorage.TaskStorageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, redirect_url, reward, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Title, entry.Description, entry.RedirectURL, entry.Reward, entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &storageErrors.AlreadyExistsError{Err: err, ID: entry.ID}
		}
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	s.log.Info().Msg(fmt.Sprintf("new task stored, id %s", entry.ID))
	return nil
}

func (s *Storage) GetTask(ctx context.Context, id string) (*modelstorage.TaskStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entry modelstorage.TaskStorageEntry
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, title, description, redirect_url, reward, created_at FROM tasks WHERE id = $1`, id).Scan(
		&entry.ID, &entry.Title, &entry.Description, &entry.RedirectURL, &entry.Reward, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &storageErrors.NotFoundError{Err: err, ID: id}
		}
		return nil, &storageErrors.ScanningPSQLError{Err: err}
	}
	return &entry, nil
}

func (s *Storage) GetTasks(ctx context.Context) ([]modelstorage.TaskStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, description, redirect_url, reward, created_at FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, &storageErrors.ExecutionPSQLError{Err: err}
	}
	defer rows.Close()
	var entries []modelstorage.TaskStorageEntry
	for rows.Next() {
		var entry modelstorage.TaskStorageEntry
		err = rows.Scan(&entry.ID, &entry.Title, &entry.Description, &entry.RedirectURL, &entry.Reward, &entry.CreatedAt)
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

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM tasks WHERE id = $1`, id)
}

func (s *Storage) SweepTasks(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.sweepBefore(ctx, `DELETE FROM tasks WHERE created_at < $1`, cutoff)
}

func (s *Storage) deleteByID(ctx context.Context, query, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &storageErrors.ExecutionPSQLError{Err: err}
	}
	if n == 0 {
		return &storageErrors.NotFoundError{ID: id}
	}
	return nil
}

func (s *Storage) sweepBefore(ctx context.Context, query string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, &storageErrors.ExecutionPSQLError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &storageErrors.ExecutionPSQLError{Err: err}
	}
	return n, nil
}
