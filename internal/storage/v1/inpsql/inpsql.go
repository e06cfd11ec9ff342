// Package inpsql implements the Storage interface on top of PostgreSQL.
package inpsql

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"

	"github.com/nexaplatform/nexa-rewards/internal/config"
)

type Storage struct {
	mu  sync.Mutex
	Cfg *config.StorageConfig
	DB  *sql.DB
	log *zerolog.Logger
}

// queryExecer is satisfied by both *sql.DB and *sql.Tx.
type queryExecer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (*Storage, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	st := Storage{
		Cfg: cfg,
		DB:  db,
		log: log,
	}
	err = st.createTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	log.Info().Msg("PSQL DB connection was established")
	return &st, nil
}

func isUniqueViolation(err error) bool {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

func (s *Storage) createTables(ctx context.Context) error {
	var queries []string
	query := `CREATE TABLE IF NOT EXISTS users (
		id                BIGSERIAL        NOT NULL,
		username          TEXT             NOT NULL UNIQUE,
		fullname          TEXT             NOT NULL,
		email             TEXT             NOT NULL UNIQUE,
		password          TEXT             NOT NULL,
		country           TEXT             NOT NULL DEFAULT '',
		phone             TEXT             NOT NULL DEFAULT '',
		total_balance     DOUBLE PRECISION NOT NULL DEFAULT 0,
		affiliate_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		bonus_balance     DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ      NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS access_codes (
		id         BIGSERIAL   NOT NULL,
		code       TEXT        NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		used       BOOLEAN     NOT NULL DEFAULT FALSE
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS ledger (
		id            BIGSERIAL        NOT NULL,
		username      TEXT             NOT NULL,
		kind          TEXT             NOT NULL,
		amount        DOUBLE PRECISION NOT NULL,
		balance_after DOUBLE PRECISION NOT NULL,
		direction     TEXT             NOT NULL,
		note          TEXT             NOT NULL DEFAULT '',
		reason        TEXT             NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ      NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS withdrawals (
		id             TEXT             NOT NULL UNIQUE,
		username       TEXT             NOT NULL,
		amount         DOUBLE PRECISION NOT NULL,
		bank_name      TEXT             NOT NULL,
		account_number TEXT             NOT NULL,
		status         TEXT             NOT NULL DEFAULT 'pending',
		requested_at   TIMESTAMPTZ      NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS videos (
		id           TEXT             NOT NULL UNIQUE,
		title        TEXT             NOT NULL,
		url          TEXT             NOT NULL DEFAULT '',
		redirect_url TEXT             NOT NULL DEFAULT '',
		reward       DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ      NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT             NOT NULL UNIQUE,
		title        TEXT             NOT NULL,
		description  TEXT             NOT NULL DEFAULT '',
		redirect_url TEXT             NOT NULL DEFAULT '',
		reward       DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ      NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS watch_logs (
		id         BIGSERIAL   NOT NULL,
		username   TEXT        NOT NULL,
		video_id   TEXT        NOT NULL,
		rewarded   BOOLEAN     NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (username, video_id)
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS task_logs (
		id         BIGSERIAL   NOT NULL,
		username   TEXT        NOT NULL,
		task_id    TEXT        NOT NULL,
		completed  BOOLEAN     NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (username, task_id)
	);`
	queries = append(queries, query)
	for _, subquery := range queries {
		_, err := s.DB.ExecContext(ctx, subquery)
		if err != nil {
			return err
		}
	}
	return nil
}
