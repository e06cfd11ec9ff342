package storage

import (
	"context"
	"time"

	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
)

type Register interface {
	AddNewUser(ctx context.Context, user modelstorage.UserStorageEntry, code string, signupBonus float64) error
	GetUser(ctx context.Context, username string) (*modelstorage.UserStorageEntry, error)
	UpdateUser(ctx context.Context, username string, fullname, email, country, phone, password string) error
}

type CodeVault interface {
	AddNewCode(ctx context.Context, entry modelstorage.AccessCodeStorageEntry) error
	GetCode(ctx context.Context, code string) (*modelstorage.AccessCodeStorageEntry, error)
	ConsumeCode(ctx context.Context, code string, now time.Time) error
	ListCodes(ctx context.Context) ([]modelstorage.AccessCodeStorageEntry, error)
	SweepCodes(ctx context.Context, now time.Time) (int64, error)
}

type Ledger interface {
	RecordEntry(ctx context.Context, username, kind, note, reason string, delta float64, at time.Time) (float64, error)
	GetLedgerEntries(ctx context.Context, username string) ([]modelstorage.LedgerStorageEntry, error)
}

type RewardVault interface {
	CreditReferral(ctx context.Context, referrer, newUser string, bonus float64, at time.Time) (*modelstorage.UserStorageEntry, error)
	ClaimWatchReward(ctx context.Context, username, videoID string, at time.Time) (float64, float64, error)
	CompleteTask(ctx context.Context, username, taskID string, at time.Time) (float64, float64, error)
}

type WithdrawalVault interface {
	AddNewWithdrawal(ctx context.Context, entry modelstorage.WithdrawalStorageEntry) (float64, error)
	UpdateWithdrawalStatus(ctx context.Context, id, status string, refund bool, at time.Time) (*modelstorage.WithdrawalStorageEntry, error)
	GetWithdrawal(ctx context.Context, id string) (*modelstorage.WithdrawalStorageEntry, error)
	GetWithdrawals(ctx context.Context, username string) ([]modelstorage.WithdrawalStorageEntry, error)
	GetWithdrawalsByStatus(ctx context.Context, status string) ([]modelstorage.WithdrawalStorageEntry, error)
}

type Catalog interface {
	AddVideo(ctx context.Context, entry modelstorage.VideoStorageEntry) error
	GetVideo(ctx context.Context, id string) (*modelstorage.VideoStorageEntry, error)
	GetVideos(ctx context.Context) ([]modelstorage.VideoStorageEntry, error)
	DeleteVideo(ctx context.Context, id string) error
	SweepVideos(ctx context.Context, cutoff time.Time) (int64, error)
	AddTask(ctx context.Context, entry modelstorage.TaskStorageEntry) error
	GetTask(ctx context.Context, id string) (*modelstorage.TaskStorageEntry, error)
	GetTasks(ctx context.Context) ([]modelstorage.TaskStorageEntry, error)
	DeleteTask(ctx context.Context, id string) error
	SweepTasks(ctx context.Context, cutoff time.Time) (int64, error)
}

type Storage interface {
	Register
	CodeVault
	Ledger
	RewardVault
	WithdrawalVault
	Catalog
}
