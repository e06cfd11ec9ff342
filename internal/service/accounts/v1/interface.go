// Package accounts provides signup, login, wallet and profile operations.
package accounts

import (
	"context"

	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
)

// Accounts defines a set of methods for types implementing Accounts.
type Accounts interface {
	SignUp(ctx context.Context, request modeldto.SignupRequest) (string, error)
	LoginUser(ctx context.Context, request modeldto.LoginRequest) (string, error)
	GetWallet(ctx context.Context, username string) (*modeldto.Wallet, error)
	GetProfile(ctx context.Context, username string) (*modeldto.Profile, error)
	UpdateProfile(ctx context.Context, username string, update modeldto.ProfileUpdate) (*modeldto.Profile, error)
	GetTransactions(ctx context.Context, username string) ([]modeldto.Transaction, error)
	GetWalletLogs(ctx context.Context, username string) ([]modeldto.WalletLogRecord, error)
}
