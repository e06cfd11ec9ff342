// Package cashout provides the withdrawal request and review workflow.
package cashout

import (
	"context"

	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
)

// Cashout defines a set of methods for types implementing Cashout.
type Cashout interface {
	RequestWithdrawal(ctx context.Context, username string, request modeldto.NewWithdrawal) (*modeldto.Withdrawal, error)
	ReviewWithdrawal(ctx context.Context, id, status string) (*modeldto.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (*modeldto.Withdrawal, error)
	GetWithdrawals(ctx context.Context, username string) ([]modeldto.Withdrawal, error)
	GetWithdrawalsByStatus(ctx context.Context, status string) ([]modeldto.Withdrawal, error)
}
