// Package registry provides access code issue, validation, consumption and cleanup.
package registry

import (
	"context"

	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
)

// Registry defines a set of methods for types implementing Registry.
type Registry interface {
	IssueCode(ctx context.Context, length int) (*modeldto.AccessCode, error)
	ValidateCode(ctx context.Context, code string) (*modeldto.CodeValidation, error)
	ConsumeCode(ctx context.Context, code string) error
	ListCodes(ctx context.Context) ([]modeldto.AccessCode, error)
	SweepCodes(ctx context.Context) (int64, error)
}
