// Package registry provides access code issue, validation, consumption and cleanup.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	"github.com/nexaplatform/nexa-rewards/internal/service/idgen/v1"
	serviceErrors "github.com/nexaplatform/nexa-rewards/internal/service/registry/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

// Registry defines attributes of a struct available to its methods.
type Registry struct {
	storage      storage.CodeVault
	generator    idgen.Generator
	rewardConfig *config.RewardConfig
	now          func() time.Time
}

// InitService initializes an access code registry.
func InitService(st storage.CodeVault, gen idgen.Generator, rewardConfig *config.RewardConfig) (*Registry, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if gen == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil generator was passed to service initializer"}
	}
	registry := &Registry{
		storage:      st,
		generator:    gen,
		rewardConfig: rewardConfig,
		now:          time.Now,
	}
	return registry, nil
}

// SetClock overrides the time source, used by deterministic tests.
func (reg *Registry) SetClock(now func() time.Time) {
	reg.now = now
}

// IssueCode generates and persists a new single-use access code.
func (reg *Registry) IssueCode(ctx context.Context, length int) (*modeldto.AccessCode, error) {
	code := reg.generator.NewCode(length)
	issuedAt := reg.now()
	expiresAt := issuedAt.Add(reg.rewardConfig.CodeTTL)
	err := reg.storage.AddNewCode(ctx, modelstorage.AccessCodeStorageEntry{
		Code:      code,
		CreatedAt: issuedAt,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}
	return &modeldto.AccessCode{Code: code, ExpiresAt: expiresAt.Format(time.RFC3339)}, nil
}

// ValidateCode checks a code without consuming it, clients may pre-check
// before committing to signup.
func (reg *Registry) ValidateCode(ctx context.Context, code string) (*modeldto.CodeValidation, error) {
	entry, err := reg.storage.GetCode(ctx, code)
	if err != nil {
		var notFoundError *storageErrors.NotFoundError
		if errors.As(err, &notFoundError) {
			return &modeldto.CodeValidation{Valid: false, Reason: "not_found"}, nil
		}
		return nil, err
	}
	// an expired code reports expired even when it was also used
	if !entry.ExpiresAt.After(reg.now()) {
		return &modeldto.CodeValidation{Valid: false, Reason: "expired"}, nil
	}
	if entry.Used {
		return &modeldto.CodeValidation{Valid: false, Reason: "already_used"}, nil
	}
	return &modeldto.CodeValidation{Valid: true}, nil
}

// ConsumeCode marks a code used, exactly once.
func (reg *Registry) ConsumeCode(ctx context.Context, code string) error {
	return reg.storage.ConsumeCode(ctx, code, reg.now())
}

// ListCodes returns every stored code for the admin panel.
func (reg *Registry) ListCodes(ctx context.Context) ([]modeldto.AccessCode, error) {
	entries, err := reg.storage.ListCodes(ctx)
	if err != nil {
		return nil, err
	}
	var codes []modeldto.AccessCode
	for _, entry := range entries {
		codes = append(codes, modeldto.AccessCode{
			Code:      entry.Code,
			ExpiresAt: entry.ExpiresAt.Format(time.RFC3339),
			Used:      entry.Used,
		})
	}
	return codes, nil
}

// SweepCodes deletes expired or used codes.
func (reg *Registry) SweepCodes(ctx context.Context) (int64, error) {
	return reg.storage.SweepCodes(ctx, reg.now())
}
