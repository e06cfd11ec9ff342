// Package sweeper provides periodic cleanup of expired codes and stale catalog entries.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/service/catalog/v1"
	"github.com/nexaplatform/nexa-rewards/internal/service/registry/v1"
)

// Sweeper defines attributes of a struct available to its methods.
type Sweeper struct {
	ctx      context.Context
	registry registry.Registry
	catalog  catalog.Catalog
	interval time.Duration
	log      *zerolog.Logger
	wg       *sync.WaitGroup
}

// InitSweeper initializes a background sweeper.
func InitSweeper(ctx context.Context, reg registry.Registry, cat catalog.Catalog, sweepConfig *config.SweepConfig, log *zerolog.Logger, wg *sync.WaitGroup) *Sweeper {
	sweeper := Sweeper{
		ctx:      ctx,
		registry: reg,
		catalog:  cat,
		interval: sweepConfig.SweepInterval,
		log:      log,
		wg:       wg,
	}
	return &sweeper
}

// ListenAndSweep runs cleanup on every tick until the context is cancelled.
func (s *Sweeper) ListenAndSweep() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info().Msg(fmt.Sprintf("started sweeping every %s", s.interval))
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				s.log.Info().Msg("stopped sweeping")
				return
			case <-ticker.C:
				s.sweepOnce()
			}
		}
	}()
}

// sweepOnce runs the code and catalog sweeps concurrently, one failing sweep
// does not block the other.
func (s *Sweeper) sweepOnce() {
	g, ctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		swept, err := s.registry.SweepCodes(ctx)
		if err != nil {
			return err
		}
		if swept > 0 {
			s.log.Info().Msg(fmt.Sprintf("swept %d expired or used access codes", swept))
		}
		return nil
	})
	g.Go(func() error {
		swept, err := s.catalog.SweepCatalog(ctx)
		if err != nil {
			return err
		}
		if swept > 0 {
			s.log.Info().Msg(fmt.Sprintf("swept %d stale catalog entries", swept))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("sweep cycle failed")
	}
}
