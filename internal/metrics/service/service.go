// Package service serves the portfolio metrics, recomputed from the record
// store whenever the cached snapshot is missing.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/events"
	"claim_intake_backend/internal/metrics/cache"
	"claim_intake_backend/internal/metrics/calculator"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"
)

const recordStore = "record_store"

// Reader is the record store as seen by the metrics.
type Reader interface {
	ListClaims(ctx context.Context) ([]domain.Claim, error)
	ListDamages(ctx context.Context) ([]domain.Damage, error)
	GetClaim(ctx context.Context, id uuid.UUID) (domain.Claim, error)
	ListDamagesByClaim(ctx context.Context, claimID uuid.UUID) ([]domain.Damage, error)
}

// SnapshotCache stores the latest portfolio figures.
type SnapshotCache interface {
	Get(ctx context.Context) (calculator.Portfolio, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, gen int64, p calculator.Portfolio) error
	Invalidate(ctx context.Context) error
}

// invalidatingEvents change the claim or damage set.
var invalidatingEvents = []string{
	events.ClaimCreated{}.EventName(),
	events.DamageCreated{}.EventName(),
	events.DamageResubmitted{}.EventName(),
	events.DamageReviewed{}.EventName(),
}

// Service provides the metrics business logic.
type Service struct {
	reader Reader
	cache  SnapshotCache
	log    *logger.Logger
}

// New creates a metrics service. cache may be nil.
func New(reader Reader, cache SnapshotCache, log *logger.Logger) *Service {
	return &Service{reader: reader, cache: cache, log: log}
}

// Subscribe drops the cached snapshot on every write to claims or damages.
func (s *Service) Subscribe(bus events.Bus) {
	handler := events.HandlerFunc(func(ctx context.Context, _ events.Event) error {
		return s.Invalidate(ctx)
	})
	for _, name := range invalidatingEvents {
		bus.Subscribe(name, handler)
	}
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

// Portfolio returns the portfolio figures. A cache failure falls back to a
// full recompute.
func (s *Service) Portfolio(ctx context.Context) (calculator.Portfolio, error) {
	cacheable := false
	var gen int64
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.WithContext(ctx).Warn("metrics cache read failed", "error", err)
		} else if ok {
			return p, nil
		}
		// The generation is read before loading so a write landing mid-load
		// keeps this snapshot out of the cache.
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.WithContext(ctx).Warn("metrics cache generation read failed", "error", err)
		} else {
			cacheable = true
		}
	}

	var (
		claims  []domain.Claim
		damages []domain.Damage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		claims, err = s.reader.ListClaims(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		damages, err = s.reader.ListDamages(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return calculator.Portfolio{}, s.storeErr(ctx, "load metrics", err)
	}

	p := calculator.Compute(claims, damages)
	if cacheable {
		switch err := s.cache.Set(ctx, gen, p); {
		case errors.Is(err, cache.ErrStale):
			s.log.WithContext(ctx).Debug("metrics snapshot superseded by a write", "generation", gen)
		case err != nil:
			s.log.WithContext(ctx).Warn("metrics cache write failed", "error", err)
		}
	}
	return p, nil
}

// ForClaim returns the figures of one claim.
func (s *Service) ForClaim(ctx context.Context, claimID uuid.UUID) (calculator.ClaimFigures, error) {
	if _, err := s.reader.GetClaim(ctx, claimID); err != nil {
		return calculator.ClaimFigures{}, s.storeErr(ctx, "get claim", err)
	}
	damages, err := s.reader.ListDamagesByClaim(ctx, claimID)
	if err != nil {
		return calculator.ClaimFigures{}, s.storeErr(ctx, "list claim damages", err)
	}
	return calculator.ForClaim(claimID, damages), nil
}

func (s *Service) storeErr(ctx context.Context, op string, err error) error {
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	s.log.WithContext(ctx).CollaboratorFailure(recordStore, op, err)
	return apperr.Unavailable("record store unavailable", err).WithOp(op)
}
