// Package service holds the claims business logic: claim creation, the damage
// lifecycle and its audit timeline.
package service

import (
	"context"
	"time"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/claims/repository"
	"claim_intake_backend/internal/claims/transport"
	"claim_intake_backend/internal/events"
	"claim_intake_backend/internal/metrics/calculator"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"
	"claim_intake_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const recordStore = "record_store"

// Service provides business logic for claims and damages.
type Service struct {
	repo     repository.Repository
	eventBus events.Bus
	log      *logger.Logger
	reviews  ReviewEnqueuer
	now      func() time.Time
}

// New creates a new claims service.
func New(repo repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// SetClock replaces the clock used to stamp history events.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// storeErr passes typed errors through and reports anything else as a
// retryable collaborator failure.
func (s *Service) storeErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	s.log.WithContext(ctx).CollaboratorFailure(recordStore, op, err)
	return apperr.Unavailable("record store unavailable", err).WithOp(op)
}

// publish delivers a change event before the write returns, so derived views
// such as the metrics snapshot never outlive the data they were computed from.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.WithContext(ctx).Warn("event handler failed", "event", event.EventName(), "error", err)
	}
}

// =============================================================================
// Users & policies
// =============================================================================

// ListUsers returns every policy holder.
func (s *Service) ListUsers(ctx context.Context) ([]transport.UserResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, s.storeErr(ctx, "list users", err)
	}
	out := make([]transport.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out, nil
}

// ListPoliciesForUser returns the policies a user holds.
func (s *Service) ListPoliciesForUser(ctx context.Context, userID uuid.UUID) ([]transport.PolicyResponse, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, s.storeErr(ctx, "get user", err)
	}
	policies, err := s.repo.ListPoliciesByUser(ctx, userID)
	if err != nil {
		return nil, s.storeErr(ctx, "list policies", err)
	}
	out := make([]transport.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	return out, nil
}

// PolicyBelongsTo reports whether policyID is held by userID.
func (s *Service) PolicyBelongsTo(ctx context.Context, userID, policyID uuid.UUID) (bool, error) {
	policy, err := s.repo.GetPolicy(ctx, policyID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, s.storeErr(ctx, "get policy", err)
	}
	return policy.UserID == userID, nil
}

// =============================================================================
// Claims
// =============================================================================

// CreateClaim writes a claim after checking the policy belongs to the user.
func (s *Service) CreateClaim(ctx context.Context, req transport.CreateClaimRequest) (transport.ClaimResponse, error) {
	location := sanitize.Text(req.Location)
	description := sanitize.Text(req.Description)
	if location == "" || description == "" {
		return transport.ClaimResponse{}, apperr.Validation("location and description are required")
	}

	if _, err := s.repo.GetUser(ctx, req.UserID); err != nil {
		return transport.ClaimResponse{}, s.storeErr(ctx, "get user", err)
	}
	owns, err := s.PolicyBelongsTo(ctx, req.UserID, req.PolicyID)
	if err != nil {
		return transport.ClaimResponse{}, err
	}
	if !owns {
		return transport.ClaimResponse{}, apperr.Validation("policy does not belong to the selected user")
	}

	claim, err := s.repo.CreateClaim(ctx, repository.CreateClaimParams{
		UserID:      req.UserID,
		PolicyID:    req.PolicyID,
		Location:    location,
		Description: description,
	})
	if err != nil {
		return transport.ClaimResponse{}, s.storeErr(ctx, "create claim", err)
	}

	s.publish(ctx, events.ClaimCreated{
		BaseEvent: events.NewBaseEvent(),
		ClaimID:   claim.ID,
		UserID:    claim.UserID,
		PolicyID:  claim.PolicyID,
	})

	s.log.WithContext(ctx).Info("claim created", "id", claim.ID, "policyId", claim.PolicyID)
	return toClaimResponse(claim), nil
}

// GetClaim returns a single claim.
func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (transport.ClaimResponse, error) {
	claim, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return transport.ClaimResponse{}, s.storeErr(ctx, "get claim", err)
	}
	return toClaimResponse(claim), nil
}

// ListClaims returns claims newest first, each with its parties, damages and
// per-claim figures.
func (s *Service) ListClaims(ctx context.Context) ([]transport.ClaimOverview, error) {
	var (
		claims   []domain.Claim
		damages  []domain.Damage
		users    []domain.User
		policies []domain.Policy
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		claims, err = s.repo.ListClaims(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		damages, err = s.repo.ListDamages(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.repo.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		policies, err = s.repo.ListPolicies(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeErr(ctx, "list claims", err)
	}

	usersByID := make(map[uuid.UUID]domain.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	policiesByID := make(map[uuid.UUID]domain.Policy, len(policies))
	for _, p := range policies {
		policiesByID[p.ID] = p
	}
	damagesByClaim := make(map[uuid.UUID][]domain.Damage)
	for _, d := range damages {
		damagesByClaim[d.ClaimID] = append(damagesByClaim[d.ClaimID], d)
	}

	out := make([]transport.ClaimOverview, 0, len(claims))
	for _, c := range claims {
		own := damagesByClaim[c.ID]
		figures := calculator.ForClaim(c.ID, own)
		row := transport.ClaimOverview{
			ClaimResponse:      toClaimResponse(c),
			Damages:            make([]transport.DamageResponse, 0, len(own)),
			TotalAmountInCents: figures.TotalAmountInCents,
			ApprovalRate:       figures.ApprovalRate,
		}
		if u, ok := usersByID[c.UserID]; ok {
			resp := toUserResponse(u)
			row.User = &resp
		}
		if p, ok := policiesByID[c.PolicyID]; ok {
			resp := toPolicyResponse(p)
			row.Policy = &resp
		}
		for _, d := range own {
			row.Damages = append(row.Damages, ToDamageResponse(d))
		}
		out = append(out, row)
	}
	return out, nil
}
