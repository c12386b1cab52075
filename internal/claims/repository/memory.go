package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// Memory is a process-local Repository. Tests use it in place of PostgreSQL.
type Memory struct {
	mu       sync.Mutex
	now      func() time.Time
	users    []domain.User
	policies []domain.Policy
	claims   []domain.Claim
	damages  []domain.Damage
	history  []domain.HistoryEvent
	seq      int64

	// FailHistory makes AppendHistory fail when set.
	FailHistory error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

var _ Repository = (*Memory)(nil)

// SetClock replaces the clock used for created_at and updated_at.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AddUser seeds a policy holder.
func (m *Memory) AddUser(u domain.User) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users = append(m.users, u)
	return u
}

// AddPolicy seeds a policy.
func (m *Memory) AddPolicy(p domain.Policy) domain.Policy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.policies = append(m.policies, p)
	return p
}

func (m *Memory) ListUsers(context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.users)
	slices.SortFunc(out, func(a, b domain.User) int {
		if a.LastName != b.LastName {
			if a.LastName < b.LastName {
				return -1
			}
			return 1
		}
		if a.FirstName < b.FirstName {
			return -1
		}
		if a.FirstName > b.FirstName {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, apperr.NotFound(userNotFoundMessage)
}

func (m *Memory) ListPolicies(context.Context) ([]domain.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.policies), nil
}

func (m *Memory) ListPoliciesByUser(_ context.Context, userID uuid.UUID) ([]domain.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Policy, 0)
	for _, p := range m.policies {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) GetPolicy(_ context.Context, id uuid.UUID) (domain.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Policy{}, apperr.NotFound(policyNotFoundMessage)
}

func (m *Memory) CreateClaim(_ context.Context, params CreateClaimParams) (domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Claim{
		ID:          uuid.New(),
		UserID:      params.UserID,
		PolicyID:    params.PolicyID,
		Location:    params.Location,
		Description: params.Description,
		CreatedAt:   m.now(),
	}
	m.claims = append(m.claims, c)
	return c, nil
}

func (m *Memory) GetClaim(_ context.Context, id uuid.UUID) (domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Claim{}, apperr.NotFound(claimNotFoundMessage)
}

func (m *Memory) ListClaims(context.Context) ([]domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.claims)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b domain.Claim) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *Memory) CreateDamage(_ context.Context, params CreateDamageParams) (domain.Damage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	d := domain.Damage{
		ID:        uuid.New(),
		ClaimID:   params.ClaimID,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyFields(&d, params.DamageFields)
	m.damages = append(m.damages, d)
	return d, nil
}

func (m *Memory) ResubmitDamage(_ context.Context, params ResubmitDamageParams) (domain.Damage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.damageIndex(params.ID)
	if i < 0 || m.damages[i].Status != domain.StatusRefused {
		return domain.Damage{}, apperr.Conflict("only refused damages can be resubmitted")
	}
	applyFields(&m.damages[i], params.DamageFields)
	m.damages[i].Status = domain.StatusResubmitted
	m.damages[i].UpdatedAt = m.now()
	return m.damages[i], nil
}

func (m *Memory) SetDamageStatus(_ context.Context, id uuid.UUID, from, to domain.Status) (domain.Damage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.damageIndex(id)
	if i < 0 || m.damages[i].Status != from {
		return domain.Damage{}, apperr.Conflict("damage status changed concurrently")
	}
	m.damages[i].Status = to
	m.damages[i].UpdatedAt = m.now()
	return m.damages[i], nil
}

func (m *Memory) GetDamage(_ context.Context, id uuid.UUID) (domain.Damage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.damageIndex(id)
	if i < 0 {
		return domain.Damage{}, apperr.NotFound(damageNotFoundMessage)
	}
	return m.damages[i], nil
}

func (m *Memory) ListDamages(context.Context) ([]domain.Damage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.damages), nil
}

func (m *Memory) ListDamagesByClaim(_ context.Context, claimID uuid.UUID) ([]domain.Damage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Damage, 0)
	for _, d := range m.damages {
		if d.ClaimID == claimID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) AppendHistory(_ context.Context, event domain.HistoryEvent) (domain.HistoryEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailHistory != nil {
		return domain.HistoryEvent{}, m.FailHistory
	}
	m.seq++
	event.ID = uuid.New()
	event.Seq = m.seq
	m.history = append(m.history, event)
	return event, nil
}

// ListHistory returns events in insertion order; callers sort by time.
func (m *Memory) ListHistory(_ context.Context, damageID uuid.UUID) ([]domain.HistoryEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryEvent, 0)
	for _, ev := range m.history {
		if ev.DamageID == damageID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) damageIndex(id uuid.UUID) int {
	return slices.IndexFunc(m.damages, func(d domain.Damage) bool { return d.ID == id })
}

func applyFields(d *domain.Damage, f DamageFields) {
	d.VehiclePart = f.VehiclePart
	d.Description = f.Description
	d.Photos = slices.Clone(f.Photos)
	d.EstimatedAmountCents = f.EstimatedAmountCents
	d.OverrideAmountCents = f.OverrideAmountCents
	d.OverrideComment = f.OverrideComment
	d.Sources = slices.Clone(f.Sources)
}
