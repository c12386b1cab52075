package session

import (
	"context"
	"errors"
	"time"

	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/internal/intake/loop"
	"claim_intake_backend/internal/intake/rules"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	idleKeyPrefix   = "idle:"
	forgetKeyPrefix = "forget:"
	photoStore      = "object_store"
	recordStore     = "record_store"
)

// Default workflow timings.
const (
	DefaultClaimQuietPeriod      = 500 * time.Millisecond
	DefaultClaimEvaluationDelay  = 3 * time.Second
	DefaultDamageEvaluationDelay = 2500 * time.Millisecond
)

// Config holds the workflow timings. Zero durations take the defaults; a
// zero IdleTTL disables idle expiry.
type Config struct {
	ClaimQuietPeriod      time.Duration
	ClaimEvaluationDelay  time.Duration
	DamageEvaluationDelay time.Duration
	IdleTTL               time.Duration
}

// Manager owns every open form session. All session state is touched only
// on the manager's loop.
type Manager struct {
	cfg       Config
	loop      *loop.Loop
	timers    *loop.Timers
	rules     *rules.Rules
	estimator evaluation.Estimator
	records   Records
	photos    PhotoStore
	log       *logger.Logger
	ctx       context.Context

	claims  map[uuid.UUID]*claimSession
	damages map[uuid.UUID]*damageSession
	closed  map[uuid.UUID]struct{}
}

// NewManager starts the session loop. ctx bounds background work such as
// engine calls; it is not cancelled by closing a session.
func NewManager(ctx context.Context, cfg Config, r *rules.Rules, estimator evaluation.Estimator, records Records, photos PhotoStore, log *logger.Logger) *Manager {
	if cfg.ClaimQuietPeriod <= 0 {
		cfg.ClaimQuietPeriod = DefaultClaimQuietPeriod
	}
	if cfg.ClaimEvaluationDelay <= 0 {
		cfg.ClaimEvaluationDelay = DefaultClaimEvaluationDelay
	}
	if cfg.DamageEvaluationDelay <= 0 {
		cfg.DamageEvaluationDelay = DefaultDamageEvaluationDelay
	}

	l := loop.New(log)
	return &Manager{
		cfg:       cfg,
		loop:      l,
		timers:    loop.NewTimers(l),
		rules:     r,
		estimator: estimator,
		records:   records,
		photos:    photos,
		log:       log,
		ctx:       context.WithoutCancel(ctx),
		claims:    make(map[uuid.UUID]*claimSession),
		damages:   make(map[uuid.UUID]*damageSession),
		closed:    make(map[uuid.UUID]struct{}),
	}
}

// Shutdown closes every session and stops the loop.
func (m *Manager) Shutdown() {
	_ = m.loop.Do(context.Background(), func() {
		for id, s := range m.claims {
			s.close()
			delete(m.claims, id)
		}
		for id, s := range m.damages {
			s.close()
			delete(m.damages, id)
		}
		m.timers.Stop()
	})
	m.loop.Stop()
}

// do runs fn on the loop and maps loop failures to typed errors.
func (m *Manager) do(ctx context.Context, fn func()) error {
	err := m.loop.Do(ctx, fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, loop.ErrStopped):
		return apperr.Unavailable("intake is shutting down", err)
	default:
		return err
	}
}

// reserve runs mark on the loop to gate a submission. mark reports whether it
// flagged the session as submitting. When the caller gives up before the loop
// answers, release runs after mark so the session does not stay flagged.
func (m *Manager) reserve(ctx context.Context, mark func() bool, release func()) error {
	marked := false
	var cancelled error
	err := m.do(ctx, func() {
		if cancelled = ctx.Err(); cancelled != nil {
			return
		}
		marked = mark()
	})
	if err != nil {
		m.loop.Post(func() {
			if marked {
				release()
			}
		})
		return err
	}
	return cancelled
}

// touch restarts the idle timer of a session.
func (m *Manager) touch(id uuid.UUID) {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	m.timers.Schedule(idleKeyPrefix+id.String(), m.cfg.IdleTTL, func() {
		m.log.Info("intake session expired", "session", id.String())
		m.closeSession(id)
	})
}

// closeSession discards a session with all its pending stages. The id is
// remembered for a while so late requests get Gone instead of NotFound.
func (m *Manager) closeSession(id uuid.UUID) bool {
	found := false
	if s, ok := m.claims[id]; ok {
		s.close()
		delete(m.claims, id)
		found = true
	}
	if s, ok := m.damages[id]; ok {
		s.close()
		delete(m.damages, id)
		found = true
	}
	if !found {
		return false
	}
	m.timers.Cancel(idleKeyPrefix + id.String())
	m.closed[id] = struct{}{}
	forgetAfter := m.cfg.IdleTTL
	if forgetAfter <= 0 {
		forgetAfter = time.Hour
	}
	m.timers.Schedule(forgetKeyPrefix+id.String(), forgetAfter, func() { delete(m.closed, id) })
	return true
}

func (m *Manager) missing(id uuid.UUID) error {
	if _, ok := m.closed[id]; ok {
		return apperr.Gone("session closed")
	}
	return apperr.NotFound("session not found")
}

func (m *Manager) claimSession(id uuid.UUID) (*claimSession, error) {
	s, ok := m.claims[id]
	if !ok {
		return nil, m.missing(id)
	}
	return s, nil
}

func (m *Manager) damageSession(id uuid.UUID) (*damageSession, error) {
	s, ok := m.damages[id]
	if !ok {
		return nil, m.missing(id)
	}
	return s, nil
}

// withClaim runs fn against an open claim session on the loop and returns its
// view afterwards.
func (m *Manager) withClaim(ctx context.Context, id uuid.UUID, fn func(s *claimSession) error) (ClaimView, error) {
	var view ClaimView
	var opErr error
	err := m.do(ctx, func() {
		s, err := m.claimSession(id)
		if err != nil {
			opErr = err
			return
		}
		m.touch(id)
		if fn != nil {
			opErr = fn(s)
		}
		view = s.view()
	})
	if err != nil {
		return ClaimView{}, err
	}
	return view, opErr
}

// withDamage is withClaim for damage sessions.
func (m *Manager) withDamage(ctx context.Context, id uuid.UUID, fn func(s *damageSession) error) (DamageView, error) {
	var view DamageView
	var opErr error
	err := m.do(ctx, func() {
		s, err := m.damageSession(id)
		if err != nil {
			opErr = err
			return
		}
		m.touch(id)
		if fn != nil {
			opErr = fn(s)
		}
		view = s.view()
	})
	if err != nil {
		return DamageView{}, err
	}
	return view, opErr
}

// collaboratorErr keeps typed errors and marks anything else retryable.
func (m *Manager) collaboratorErr(ctx context.Context, collaborator, op string, err error) error {
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	m.log.WithContext(ctx).CollaboratorFailure(collaborator, op, err)
	return apperr.Unavailable(op+" failed, please retry", err).WithOp(op)
}
