// Package repository is the PostgreSQL record store for users, policies,
// claims, damages and damage history.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	userNotFoundMessage   = "user not found"
	policyNotFoundMessage = "policy not found"
	claimNotFoundMessage  = "claim not found"
	damageNotFoundMessage = "damage not found"
)

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new claims repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// Users & policies
// =============================================================================

func (r *Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, email
		FROM users
		ORDER BY last_name ASC, first_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repo) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email
		FROM users
		WHERE id = $1`, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, apperr.NotFound(userNotFoundMessage)
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

const policyColumns = `id, user_id, make, model, year, vin`

func (r *Repo) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

func (r *Repo) ListPoliciesByUser(ctx context.Context, userID uuid.UUID) ([]domain.Policy, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+policyColumns+`
		FROM policies
		WHERE user_id = $1
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list policies by user: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

func (r *Repo) GetPolicy(ctx context.Context, id uuid.UUID) (domain.Policy, error) {
	p, err := scanPolicy(r.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM policies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Policy{}, apperr.NotFound(policyNotFoundMessage)
		}
		return domain.Policy{}, fmt.Errorf("get policy: %w", err)
	}
	return p, nil
}

func scanPolicy(row rowScanner) (domain.Policy, error) {
	var p domain.Policy
	err := row.Scan(&p.ID, &p.UserID, &p.Make, &p.Model, &p.Year, &p.VIN)
	return p, err
}

func collectPolicies(rows pgx.Rows) ([]domain.Policy, error) {
	policies := make([]domain.Policy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// =============================================================================
// Claims
// =============================================================================

const claimColumns = `id, user_id, policy_id, location, description, created_at`

func (r *Repo) CreateClaim(ctx context.Context, params CreateClaimParams) (domain.Claim, error) {
	c, err := scanClaim(r.pool.QueryRow(ctx, `
		INSERT INTO claims (user_id, policy_id, location, description)
		VALUES ($1, $2, $3, $4)
		RETURNING `+claimColumns,
		params.UserID, params.PolicyID, params.Location, params.Description))
	if err != nil {
		return domain.Claim{}, fmt.Errorf("create claim: %w", err)
	}
	return c, nil
}

func (r *Repo) GetClaim(ctx context.Context, id uuid.UUID) (domain.Claim, error) {
	c, err := scanClaim(r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Claim{}, apperr.NotFound(claimNotFoundMessage)
		}
		return domain.Claim{}, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// ListClaims returns claims newest first.
func (r *Repo) ListClaims(ctx context.Context) ([]domain.Claim, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+claimColumns+` FROM claims ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	claims := make([]domain.Claim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func scanClaim(row rowScanner) (domain.Claim, error) {
	var c domain.Claim
	err := row.Scan(&c.ID, &c.UserID, &c.PolicyID, &c.Location, &c.Description, &c.CreatedAt)
	return c, err
}

// =============================================================================
// Damages
// =============================================================================

const damageColumns = `id, claim_id, vehicle_part, damage_description, photos, estimated_amount_in_cents,
	override_amount_in_cents, override_comment, sources, status, created_at, updated_at`

func (r *Repo) CreateDamage(ctx context.Context, params CreateDamageParams) (domain.Damage, error) {
	sourcesJSON, err := json.Marshal(nonNilSources(params.Sources))
	if err != nil {
		return domain.Damage{}, fmt.Errorf("encode sources: %w", err)
	}

	d, err := scanDamage(r.pool.QueryRow(ctx, `
		INSERT INTO damages (
			claim_id, vehicle_part, damage_description, photos, estimated_amount_in_cents,
			override_amount_in_cents, override_comment, sources, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+damageColumns,
		params.ClaimID, params.VehiclePart, params.Description, params.Photos, params.EstimatedAmountCents,
		params.OverrideAmountCents, params.OverrideComment, sourcesJSON, domain.StatusPending))
	if err != nil {
		return domain.Damage{}, fmt.Errorf("create damage: %w", err)
	}
	return d, nil
}

func (r *Repo) ResubmitDamage(ctx context.Context, params ResubmitDamageParams) (domain.Damage, error) {
	sourcesJSON, err := json.Marshal(nonNilSources(params.Sources))
	if err != nil {
		return domain.Damage{}, fmt.Errorf("encode sources: %w", err)
	}

	d, err := scanDamage(r.pool.QueryRow(ctx, `
		UPDATE damages
		SET vehicle_part = $2,
			damage_description = $3,
			photos = $4,
			estimated_amount_in_cents = $5,
			override_amount_in_cents = $6,
			override_comment = $7,
			sources = $8,
			status = $9,
			updated_at = now()
		WHERE id = $1 AND status = $10
		RETURNING `+damageColumns,
		params.ID, params.VehiclePart, params.Description, params.Photos, params.EstimatedAmountCents,
		params.OverrideAmountCents, params.OverrideComment, sourcesJSON,
		domain.StatusResubmitted, domain.StatusRefused))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Damage{}, apperr.Conflict("damage is not awaiting resubmission")
		}
		return domain.Damage{}, fmt.Errorf("resubmit damage: %w", err)
	}
	return d, nil
}

func (r *Repo) SetDamageStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (domain.Damage, error) {
	d, err := scanDamage(r.pool.QueryRow(ctx, `
		UPDATE damages
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+damageColumns, id, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Damage{}, apperr.Conflict("damage status changed concurrently")
		}
		return domain.Damage{}, fmt.Errorf("set damage status: %w", err)
	}
	return d, nil
}

func (r *Repo) GetDamage(ctx context.Context, id uuid.UUID) (domain.Damage, error) {
	d, err := scanDamage(r.pool.QueryRow(ctx, `SELECT `+damageColumns+` FROM damages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Damage{}, apperr.NotFound(damageNotFoundMessage)
		}
		return domain.Damage{}, fmt.Errorf("get damage: %w", err)
	}
	return d, nil
}

func (r *Repo) ListDamages(ctx context.Context) ([]domain.Damage, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+damageColumns+` FROM damages ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list damages: %w", err)
	}
	defer rows.Close()
	return collectDamages(rows)
}

func (r *Repo) ListDamagesByClaim(ctx context.Context, claimID uuid.UUID) ([]domain.Damage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+damageColumns+`
		FROM damages
		WHERE claim_id = $1
		ORDER BY created_at ASC`, claimID)
	if err != nil {
		return nil, fmt.Errorf("list damages by claim: %w", err)
	}
	defer rows.Close()
	return collectDamages(rows)
}

func scanDamage(row rowScanner) (domain.Damage, error) {
	var d domain.Damage
	var sourcesJSON []byte
	var status string
	err := row.Scan(
		&d.ID, &d.ClaimID, &d.VehiclePart, &d.Description, &d.Photos, &d.EstimatedAmountCents,
		&d.OverrideAmountCents, &d.OverrideComment, &sourcesJSON, &status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.Damage{}, err
	}
	d.Status = domain.Status(status)
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &d.Sources); err != nil {
			return domain.Damage{}, fmt.Errorf("decode sources: %w", err)
		}
	}
	if d.Photos == nil {
		d.Photos = []string{}
	}
	d.Sources = nonNilSources(d.Sources)
	return d, nil
}

func collectDamages(rows pgx.Rows) ([]domain.Damage, error) {
	damages := make([]domain.Damage, 0)
	for rows.Next() {
		d, err := scanDamage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan damage: %w", err)
		}
		damages = append(damages, d)
	}
	return damages, rows.Err()
}

func nonNilSources(sources []domain.Source) []domain.Source {
	if sources == nil {
		return []domain.Source{}
	}
	return sources
}

// =============================================================================
// History
// =============================================================================

const historyColumns = `id, seq, damage_id, event_type, status, created_by, created_at, refusal_reason, refusal_comment`

func (r *Repo) AppendHistory(ctx context.Context, event domain.HistoryEvent) (domain.HistoryEvent, error) {
	ev, err := scanHistory(r.pool.QueryRow(ctx, `
		INSERT INTO damage_history (damage_id, event_type, status, created_by, created_at, refusal_reason, refusal_comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+historyColumns,
		event.DamageID, event.EventType, event.Status, event.CreatedBy, event.CreatedAt,
		event.RefusalReason, event.RefusalComment))
	if err != nil {
		return domain.HistoryEvent{}, fmt.Errorf("append history: %w", err)
	}
	return ev, nil
}

func (r *Repo) ListHistory(ctx context.Context, damageID uuid.UUID) ([]domain.HistoryEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+historyColumns+`
		FROM damage_history
		WHERE damage_id = $1
		ORDER BY created_at ASC, seq ASC`, damageID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	events := make([]domain.HistoryEvent, 0)
	for rows.Next() {
		ev, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanHistory(row rowScanner) (domain.HistoryEvent, error) {
	var ev domain.HistoryEvent
	var eventType, status string
	err := row.Scan(
		&ev.ID, &ev.Seq, &ev.DamageID, &eventType, &status, &ev.CreatedBy, &ev.CreatedAt,
		&ev.RefusalReason, &ev.RefusalComment,
	)
	if err != nil {
		return domain.HistoryEvent{}, err
	}
	ev.EventType = domain.EventType(eventType)
	ev.Status = domain.Status(status)
	return ev, nil
}
