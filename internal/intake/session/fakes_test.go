package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/internal/intake/rules"
	"claim_intake_backend/internal/intake/session"
	"claim_intake_backend/platform/apperr"
	"claim_intake_backend/platform/logger"
)

const (
	restrictedAddress    = "1600 Pennsylvania Avenue NW in Washington, DC"
	prohibitedNarrative  = "I was driving drunk and crashed my car with a light post"
	testActor            = "Claims Agent"
	claimQuiet           = 500 * time.Millisecond
	claimEvaluationDelay = 3 * time.Second
	damageEvaluation     = 2500 * time.Millisecond
	idleTTL              = 10 * time.Minute
)

var errStoreDown = errors.New("connection reset by peer")

type fakeRecords struct {
	mu sync.Mutex

	claims  map[uuid.UUID]bool
	damages map[uuid.UUID]domain.Damage

	createdClaims []session.ClaimDraft
	created       []session.DamageSubmission
	resubmitted   []uuid.UUID
	actors        []string

	failWrites error
	release    chan struct{}
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		claims:  make(map[uuid.UUID]bool),
		damages: make(map[uuid.UUID]domain.Damage),
	}
}

func (f *fakeRecords) addClaim() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.claims[id] = true
	return id
}

func (f *fakeRecords) addDamage(d domain.Damage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.damages[d.ID] = d
}

func (f *fakeRecords) setFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = err
}

func (f *fakeRecords) wait() error {
	f.mu.Lock()
	release := f.release
	err := f.failWrites
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return err
}

func (f *fakeRecords) ClaimExists(_ context.Context, claimID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[claimID], nil
}

func (f *fakeRecords) CreateClaim(_ context.Context, draft session.ClaimDraft, actor string) (uuid.UUID, error) {
	if err := f.wait(); err != nil {
		return uuid.Nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.claims[id] = true
	f.createdClaims = append(f.createdClaims, draft)
	f.actors = append(f.actors, actor)
	return id, nil
}

func (f *fakeRecords) GetDamage(_ context.Context, damageID uuid.UUID) (domain.Damage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.damages[damageID]
	if !ok {
		return domain.Damage{}, apperr.NotFound("damage not found")
	}
	return d, nil
}

func (f *fakeRecords) CreateDamage(_ context.Context, claimID uuid.UUID, sub session.DamageSubmission, actor string) (domain.Damage, error) {
	if err := f.wait(); err != nil {
		return domain.Damage{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := damageFrom(uuid.New(), claimID, sub, domain.StatusPending)
	f.damages[d.ID] = d
	f.created = append(f.created, sub)
	f.actors = append(f.actors, actor)
	return d, nil
}

func (f *fakeRecords) ResubmitDamage(_ context.Context, damageID uuid.UUID, sub session.DamageSubmission, actor string) (domain.Damage, error) {
	if err := f.wait(); err != nil {
		return domain.Damage{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.damages[damageID]
	if !ok {
		return domain.Damage{}, apperr.NotFound("damage not found")
	}
	d := damageFrom(damageID, prev.ClaimID, sub, domain.StatusResubmitted)
	f.damages[damageID] = d
	f.resubmitted = append(f.resubmitted, damageID)
	f.actors = append(f.actors, actor)
	return d, nil
}

func damageFrom(id, claimID uuid.UUID, sub session.DamageSubmission, status domain.Status) domain.Damage {
	return domain.Damage{
		ID:                   id,
		ClaimID:              claimID,
		VehiclePart:          sub.VehiclePart,
		Description:          sub.Description,
		Photos:               sub.Photos,
		EstimatedAmountCents: sub.EstimateCents,
		OverrideAmountCents:  sub.OverrideAmount,
		OverrideComment:      sub.OverrideComment,
		Sources:              sub.Sources,
		Status:               status,
	}
}

type fakePhotos struct {
	mu       sync.Mutex
	stored   []string
	deleted  []string
	failNext error
	onUpload func()
}

func (f *fakePhotos) Upload(_ context.Context, upload session.PhotoUpload) (session.StoredPhoto, error) {
	f.mu.Lock()
	err := f.failNext
	f.failNext = nil
	hook := f.onUpload
	f.mu.Unlock()
	if err != nil {
		return session.StoredPhoto{}, err
	}
	if hook != nil {
		hook()
	}

	key := "damages/" + uuid.NewString() + "-" + upload.FileName
	f.mu.Lock()
	f.stored = append(f.stored, key)
	f.mu.Unlock()
	return session.StoredPhoto{Key: key, URL: "https://photos.test/" + key, OriginalName: upload.FileName}, nil
}

func (f *fakePhotos) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

// countingEstimator returns a fixed result and records every input it sees.
type countingEstimator struct {
	mu     sync.Mutex
	inputs []evaluation.Input
	fail   error
	result evaluation.Result
}

func newCountingEstimator() *countingEstimator {
	return &countingEstimator{result: evaluation.Result{
		Severity:      evaluation.SeverityModerate,
		EstimateCents: 10500,
		Sources:       []domain.Source{{Type: domain.SourcePublicData, SimilarityScore: 0.9}},
	}}
}

func (e *countingEstimator) Estimate(_ context.Context, in evaluation.Input) (evaluation.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = append(e.inputs, in)
	if e.fail != nil {
		return evaluation.Result{}, e.fail
	}
	return e.result, nil
}

func (e *countingEstimator) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inputs)
}

func (e *countingEstimator) setFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = err
}

func (e *countingEstimator) lastInput() evaluation.Input {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputs[len(e.inputs)-1]
}

// gatedEstimator holds every estimate until release is closed.
type gatedEstimator struct {
	release   chan struct{}
	mu        sync.Mutex
	calls     int
	cancelled int
}

func newGatedEstimator() *gatedEstimator {
	return &gatedEstimator{release: make(chan struct{})}
}

func (e *gatedEstimator) Estimate(ctx context.Context, in evaluation.Input) (evaluation.Result, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	select {
	case <-e.release:
		return evaluation.Result{
			Severity:      evaluation.SeverityLow,
			EstimateCents: 7500,
			Sources:       []domain.Source{{Type: domain.SourceMerchantBenchmark, SimilarityScore: 0.8}},
		}, nil
	case <-ctx.Done():
		e.mu.Lock()
		e.cancelled++
		e.mu.Unlock()
		return evaluation.Result{}, ctx.Err()
	}
}

func (e *gatedEstimator) counts() (calls, cancelled int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls, e.cancelled
}

type fixture struct {
	manager   *session.Manager
	records   *fakeRecords
	photos    *fakePhotos
	estimator evaluation.Estimator
}

func newFixture(t *testing.T, estimator evaluation.Estimator) *fixture {
	t.Helper()
	r, err := rules.Default()
	require.NoError(t, err)

	f := &fixture{records: newFakeRecords(), photos: &fakePhotos{}, estimator: estimator}
	f.manager = session.NewManager(context.Background(), session.Config{
		ClaimQuietPeriod:      claimQuiet,
		ClaimEvaluationDelay:  claimEvaluationDelay,
		DamageEvaluationDelay: damageEvaluation,
		IdleTTL:               idleTTL,
	}, r, estimator, f.records, f.photos, logger.Nop())
	t.Cleanup(f.manager.Shutdown)
	return f
}

func ptr[T any](v T) *T {
	return &v
}

func upload(name string) session.PhotoUpload {
	return session.PhotoUpload{FileName: name, ContentType: "image/jpeg", Size: 3}
}
