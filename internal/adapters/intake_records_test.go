package adapters_test

import (
	"context"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claim_intake_backend/internal/adapters"
	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/claims/repository"
	claimsvc "claim_intake_backend/internal/claims/service"
	"claim_intake_backend/internal/events"
	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/internal/intake/rules"
	"claim_intake_backend/internal/intake/session"
	"claim_intake_backend/platform/logger"
)

const actor = "Dana Agent"

type memoryPhotos struct{}

func (memoryPhotos) Upload(_ context.Context, u session.PhotoUpload) (session.StoredPhoto, error) {
	key := "damages/" + uuid.NewString() + "-" + u.FileName
	return session.StoredPhoto{Key: key, URL: "https://photos.test/" + key, OriginalName: u.FileName}, nil
}

func (memoryPhotos) Delete(context.Context, string) error { return nil }

type world struct {
	manager *session.Manager
	claims  *claimsvc.Service
	repo    *repository.Memory
	user    domain.User
	policy  domain.Policy
}

func newWorld(t *testing.T) world {
	t.Helper()
	log := logger.Nop()
	repo := repository.NewMemory()
	user := repo.AddUser(domain.User{FirstName: "Jana", LastName: "Novak"})
	policy := repo.AddPolicy(domain.Policy{UserID: user.ID, Make: "Skoda", Model: "Octavia", Year: 2019})
	claims := claimsvc.New(repo, events.NewInMemoryBus(log), log)

	r, err := rules.Default()
	require.NoError(t, err)
	manager := session.NewManager(context.Background(), session.Config{},
		r, evaluation.Validated(evaluation.NewSeededEstimator(7)),
		adapters.NewIntakeRecords(claims, log), memoryPhotos{}, log)
	t.Cleanup(manager.Shutdown)

	return world{manager: manager, claims: claims, repo: repo, user: user, policy: policy}
}

func (w world) submitClaim(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	view, err := w.manager.OpenClaimSession(ctx)
	require.NoError(t, err)
	location := "Main Street 12"
	description := "Rear-ended at a traffic light"
	_, err = w.manager.EditClaimDraft(ctx, view.SessionID, session.ClaimEdit{
		UserID:      &w.user.ID,
		PolicyID:    &w.policy.ID,
		Location:    &location,
		Description: &description,
	})
	require.NoError(t, err)

	time.Sleep(session.DefaultClaimQuietPeriod + session.DefaultClaimEvaluationDelay + time.Second)
	synctest.Wait()

	out, err := w.manager.SubmitClaim(ctx, view.SessionID, actor)
	require.NoError(t, err)
	return out.ClaimID
}

func (w world) evaluatedDamage(t *testing.T, open func() (session.DamageView, error)) session.DamageView {
	t.Helper()
	ctx := context.Background()
	view, err := open()
	require.NoError(t, err)

	part := "Rear bumper"
	description := "Cracked and pushed in"
	_, err = w.manager.EditDamageDraft(ctx, view.SessionID, session.DamageEdit{VehiclePart: &part, Description: &description})
	require.NoError(t, err)
	_, err = w.manager.UploadPhoto(ctx, view.SessionID, session.PhotoUpload{
		FileName:    "bumper.jpg",
		ContentType: "image/jpeg",
		Size:        3,
		Body:        strings.NewReader("jpg"),
	})
	require.NoError(t, err)

	time.Sleep(session.DefaultDamageEvaluationDelay + time.Second)
	synctest.Wait()

	view, err = w.manager.GetDamageSession(ctx, view.SessionID)
	require.NoError(t, err)
	require.Equal(t, session.EvaluationReady, view.Stage)
	return view
}

func TestIntakeWritesClaimAndDamage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		w := newWorld(t)

		claimID := w.submitClaim(t)
		claim, err := w.claims.GetClaim(ctx, claimID)
		require.NoError(t, err)
		assert.Equal(t, w.policy.ID, claim.PolicyID)

		view := w.evaluatedDamage(t, func() (session.DamageView, error) {
			return w.manager.OpenDamageSession(ctx, claimID)
		})
		_, err = w.manager.AcceptEstimate(ctx, view.SessionID)
		require.NoError(t, err)

		out, err := w.manager.SubmitDamage(ctx, view.SessionID, actor)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, out.Status)
		assert.Equal(t, claimID, out.ClaimID)

		stored, err := w.claims.GetDamage(ctx, out.DamageID)
		require.NoError(t, err)
		assert.Equal(t, "Rear bumper", stored.VehiclePart)
		assert.Len(t, stored.Photos, 1)
		assert.Equal(t, view.Result.EstimateCents, stored.EstimatedAmountCents)
		assert.Nil(t, stored.OverrideAmountCents)

		timeline, err := w.claims.DamageTimeline(ctx, out.DamageID)
		require.NoError(t, err)
		require.Len(t, timeline.Events, 1)
		assert.Equal(t, actor, timeline.Events[0].CreatedBy)
	})
}

func TestIntakeResubmitsRefusedDamage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		w := newWorld(t)
		claimID := w.submitClaim(t)

		view := w.evaluatedDamage(t, func() (session.DamageView, error) {
			return w.manager.OpenDamageSession(ctx, claimID)
		})
		_, err := w.manager.AcceptEstimate(ctx, view.SessionID)
		require.NoError(t, err)
		out, err := w.manager.SubmitDamage(ctx, view.SessionID, actor)
		require.NoError(t, err)

		reason := "Estimate too low"
		_, err = w.claims.ApplyReview(ctx, out.DamageID, domain.StatusRefused, "Rita Reviewer", &reason, nil)
		require.NoError(t, err)

		resub, err := w.manager.OpenResubmission(ctx, out.DamageID)
		require.NoError(t, err)
		assert.Equal(t, session.ModeResubmit, resub.Mode)
		assert.True(t, resub.CanSubmit)

		amount := view.Result.EstimateCents + 5000
		comment := "Body shop quote"
		_, err = w.manager.RejectEstimate(ctx, resub.SessionID, session.OverrideInput{AmountCents: &amount, Comment: &comment})
		require.NoError(t, err)

		again, err := w.manager.SubmitDamage(ctx, resub.SessionID, actor)
		require.NoError(t, err)
		assert.Equal(t, out.DamageID, again.DamageID)
		assert.Equal(t, domain.StatusResubmitted, again.Status)
		assert.Equal(t, amount, again.EffectiveCost)

		timeline, err := w.claims.DamageTimeline(ctx, out.DamageID)
		require.NoError(t, err)
		var kinds []string
		for _, ev := range timeline.Events {
			kinds = append(kinds, ev.EventType)
		}
		assert.Equal(t, []string{"created", "refused", "resubmitted"}, kinds)
	})
}

func TestClaimExists(t *testing.T) {
	log := logger.Nop()
	repo := repository.NewMemory()
	records := adapters.NewIntakeRecords(claimsvc.New(repo, events.NewInMemoryBus(log), log), log)

	ok, err := records.ClaimExists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
