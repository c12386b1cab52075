package session_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/internal/intake/rules"
	"claim_intake_backend/internal/intake/session"
	"claim_intake_backend/platform/apperr"
)

func openDamage(t *testing.T, f *fixture) session.DamageView {
	t.Helper()
	view, err := f.manager.OpenDamageSession(context.Background(), f.records.addClaim())
	require.NoError(t, err)
	return view
}

func describeDamage(t *testing.T, f *fixture, id uuid.UUID, part, description string) session.DamageView {
	t.Helper()
	view, err := f.manager.EditDamageDraft(context.Background(), id, session.DamageEdit{
		VehiclePart: ptr(part),
		Description: ptr(description),
	})
	require.NoError(t, err)
	return view
}

func TestDamageEvaluationWithinTier(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, evaluation.Validated(evaluation.NewSeededEstimator(42)))

		opened := openDamage(t, f)
		assert.Equal(t, session.ModeCreate, opened.Mode)
		assert.Equal(t, session.EvaluationIdle, opened.Stage)

		view := describeDamage(t, f, opened.SessionID, "Front Bumper", "Dent")
		assert.Equal(t, session.EvaluationIdle, view.Stage, "no photo yet")

		view, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("bumper.jpg"))
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationEvaluating, view.Stage)
		assert.Contains(t, view.Gates, session.GateEvaluationPending)
		require.Len(t, view.Photos, 1)
		assert.Nil(t, view.Photos[0].Issue)

		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		view, err = f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		require.Equal(t, session.EvaluationReady, view.Stage)
		require.NotNil(t, view.Result)
		tier, ok := evaluation.TierFor(view.Result.Severity)
		require.True(t, ok)
		assert.True(t, tier.Contains(view.Result.EstimateCents))
		assert.NotEmpty(t, view.Result.Sources)
		assert.LessOrEqual(t, len(view.Result.Sources), evaluation.MaxSources)
		assert.Equal(t, []string{session.GateDecisionRequired}, view.Gates)
		assert.Nil(t, view.EffectiveCost)

		view, err = f.manager.AcceptEstimate(ctx, opened.SessionID)
		require.NoError(t, err)
		require.NotNil(t, view.EffectiveCost)
		assert.Equal(t, view.Result.EstimateCents, *view.EffectiveCost)
		assert.True(t, view.CanSubmit)

		view, err = f.manager.RejectEstimate(ctx, opened.SessionID, session.OverrideInput{
			AmountCents: ptr(int64(75000)),
			Comment:     ptr("Shop quote"),
		})
		require.NoError(t, err)
		assert.Equal(t, session.DecisionRejected, view.Decision)
		require.NotNil(t, view.EffectiveCost)
		assert.Equal(t, int64(75000), *view.EffectiveCost)

		out, err := f.manager.SubmitDamage(ctx, opened.SessionID, testActor)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, out.Status)
		assert.Equal(t, int64(75000), out.EffectiveCost)
		assert.Equal(t, opened.ClaimID, out.ClaimID)

		require.Len(t, f.records.created, 1)
		sub := f.records.created[0]
		assert.Equal(t, "Front Bumper", sub.VehiclePart)
		require.NotNil(t, sub.OverrideAmount)
		assert.Equal(t, int64(75000), *sub.OverrideAmount)
		require.NotNil(t, sub.OverrideComment)
		assert.Equal(t, "Shop quote", *sub.OverrideComment)
		assert.Len(t, sub.Photos, 1)

		_, err = f.manager.GetDamageSession(ctx, opened.SessionID)
		assert.True(t, apperr.Is(err, apperr.KindGone))
	})
}

func TestDamageEvaluationWaitsForTheFullDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Hood", "Scratch")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.NoError(t, err)

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Equal(t, 0, est.calls())

		_, err = f.manager.EditDamageDraft(ctx, opened.SessionID, session.DamageEdit{Description: ptr("Deep scratch")})
		require.NoError(t, err)

		// The first evaluation was due at 2.5s and must not run.
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, 0, est.calls())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		require.Equal(t, 1, est.calls())
		assert.Equal(t, "Deep scratch", est.lastInput().Description)

		view, err := f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationReady, view.Stage)
		assert.Equal(t, session.DecisionNone, view.Decision)
	})
}

func TestDamageTriggerChangeDiscardsDecision(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Door", "Dent")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("door.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		_, err = f.manager.AcceptEstimate(ctx, opened.SessionID)
		require.NoError(t, err)

		view, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("door-2.jpg"))
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationEvaluating, view.Stage)
		assert.Nil(t, view.Result)
		assert.Equal(t, session.DecisionNone, view.Decision)

		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 2, est.calls())
		assert.Len(t, est.lastInput().Photos, 2)
	})
}

func TestPhotoIssueBlocksUntilRemoved(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Rear Door", "Scratch")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("door.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()
		_, err = f.manager.AcceptEstimate(ctx, opened.SessionID)
		require.NoError(t, err)

		view, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("Low_Light.JPG"))
		require.NoError(t, err)
		require.Len(t, view.Issues, 1)
		assert.Equal(t, rules.IssueLowLight, view.Issues[0].Kind)
		assert.Contains(t, view.Gates, session.GatePhotoIssues)
		assert.Equal(t, session.EvaluationReady, view.Stage, "flagged photos do not re-trigger")
		assert.False(t, view.CanSubmit)

		_, err = f.manager.SubmitDamage(ctx, opened.SessionID, testActor)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindBlocked))

		view, err = f.manager.RemovePhoto(ctx, opened.SessionID, view.Issues[0].PhotoID)
		require.NoError(t, err)
		assert.Empty(t, view.Issues)
		assert.True(t, view.CanSubmit)
		assert.Equal(t, 1, est.calls())

		_, err = f.manager.RemovePhoto(ctx, opened.SessionID, uuid.New())
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestOnlyFlaggedPhotosDoNotStartEvaluation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Hood", "Dent")
		view, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("wrong_vehicle.jpg"))
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationIdle, view.Stage)
		assert.Contains(t, view.Gates, session.GatePhotoIssues)
		assert.NotContains(t, view.Gates, session.GatePhotoRequired)

		time.Sleep(damageEvaluation * 2)
		synctest.Wait()
		assert.Equal(t, 0, est.calls())
	})
}

func TestOverrideRules(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newCountingEstimator())

		opened := openDamage(t, f)
		_, err := f.manager.AcceptEstimate(ctx, opened.SessionID)
		assert.True(t, apperr.Is(err, apperr.KindConflict), "nothing to accept yet")

		describeDamage(t, f, opened.SessionID, "Hood", "Dent")
		_, err = f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		_, err = f.manager.SetOverride(ctx, opened.SessionID, session.OverrideInput{AmountCents: ptr(int64(5000))})
		assert.True(t, apperr.Is(err, apperr.KindConflict))

		_, err = f.manager.RejectEstimate(ctx, opened.SessionID, session.OverrideInput{AmountCents: ptr(int64(0))})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		view, err := f.manager.RejectEstimate(ctx, opened.SessionID, session.OverrideInput{AmountCents: ptr(int64(20000))})
		require.NoError(t, err)
		assert.Contains(t, view.Gates, session.GateOverrideIncomplete)
		assert.Nil(t, view.EffectiveCost)

		view, err = f.manager.SetOverride(ctx, opened.SessionID, session.OverrideInput{Comment: ptr("   ")})
		require.NoError(t, err)
		assert.Contains(t, view.Gates, session.GateOverrideIncomplete)

		view, err = f.manager.SetOverride(ctx, opened.SessionID, session.OverrideInput{Comment: ptr("Dealer invoice")})
		require.NoError(t, err)
		assert.True(t, view.CanSubmit)
		require.NotNil(t, view.EffectiveCost)
		assert.Equal(t, int64(20000), *view.EffectiveCost)

		view, err = f.manager.AcceptEstimate(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Nil(t, view.OverrideAmount)
		assert.Empty(t, view.OverrideComment)
		assert.Equal(t, int64(10500), *view.EffectiveCost)
	})
}

func TestEstimatorFailureCanBeRetried(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		est.setFailure(errStoreDown)
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Hood", "Dent")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		view, err := f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationFailed, view.Stage)
		assert.NotEmpty(t, view.Failure)
		assert.Contains(t, view.Gates, session.GateEvaluationFailed)

		est.setFailure(nil)
		view, err = f.manager.Reevaluate(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationEvaluating, view.Stage)

		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()
		view, err = f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationReady, view.Stage)
		assert.Empty(t, view.Failure)
		assert.Equal(t, 2, est.calls())
	})
}

func TestReevaluateNeedsCompleteFields(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, newCountingEstimator())
		opened := openDamage(t, f)

		_, err := f.manager.Reevaluate(context.Background(), opened.SessionID)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestClosingDamageSessionCancelsEvaluation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Hood", "Dent")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.NoError(t, err)

		time.Sleep(time.Second)
		require.NoError(t, f.manager.CloseDamageSession(ctx, opened.SessionID))

		time.Sleep(2 * damageEvaluation)
		synctest.Wait()
		assert.Equal(t, 0, est.calls())

		_, err = f.manager.EditDamageDraft(ctx, opened.SessionID, session.DamageEdit{Description: ptr("late")})
		assert.True(t, apperr.Is(err, apperr.KindGone))
	})
}

func TestOpenDamageSessionUnknownClaim(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, newCountingEstimator())
		_, err := f.manager.OpenDamageSession(context.Background(), uuid.New())
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestUploadFailureKeepsSession(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newCountingEstimator())
		opened := openDamage(t, f)

		f.photos.failNext = errStoreDown
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindUnavailable))

		view, err := f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Empty(t, view.Photos)
	})
}

func TestUploadToClosedSessionDeletesPhoto(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newCountingEstimator())
		opened := openDamage(t, f)

		f.photos.onUpload = func() {
			require.NoError(t, f.manager.CloseDamageSession(ctx, opened.SessionID))
		}
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		assert.True(t, apperr.Is(err, apperr.KindGone))

		require.Len(t, f.photos.stored, 1)
		assert.Equal(t, f.photos.stored, f.photos.deleted)
	})
}

func TestDamageSubmitFailureKeepsSession(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newCountingEstimator())

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Hood", "Dent")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()
		_, err = f.manager.AcceptEstimate(ctx, opened.SessionID)
		require.NoError(t, err)

		f.records.setFailure(errStoreDown)
		_, err = f.manager.SubmitDamage(ctx, opened.SessionID, testActor)
		assert.True(t, apperr.Is(err, apperr.KindUnavailable))

		view, err := f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.True(t, view.CanSubmit)
		assert.Equal(t, session.DecisionAccepted, view.Decision)
	})
}

func TestDamageCancelledSubmitCanBeRetried(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newCountingEstimator())

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Hood", "Dent")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()
		_, err = f.manager.AcceptEstimate(ctx, opened.SessionID)
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = f.manager.SubmitDamage(cancelled, opened.SessionID, testActor)
		require.ErrorIs(t, err, context.Canceled)
		synctest.Wait()
		assert.Empty(t, f.records.created)

		view, err := f.manager.AcceptEstimate(ctx, opened.SessionID)
		require.NoError(t, err, "session must not stay marked as submitting")
		assert.True(t, view.CanSubmit)

		_, err = f.manager.SubmitDamage(ctx, opened.SessionID, testActor)
		require.NoError(t, err)
		assert.Len(t, f.records.created, 1)
	})
}

func TestMarkupOnlyTextDoesNotSatisfyGates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, newCountingEstimator())

		opened := openDamage(t, f)
		view := describeDamage(t, f, opened.SessionID, "<b></b>", "Dent")
		assert.Contains(t, view.Gates, session.GateVehiclePartRequired)

		describeDamage(t, f, opened.SessionID, "Hood", "Dent")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("hood.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		view, err = f.manager.RejectEstimate(ctx, opened.SessionID, session.OverrideInput{
			AmountCents: ptr(int64(75000)),
			Comment:     ptr("<b></b>"),
		})
		require.NoError(t, err)
		assert.Contains(t, view.Gates, session.GateOverrideIncomplete)
		assert.False(t, view.CanSubmit)
		assert.Nil(t, view.EffectiveCost)

		_, err = f.manager.SubmitDamage(ctx, opened.SessionID, testActor)
		assert.True(t, apperr.Is(err, apperr.KindBlocked))
		assert.Empty(t, f.records.created)
	})
}

func TestSlowEstimatorDoesNotBlockOtherSessions(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newGatedEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Door", "Scratch")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("door.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		calls, _ := est.counts()
		require.Equal(t, 1, calls)
		view, err := f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationEvaluating, view.Stage)

		claim, err := f.manager.OpenClaimSession(ctx)
		require.NoError(t, err)
		fillClaim(t, f, claim.SessionID, "Main Street 12", "Hail damage")

		close(est.release)
		synctest.Wait()
		view, err = f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationReady, view.Stage)
		require.NotNil(t, view.Result)
		assert.Equal(t, int64(7500), view.Result.EstimateCents)
	})
}

func TestSupersededEstimateIsDropped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newGatedEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Door", "Scratch")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("door.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		view := describeDamage(t, f, opened.SessionID, "Door", "Deep scratch")
		synctest.Wait()
		calls, cancelled := est.counts()
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, cancelled, "running estimate is cancelled by the edit")
		assert.Equal(t, session.EvaluationEvaluating, view.Stage)
		view, err = f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationEvaluating, view.Stage, "cancelled estimate is not reported as a failure")

		close(est.release)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()
		calls, _ = est.counts()
		assert.Equal(t, 2, calls)
		view, err = f.manager.GetDamageSession(ctx, opened.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationReady, view.Stage)
	})
}

func TestClosingDamageSessionDropsRunningEstimate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newGatedEstimator()
		f := newFixture(t, est)

		opened := openDamage(t, f)
		describeDamage(t, f, opened.SessionID, "Door", "Scratch")
		_, err := f.manager.UploadPhoto(ctx, opened.SessionID, upload("door.jpg"))
		require.NoError(t, err)
		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()

		require.NoError(t, f.manager.CloseDamageSession(ctx, opened.SessionID))
		synctest.Wait()
		_, cancelled := est.counts()
		assert.Equal(t, 1, cancelled)

		_, err = f.manager.GetDamageSession(ctx, opened.SessionID)
		assert.True(t, apperr.Is(err, apperr.KindGone))
	})
}

func refusedDamage(claimID uuid.UUID) domain.Damage {
	return domain.Damage{
		ID:                   uuid.New(),
		ClaimID:              claimID,
		VehiclePart:          "Windshield",
		Description:          "Crack",
		Photos:               []string{"https://photos.test/windshield.jpg"},
		EstimatedAmountCents: 13000,
		OverrideAmountCents:  ptr(int64(15000)),
		OverrideComment:      ptr("Glass specialist quote"),
		Sources:              []domain.Source{{Type: domain.SourcePriorClaim, SimilarityScore: 0.82, ClaimID: "4711"}},
		Status:               domain.StatusRefused,
	}
}

func TestResubmissionOfRefusedDamage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		f := newFixture(t, est)

		refused := refusedDamage(f.records.addClaim())
		f.records.addDamage(refused)

		view, err := f.manager.OpenResubmission(ctx, refused.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ModeResubmit, view.Mode)
		require.NotNil(t, view.DamageID)
		assert.Equal(t, refused.ID, *view.DamageID)
		assert.Equal(t, session.EvaluationReady, view.Stage)
		assert.Equal(t, session.DecisionRejected, view.Decision)
		require.NotNil(t, view.Result)
		assert.Equal(t, evaluation.SeveritySevere, view.Result.Severity)
		require.NotNil(t, view.EffectiveCost)
		assert.Equal(t, int64(15000), *view.EffectiveCost)
		assert.True(t, view.CanSubmit)

		time.Sleep(2 * damageEvaluation)
		synctest.Wait()
		assert.Equal(t, 0, est.calls(), "opening does not re-run the engine")

		out, err := f.manager.SubmitDamage(ctx, view.SessionID, testActor)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusResubmitted, out.Status)
		assert.Equal(t, refused.ID, out.DamageID)
		assert.Equal(t, []uuid.UUID{refused.ID}, f.records.resubmitted)
		assert.Empty(t, f.records.created)
	})
}

func TestResubmissionEditStartsFreshEvaluation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		est := newCountingEstimator()
		f := newFixture(t, est)

		refused := refusedDamage(f.records.addClaim())
		f.records.addDamage(refused)
		opened, err := f.manager.OpenResubmission(ctx, refused.ID)
		require.NoError(t, err)

		view, err := f.manager.EditDamageDraft(ctx, opened.SessionID, session.DamageEdit{Description: ptr("Crack across the driver side")})
		require.NoError(t, err)
		assert.Equal(t, session.EvaluationEvaluating, view.Stage)
		assert.Equal(t, session.DecisionNone, view.Decision)
		assert.Nil(t, view.OverrideAmount)

		time.Sleep(damageEvaluation + 100*time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 1, est.calls())
	})
}

func TestResubmissionRequiresRefusedDamage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, newCountingEstimator())

		pending := refusedDamage(f.records.addClaim())
		pending.Status = domain.StatusPending
		f.records.addDamage(pending)

		_, err := f.manager.OpenResubmission(context.Background(), pending.ID)
		assert.True(t, apperr.Is(err, apperr.KindConflict))

		_, err = f.manager.OpenResubmission(context.Background(), uuid.New())
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}
