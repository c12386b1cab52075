package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRefused, true},
		{StatusPending, StatusResubmitted, false},
		{StatusRefused, StatusResubmitted, true},
		{StatusRefused, StatusApproved, false},
		{StatusResubmitted, StatusApproved, true},
		{StatusResubmitted, StatusRefused, true},
		{StatusApproved, StatusRefused, false},
		{StatusApproved, StatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestEffectiveCost(t *testing.T) {
	d := Damage{EstimatedAmountCents: 42000}
	assert.Equal(t, int64(42000), d.EffectiveCost())

	override := int64(51000)
	d.OverrideAmountCents = &override
	assert.Equal(t, int64(51000), d.EffectiveCost())
}

func TestValidateOverride(t *testing.T) {
	amount := int64(5000)
	negative := int64(-1)
	comment := "Shop quote"
	blank := "  "

	assert.NoError(t, ValidateOverride(nil, nil))
	assert.NoError(t, ValidateOverride(&amount, &comment))
	assert.ErrorIs(t, ValidateOverride(&amount, nil), ErrOverridePair)
	assert.ErrorIs(t, ValidateOverride(&amount, &blank), ErrOverridePair)
	assert.ErrorIs(t, ValidateOverride(nil, &comment), ErrOverridePair)
	assert.Error(t, ValidateOverride(&negative, &comment))
}

func TestSourceValidate(t *testing.T) {
	assert.NoError(t, Source{Type: SourcePriorClaim, SimilarityScore: 0.75, ClaimID: "88"}.Validate())
	assert.NoError(t, Source{Type: SourcePublicData, SimilarityScore: 0.99}.Validate())
	assert.Error(t, Source{Type: SourcePriorClaim, SimilarityScore: 0.8}.Validate())
	assert.Error(t, Source{Type: SourceMerchantBenchmark, SimilarityScore: 0.8, ClaimID: "88"}.Validate())
	assert.Error(t, Source{Type: SourcePublicData, SimilarityScore: 0.74}.Validate())
	assert.Error(t, Source{Type: "rumour", SimilarityScore: 0.8}.Validate())
}

func TestSourceDescribe(t *testing.T) {
	got := Source{Type: SourcePriorClaim, SimilarityScore: 0.876, ClaimID: "1042"}.Describe()
	assert.Contains(t, got, "88% similarity")
	assert.Contains(t, got, "Claim #1042")

	assert.Contains(t, Source{Type: SourceMerchantBenchmark, SimilarityScore: 0.8}.Describe(), "80% correlation")
	assert.Contains(t, Source{Type: SourcePublicData, SimilarityScore: 0.91}.Describe(), "91% consistency")
}

func TestSortTimeline(t *testing.T) {
	damageID := uuid.New()
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []HistoryEvent{
		{Seq: 3, EventType: EventResubmitted, Status: StatusResubmitted, CreatedAt: at.Add(time.Minute)},
		{Seq: 2, EventType: EventRefused, Status: StatusRefused, CreatedAt: at},
		NewCreatedEvent(damageID, "agent", at),
	}
	events[2].Seq = 1

	SortTimeline(events)

	require.NoError(t, ValidateTimeline(events))
	assert.Equal(t, EventCreated, events[0].EventType)
	assert.Equal(t, EventRefused, events[1].EventType)
	assert.Equal(t, EventResubmitted, events[2].EventType)

	status, ok := ProjectStatus(events)
	assert.True(t, ok)
	assert.Equal(t, StatusResubmitted, status)
}

func TestValidateTimeline(t *testing.T) {
	assert.NoError(t, ValidateTimeline(nil))
	assert.ErrorIs(t, ValidateTimeline([]HistoryEvent{{EventType: EventApproved, Status: StatusApproved}}), ErrTimelineStart)

	_, ok := ProjectStatus(nil)
	assert.False(t, ok)
}

func TestNewTransitionEventDropsRefusalDetailsOnApproval(t *testing.T) {
	reason := "Not covered"
	ev := NewTransitionEvent(uuid.New(), StatusApproved, "reviewer", time.Now(), &reason, &reason)
	assert.Equal(t, EventApproved, ev.EventType)
	assert.Nil(t, ev.RefusalReason)

	ev = NewTransitionEvent(uuid.New(), StatusRefused, "reviewer", time.Now(), &reason, nil)
	assert.Equal(t, "Refused", EventTitle(ev))
	require.NotNil(t, ev.RefusalReason)
}
