package service

import (
	"claim_intake_backend/internal/claims/domain"
	"claim_intake_backend/internal/claims/transport"
)

func toUserResponse(u domain.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
	}
}

func toPolicyResponse(p domain.Policy) transport.PolicyResponse {
	return transport.PolicyResponse{
		ID:     p.ID,
		UserID: p.UserID,
		Make:   p.Make,
		Model:  p.Model,
		Year:   p.Year,
		VIN:    p.VIN,
	}
}

func toClaimResponse(c domain.Claim) transport.ClaimResponse {
	return transport.ClaimResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		PolicyID:    c.PolicyID,
		Location:    c.Location,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

// ToDamageResponse renders a damage with its effective cost and source sentences.
func ToDamageResponse(d domain.Damage) transport.DamageResponse {
	sources := make([]transport.SourceResponse, 0, len(d.Sources))
	for _, src := range d.Sources {
		sources = append(sources, transport.SourceResponse{
			Type:            string(src.Type),
			SimilarityScore: src.SimilarityScore,
			ClaimID:         src.ClaimID,
			Description:     src.Describe(),
		})
	}
	photos := d.Photos
	if photos == nil {
		photos = []string{}
	}
	return transport.DamageResponse{
		ID:                     d.ID,
		ClaimID:                d.ClaimID,
		VehiclePart:            d.VehiclePart,
		DamageDescription:      d.Description,
		Photos:                 photos,
		EstimatedAmountInCents: d.EstimatedAmountCents,
		OverrideAmountInCents:  d.OverrideAmountCents,
		OverrideComment:        d.OverrideComment,
		EffectiveCostInCents:   d.EffectiveCost(),
		Sources:                sources,
		Status:                 string(d.Status),
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

func toTimelineEntry(ev domain.HistoryEvent) transport.TimelineEntry {
	return transport.TimelineEntry{
		ID:             ev.ID,
		EventType:      string(ev.EventType),
		Status:         string(ev.Status),
		Title:          domain.EventTitle(ev),
		CreatedBy:      ev.CreatedBy,
		CreatedAt:      ev.CreatedAt,
		RefusalReason:  ev.RefusalReason,
		RefusalComment: ev.RefusalComment,
	}
}
