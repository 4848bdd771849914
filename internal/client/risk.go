package client

import (
	"context"
	"fmt"
	"slices"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
)

type riskHistoryResponse struct {
	Status      string          `json:"status"`
	Assessments []assessmentDTO `json:"assessments"`
}

type assessmentDTO struct {
	ID                wireID          `json:"id"`
	Location          entity.Location `json:"location"`
	RiskScore         float64         `json:"risk_score"`
	RiskType          string          `json:"risk_type"`
	Confidence        float64         `json:"confidence"`
	GeofenceRadius    float64         `json:"geofence_radius"`
	ThresholdExceeded bool            `json:"threshold_exceeded"`
	Recommendation    string          `json:"recommendation"`
	Timestamp         string          `json:"timestamp"`
}

func (d assessmentDTO) toEntity() entity.RiskAssessment {
	return entity.RiskAssessment{
		ID:                string(d.ID),
		Location:          d.Location,
		RiskScore:         d.RiskScore,
		RiskType:          entity.RiskType(d.RiskType),
		Confidence:        d.Confidence,
		GeofenceRadius:    d.GeofenceRadius,
		ThresholdExceeded: d.ThresholdExceeded,
		Recommendation:    d.Recommendation,
		Timestamp:         parseTimestamp(d.Timestamp),
	}
}

// ListRiskHistory returns up to limit stored assessments, newest last.
func (c *Client) ListRiskHistory(ctx context.Context, limit int) ([]entity.RiskAssessment, error) {
	ret := riskHistoryResponse{}

	err := c.getJSON(ctx, fmt.Sprintf("/risk/historical?limit=%d", limit), &ret)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk history: %w", err)
	}

	assessments := make([]entity.RiskAssessment, 0, len(ret.Assessments))
	for _, dto := range ret.Assessments {
		assessments = append(assessments, dto.toEntity())
	}

	// The backend answers newest first, the snapshot keeps newest last.
	slices.Reverse(assessments)

	return assessments, nil
}

type assessResponse struct {
	Status            string  `json:"status"`
	AssessmentID      wireID  `json:"assessment_id"`
	RiskScore         float64 `json:"risk_score"`
	RiskType          string  `json:"risk_type"`
	Confidence        float64 `json:"confidence"`
	GeofenceRadius    float64 `json:"geofence_radius"`
	ThresholdExceeded bool    `json:"threshold_exceeded"`
	Recommendation    string  `json:"recommendation"`
}

// AssessRisk asks the risk service for a fresh assessment of location.
// The assessment record is created server side; the returned value is
// immutable.
func (c *Client) AssessRisk(ctx context.Context, location entity.Location) (entity.RiskAssessment, error) {
	body := map[string]interface{}{
		"location": location,
	}

	ret := assessResponse{}

	err := c.postJSON(ctx, "/risk/assess", body, &ret)
	if err != nil {
		return entity.RiskAssessment{}, fmt.Errorf("failed to assess risk: %w", err)
	}

	return entity.RiskAssessment{
		ID:                string(ret.AssessmentID),
		Location:          location,
		RiskScore:         ret.RiskScore,
		RiskType:          entity.RiskType(ret.RiskType),
		Confidence:        ret.Confidence,
		GeofenceRadius:    ret.GeofenceRadius,
		ThresholdExceeded: ret.ThresholdExceeded,
		Recommendation:    ret.Recommendation,
		Timestamp:         c.clock.Now().UTC(),
	}, nil
}
