// Package view derives presentation-ready values from a sync snapshot.
// Everything here is pure: identical snapshot in, identical output out.
package view

import (
	"time"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
)

type RiskLevel string

const (
	RiskLevelHigh   RiskLevel = "HIGH"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelLow    RiskLevel = "LOW"
)

type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
)

const (
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// Classify buckets a risk score. Boundary values belong to the higher
// bucket.
func Classify(score float64) RiskLevel {
	switch {
	case score >= highThreshold:
		return RiskLevelHigh
	case score >= mediumThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// ColorFor maps a risk score to its display bucket, on the same
// thresholds as Classify.
func ColorFor(score float64) Color {
	switch Classify(score) {
	case RiskLevelHigh:
		return ColorRed
	case RiskLevelMedium:
		return ColorYellow
	default:
		return ColorGreen
	}
}

// Utilization returns the available/total ratio of one resource type.
// A type with no resources counts as zero, not as a fault.
func Utilization(stat entity.ResourceStat) float64 {
	if stat.Total == 0 {
		return 0
	}

	return float64(stat.Available) / float64(stat.Total)
}

// RecentAssessments returns the n most recent assessments, newest first.
// The snapshot sequence is ordered newest last.
func RecentAssessments(snapshot entity.SyncSnapshot, n int) []entity.RiskAssessment {
	assessments := snapshot.Assessments
	if n < 0 {
		n = 0
	}

	if n > len(assessments) {
		n = len(assessments)
	}

	ret := make([]entity.RiskAssessment, 0, n)
	for i := len(assessments) - 1; i >= len(assessments)-n; i-- {
		ret = append(ret, assessments[i])
	}

	return ret
}

// TopContracts returns the first n contracts of the snapshot.
func TopContracts(snapshot entity.SyncSnapshot, n int) []entity.Contract {
	contracts := snapshot.Contracts
	if n < 0 {
		n = 0
	}

	if n > len(contracts) {
		n = len(contracts)
	}

	return contracts[:n]
}

// ExecutedContracts returns contracts with a non-empty execution history.
func ExecutedContracts(snapshot entity.SyncSnapshot) []entity.Contract {
	ret := make([]entity.Contract, 0, len(snapshot.Contracts))

	for _, contract := range snapshot.Contracts {
		if len(contract.ExecutionHistory) > 0 {
			ret = append(ret, contract)
		}
	}

	return ret
}

// AssessmentView is one assessment decorated for display.
type AssessmentView struct {
	entity.RiskAssessment
	Level RiskLevel `json:"level"`
	Color Color     `json:"color"`
}

// Overview is the presentation payload assembled from one snapshot.
type Overview struct {
	TotalAssessments  int                                 `json:"total_assessments"`
	HighRiskCount     int                                 `json:"high_risk_count"`
	Recent            []AssessmentView                    `json:"recent_assessments"`
	ContractCount     int                                 `json:"contract_count"`
	ExecutedContracts int                                 `json:"executed_contracts"`
	Utilization       map[string]float64                  `json:"resource_utilization"`
	TotalResources    int                                 `json:"total_resources"`
	ActiveAssignments int                                 `json:"active_assignments"`
	SystemStatus      string                              `json:"system_status"`
	LastUpdated       time.Time                           `json:"last_updated"`
	FieldHealth       map[entity.Field]entity.FieldHealth `json:"field_health"`
}

const recentAssessmentCount = 5

// BuildOverview computes the dashboard overview from a snapshot.
func BuildOverview(snapshot entity.SyncSnapshot) Overview {
	ret := Overview{
		TotalAssessments:  len(snapshot.Assessments),
		ContractCount:     len(snapshot.Contracts),
		ExecutedContracts: len(ExecutedContracts(snapshot)),
		Utilization:       make(map[string]float64, len(snapshot.Stats.ResourceStatistics)),
		TotalResources:    snapshot.Stats.TotalResources,
		ActiveAssignments: snapshot.Stats.ActiveAssignments,
		SystemStatus:      snapshot.Stats.SystemStatus,
		LastUpdated:       snapshot.LastUpdated,
		FieldHealth:       snapshot.Health,
	}

	for _, assessment := range snapshot.Assessments {
		if Classify(assessment.RiskScore) == RiskLevelHigh {
			ret.HighRiskCount++
		}
	}

	for _, assessment := range RecentAssessments(snapshot, recentAssessmentCount) {
		ret.Recent = append(ret.Recent, AssessmentView{
			RiskAssessment: assessment,
			Level:          Classify(assessment.RiskScore),
			Color:          ColorFor(assessment.RiskScore),
		})
	}

	for resourceType, stat := range snapshot.Stats.ResourceStatistics {
		ret.Utilization[resourceType] = Utilization(stat)
	}

	return ret
}
