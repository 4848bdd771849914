package client

import (
	"context"
	"fmt"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
)

type dashboardResponse struct {
	Status    string       `json:"status"`
	Dashboard dashboardDTO `json:"dashboard"`
}

type dashboardDTO struct {
	ResourceStatistics   map[string]entity.ResourceStat `json:"resource_statistics"`
	AssignmentStatistics map[string]int                 `json:"assignment_statistics"`
	TotalResources       int                            `json:"total_resources"`
	ActiveAssignments    int                            `json:"active_assignments"`
	RecentAssignments    []assignmentDTO                `json:"recent_assignments"`
	SystemStatus         string                         `json:"system_status"`
	LastUpdated          string                         `json:"last_updated"`
}

type assignmentDTO struct {
	AssignmentID string `json:"assignment_id"`
	ResourceID   string `json:"resource_id"`
	Status       string `json:"status"`
	AssignedAt   string `json:"assigned_at"`
}

// GetDispatchDashboard returns the dispatch system aggregate.
func (c *Client) GetDispatchDashboard(ctx context.Context) (entity.SystemStats, error) {
	ret := dashboardResponse{}

	err := c.getJSON(ctx, "/dispatch/dashboard", &ret)
	if err != nil {
		return entity.SystemStats{}, fmt.Errorf("failed to get dispatch dashboard: %w", err)
	}

	assignments := make([]entity.DispatchAssignment, 0, len(ret.Dashboard.RecentAssignments))
	for _, dto := range ret.Dashboard.RecentAssignments {
		assignments = append(assignments, entity.DispatchAssignment{
			AssignmentID: dto.AssignmentID,
			ResourceID:   dto.ResourceID,
			Status:       entity.DispatchStatus(dto.Status),
			AssignedAt:   parseTimestamp(dto.AssignedAt),
		})
	}

	return entity.SystemStats{
		ResourceStatistics:   ret.Dashboard.ResourceStatistics,
		AssignmentStatistics: ret.Dashboard.AssignmentStatistics,
		TotalResources:       ret.Dashboard.TotalResources,
		ActiveAssignments:    ret.Dashboard.ActiveAssignments,
		RecentAssignments:    assignments,
		SystemStatus:         ret.Dashboard.SystemStatus,
		LastUpdated:          parseTimestamp(ret.Dashboard.LastUpdated),
	}, nil
}

// SimulateEmergency asks the dispatch service to run an emergency
// scenario with automatic resource dispatch.
func (c *Client) SimulateEmergency(ctx context.Context, emergencyType string, location entity.Location) error {
	body := map[string]interface{}{
		"emergency_type": emergencyType,
		"location":       location,
	}

	err := c.postJSON(ctx, "/dispatch/simulate-emergency", body, nil)
	if err != nil {
		return fmt.Errorf("failed to simulate emergency: %w", err)
	}

	return nil
}
