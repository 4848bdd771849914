package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earth-sentinel/sentinel-dash/internal/client"
	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
)

func newTestClient(t *testing.T, handler http.Handler) (*client.Client, clockwork.FakeClock) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clock := clockwork.NewFakeClock()

	return client.New(server.URL, server.Client(), clock), clock
}

func TestListRiskHistory(t *testing.T) {
	var gotPath string

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()

		// Backend answers newest first; ids are numeric on the wire.
		_, _ = w.Write([]byte(`{
			"status": "success",
			"assessments": [
				{"id": 2, "risk_score": 0.8, "risk_type": "fire", "timestamp": "2026-08-24T10:00:00.000000"},
				{"id": 1, "risk_score": 0.3, "risk_type": "flood", "timestamp": "2026-08-24T09:00:00.000000"}
			]
		}`))
	}))

	assessments, err := c.ListRiskHistory(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "/risk/historical?limit=2", gotPath)

	require.Len(t, assessments, 2)
	assert.Equal(t, "1", assessments[0].ID, "sequence is newest last")
	assert.Equal(t, "2", assessments[1].ID)
	assert.Equal(t, entity.RiskTypeFire, assessments[1].RiskType)
	assert.Equal(t, time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC), assessments[1].Timestamp)
}

func TestAssessRisk(t *testing.T) {
	c, clock := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/risk/assess", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"status": "success",
			"assessment_id": "A1",
			"risk_score": 0.8,
			"risk_type": "fire",
			"confidence": 0.9,
			"geofence_radius": 2500,
			"recommendation": "evacuate"
		}`))
	}))

	location := entity.Location{Lat: -23.5505, Lon: -46.6333}

	assessment, err := c.AssessRisk(context.Background(), location)
	require.NoError(t, err)

	assert.Equal(t, "A1", assessment.ID)
	assert.Equal(t, 0.8, assessment.RiskScore)
	assert.Equal(t, location, assessment.Location)
	assert.Equal(t, "evacuate", assessment.Recommendation)
	assert.Equal(t, clock.Now().UTC(), assessment.Timestamp)
}

func TestServiceErrorOnNonSuccessStatusBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "error": "model offline"}`))
	}))

	_, err := c.ListContracts(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrService)
	assert.NotErrorIs(t, err, client.ErrNetwork)
	assert.Contains(t, err.Error(), "model offline")
}

func TestServiceErrorOnNon2xx(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
	}))

	err := c.AutoTriggerContracts(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrService)
}

func TestNetworkErrorOnUnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing listens anymore

	c := client.New(server.URL, &http.Client{Timeout: time.Second}, clockwork.NewFakeClock())

	_, err := c.GetDispatchDashboard(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrNetwork)
	assert.NotErrorIs(t, err, client.ErrService)
}

func TestGetDispatchDashboard(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dispatch/dashboard", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"status": "success",
			"dashboard": {
				"resource_statistics": {"drone": {"total": 4, "available": 3, "dispatched": 1, "maintenance": 0}},
				"assignment_statistics": {"assigned": 2},
				"total_resources": 4,
				"active_assignments": 2,
				"recent_assignments": [
					{"assignment_id": "as1", "resource_id": "r1", "status": "en_route", "assigned_at": "2026-08-24T10:00:00.000000"}
				],
				"system_status": "operational",
				"last_updated": "2026-08-24T10:05:00.000000"
			}
		}`))
	}))

	stats, err := c.GetDispatchDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalResources)
	assert.Equal(t, 3, stats.ResourceStatistics["drone"].Available)
	require.Len(t, stats.RecentAssignments, 1)
	assert.Equal(t, entity.DispatchStatusEnRoute, stats.RecentAssignments[0].Status)
}

func TestSimulateEmergencyBody(t *testing.T) {
	var gotBody string

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)

		_, _ = w.Write([]byte(`{"status": "success"}`))
	}))

	err := c.SimulateEmergency(context.Background(), "fire", entity.Location{Lat: -23.5505, Lon: -46.6333, Address: "São Paulo Emergency Zone"})
	require.NoError(t, err)

	assert.Contains(t, gotBody, `"emergency_type":"fire"`)
	assert.Contains(t, gotBody, `"address":"São Paulo Emergency Zone"`)
}
