// Package e2e provides a fake Earth Sentinel backend speaking the real
// HTTP/JSON contract, for end-to-end dashboard tests.
package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

type assessment struct {
	ID        string  `json:"id"`
	RiskScore float64 `json:"risk_score"`
	RiskType  string  `json:"risk_type"`
	Timestamp string  `json:"timestamp"`
	Location  struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}

// FakeBackend serves the six consumed endpoints with switchable per-route
// failures and call recording.
type FakeBackend struct {
	mu sync.Mutex

	assessments []assessment // newest first, like the real backend
	nextID      int

	FailRisk      bool
	FailContracts bool
	FailDispatch  bool

	TriggerCalls  []string
	SimulateCalls []string

	server *httptest.Server
}

func NewFakeBackend() *FakeBackend {
	ret := &FakeBackend{nextID: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /risk/historical", ret.handleHistory)
	mux.HandleFunc("POST /risk/assess", ret.handleAssess)
	mux.HandleFunc("GET /contracts", ret.handleContracts)
	mux.HandleFunc("POST /contracts/auto-trigger", ret.handleAutoTrigger)
	mux.HandleFunc("GET /dispatch/dashboard", ret.handleDashboard)
	mux.HandleFunc("POST /dispatch/simulate-emergency", ret.handleSimulate)

	ret.server = httptest.NewServer(mux)

	return ret
}

func (f *FakeBackend) URL() string {
	return f.server.URL
}

// SetFailRisk toggles risk subsystem failures without racing in-flight
// handlers.
func (f *FakeBackend) SetFailRisk(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FailRisk = fail
}

func (f *FakeBackend) Close() {
	f.server.Close()
}

func (f *FakeBackend) handleHistory(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailRisk {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "risk model offline"})

		return
	}

	limit := len(f.assessments)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed < limit {
			limit = parsed
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"assessments": f.assessments[:limit],
	})
}

func (f *FakeBackend) handleAssess(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailRisk {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "risk model offline"})

		return
	}

	body := struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"location"`
	}{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	created := assessment{
		ID:        fmt.Sprintf("A%d", f.nextID),
		RiskScore: 0.8,
		RiskType:  "fire",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000000"),
	}
	created.Location = body.Location

	f.nextID++
	f.assessments = append([]assessment{created}, f.assessments...)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":          "success",
		"assessment_id":   created.ID,
		"risk_score":      created.RiskScore,
		"risk_type":       created.RiskType,
		"confidence":      0.9,
		"geofence_radius": 2500,
		"recommendation":  "evacuate",
	})
}

func (f *FakeBackend) handleContracts(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailContracts {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "contract service offline"})

		return
	}

	contracts := []map[string]interface{}{
		{
			"contract_id": "CT1",
			"status":      "active",
			"created_at":  "2026-08-20T08:00:00.000000",
			"conditions": []map[string]interface{}{
				{"condition_type": "risk_threshold", "parameters": map[string]interface{}{"min_risk_score": 0.7}},
			},
			"payment_instructions": []map[string]interface{}{
				{"beneficiary_id": "B1", "amount": 1000, "currency": "USD", "payment_method": "aadhaar_bridge", "priority": 1},
			},
			"execution_history": []map[string]interface{}{},
		},
	}

	// Triggered contracts gain an execution record.
	if len(f.TriggerCalls) > 0 {
		contracts[0]["status"] = "executed"
		contracts[0]["execution_history"] = []map[string]interface{}{
			{"executed_at": "2026-08-24T10:00:00.000000", "trigger_type": "auto"},
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"count":     len(contracts),
		"contracts": contracts,
	})
}

func (f *FakeBackend) handleAutoTrigger(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailContracts {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "contract service offline"})

		return
	}

	body := struct {
		RiskAssessmentID string `json:"risk_assessment_id"`
	}{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.TriggerCalls = append(f.TriggerCalls, body.RiskAssessmentID)

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
}

func (f *FakeBackend) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailDispatch {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "dispatch offline"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"dashboard": map[string]interface{}{
			"resource_statistics": map[string]interface{}{
				"drone":          map[string]int{"total": 4, "available": 3, "dispatched": 1, "maintenance": 0},
				"emergency_team": map[string]int{"total": 2, "available": 2, "dispatched": 0, "maintenance": 0},
			},
			"assignment_statistics": map[string]int{"assigned": len(f.SimulateCalls)},
			"total_resources":       6,
			"active_assignments":    len(f.SimulateCalls),
			"recent_assignments":    []interface{}{},
			"system_status":         "operational",
			"last_updated":          time.Now().UTC().Format("2006-01-02T15:04:05.000000"),
		},
	})
}

func (f *FakeBackend) handleSimulate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailDispatch {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "dispatch offline"})

		return
	}

	body := struct {
		EmergencyType string `json:"emergency_type"`
	}{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.SimulateCalls = append(f.SimulateCalls, body.EmergencyType)

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
