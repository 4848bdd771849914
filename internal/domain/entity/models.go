package entity

import "time"

type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

type RiskType string

const (
	RiskTypeFlood          RiskType = "flood"
	RiskTypeEarthquake     RiskType = "earthquake"
	RiskTypeFire           RiskType = "fire"
	RiskTypeExtremeWeather RiskType = "extreme_weather"
)

// RiskAssessment is immutable once returned by the risk service.
// risk_score is always within [0, 1].
type RiskAssessment struct {
	ID                string    `json:"id"`
	Location          Location  `json:"location"`
	RiskScore         float64   `json:"risk_score"`
	RiskType          RiskType  `json:"risk_type"`
	Confidence        float64   `json:"confidence"`
	GeofenceRadius    float64   `json:"geofence_radius"`
	ThresholdExceeded bool      `json:"threshold_exceeded"`
	Recommendation    string    `json:"recommendation,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

type ContractStatus string

const (
	ContractStatusPending  ContractStatus = "pending"
	ContractStatusActive   ContractStatus = "active"
	ContractStatusExecuted ContractStatus = "executed"
	ContractStatusVoid     ContractStatus = "void"
)

type ContractCondition struct {
	ConditionType string                 `json:"condition_type"`
	Parameters    map[string]interface{} `json:"parameters"`
	Description   string                 `json:"description"`
}

type PaymentInstruction struct {
	BeneficiaryID string                 `json:"beneficiary_id"`
	Amount        float64                `json:"amount"`
	Currency      string                 `json:"currency"`
	PaymentMethod string                 `json:"payment_method"`
	Priority      int                    `json:"priority"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// ExecutionRecord entries are free-form on the wire; the dashboard only
// cares whether a contract has any.
type ExecutionRecord map[string]interface{}

type Contract struct {
	ID                  string               `json:"contract_id"`
	Status              ContractStatus       `json:"status"`
	Conditions          []ContractCondition  `json:"conditions"`
	PaymentInstructions []PaymentInstruction `json:"payment_instructions"`
	ExecutionHistory    []ExecutionRecord    `json:"execution_history"`
	CreatedAt           time.Time            `json:"created_at"`
}

type DispatchStatus string

const (
	DispatchStatusAssigned  DispatchStatus = "assigned"
	DispatchStatusEnRoute   DispatchStatus = "en_route"
	DispatchStatusOnScene   DispatchStatus = "on_scene"
	DispatchStatusCompleted DispatchStatus = "completed"
)

type DispatchAssignment struct {
	AssignmentID string         `json:"assignment_id"`
	ResourceID   string         `json:"resource_id"`
	Status       DispatchStatus `json:"status"`
	AssignedAt   time.Time      `json:"assigned_at"`
}

// ResourceStat counts resources of one type by availability.
type ResourceStat struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Dispatched  int `json:"dispatched"`
	Maintenance int `json:"maintenance"`
}

// SystemStats is the dispatch dashboard aggregate, replaced wholesale on
// every sync tick.
type SystemStats struct {
	ResourceStatistics   map[string]ResourceStat `json:"resource_statistics"`
	AssignmentStatistics map[string]int          `json:"assignment_statistics"`
	TotalResources       int                     `json:"total_resources"`
	ActiveAssignments    int                     `json:"active_assignments"`
	RecentAssignments    []DispatchAssignment    `json:"recent_assignments"`
	SystemStatus         string                  `json:"system_status"`
	LastUpdated          time.Time               `json:"last_updated"`
}

// Field identifies one independently refreshed slice of the snapshot.
type Field string

const (
	FieldAssessments Field = "assessments"
	FieldContracts   Field = "contracts"
	FieldStats       Field = "stats"
)

func Fields() []Field {
	return []Field{FieldAssessments, FieldContracts, FieldStats}
}

// FieldHealth records the fetch outcome history of one snapshot field so
// staleness is observable without an error banner.
type FieldHealth struct {
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitempty"`
}

// SyncSnapshot holds the last known good value per field. Fields are
// overwritten independently; a failed fetch leaves its field untouched.
type SyncSnapshot struct {
	Assessments []RiskAssessment      `json:"assessments"`
	Contracts   []Contract            `json:"contracts"`
	Stats       SystemStats           `json:"stats"`
	LastUpdated time.Time             `json:"last_updated"`
	Health      map[Field]FieldHealth `json:"health"`
}
