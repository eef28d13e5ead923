package models

// CreateSimulationRequest starts an interactive simulation session. Zero
// fields fall back to the server defaults.
type CreateSimulationRequest struct {
	Scale          string `json:"scale,omitempty"`
	Policy         string `json:"policy,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
	HorizonMinutes int    `json:"horizon_minutes,omitempty"`
}

// CompareRequest runs every requested (scale, policy) pair over a shared
// arrival schedule.
type CompareRequest struct {
	Scales         []string `json:"scales,omitempty"`   // default: all
	Policies       []string `json:"policies,omitempty"` // default: all
	Seed           *int64   `json:"seed,omitempty"`
	HorizonMinutes int      `json:"horizon_minutes,omitempty"`
}
