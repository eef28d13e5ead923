package models

import (
	"charging-robots/internal/compare"
	"charging-robots/internal/model"
	"charging-robots/internal/sim"
)

// SimulationResponse describes a session's run state.
type SimulationResponse struct {
	ID          string `json:"id"`
	Scale       string `json:"scale"`
	Policy      string `json:"policy"`
	Seed        int64  `json:"seed"`
	CurrentTime int    `json:"current_time"`
	Horizon     int    `json:"horizon"`
	Done        bool   `json:"done"`
}

// SnapshotResponse is a full viewer frame for a session.
type SnapshotResponse struct {
	ID          string          `json:"id"`
	CurrentTime int             `json:"current_time"`
	Horizon     int             `json:"horizon"`
	Done        bool            `json:"done"`
	Vehicles    []model.Vehicle `json:"vehicles"`
	Robots      []model.Robot   `json:"robots"`
	Batteries   []model.Battery `json:"batteries"`
	Stats       sim.Stats       `json:"stats"`
}

// StatsResponse carries the statistics derived at the current clock.
type StatsResponse struct {
	ID          string    `json:"id"`
	CurrentTime int       `json:"current_time"`
	Done        bool      `json:"done"`
	Stats       sim.Stats `json:"stats"`
}

// LogResponse returns the tail of a session's event log.
type LogResponse struct {
	ID    string   `json:"id"`
	Lines []string `json:"lines"`
}

// CompareResponse carries the ranked comparison outcome.
type CompareResponse struct {
	Results []compare.Result          `json:"results"`
	Best    map[string]compare.Result `json:"best_by_scale"`
}

// PolicyInfo describes one dispatch policy.
type PolicyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScaleInfo describes one fleet preset.
type ScaleInfo struct {
	Name            string  `json:"name"`
	Robots          int     `json:"robots"`
	Batteries       int     `json:"batteries"`
	VehiclesPerHour float64 `json:"vehicles_per_hour"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
