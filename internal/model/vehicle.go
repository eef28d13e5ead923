package model

import "math"

// VehicleStatus is the lifecycle state of a vehicle.
type VehicleStatus string

const (
	VehicleWaiting   VehicleStatus = "waiting"
	VehicleAssigned  VehicleStatus = "assigned"
	VehicleCharging  VehicleStatus = "charging"
	VehicleCompleted VehicleStatus = "completed"
	VehicleFailed    VehicleStatus = "failed"
)

// VehicleMaxCharge is the vehicle battery capacity in energy units.
const VehicleMaxCharge = 100.0

// None marks an empty cross-entity reference. Assignment fields hold ids
// resolved through the simulator's tables, never pointers.
const None = -1

// Vehicle is an electric vehicle parked in the park that must be charged
// to RequiredCharge before DepartureTime.
type Vehicle struct {
	ID             int           `json:"id"`
	ArrivalTime    int           `json:"arrival_time"` // minute
	Position       Point         `json:"position"`
	InitialCharge  float64       `json:"initial_charge"`
	CurrentCharge  float64       `json:"current_charge"`
	DepartureTime  int           `json:"departure_time"` // minute
	RequiredCharge float64       `json:"required_charge"`
	Status         VehicleStatus `json:"status"`
	AssignedRobot  int           `json:"assigned_robot"` // robot id, or None
	ChargingStart  int           `json:"charging_start"` // minute, or None
	ChargingEnd    int           `json:"charging_end"`   // minute, or None
	Priority       float64       `json:"priority"`
}

// NewVehicle creates a waiting vehicle with no assignment.
func NewVehicle(id, arrival int, pos Point, initial float64, departure int, required float64) *Vehicle {
	return &Vehicle{
		ID:             id,
		ArrivalTime:    arrival,
		Position:       pos,
		InitialCharge:  initial,
		CurrentCharge:  initial,
		DepartureTime:  departure,
		RequiredCharge: required,
		Status:         VehicleWaiting,
		AssignedRobot:  None,
		ChargingStart:  None,
		ChargingEnd:    None,
	}
}

// ChargeSpeed returns the charge-rate curve f(e) in energy per minute for
// a vehicle at charge level e: fast below 50% of capacity, medium below
// 80%, trickle above.
func ChargeSpeed(level float64) float64 {
	switch {
	case level/VehicleMaxCharge < 0.5:
		return 2.5
	case level/VehicleMaxCharge < 0.8:
		return 1.8
	default:
		return 0.8
	}
}

// chargeBands are the upper bounds and rates of the piecewise curve.
var chargeBands = []struct {
	upper float64
	rate  float64
}{
	{0.5 * VehicleMaxCharge, 2.5},
	{0.8 * VehicleMaxCharge, 1.8},
	{VehicleMaxCharge, 0.8},
}

// ChargeTime integrates the charge-rate curve piecewise from the current
// level to the required level and returns the minutes needed. Returns 0
// when required <= current.
func ChargeTime(current, required float64) float64 {
	if required <= current {
		return 0
	}
	lo := current
	total := 0.0
	for _, band := range chargeBands {
		if lo >= band.upper {
			continue
		}
		hi := math.Min(required, band.upper)
		if hi > lo {
			total += (hi - lo) / band.rate
			lo = hi
		}
		if lo >= required {
			break
		}
	}
	return total
}

// NeededChargeTime is ChargeTime applied to the vehicle's current and
// required levels.
func (v *Vehicle) NeededChargeTime() float64 {
	return ChargeTime(v.CurrentCharge, v.RequiredCharge)
}

// ChargeNeed returns the outstanding energy, never negative.
func (v *Vehicle) ChargeNeed() float64 {
	return math.Max(0, v.RequiredCharge-v.CurrentCharge)
}

// TimeLeft returns the minutes until departure, floored at 1 so it can be
// used as a divisor.
func (v *Vehicle) TimeLeft(now int) float64 {
	return math.Max(1, float64(v.DepartureTime-now))
}

// UpdatePriority recomputes and stores the dispatch priority at time now.
// Vehicles departing within 30 minutes get a 10x urgency factor; every
// waited hour adds one point.
func (v *Vehicle) UpdatePriority(now int) float64 {
	urgency := v.TimeLeft(now)
	factor := 1.0
	if urgency < 30 {
		factor = 10.0
	}
	wait := float64(now - v.ArrivalTime)
	v.Priority = (v.ChargeNeed()/urgency)*factor + wait/60
	return v.Priority
}

// Done reports whether the vehicle has left the active pool.
func (v *Vehicle) Done() bool {
	return v.Status == VehicleCompleted || v.Status == VehicleFailed
}
