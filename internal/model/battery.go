package model

import "math"

// BatteryStatus is the lifecycle state of a swappable battery.
type BatteryStatus string

const (
	BatteryAvailable BatteryStatus = "available"
	BatteryInUse     BatteryStatus = "in-use"
	BatteryCharging  BatteryStatus = "charging"
)

// DefaultBatteryCapacity is the robot battery capacity in energy units.
const DefaultBatteryCapacity = 60.0

// batteryFullFraction is the fill level at which a charging battery is
// considered swappable again.
const batteryFullFraction = 0.95

// Battery is a swappable robot battery. It lives at its home station while
// available or charging and travels with its assigned robot while in use.
type Battery struct {
	ID            int           `json:"id"`
	MaxCapacity   float64       `json:"max_capacity"`
	CurrentCharge float64       `json:"current_charge"`
	Status        BatteryStatus `json:"status"`
	Location      Point         `json:"location"`
	AssignedRobot int           `json:"assigned_robot"` // robot id, or None
	HomeStation   Point         `json:"home_station"`
	ChargeStart   int           `json:"charge_start"` // minute, or None
}

// NewBattery creates a full battery resting at its home station.
func NewBattery(id int, capacity float64, home Point) *Battery {
	return &Battery{
		ID:            id,
		MaxCapacity:   capacity,
		CurrentCharge: capacity,
		Status:        BatteryAvailable,
		Location:      home,
		AssignedRobot: None,
		HomeStation:   home,
		ChargeStart:   None,
	}
}

// RechargeRate returns the station charging rate g(c) in energy per minute
// for a battery at charge c.
func (b *Battery) RechargeRate() float64 {
	switch {
	case b.CurrentCharge/b.MaxCapacity < 0.5:
		return 2.0
	case b.CurrentCharge/b.MaxCapacity < 0.8:
		return 1.5
	default:
		return 1.0
	}
}

// Recharge raises the charge by the station rate over the elapsed minutes,
// capped at capacity. Returns false if the battery was already full.
func (b *Battery) Recharge(minutes float64) bool {
	if b.CurrentCharge >= b.MaxCapacity {
		return false
	}
	b.CurrentCharge = math.Min(b.MaxCapacity, b.CurrentCharge+b.RechargeRate()*minutes)
	return true
}

// SwapReady reports whether a charging battery has reached the level at
// which it transitions back to available.
func (b *Battery) SwapReady() bool {
	return b.CurrentCharge >= b.MaxCapacity*batteryFullFraction
}
