package model

// RobotStatus is the state-machine state of a charging robot.
type RobotStatus string

const (
	RobotIdle            RobotStatus = "idle"
	RobotMovingToVehicle RobotStatus = "moving_to_vehicle"
	RobotChargingVehicle RobotStatus = "charging_vehicle"
	RobotReturning       RobotStatus = "returning"
	RobotSwappingBattery RobotStatus = "swapping_battery"
)

// Default robot kinematic and consumption parameters, in distance units
// per minute and energy units per minute.
const (
	DefaultRobotSpeed      = 8.0
	DefaultRobotMovingRate = 0.04
	DefaultRobotIdleRate   = 0.005
)

// Robot is a mobile charging robot. It carries at most one battery and
// serves at most one vehicle at a time.
type Robot struct {
	ID            int         `json:"id"`
	HomeStation   Point       `json:"home_station"`
	Position      Point       `json:"position"`
	BatteryID     int         `json:"battery_id"`     // battery id, or None
	TargetVehicle int         `json:"target_vehicle"` // vehicle id, or None
	Status        RobotStatus `json:"status"`
	Speed         float64     `json:"speed"`
	MovingRate    float64     `json:"moving_rate"`
	IdleRate      float64     `json:"idle_rate"`
	LastAssigned  int         `json:"last_assigned"` // minute
}

// NewRobot creates an idle robot parked at its home station with no battery.
func NewRobot(id int, home Point, speed, movingRate, idleRate float64) *Robot {
	return &Robot{
		ID:            id,
		HomeStation:   home,
		Position:      home,
		BatteryID:     None,
		TargetVehicle: None,
		Status:        RobotIdle,
		Speed:         speed,
		MovingRate:    movingRate,
		IdleRate:      idleRate,
	}
}

// DistanceTo returns the Euclidean distance from the robot to p.
func (r *Robot) DistanceTo(p Point) float64 {
	return r.Position.DistanceTo(p)
}

// TimeToReach returns the travel time in minutes to p at the robot's speed.
func (r *Robot) TimeToReach(p Point) float64 {
	return r.DistanceTo(p) / r.Speed
}

// TripEnergy returns the energy spent traveling from the robot's position
// to p: travel time times the moving consumption rate.
func (r *Robot) TripEnergy(p Point) float64 {
	return r.TimeToReach(p) * r.MovingRate
}

// NearestStation returns the station closest to the robot.
func (r *Robot) NearestStation(stations []Point) Point {
	return NearestStation(stations, r.Position)
}
