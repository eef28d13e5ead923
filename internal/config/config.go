package config

import (
	"errors"
	"fmt"
	"os"

	"charging-robots/internal/model"

	"gopkg.in/yaml.v3"
)

// Scale names select a fleet preset.
const (
	ScaleSmall  = "small"
	ScaleMedium = "medium"
	ScaleLarge  = "large"
)

// Policy names accepted by the dispatcher.
const (
	PolicyNearestFirst       = "nearest_first"
	PolicyMaxChargeNeedFirst = "max_charge_need_first"
	PolicyEarliestDeadline   = "earliest_deadline_first"
	PolicyMostUrgentFirst    = "most_urgent_first"
	PolicyHybrid             = "hybrid_strategy"
	PolicyRL                 = "rl"
)

// Policies lists every dispatch policy in presentation order.
var Policies = []string{
	PolicyNearestFirst,
	PolicyMaxChargeNeedFirst,
	PolicyEarliestDeadline,
	PolicyMostUrgentFirst,
	PolicyHybrid,
	PolicyRL,
}

// Scales lists the fleet presets in ascending size.
var Scales = []string{ScaleSmall, ScaleMedium, ScaleLarge}

// FleetConfig sizes the simulation: robot and battery counts plus the base
// vehicle arrival rate. A zero value means "use the scale preset".
type FleetConfig struct {
	Robots          int     `yaml:"robots"`
	Batteries       int     `yaml:"batteries"`
	VehiclesPerHour float64 `yaml:"vehicles_per_hour"`
}

var fleetPresets = map[string]FleetConfig{
	ScaleSmall:  {Robots: 8, Batteries: 20, VehiclesPerHour: 10},
	ScaleMedium: {Robots: 25, Batteries: 50, VehiclesPerHour: 30},
	ScaleLarge:  {Robots: 60, Batteries: 120, VehiclesPerHour: 60},
}

// ParkConfig is the rectangular park in distance units.
type ParkConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PointConfig is a station coordinate.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// RobotConfig holds per-robot kinematic and consumption parameters.
type RobotConfig struct {
	Speed      float64 `yaml:"speed"`       // distance units per minute
	MovingRate float64 `yaml:"moving_rate"` // energy per minute while moving
	IdleRate   float64 `yaml:"idle_rate"`   // energy per minute while idle
}

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Scale           string        `yaml:"scale"`
	Policy          string        `yaml:"policy"`
	Seed            int64         `yaml:"seed"`
	HorizonMinutes  int           `yaml:"horizon_minutes"`
	Park            ParkConfig    `yaml:"park"`
	Stations        []PointConfig `yaml:"stations"`
	Fleet           FleetConfig   `yaml:"fleet"`
	Robot           RobotConfig   `yaml:"robot"`
	BatteryCapacity float64       `yaml:"battery_capacity"`
}

// Default returns the canonical configuration: a 1000x1000 park with the
// main station near the origin, one station toward each corner and one in
// the center, a 300-hour horizon, and the small fleet preset.
func Default() *Config {
	return &Config{
		Scale:          ScaleSmall,
		Policy:         PolicyHybrid,
		Seed:           42,
		HorizonMinutes: 300 * 60,
		Park:           ParkConfig{Width: 1000, Height: 1000},
		Stations: []PointConfig{
			{X: 50, Y: 50},
			{X: 900, Y: 100},
			{X: 100, Y: 900},
			{X: 900, Y: 900},
			{X: 500, Y: 500},
		},
		Robot: RobotConfig{
			Speed:      model.DefaultRobotSpeed,
			MovingRate: model.DefaultRobotMovingRate,
			IdleRate:   model.DefaultRobotIdleRate,
		},
		BatteryCapacity: model.DefaultBatteryCapacity,
	}
}

// Load reads a YAML config, overlays it onto the defaults, and validates.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration. Unknown scale or policy is fatal at
// setup, never at run time.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, ok := fleetPresets[c.Scale]; !ok && !c.Fleet.explicit() {
		return fmt.Errorf("unknown scale %q (want one of %v, or an explicit fleet block)", c.Scale, Scales)
	}
	if !validPolicy(c.Policy) {
		return fmt.Errorf("unknown policy %q (want one of %v)", c.Policy, Policies)
	}
	if c.HorizonMinutes <= 0 {
		return errors.New("horizon_minutes must be > 0")
	}
	if c.Park.Width <= 0 || c.Park.Height <= 0 {
		return errors.New("park dimensions must be > 0")
	}
	if len(c.Stations) == 0 {
		return errors.New("at least one station is required")
	}
	park := c.ParkModel()
	for i, st := range c.Stations {
		if !park.Contains(model.Point{X: st.X, Y: st.Y}) {
			return fmt.Errorf("station %d at (%.1f, %.1f) lies outside the park", i, st.X, st.Y)
		}
	}
	if c.Robot.Speed <= 0 {
		return errors.New("robot speed must be > 0")
	}
	if c.Robot.MovingRate < 0 || c.Robot.IdleRate < 0 {
		return errors.New("robot consumption rates must be >= 0")
	}
	if c.BatteryCapacity <= 0 {
		return errors.New("battery_capacity must be > 0")
	}
	fleet := c.ResolvedFleet()
	if fleet.Robots <= 0 || fleet.Batteries <= 0 || fleet.VehiclesPerHour <= 0 {
		return errors.New("fleet counts and arrival rate must be > 0")
	}
	return nil
}

// Preset returns the fleet preset registered under the scale name.
func Preset(scale string) (FleetConfig, bool) {
	f, ok := fleetPresets[scale]
	return f, ok
}

// ResolvedFleet returns the explicit fleet block if fully specified,
// otherwise the preset for the configured scale.
func (c *Config) ResolvedFleet() FleetConfig {
	if c.Fleet.explicit() {
		return c.Fleet
	}
	return fleetPresets[c.Scale]
}

// ParkModel converts the park section to the model type.
func (c *Config) ParkModel() model.Park {
	return model.Park{Width: c.Park.Width, Height: c.Park.Height}
}

// StationPoints converts the station list to model points.
func (c *Config) StationPoints() []model.Point {
	out := make([]model.Point, len(c.Stations))
	for i, st := range c.Stations {
		out[i] = model.Point{X: st.X, Y: st.Y}
	}
	return out
}

func (f FleetConfig) explicit() bool {
	return f.Robots > 0 && f.Batteries > 0 && f.VehiclesPerHour > 0
}

func validPolicy(name string) bool {
	for _, p := range Policies {
		if p == name {
			return true
		}
	}
	return false
}
