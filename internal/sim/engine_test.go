package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charging-robots/internal/config"
	"charging-robots/internal/model"
)

// newTestSim builds a ready simulator with a controlled world: a single
// station at (50, 50), no generated arrivals, and the given fleet.
func newTestSim(t *testing.T, policy string, horizon int, fleet config.FleetConfig) *Simulator {
	t.Helper()
	cfg := config.Default()
	cfg.Policy = policy
	cfg.HorizonMinutes = horizon
	cfg.Fleet = fleet
	cfg.Stations = []config.PointConfig{{X: 50, Y: 50}}

	s, err := New(cfg)
	require.NoError(t, err)
	s.setupFleet(fleet)
	s.seedPeriodicEvents()
	s.ready = true
	return s
}

// addVehicle schedules a scripted arrival with its departure.
func addVehicle(s *Simulator, arrival int, pos model.Point, initial float64, departure int, required float64) *model.Vehicle {
	v := injectVehicle(s, arrival, pos, initial, departure, required)
	e := newEvent(arrival, EventVehicleArrival)
	e.Vehicle = v.ID
	s.queue.push(e)
	return v
}

// injectVehicle registers a vehicle and its departure without an arrival
// event, for tests that pair it by hand.
func injectVehicle(s *Simulator, arrival int, pos model.Point, initial float64, departure int, required float64) *model.Vehicle {
	v := model.NewVehicle(len(s.vehicles), arrival, pos, initial, departure, required)
	s.vehicles = append(s.vehicles, v)
	e := newEvent(departure, EventVehicleDeparture)
	e.Vehicle = v.ID
	s.queue.push(e)
	return v
}

// stepInto advances until the given minute's tick has run.
func stepInto(t *testing.T, s *Simulator, minute int) {
	t.Helper()
	for s.clock < minute {
		done, err := s.Step()
		require.NoError(t, err)
		require.False(t, done)
	}
}

// stepPast advances until every event of the given minute has run.
func stepPast(t *testing.T, s *Simulator, minute int) {
	t.Helper()
	for s.clock <= minute {
		done, err := s.Step()
		require.NoError(t, err)
		require.False(t, done)
	}
}

func TestSingleVehicleServedEndToEnd(t *testing.T) {
	s := newTestSim(t, config.PolicyNearestFirst, 120, config.FleetConfig{Robots: 1, Batteries: 1, VehiclesPerHour: 10})
	// 80 units from the station: a 10 minute trip.
	v := addVehicle(s, 0, model.Point{X: 50, Y: 130}, 40, 200, 60)

	stats, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.CompletedCount)
	assert.Zero(t, stats.FailedCount)
	assert.InDelta(t, 100.0, stats.CompletionRate, 1e-9)

	assert.Equal(t, model.VehicleCompleted, v.Status)
	assert.Equal(t, 10, v.ChargingStart)
	assert.GreaterOrEqual(t, v.CurrentCharge, 60.0)
	assert.LessOrEqual(t, v.CurrentCharge, 62.0)
	// Charging 40 -> 60 takes ~9.6 minutes plus transfer noise.
	assert.GreaterOrEqual(t, v.ChargingEnd, 18)
	assert.LessOrEqual(t, v.ChargingEnd, 22)

	assert.InDelta(t, 10.0, stats.AvgWaitingTime, 1e-9)
	assert.InDelta(t, float64(v.ChargingEnd-10), stats.TotalChargingTime, 1e-9)
	assert.Greater(t, stats.AvgRobotUtilization, 0.0)

	r := s.robots[0]
	assert.Equal(t, model.RobotIdle, r.Status)
	assert.Equal(t, model.Point{X: 50, Y: 50}, r.Position)
}

// A robot mid-task keeps charging below the retreat threshold, runs its
// battery down to the transfer reserve, abandons, and swaps at the station.
func TestChargingRunsDownToReserveThenAbandons(t *testing.T) {
	s := newTestSim(t, config.PolicyNearestFirst, 200, config.FleetConfig{Robots: 1, Batteries: 2, VehiclesPerHour: 10})
	r := s.robots[0]
	drained := s.batteries[0]
	drained.CurrentCharge = 16

	v := injectVehicle(s, 0, model.Point{X: 50, Y: 50}, 20, 190, 60)
	s.assign(r, v, "scripted")

	stepInto(t, s, 7)

	// Transfers 2.5, 2.5, 2.5, 0.46 bring the battery to the reserve; the
	// fifth charging minute abandons.
	assert.Equal(t, model.VehicleWaiting, v.Status)
	assert.Equal(t, model.None, v.AssignedRobot)
	assert.Equal(t, model.None, v.ChargingStart)
	assert.InDelta(t, 27.96, v.CurrentCharge, 0.45)

	assert.Equal(t, model.RobotSwappingBattery, r.Status)
	assert.Equal(t, 1, r.BatteryID)
	assert.Equal(t, 1, s.stats.BatterySwaps)
	assert.Equal(t, model.BatteryCharging, drained.Status)
	assert.Equal(t, 7, drained.ChargeStart)
	// Dropped at the reserve, then the swap minute's station charging ran.
	assert.InDelta(t, 10.0, drained.CurrentCharge, 1e-9)

	// With the fresh battery the next periodic pass finishes the job.
	stats, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Zero(t, stats.FailedCount)
	assert.Equal(t, model.VehicleCompleted, v.Status)
}

func TestShortDwellArrivalGetsEmergencyAssignment(t *testing.T) {
	s := newTestSim(t, config.PolicyNearestFirst, 100, config.FleetConfig{Robots: 1, Batteries: 1, VehiclesPerHour: 10})
	v := addVehicle(s, 5, model.Point{X: 250, Y: 50}, 40, 50, 60)

	stepPast(t, s, 5)

	// Assigned on the arrival minute, not at the next periodic pass.
	r := s.robots[0]
	assert.Equal(t, 5, r.LastAssigned)
	assert.Equal(t, v.ID, r.TargetVehicle)
	assert.Equal(t, model.RobotMovingToVehicle, r.Status)

	stats, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Zero(t, stats.FailedCount)
}

func TestLongDwellArrivalWaitsForPeriodicPass(t *testing.T) {
	s := newTestSim(t, config.PolicyNearestFirst, 100, config.FleetConfig{Robots: 1, Batteries: 1, VehiclesPerHour: 10})
	v := addVehicle(s, 5, model.Point{X: 250, Y: 50}, 40, 125, 60)

	stepInto(t, s, 6)
	r := s.robots[0]
	assert.Equal(t, model.RobotIdle, r.Status)

	stepPast(t, s, 6)
	assert.Equal(t, 6, r.LastAssigned)
	assert.Equal(t, v.ID, r.TargetVehicle)
}

func TestUnservedVehicleFailsAtDeparture(t *testing.T) {
	s := newTestSim(t, config.PolicyNearestFirst, 40, config.FleetConfig{Robots: 1, Batteries: 1, VehiclesPerHour: 10})
	// Far corner, departing in 20 minutes: out of reach for any robot.
	v := addVehicle(s, 0, model.Point{X: 900, Y: 900}, 20, 20, 80)

	stepPast(t, s, 20)

	assert.Equal(t, model.VehicleFailed, v.Status)
	assert.Equal(t, 1, s.stats.FailedCount)
	assert.Equal(t, model.RobotIdle, s.robots[0].Status)
	assert.Equal(t, model.None, s.robots[0].TargetVehicle)

	stats, err := s.Run()
	require.NoError(t, err)
	assert.Zero(t, stats.CompletedCount)
	assert.Zero(t, stats.CompletionRate)
}

// Departures scheduled past the horizon are never processed, so a vehicle
// still waiting at the end of the run does not count as failed.
func TestDepartureBeyondHorizonDoesNotFail(t *testing.T) {
	s := newTestSim(t, config.PolicyNearestFirst, 60, config.FleetConfig{Robots: 1, Batteries: 1, VehiclesPerHour: 10})
	v := addVehicle(s, 0, model.Point{X: 900, Y: 900}, 20, 500, 80)

	stats, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, model.VehicleWaiting, v.Status)
	assert.Zero(t, stats.FailedCount)
	assert.GreaterOrEqual(t, s.clock, 60)
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *Stats {
		cfg := config.Default()
		cfg.HorizonMinutes = 12 * 60
		s, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, s.Setup())
		stats, err := s.Run()
		require.NoError(t, err)
		return stats
	}

	assert.Equal(t, run(), run())
}

func TestSnapshotsExposeArrivedVehiclesOnly(t *testing.T) {
	s := newTestSim(t, config.PolicyNearestFirst, 100, config.FleetConfig{Robots: 2, Batteries: 2, VehiclesPerHour: 10})
	addVehicle(s, 0, model.Point{X: 200, Y: 200}, 40, 90, 60)
	addVehicle(s, 50, model.Point{X: 400, Y: 400}, 40, 95, 60)

	stepPast(t, s, 0)
	assert.Len(t, s.Vehicles(), 1)
	assert.Len(t, s.Robots(), 2)
	assert.Len(t, s.Batteries(), 2)

	// Snapshot stats derive from a copy and leave the counters alone.
	first := s.CurrentStats()
	second := s.CurrentStats()
	assert.Equal(t, first, second)

	// Value copies do not alias kernel state.
	robots := s.Robots()
	robots[0].Position = model.Point{X: 1, Y: 1}
	assert.NotEqual(t, robots[0].Position, s.robots[0].Position)

	log := s.EventLog(1)
	require.Len(t, log, 1)
	assert.Contains(t, log[0], "vehicle 0")
}
