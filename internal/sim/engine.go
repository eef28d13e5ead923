// Package sim is the discrete-event kernel: a single-threaded loop that
// pops timestamped events off a min-heap, advances the clock, and drives
// the robot fleet, the vehicle lifecycle, and the dispatch policies.
package sim

import (
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"charging-robots/internal/config"
	"charging-robots/internal/dispatch"
	"charging-robots/internal/model"
)

// eventLogCap bounds the in-memory event log kept for viewers.
const eventLogCap = 2000

// Simulator owns all entity state. It is not safe for concurrent use;
// callers embedding it interactively must serialize Step and the snapshot
// getters.
type Simulator struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	rng     *rand.Rand
	policy  dispatch.Policy
	learner dispatch.Learner // non-nil only for learning policies

	park     model.Park
	stations []model.Point
	horizon  int

	clock int
	queue *eventQueue

	vehicles  []*model.Vehicle // indexed by vehicle id
	robots    []*model.Robot   // indexed by robot id
	batteries []*model.Battery // indexed by battery id
	waiting   []*model.Vehicle

	stats *Stats

	lastAssignTime   int
	lastWaitingCount int

	eventLog []string
	ready    bool
	failure  error
}

// New builds a simulator for the given configuration, constructing the
// configured policy with the simulator's RNG.
func New(cfg *config.Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	policy, err := dispatch.New(cfg.Policy, rng)
	if err != nil {
		return nil, err
	}
	return newSimulator(cfg, rng, policy), nil
}

// NewWithPolicy builds a simulator around an existing policy instance.
// Training loops use it to carry one Q table across episodes.
func NewWithPolicy(cfg *config.Config, policy dispatch.Policy) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("policy is nil")
	}
	return newSimulator(cfg, rand.New(rand.NewSource(cfg.Seed)), policy), nil
}

func newSimulator(cfg *config.Config, rng *rand.Rand, policy dispatch.Policy) *Simulator {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Simulator{
		cfg:            cfg,
		log:            quiet,
		rng:            rng,
		policy:         policy,
		park:           cfg.ParkModel(),
		stations:       cfg.StationPoints(),
		horizon:        cfg.HorizonMinutes,
		queue:          newEventQueue(),
		stats:          newStats(),
		lastAssignTime: -assignPeriod,
	}
	if l, ok := policy.(dispatch.Learner); ok {
		s.learner = l
	}
	return s
}

// SetLogger replaces the discard logger. Must be called before Setup.
func (s *Simulator) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		s.log = log
	}
}

// Setup creates the fleet, pairs initial batteries with robots, generates
// the arrival schedule, and seeds the periodic events. It must be called
// exactly once before Run or Step.
func (s *Simulator) Setup() error {
	if s.ready {
		return fmt.Errorf("setup called twice")
	}
	fleet := s.cfg.ResolvedFleet()
	s.setupFleet(fleet)
	s.generateArrivals()
	s.seedPeriodicEvents()

	s.ready = true
	s.log.WithFields(logrus.Fields{
		"policy":    s.policy.Name(),
		"scale":     s.cfg.Scale,
		"robots":    fleet.Robots,
		"batteries": fleet.Batteries,
		"vehicles":  len(s.vehicles),
		"horizon":   s.horizon,
	}).Info("simulation ready")
	return nil
}

func (s *Simulator) setupFleet(fleet config.FleetConfig) {
	for i := 0; i < fleet.Robots; i++ {
		home := s.stations[s.rng.Intn(len(s.stations))]
		s.robots = append(s.robots, model.NewRobot(
			i, home, s.cfg.Robot.Speed, s.cfg.Robot.MovingRate, s.cfg.Robot.IdleRate))
	}
	for i := 0; i < fleet.Batteries; i++ {
		home := s.stations[i%len(s.stations)]
		s.batteries = append(s.batteries, model.NewBattery(i, s.cfg.BatteryCapacity, home))
	}

	// Initial pairing by index; spare batteries rest at their stations.
	for i, r := range s.robots {
		if i >= len(s.batteries) {
			break
		}
		b := s.batteries[i]
		b.Status = model.BatteryInUse
		b.AssignedRobot = r.ID
		b.Location = r.Position
		r.BatteryID = b.ID
	}
}

func (s *Simulator) seedPeriodicEvents() {
	s.queue.push(newEvent(0, EventAssignTasks))
	s.queue.push(newEvent(1, EventUpdateStatus))
	s.queue.push(newEvent(1, EventUpdatePriorities))
}

// Run executes the event loop to termination and returns the derived
// statistics. Invariant violations abort the run.
func (s *Simulator) Run() (*Stats, error) {
	for {
		done, err := s.Step()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	s.stats.derive(s.clock, s.robotIDs())
	s.log.WithFields(logrus.Fields{
		"completed":       s.stats.CompletedCount,
		"failed":          s.stats.FailedCount,
		"completion_rate": fmt.Sprintf("%.1f%%", s.stats.CompletionRate),
		"battery_swaps":   s.stats.BatterySwaps,
	}).Info("simulation finished")
	return s.stats, nil
}

// Step advances the simulation by one event. It reports true when the run
// is over: the clock reached the horizon, the heap drained, or a previous
// step aborted.
func (s *Simulator) Step() (bool, error) {
	if !s.ready {
		return true, fmt.Errorf("setup not called")
	}
	if s.failure != nil {
		return true, s.failure
	}
	if s.clock >= s.horizon {
		return true, nil
	}
	e, ok := s.queue.pop()
	if !ok {
		return true, nil
	}
	s.clock = e.Time

	var err error
	switch e.Kind {
	case EventUpdateStatus:
		err = s.tick()
		s.queue.push(newEvent(s.clock+statusPeriod, EventUpdateStatus))
	case EventUpdatePriorities:
		s.refreshPriorities()
		s.queue.push(newEvent(s.clock+prioritiesPeriod, EventUpdatePriorities))
	case EventVehicleArrival:
		s.handleArrival(s.vehicles[e.Vehicle])
	case EventTaskCompletion:
		s.completeTask(s.robots[e.Robot])
	case EventBatteryCharged:
		s.handleBatteryCharged(s.batteries[e.Battery])
	case EventVehicleDeparture:
		s.handleDeparture(s.vehicles[e.Vehicle])
	case EventAssignTasks:
		s.handleAssignTasks()
		s.queue.push(newEvent(s.clock+assignPeriod, EventAssignTasks))
	default:
		err = fmt.Errorf("minute %d: unknown event kind %d", s.clock, e.Kind)
	}
	if err != nil {
		s.failure = err
		return true, err
	}
	return false, nil
}

func newEvent(t int, kind EventKind) Event {
	return Event{Time: t, Kind: kind, Vehicle: model.None, Robot: model.None, Battery: model.None}
}

func (s *Simulator) handleArrival(v *model.Vehicle) {
	v.UpdatePriority(s.clock)
	s.waiting = append(s.waiting, v)
	s.stats.ZoneCoverage[s.park.ZoneOf(v.Position)]++
	s.logf("vehicle %d arrived at (%.0f, %.0f), charge %.0f/%.0f, departs %d",
		v.ID, v.Position.X, v.Position.Y, v.CurrentCharge, v.RequiredCharge, v.DepartureTime)

	if v.DepartureTime-s.clock < 60 {
		s.emergencyAssign(v)
	}
}

// emergencyAssign tries the nearest feasible idle robot for a short-dwell
// arrival without waiting for the next periodic pass.
func (s *Simulator) emergencyAssign(v *model.Vehicle) {
	ctx := s.dispatchContext()
	idle := s.idleRobots()
	sort.SliceStable(idle, func(i, j int) bool {
		return idle[i].DistanceTo(v.Position) < idle[j].DistanceTo(v.Position)
	})
	for _, r := range idle {
		if !dispatch.Feasible(ctx, r, v) {
			continue
		}
		s.assign(r, v, "emergency")
		return
	}
}

func (s *Simulator) handleDeparture(v *model.Vehicle) {
	if v.Done() {
		return
	}
	v.Status = model.VehicleFailed
	s.stats.FailedCount++
	if s.learner != nil {
		s.learner.ObserveFailure(v)
	}
	if v.AssignedRobot != model.None {
		r := s.robots[v.AssignedRobot]
		if r.TargetVehicle == v.ID {
			r.TargetVehicle = model.None
			if r.Status == model.RobotMovingToVehicle || r.Status == model.RobotChargingVehicle {
				r.Status = model.RobotReturning
			}
		}
	}
	s.dropWaiting(v)
	s.logf("vehicle %d departed unserved at charge %.0f/%.0f",
		v.ID, v.CurrentCharge, v.RequiredCharge)
}

func (s *Simulator) handleAssignTasks() {
	// Fresh-cache guard: a pass run moments ago against the same waiting
	// set would produce the same answer.
	if s.clock-s.lastAssignTime < assignPeriod && len(s.waiting) == s.lastWaitingCount {
		return
	}

	s.refreshPriorities()
	waiting := append([]*model.Vehicle(nil), s.waiting...)
	idle := s.idleRobots()

	if len(waiting) > 0 && len(idle) > 0 {
		for _, a := range s.policy.Assign(s.dispatchContext(), waiting, idle) {
			s.assign(a.Robot, a.Vehicle, s.policy.Name())
		}
	}

	s.lastAssignTime = s.clock
	s.lastWaitingCount = len(s.waiting)
}

// assign effectuates one robot-to-vehicle pairing. Policies only propose;
// every mutation funnels through here.
func (s *Simulator) assign(r *model.Robot, v *model.Vehicle, why string) {
	r.Status = model.RobotMovingToVehicle
	r.TargetVehicle = v.ID
	r.LastAssigned = s.clock
	v.AssignedRobot = r.ID
	v.Status = model.VehicleAssigned
	s.dropWaiting(v)
	s.logf("robot %d -> vehicle %d (%s), distance %.0f",
		r.ID, v.ID, why, r.DistanceTo(v.Position))
}

// completeTask finalizes the robot's current task if its vehicle has
// reached the required charge, then releases the robot.
func (s *Simulator) completeTask(r *model.Robot) {
	if r.TargetVehicle == model.None {
		return
	}
	v := s.vehicles[r.TargetVehicle]
	if v.Status != model.VehicleCharging || v.CurrentCharge < v.RequiredCharge {
		return
	}

	v.Status = model.VehicleCompleted
	v.ChargingEnd = s.clock
	waited := float64(v.ChargingStart - v.ArrivalTime)
	charged := float64(s.clock - v.ChargingStart)
	s.stats.recordCompletion(r.ID, waited, charged)
	if s.learner != nil {
		s.learner.ObserveCompletion(v, s.clock)
	}

	r.TargetVehicle = model.None
	r.Status = model.RobotReturning
	s.logf("robot %d completed vehicle %d: charge %.0f/%.0f, waited %.0f min, charged %.0f min",
		r.ID, v.ID, v.CurrentCharge, v.RequiredCharge, waited, charged)

	// A nearly drained robot retreats straight to the nearest station so
	// the next tick can run the swap.
	if b := s.battery(r); b != nil && b.CurrentCharge < lowBatteryCharge {
		r.Position = r.NearestStation(s.stations)
		b.Location = r.Position
		s.logf("robot %d retreated to station (%.0f, %.0f) on low battery %.1f",
			r.ID, r.Position.X, r.Position.Y, b.CurrentCharge)
	}
}

func (s *Simulator) handleBatteryCharged(b *model.Battery) {
	if b.Status != model.BatteryCharging || !b.SwapReady() {
		return
	}
	b.Status = model.BatteryAvailable
	b.ChargeStart = model.None
	s.logf("battery %d recharged to %.1f at (%.0f, %.0f)",
		b.ID, b.CurrentCharge, b.Location.X, b.Location.Y)
}

// refreshPriorities recomputes priorities for the waiting queue and keeps
// it sorted by descending priority, ties by ascending id.
func (s *Simulator) refreshPriorities() {
	for _, v := range s.waiting {
		v.UpdatePriority(s.clock)
	}
	sort.SliceStable(s.waiting, func(i, j int) bool {
		if s.waiting[i].Priority == s.waiting[j].Priority {
			return s.waiting[i].ID < s.waiting[j].ID
		}
		return s.waiting[i].Priority > s.waiting[j].Priority
	})
}

// idleRobots returns robots eligible for dispatch in ascending id order.
func (s *Simulator) idleRobots() []*model.Robot {
	var out []*model.Robot
	for _, r := range s.robots {
		if r.Status != model.RobotIdle {
			continue
		}
		b := s.battery(r)
		if b == nil || b.CurrentCharge <= dispatch.MinDispatchCharge {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Simulator) dispatchContext() *dispatch.Context {
	return &dispatch.Context{
		Now:          s.clock,
		RNG:          s.rng,
		Park:         s.park,
		Stations:     s.stations,
		ZoneArrivals: s.stats.ZoneCoverage,
		Battery:      s.battery,
	}
}

// Learner exposes the policy's learning hooks when the configured policy
// learns, or nil.
func (s *Simulator) Learner() dispatch.Learner { return s.learner }

// battery resolves a robot's held battery, or nil.
func (s *Simulator) battery(r *model.Robot) *model.Battery {
	if r.BatteryID == model.None {
		return nil
	}
	return s.batteries[r.BatteryID]
}

func (s *Simulator) dropWaiting(v *model.Vehicle) {
	kept := s.waiting[:0]
	for _, w := range s.waiting {
		if w != v {
			kept = append(kept, w)
		}
	}
	s.waiting = kept
}

func (s *Simulator) robotIDs() []int {
	ids := make([]int, len(s.robots))
	for i := range s.robots {
		ids[i] = i
	}
	return ids
}

func (s *Simulator) logf(format string, args ...any) {
	line := fmt.Sprintf("[%05d] ", s.clock) + fmt.Sprintf(format, args...)
	if len(s.eventLog) == eventLogCap {
		s.eventLog = append(s.eventLog[:0], s.eventLog[1:]...)
	}
	s.eventLog = append(s.eventLog, line)
	s.log.Debug(line)
}
