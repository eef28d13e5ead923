package sim

import (
	"fmt"
	"math"

	"charging-robots/internal/model"
)

const (
	// lowBatteryCharge sends a robot back to a station for a swap.
	lowBatteryCharge = 10.0

	// abandonCharge aborts an in-progress charging task.
	abandonCharge = 8.0

	// batteryReserve is the charge a robot never transfers away.
	batteryReserve = 8.0

	// swapPickupCharge is the minimum charge of a replacement battery.
	swapPickupCharge = 45.0
)

// tick advances the world by one minute: robots in ascending id order,
// then the station batteries, then the invariant sweep.
func (s *Simulator) tick() error {
	for _, r := range s.robots {
		s.tickRobot(r)
	}
	for _, b := range s.batteries {
		if b.Status != model.BatteryCharging {
			continue
		}
		if b.Recharge(1) && b.SwapReady() {
			e := newEvent(s.clock, EventBatteryCharged)
			e.Battery = b.ID
			s.queue.push(e)
		}
	}
	return s.checkInvariants()
}

func (s *Simulator) tickRobot(r *model.Robot) {
	b := s.battery(r)

	// No battery: the robot sits at a station waiting to pick one up.
	if b == nil {
		s.pickUpBattery(r)
		return
	}

	// A drained battery sends the robot to a station for a swap. An active
	// charging task is exempt; it runs down to the transfer reserve and
	// abandons from there.
	if b.CurrentCharge < lowBatteryCharge && r.Status != model.RobotChargingVehicle {
		if model.IsStation(s.stations, r.Position) {
			s.swapBattery(r, b)
		} else {
			s.abandonTarget(r)
			r.Status = model.RobotReturning
			s.moveToward(r, b, r.NearestStation(s.stations))
		}
		return
	}

	switch r.Status {
	case model.RobotIdle:
		b.CurrentCharge = math.Max(0, b.CurrentCharge-r.IdleRate)

	case model.RobotMovingToVehicle:
		s.tickMoving(r, b)

	case model.RobotChargingVehicle:
		s.tickCharging(r, b)

	case model.RobotReturning:
		if s.moveToward(r, b, r.NearestStation(s.stations)) {
			r.Status = model.RobotIdle
		}

	case model.RobotSwappingBattery:
		// The swap took its minute.
		r.Status = model.RobotIdle
	}
}

// pickUpBattery takes an available battery at the robot's position, if any.
func (s *Simulator) pickUpBattery(r *model.Robot) {
	for _, b := range s.batteries {
		if b.Status != model.BatteryAvailable || b.Location != r.Position {
			continue
		}
		b.Status = model.BatteryInUse
		b.AssignedRobot = r.ID
		r.BatteryID = b.ID
		r.Status = model.RobotIdle
		s.logf("robot %d picked up battery %d (%.1f)", r.ID, b.ID, b.CurrentCharge)
		return
	}
	r.Status = model.RobotIdle
}

// swapBattery drops the drained battery into the station charger and takes
// the best replacement above the pickup threshold. Without one the robot
// waits batteryless; the next ticks retry via pickUpBattery.
func (s *Simulator) swapBattery(r *model.Robot, b *model.Battery) {
	s.abandonTarget(r)

	b.Status = model.BatteryCharging
	b.AssignedRobot = model.None
	b.Location = r.Position
	b.HomeStation = r.Position
	b.ChargeStart = s.clock
	r.BatteryID = model.None

	var pick *model.Battery
	for _, cand := range s.batteries {
		if cand.Status != model.BatteryAvailable || cand.Location != r.Position {
			continue
		}
		if cand.CurrentCharge <= swapPickupCharge {
			continue
		}
		if pick == nil || cand.CurrentCharge > pick.CurrentCharge {
			pick = cand
		}
	}
	if pick == nil {
		r.Status = model.RobotIdle
		s.logf("robot %d dropped battery %d (%.1f), waiting for a charged one",
			r.ID, b.ID, b.CurrentCharge)
		return
	}

	pick.Status = model.BatteryInUse
	pick.AssignedRobot = r.ID
	r.BatteryID = pick.ID
	r.Status = model.RobotSwappingBattery
	s.stats.BatterySwaps++
	s.logf("robot %d swapped battery %d (%.1f) for %d (%.1f)",
		r.ID, b.ID, b.CurrentCharge, pick.ID, pick.CurrentCharge)
}

func (s *Simulator) tickMoving(r *model.Robot, b *model.Battery) {
	if r.TargetVehicle == model.None {
		r.Status = model.RobotReturning
		return
	}
	v := s.vehicles[r.TargetVehicle]
	if v.Done() {
		r.TargetVehicle = model.None
		r.Status = model.RobotReturning
		return
	}
	if s.moveToward(r, b, v.Position) {
		r.Status = model.RobotChargingVehicle
		v.Status = model.VehicleCharging
		if v.ChargingStart == model.None {
			v.ChargingStart = s.clock
		}
		s.logf("robot %d reached vehicle %d, charging starts", r.ID, v.ID)
	}
}

func (s *Simulator) tickCharging(r *model.Robot, b *model.Battery) {
	if r.TargetVehicle == model.None {
		r.Status = model.RobotReturning
		return
	}
	v := s.vehicles[r.TargetVehicle]
	if v.Done() {
		r.TargetVehicle = model.None
		r.Status = model.RobotReturning
		return
	}

	if b.CurrentCharge <= abandonCharge {
		s.abandonTarget(r)
		r.Status = model.RobotReturning
		return
	}

	transfer := math.Min(model.ChargeSpeed(v.CurrentCharge), b.CurrentCharge-batteryReserve)
	if transfer > 0 {
		// Transfer losses and gains land on the vehicle side only.
		efficiency := s.uniform(0.95, 1.05)
		v.CurrentCharge = math.Min(model.VehicleMaxCharge, v.CurrentCharge+transfer*efficiency)
		b.CurrentCharge -= transfer
	}

	if v.CurrentCharge >= v.RequiredCharge {
		e := newEvent(s.clock, EventTaskCompletion)
		e.Robot = r.ID
		s.queue.push(e)
	}
}

// abandonTarget returns the robot's target vehicle, if any, to the waiting
// queue and clears the pairing.
func (s *Simulator) abandonTarget(r *model.Robot) {
	if r.TargetVehicle == model.None {
		return
	}
	v := s.vehicles[r.TargetVehicle]
	r.TargetVehicle = model.None
	if v.Done() {
		return
	}
	v.Status = model.VehicleWaiting
	v.AssignedRobot = model.None
	v.ChargingStart = model.None
	v.UpdatePriority(s.clock)
	s.waiting = append(s.waiting, v)
	s.logf("robot %d abandoned vehicle %d at charge %.0f/%.0f",
		r.ID, v.ID, v.CurrentCharge, v.RequiredCharge)
}

// moveToward advances the robot one minute toward target and debits a full
// minute of moving energy even on a partial leg. Reports arrival.
func (s *Simulator) moveToward(r *model.Robot, b *model.Battery, target model.Point) bool {
	pos, arrived := r.Position.StepToward(target, r.Speed)
	r.Position = pos
	if b != nil {
		b.CurrentCharge = math.Max(0, b.CurrentCharge-r.MovingRate)
		b.Location = r.Position
	}
	return arrived
}

// checkInvariants aborts the run on any broken entity invariant, naming
// the entity and the clock minute.
func (s *Simulator) checkInvariants() error {
	for _, v := range s.vehicles {
		if v.CurrentCharge < 0 || v.CurrentCharge > model.VehicleMaxCharge {
			return fmt.Errorf("minute %d: vehicle %d charge %.2f out of range", s.clock, v.ID, v.CurrentCharge)
		}
	}
	for _, b := range s.batteries {
		if b.CurrentCharge < 0 || b.CurrentCharge > b.MaxCapacity {
			return fmt.Errorf("minute %d: battery %d charge %.2f out of range", s.clock, b.ID, b.CurrentCharge)
		}
	}
	for _, r := range s.robots {
		if !s.park.Contains(r.Position) {
			return fmt.Errorf("minute %d: robot %d left the park at (%.1f, %.1f)", s.clock, r.ID, r.Position.X, r.Position.Y)
		}
		if r.Status != model.RobotChargingVehicle {
			continue
		}
		if r.TargetVehicle == model.None {
			return fmt.Errorf("minute %d: robot %d charging with no target", s.clock, r.ID)
		}
		v := s.vehicles[r.TargetVehicle]
		if r.Position != v.Position || v.Status != model.VehicleCharging {
			return fmt.Errorf("minute %d: robot %d charging vehicle %d in status %s", s.clock, r.ID, v.ID, v.Status)
		}
	}
	return nil
}
