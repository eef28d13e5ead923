// Package dispatch implements the assignment policies that match idle
// charging robots to waiting vehicles. Every policy shares one feasibility
// predicate; the simulator effectuates the returned assignments so that
// policies never mutate entity state themselves.
package dispatch

import (
	"fmt"
	"math/rand"

	"charging-robots/internal/config"
	"charging-robots/internal/model"
)

const (
	// MinDispatchCharge is the battery floor below which a robot is not
	// considered for new work.
	MinDispatchCharge = 15.0

	// energySafetyMargin scales the estimated trip energy when gating an
	// assignment.
	energySafetyMargin = 1.3

	// chargingEnergyFactor estimates robot battery spent per unit of
	// energy delivered to a vehicle.
	chargingEnergyFactor = 0.5
)

// Context carries the read-only simulation state a policy needs for one
// assignment pass.
type Context struct {
	Now      int // simulation clock, minutes
	RNG      *rand.Rand
	Park     model.Park
	Stations []model.Point

	// ZoneArrivals counts vehicle arrivals per quadrant zone, used by the
	// hybrid policy's area-balance term.
	ZoneArrivals map[string]int

	// Battery resolves the battery held by a robot, or nil.
	Battery func(*model.Robot) *model.Battery
}

// Assignment pairs a robot with the vehicle it should serve.
type Assignment struct {
	Robot   *model.Robot
	Vehicle *model.Vehicle
}

// Policy selects assignments for one dispatch pass. The waiting slice is
// ordered by descending priority, the idle slice by ascending robot id;
// policies may reorder local copies but must not mutate the entities.
type Policy interface {
	Name() string
	Assign(ctx *Context, waiting []*model.Vehicle, idle []*model.Robot) []Assignment
}

// Learner is implemented by policies that update from task outcomes.
// The simulator notifies it on completion and failure of vehicles it
// selected, and closes each episode at the end of a run.
type Learner interface {
	ObserveCompletion(v *model.Vehicle, now int)
	ObserveFailure(v *model.Vehicle)

	// EndEpisode finishes the current episode, decays exploration, and
	// returns the episode's accumulated reward.
	EndEpisode() float64
}

// New builds the policy registered under name. Unknown names are a
// configuration error.
func New(name string, rng *rand.Rand) (Policy, error) {
	switch name {
	case config.PolicyNearestFirst:
		return nearestFirst{}, nil
	case config.PolicyMaxChargeNeedFirst:
		return maxChargeNeedFirst{}, nil
	case config.PolicyEarliestDeadline:
		return earliestDeadlineFirst{}, nil
	case config.PolicyMostUrgentFirst:
		return mostUrgentFirst{}, nil
	case config.PolicyHybrid:
		return hybrid{}, nil
	case config.PolicyRL:
		return NewQLearning(rng), nil
	default:
		return nil, fmt.Errorf("unsupported policy: %q", name)
	}
}

// TimeFeasible reports whether robot r can reach v and finish charging it
// before the vehicle departs.
func TimeFeasible(now int, r *model.Robot, v *model.Vehicle) bool {
	return float64(now)+r.TimeToReach(v.Position)+v.NeededChargeTime() <= float64(v.DepartureTime)
}

// tripEnergyEstimate is the robot battery budget for serving v: the leg to
// the vehicle, an estimate of the energy spent while charging it, and the
// leg back to the station nearest the robot.
func tripEnergyEstimate(ctx *Context, r *model.Robot, v *model.Vehicle) float64 {
	tripOut := r.TripEnergy(v.Position)
	tripBack := r.TripEnergy(r.NearestStation(ctx.Stations))
	return tripOut + chargingEnergyFactor*v.ChargeNeed() + tripBack
}

// EnergyFeasible reports whether the robot's battery covers the estimated
// trip energy with the given safety margin.
func EnergyFeasible(ctx *Context, r *model.Robot, b *model.Battery, v *model.Vehicle, margin float64) bool {
	if b == nil {
		return false
	}
	return b.CurrentCharge > tripEnergyEstimate(ctx, r, v)*margin
}

// Feasible is the predicate shared by every policy: the time budget, the
// dispatch charge floor, and the energy budget with the standard margin.
func Feasible(ctx *Context, r *model.Robot, v *model.Vehicle) bool {
	b := ctx.Battery(r)
	if b == nil || b.CurrentCharge <= MinDispatchCharge {
		return false
	}
	return TimeFeasible(ctx.Now, r, v) && EnergyFeasible(ctx, r, b, v, energySafetyMargin)
}
