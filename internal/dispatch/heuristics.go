package dispatch

import (
	"sort"

	"charging-robots/internal/config"
	"charging-robots/internal/model"
)

// nearestFirst walks robots in id order and gives each the closest
// feasible waiting vehicle.
type nearestFirst struct{}

func (nearestFirst) Name() string { return config.PolicyNearestFirst }

func (nearestFirst) Assign(ctx *Context, waiting []*model.Vehicle, idle []*model.Robot) []Assignment {
	pool := append([]*model.Vehicle(nil), waiting...)
	var out []Assignment

	for _, r := range idle {
		if len(pool) == 0 {
			break
		}
		byDistance := append([]*model.Vehicle(nil), pool...)
		sort.SliceStable(byDistance, func(i, j int) bool {
			return r.DistanceTo(byDistance[i].Position) < r.DistanceTo(byDistance[j].Position)
		})
		for _, v := range byDistance {
			if !Feasible(ctx, r, v) {
				continue
			}
			out = append(out, Assignment{Robot: r, Vehicle: v})
			pool = removeVehicle(pool, v)
			break
		}
	}
	return out
}

// maxChargeNeedFirst serves vehicles with the largest outstanding energy
// first, each by its nearest feasible robot.
type maxChargeNeedFirst struct{}

func (maxChargeNeedFirst) Name() string { return config.PolicyMaxChargeNeedFirst }

func (maxChargeNeedFirst) Assign(ctx *Context, waiting []*model.Vehicle, idle []*model.Robot) []Assignment {
	byNeed := append([]*model.Vehicle(nil), waiting...)
	sort.SliceStable(byNeed, func(i, j int) bool {
		return byNeed[i].ChargeNeed() > byNeed[j].ChargeNeed()
	})
	return assignNearestRobot(ctx, byNeed, idle)
}

// earliestDeadlineFirst serves vehicles in departure order.
type earliestDeadlineFirst struct{}

func (earliestDeadlineFirst) Name() string { return config.PolicyEarliestDeadline }

func (earliestDeadlineFirst) Assign(ctx *Context, waiting []*model.Vehicle, idle []*model.Robot) []Assignment {
	byDeadline := append([]*model.Vehicle(nil), waiting...)
	sort.SliceStable(byDeadline, func(i, j int) bool {
		return byDeadline[i].DepartureTime < byDeadline[j].DepartureTime
	})
	return assignNearestRobot(ctx, byDeadline, idle)
}

// mostUrgentFirst serves vehicles in descending priority order, ties
// broken by ascending id.
type mostUrgentFirst struct{}

func (mostUrgentFirst) Name() string { return config.PolicyMostUrgentFirst }

func (mostUrgentFirst) Assign(ctx *Context, waiting []*model.Vehicle, idle []*model.Robot) []Assignment {
	byPriority := append([]*model.Vehicle(nil), waiting...)
	sort.SliceStable(byPriority, func(i, j int) bool {
		if byPriority[i].Priority == byPriority[j].Priority {
			return byPriority[i].ID < byPriority[j].ID
		}
		return byPriority[i].Priority > byPriority[j].Priority
	})
	return assignNearestRobot(ctx, byPriority, idle)
}

// assignNearestRobot is the inner loop shared by the vehicle-ordered
// policies: for each vehicle in the given order, take the nearest robot
// that passes the feasibility predicate and retire it from the pool.
func assignNearestRobot(ctx *Context, vehicles []*model.Vehicle, idle []*model.Robot) []Assignment {
	robots := append([]*model.Robot(nil), idle...)
	var out []Assignment

	for _, v := range vehicles {
		if len(robots) == 0 {
			break
		}
		byDistance := append([]*model.Robot(nil), robots...)
		sort.SliceStable(byDistance, func(i, j int) bool {
			return byDistance[i].DistanceTo(v.Position) < byDistance[j].DistanceTo(v.Position)
		})
		for _, r := range byDistance {
			if !Feasible(ctx, r, v) {
				continue
			}
			out = append(out, Assignment{Robot: r, Vehicle: v})
			robots = removeRobot(robots, r)
			break
		}
	}
	return out
}

func removeVehicle(pool []*model.Vehicle, v *model.Vehicle) []*model.Vehicle {
	out := pool[:0]
	for _, p := range pool {
		if p != v {
			out = append(out, p)
		}
	}
	return out
}

func removeRobot(pool []*model.Robot, r *model.Robot) []*model.Robot {
	out := pool[:0]
	for _, p := range pool {
		if p != r {
			out = append(out, p)
		}
	}
	return out
}
