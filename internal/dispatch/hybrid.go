package dispatch

import (
	"math"
	"sort"

	"charging-robots/internal/config"
	"charging-robots/internal/model"
)

// hybrid scores every waiting vehicle on need rate, urgency, waiting-time
// compensation, and zone balance, then lets robots pick in descending
// battery order with a battery-dependent safety margin and a distance
// penalty on the score.
type hybrid struct{}

func (hybrid) Name() string { return config.PolicyHybrid }

type scoredVehicle struct {
	vehicle *model.Vehicle
	score   float64
}

func (hybrid) Assign(ctx *Context, waiting []*model.Vehicle, idle []*model.Robot) []Assignment {
	robots := append([]*model.Robot(nil), idle...)
	sort.SliceStable(robots, func(i, j int) bool {
		return batteryCharge(ctx, robots[i]) > batteryCharge(ctx, robots[j])
	})

	scored := make([]scoredVehicle, 0, len(waiting))
	for _, v := range waiting {
		scored = append(scored, scoredVehicle{vehicle: v, score: hybridScore(ctx, v)})
	}

	var out []Assignment
	for _, r := range robots {
		if len(scored) == 0 {
			break
		}
		b := ctx.Battery(r)
		if b == nil {
			continue
		}

		// Lower battery demands a larger energy margin.
		margin := 1.5 - b.CurrentCharge/60
		margin = math.Max(1.2, math.Min(1.5, margin))

		var best *model.Vehicle
		bestScore := -1.0
		for _, sv := range scored {
			v := sv.vehicle
			if !TimeFeasible(ctx.Now, r, v) {
				continue
			}
			if !EnergyFeasible(ctx, r, b, v, margin) {
				continue
			}
			distancePenalty := 1 - math.Min(0.4, r.DistanceTo(v.Position)/1000)
			if match := sv.score * distancePenalty; match > bestScore {
				bestScore = match
				best = v
			}
		}
		if best == nil {
			continue
		}
		out = append(out, Assignment{Robot: r, Vehicle: best})
		kept := scored[:0]
		for _, sv := range scored {
			if sv.vehicle != best {
				kept = append(kept, sv)
			}
		}
		scored = kept
	}
	return out
}

// hybridScore is (need/time_left) scaled by urgency, waiting compensation,
// and the quadrant balance factor.
func hybridScore(ctx *Context, v *model.Vehicle) float64 {
	timeLeft := v.TimeLeft(ctx.Now)
	wait := float64(ctx.Now - v.ArrivalTime)

	urgencyFactor := 1.0
	if timeLeft < 60 {
		urgencyFactor = 5 * (60 / timeLeft)
	}
	waitingFactor := math.Min(3, wait/60)

	return (v.ChargeNeed() / timeLeft) * urgencyFactor * waitingFactor * areaBalance(ctx, v.Position)
}

// areaBalance boosts vehicles in quadrants that have received fewer than
// 80% of their fair share of arrivals.
func areaBalance(ctx *Context, p model.Point) float64 {
	total := 0
	for _, zone := range model.ZoneNames {
		total += ctx.ZoneArrivals[zone]
	}
	if total == 0 {
		total = 1
	}
	expected := 1.0 / float64(len(model.ZoneNames))
	actual := float64(ctx.ZoneArrivals[ctx.Park.ZoneOf(p)]) / float64(total)
	if actual < expected*0.8 {
		return 1.5
	}
	return 1.0
}

func batteryCharge(ctx *Context, r *model.Robot) float64 {
	if b := ctx.Battery(r); b != nil {
		return b.CurrentCharge
	}
	return 0
}
