package sim

import (
	"math"
	"math/rand"

	"charging-robots/internal/model"
)

var roadFractions = []float64{0.25, 0.5, 0.75}

// generateArrivals draws the whole arrival schedule up front: a
// time-inhomogeneous Poisson process over the horizon, elevated during the
// commute peaks and depressed deep at night. Every arrival posts its
// vehicle_arrival event and the matching vehicle_departure at arrival plus
// dwell.
func (s *Simulator) generateArrivals() {
	base := s.cfg.ResolvedFleet().VehiclesPerHour

	for minute := 0; minute < s.horizon; minute++ {
		hour := (minute / 60) % 24
		lambda := base / 60
		switch {
		case morningPeak(hour) || eveningPeak(hour):
			lambda = base / 60 * 1.5
		case hour >= 23 || hour < 6:
			lambda = base / 180
		}

		for n := poisson(s.rng, lambda); n > 0; n-- {
			v := s.newArrival(len(s.vehicles), minute, hour)
			s.vehicles = append(s.vehicles, v)

			arrive := newEvent(minute, EventVehicleArrival)
			arrive.Vehicle = v.ID
			s.queue.push(arrive)

			depart := newEvent(v.DepartureTime, EventVehicleDeparture)
			depart.Vehicle = v.ID
			s.queue.push(depart)
		}
	}
}

func morningPeak(hour int) bool { return hour >= 7 && hour < 10 }
func eveningPeak(hour int) bool { return hour >= 17 && hour < 20 }

// newArrival draws one vehicle: position, dwell conditioned on the time of
// day, and energy levels conditioned on the dwell.
func (s *Simulator) newArrival(id, minute, hour int) *model.Vehicle {
	pos := s.arrivalPosition()

	var dwell int
	switch {
	case morningPeak(hour):
		dwell = s.uniformInt(180, 480)
	case eveningPeak(hour):
		dwell = s.uniformInt(60, 240)
	default:
		dwell = s.uniformInt(30, 360)
	}

	var initial, required float64
	if dwell > 240 {
		initial = s.uniform(5, 30)
		required = s.uniform(70, 95)
	} else {
		initial = s.uniform(15, 50)
		required = s.uniform(60, 85)
	}

	return model.NewVehicle(id, minute, pos, initial, minute+dwell, required)
}

// arrivalPosition places 40% of arrivals near a road intersection on the
// {1/4, 1/2, 3/4} grid with a +-100 unit jitter, the rest uniformly.
func (s *Simulator) arrivalPosition() model.Point {
	if s.rng.Float64() < 0.4 {
		fx := roadFractions[s.rng.Intn(len(roadFractions))]
		fy := roadFractions[s.rng.Intn(len(roadFractions))]
		p := model.Point{
			X: fx*s.park.Width + s.uniform(-100, 100),
			Y: fy*s.park.Height + s.uniform(-100, 100),
		}
		return s.park.Clamp(p)
	}
	return model.Point{
		X: s.rng.Float64() * s.park.Width,
		Y: s.rng.Float64() * s.park.Height,
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Simulator) uniformInt(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

// poisson draws a Poisson count by Knuth's product method. The per-minute
// means here stay around 1, where the method needs only a few draws.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
