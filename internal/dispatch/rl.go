package dispatch

import (
	"math"
	"math/rand"
	"sort"

	"charging-robots/internal/config"
	"charging-robots/internal/model"
)

// Q-learning hyperparameters.
const (
	qAlpha          = 0.2  // learning rate
	qGamma          = 0.8  // discount factor
	qEpsilonStart   = 0.15 // initial exploration rate
	qEpsilonFloor   = 0.05
	qEpsilonDecay   = 0.95
	qDecayEvery     = 5 // episodes between decays
	qSoftmaxScale   = 2 // exponent multiplier, i.e. temperature 1/2
	qStateCellSize  = 200.0
	qNearbyRadius   = 300.0
	qNearbyCap      = 8
	qUrgentCap      = 3
	qUrgentMinutes  = 30
	qTimeInfeasible = -5.0
	qEnergyShort    = -8.0
)

// stateKey is the tabular RL state: the robot's grid cell, its battery
// level band, the local waiting/urgent vehicle counts, and the time of day.
type stateKey struct {
	CellX, CellY int
	BatteryLevel int
	Nearby       int
	Urgent       int
	Period       int
}

type pendingTask struct {
	state stateKey
	start int // minute of selection
}

// QLearning is the learned dispatch policy: a tabular Q function over
// stateKey x vehicle id, trained online while assignments are made and
// whenever selected tasks complete or fail.
type QLearning struct {
	rng     *rand.Rand
	epsilon float64

	table   map[stateKey]map[int]float64
	pending map[int]pendingTask // vehicle id -> selection awaiting outcome

	episodes      int
	episodeReward float64
}

// NewQLearning creates an untrained policy using the simulator's RNG.
func NewQLearning(rng *rand.Rand) *QLearning {
	return &QLearning{
		rng:     rng,
		epsilon: qEpsilonStart,
		table:   make(map[stateKey]map[int]float64),
		pending: make(map[int]pendingTask),
	}
}

func (q *QLearning) Name() string { return config.PolicyRL }

// Epsilon returns the current exploration rate.
func (q *QLearning) Epsilon() float64 { return q.epsilon }

// Episodes returns how many episodes have been closed.
func (q *QLearning) Episodes() int { return q.episodes }

// StatesLearned returns the number of distinct states in the Q table.
func (q *QLearning) StatesLearned() int { return len(q.table) }

func (q *QLearning) Assign(ctx *Context, waiting []*model.Vehicle, idle []*model.Robot) []Assignment {
	robots := append([]*model.Robot(nil), idle...)
	sort.SliceStable(robots, func(i, j int) bool {
		return batteryCharge(ctx, robots[i]) > batteryCharge(ctx, robots[j])
	})

	pool := append([]*model.Vehicle(nil), waiting...)
	var out []Assignment

	for _, r := range robots {
		if len(pool) == 0 {
			break
		}
		b := ctx.Battery(r)
		if b == nil {
			continue
		}
		state := q.stateFor(ctx, r, pool)
		v := q.selectVehicle(ctx, state, pool)
		if v == nil {
			continue
		}

		// Infeasible selections are learning signal too.
		if !TimeFeasible(ctx.Now, r, v) {
			q.update(state, v.ID, qTimeInfeasible, state)
			q.episodeReward += qTimeInfeasible
			continue
		}
		if !EnergyFeasible(ctx, r, b, v, energySafetyMargin) {
			q.update(state, v.ID, qEnergyShort, state)
			q.episodeReward += qEnergyShort
			continue
		}

		reward := q.selectionReward(ctx, r, b, v)
		pool = removeVehicle(pool, v)
		next := q.stateFor(ctx, r, pool)
		q.update(state, v.ID, reward, next)
		q.episodeReward += reward
		q.pending[v.ID] = pendingTask{state: state, start: ctx.Now}

		out = append(out, Assignment{Robot: r, Vehicle: v})
	}
	return out
}

// ObserveCompletion rewards a completed selection: the completion bonus,
// energy delivered, time efficiency, and urgency and long-wait bonuses
// measured at selection time.
func (q *QLearning) ObserveCompletion(v *model.Vehicle, now int) {
	p, ok := q.pending[v.ID]
	if !ok {
		return
	}
	delete(q.pending, v.ID)

	reward := 20.0
	reward += 0.2 * (v.CurrentCharge - v.InitialCharge)

	chargingTime := 0.0
	if v.ChargingStart != model.None {
		chargingTime = float64(now - v.ChargingStart)
	}
	reward += math.Max(1, 10-chargingTime/30)

	// Urgency and long-wait bonuses reward the selection, not the minute
	// the robot finally reached the vehicle.
	timeLeftAtStart := float64(v.DepartureTime - p.start)
	wait := float64(p.start - v.ArrivalTime)
	if timeLeftAtStart < 30 {
		reward += 10
	} else if timeLeftAtStart < 60 {
		reward += 5
	}
	if wait > 60 {
		reward += 5
	}

	q.update(p.state, v.ID, reward, p.state)
	q.episodeReward += reward
}

// ObserveFailure penalizes a selection whose vehicle departed unserved.
func (q *QLearning) ObserveFailure(v *model.Vehicle) {
	p, ok := q.pending[v.ID]
	if !ok {
		return
	}
	delete(q.pending, v.ID)

	const failurePenalty = -15.0
	q.update(p.state, v.ID, failurePenalty, p.state)
	q.episodeReward += failurePenalty
}

// EndEpisode closes the episode: clears pending selections, decays the
// exploration rate every qDecayEvery episodes, and returns the episode's
// accumulated reward.
func (q *QLearning) EndEpisode() float64 {
	q.episodes++
	q.pending = make(map[int]pendingTask)
	if q.episodes%qDecayEvery == 0 && q.epsilon > qEpsilonFloor {
		q.epsilon = math.Max(qEpsilonFloor, q.epsilon*qEpsilonDecay)
	}
	reward := q.episodeReward
	q.episodeReward = 0
	return reward
}

func (q *QLearning) stateFor(ctx *Context, r *model.Robot, waiting []*model.Vehicle) stateKey {
	level := 0
	if b := ctx.Battery(r); b != nil {
		switch {
		case b.CurrentCharge < 10:
			level = 1
		case b.CurrentCharge < 20:
			level = 2
		case b.CurrentCharge < 30:
			level = 3
		case b.CurrentCharge < 45:
			level = 4
		default:
			level = 5
		}
	}

	nearby, urgent := 0, 0
	for _, v := range waiting {
		if r.DistanceTo(v.Position) >= qNearbyRadius {
			continue
		}
		nearby++
		if v.DepartureTime-ctx.Now < qUrgentMinutes {
			urgent++
		}
	}
	if nearby > qNearbyCap {
		nearby = qNearbyCap
	}
	if urgent > qUrgentCap {
		urgent = qUrgentCap
	}

	hour := (ctx.Now / 60) % 24
	period := 3 // deep night
	switch {
	case hour >= 6 && hour < 12:
		period = 0
	case hour >= 12 && hour < 18:
		period = 1
	case hour >= 18 && hour < 23:
		period = 2
	}

	return stateKey{
		CellX:        int(r.Position.X / qStateCellSize),
		CellY:        int(r.Position.Y / qStateCellSize),
		BatteryLevel: level,
		Nearby:       nearby,
		Urgent:       urgent,
		Period:       period,
	}
}

// selectVehicle is epsilon-greedy: weighted random exploration favoring
// urgent vehicles, softmax exploitation over stored Q values.
func (q *QLearning) selectVehicle(ctx *Context, state stateKey, pool []*model.Vehicle) *model.Vehicle {
	if len(pool) == 0 {
		return nil
	}
	if q.rng.Float64() < q.epsilon {
		return q.exploreVehicle(ctx, pool)
	}
	actions := q.table[state]
	if len(actions) == 0 {
		return pool[q.rng.Intn(len(pool))]
	}

	var known []*model.Vehicle
	var qs []float64
	for _, v := range pool {
		if value, ok := actions[v.ID]; ok {
			known = append(known, v)
			qs = append(qs, value)
		}
	}
	if len(known) == 0 {
		return pool[q.rng.Intn(len(pool))]
	}

	// Softmax over the stored values. The exponent is non-positive by
	// construction, so there is no overflow under the bounded rewards.
	maxQ := qs[0]
	for _, value := range qs[1:] {
		if value > maxQ {
			maxQ = value
		}
	}
	weights := make([]float64, len(qs))
	total := 0.0
	for i, value := range qs {
		weights[i] = math.Exp((value - maxQ) * qSoftmaxScale)
		total += weights[i]
	}
	pick := q.rng.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick <= 0 {
			return known[i]
		}
	}
	return known[len(known)-1]
}

// exploreVehicle draws a waiting vehicle with weight 5 when departing
// within 30 minutes, 3 within 60, else 1.
func (q *QLearning) exploreVehicle(ctx *Context, pool []*model.Vehicle) *model.Vehicle {
	total := 0.0
	weights := make([]float64, len(pool))
	for i, v := range pool {
		timeLeft := v.TimeLeft(ctx.Now)
		w := 1.0
		if timeLeft < 30 {
			w = 5.0
		} else if timeLeft < 60 {
			w = 3.0
		}
		weights[i] = w
		total += w
	}
	pick := q.rng.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick <= 0 {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}

// selectionReward is the immediate reward at assignment time: the distance
// penalty plus the battery-adequacy penalty.
func (q *QLearning) selectionReward(ctx *Context, r *model.Robot, b *model.Battery, v *model.Vehicle) float64 {
	distance := r.DistanceTo(v.Position)
	reward := -math.Min(10, distance/100)

	// Round trip out to the vehicle and back to the station nearest the
	// robot, plus the estimated charging drain.
	station := r.NearestStation(ctx.Stations)
	returnTime := v.Position.DistanceTo(station) / r.Speed
	needed := (r.TimeToReach(v.Position)+returnTime)*r.MovingRate + chargingEnergyFactor*v.ChargeNeed()

	switch {
	case b.CurrentCharge < needed:
		reward -= 8
	case b.CurrentCharge < needed*energySafetyMargin:
		reward -= 3
	}
	return reward
}

func (q *QLearning) update(state stateKey, action int, reward float64, next stateKey) {
	actions := q.table[state]
	if actions == nil {
		actions = make(map[int]float64)
		q.table[state] = actions
	}
	maxNext := 0.0
	if nextActions := q.table[next]; len(nextActions) > 0 {
		first := true
		for _, value := range nextActions {
			if first || value > maxNext {
				maxNext = value
				first = false
			}
		}
	}
	old := actions[action]
	actions[action] = old + qAlpha*(reward+qGamma*maxNext-old)
}
