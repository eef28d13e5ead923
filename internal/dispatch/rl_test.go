package dispatch

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charging-robots/internal/model"
)

func TestQUpdateFromZero(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	s1 := stateKey{CellX: 1, CellY: 1}
	s2 := stateKey{CellX: 2, CellY: 1}

	q.update(s1, 7, 10, s2)
	assert.InDelta(t, qAlpha*10, q.table[s1][7], 1e-9)
}

func TestQUpdateUsesNextStateMax(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	s1 := stateKey{CellX: 1}
	s2 := stateKey{CellX: 2}
	q.table[s1] = map[int]float64{7: 2}
	q.table[s2] = map[int]float64{1: -4, 2: -1}

	// max over the next state is -1, not 0, even though all values are
	// negative.
	q.update(s1, 7, 5, s2)
	want := 2 + qAlpha*(5+qGamma*(-1)-2)
	assert.InDelta(t, want, q.table[s1][7], 1e-9)
}

func TestEpsilonDecaySchedule(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	assert.Equal(t, qEpsilonStart, q.Epsilon())

	for i := 0; i < 4; i++ {
		q.EndEpisode()
	}
	assert.Equal(t, qEpsilonStart, q.Epsilon())

	q.EndEpisode()
	assert.InDelta(t, qEpsilonStart*qEpsilonDecay, q.Epsilon(), 1e-9)

	for i := 0; i < 200; i++ {
		q.EndEpisode()
	}
	assert.InDelta(t, qEpsilonFloor, q.Epsilon(), 1e-9)
}

func TestEndEpisodeReturnsAndResetsReward(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	q.episodeReward = 42

	assert.Equal(t, 42.0, q.EndEpisode())
	assert.Equal(t, 0.0, q.EndEpisode())
}

func TestStateForBandsAndCaps(t *testing.T) {
	b := fullBattery(0)
	ctx := newTestCtx(7*60, map[int]*model.Battery{0: b})
	r := newTestRobot(0, 450, 250)

	var waiting []*model.Vehicle
	for i := 0; i < 12; i++ {
		// All within 300 units, all departing within 30 minutes.
		v := model.NewVehicle(i, 0, model.Point{X: 400, Y: 250}, 40, 7*60+10, 70)
		waiting = append(waiting, v)
	}

	b.CurrentCharge = 25
	s := (&QLearning{}).stateFor(ctx, r, waiting)
	assert.Equal(t, 2, s.CellX)
	assert.Equal(t, 1, s.CellY)
	assert.Equal(t, 3, s.BatteryLevel)
	assert.Equal(t, qNearbyCap, s.Nearby)
	assert.Equal(t, qUrgentCap, s.Urgent)
	assert.Equal(t, 0, s.Period) // 07:00 is morning

	b.CurrentCharge = 50
	s = (&QLearning{}).stateFor(ctx, r, nil)
	assert.Equal(t, 5, s.BatteryLevel)
	assert.Zero(t, s.Nearby)
}

func TestExploreVehicleReturnsFromPool(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(3)))
	ctx := newTestCtx(0, nil)

	pool := []*model.Vehicle{
		model.NewVehicle(0, 0, model.Point{X: 100, Y: 100}, 40, 20, 70),
		model.NewVehicle(1, 0, model.Point{X: 200, Y: 200}, 40, 500, 70),
	}
	for i := 0; i < 50; i++ {
		v := q.exploreVehicle(ctx, pool)
		require.Contains(t, pool, v)
	}
}

func TestObserveFailureClearsPending(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	v := model.NewVehicle(9, 0, model.Point{}, 40, 100, 70)
	state := stateKey{CellX: 1}
	q.pending[v.ID] = pendingTask{state: state, start: 0}

	q.ObserveFailure(v)
	assert.NotContains(t, q.pending, v.ID)
	assert.InDelta(t, qAlpha*-15, q.table[state][v.ID], 1e-9)

	// A second notification is a no-op.
	q.ObserveFailure(v)
	assert.InDelta(t, qAlpha*-15, q.table[state][v.ID], 1e-9)
}

func TestObserveCompletionRewards(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	v := model.NewVehicle(9, 0, model.Point{}, 40, 100, 70)
	v.CurrentCharge = 70
	v.ChargingStart = 20
	state := stateKey{CellX: 1}
	q.pending[v.ID] = pendingTask{state: state, start: 10}

	q.ObserveCompletion(v, 50)

	// 20 base + 0.2*30 energy + max(1, 10-30/30) time efficiency. 90
	// minutes left at selection and a 10 minute wait earn no bonus.
	want := 20.0 + 6 + 9
	assert.InDelta(t, qAlpha*want, q.table[state][v.ID], 1e-9)
	assert.NotContains(t, q.pending, v.ID)
}

// The urgency and long-wait bonuses follow the minute the policy picked
// the vehicle; a robot arriving late does not manufacture them.
func TestObserveCompletionBonusesKeyOffSelectionTime(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))

	// Selected at minute 0 with 100 minutes of slack; charging only began
	// at 75 because the robot was far away. Neither bonus applies.
	early := model.NewVehicle(1, 0, model.Point{}, 40, 100, 60)
	early.CurrentCharge = 60
	early.ChargingStart = 75
	s1 := stateKey{CellX: 1}
	q.pending[early.ID] = pendingTask{state: s1, start: 0}
	q.ObserveCompletion(early, 95)
	want := 20.0 + 0.2*20 + (10 - 20.0/30)
	assert.InDelta(t, qAlpha*want, q.table[s1][early.ID], 1e-9)

	// Selected at minute 75 after waiting that long, departing at 100:
	// both bonuses apply on top of the same completion terms.
	late := model.NewVehicle(2, 0, model.Point{}, 40, 100, 60)
	late.CurrentCharge = 60
	late.ChargingStart = 75
	s2 := stateKey{CellX: 2}
	q.pending[late.ID] = pendingTask{state: s2, start: 75}
	q.ObserveCompletion(late, 95)
	want = 20.0 + 0.2*20 + (10 - 20.0/30) + 10 + 5
	assert.InDelta(t, qAlpha*want, q.table[s2][late.ID], 1e-9)
}

func TestSaveLoadTableRoundTrip(t *testing.T) {
	q := NewQLearning(rand.New(rand.NewSource(1)))
	q.table[stateKey{CellX: 1, CellY: 2, BatteryLevel: 3, Nearby: 4, Urgent: 1, Period: 2}] = map[int]float64{7: 1.5, 9: -0.25}
	q.table[stateKey{CellX: 0, CellY: 0, BatteryLevel: 5}] = map[int]float64{2: 3.75}
	q.epsilon = 0.11
	q.episodes = 17

	path := filepath.Join(t.TempDir(), "qtable.json")
	require.NoError(t, q.SaveTable(path))

	loaded := NewQLearning(rand.New(rand.NewSource(2)))
	require.NoError(t, loaded.LoadTable(path))

	assert.Equal(t, q.table, loaded.table)
	assert.Equal(t, 0.11, loaded.epsilon)
	assert.Equal(t, 17, loaded.Episodes())
}
