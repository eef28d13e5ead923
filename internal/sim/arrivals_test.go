package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charging-robots/internal/config"
)

func TestPoissonDegenerateLambda(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Zero(t, poisson(rng, 0))
	assert.Zero(t, poisson(rng, -1))
}

func TestPoissonMean(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sum := 0
	for i := 0; i < 20000; i++ {
		sum += poisson(rng, 1.0)
	}
	assert.InDelta(t, 1.0, float64(sum)/20000, 0.05)
}

func TestGenerateArrivalsSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.HorizonMinutes = 24 * 60
	s, err := New(cfg)
	require.NoError(t, err)

	s.generateArrivals()
	require.NotEmpty(t, s.vehicles)

	for _, v := range s.vehicles {
		assert.True(t, s.park.Contains(v.Position), "vehicle %d at (%.1f, %.1f)", v.ID, v.Position.X, v.Position.Y)
		assert.GreaterOrEqual(t, v.ArrivalTime, 0)
		assert.Less(t, v.ArrivalTime, s.horizon)

		dwell := v.DepartureTime - v.ArrivalTime
		hour := (v.ArrivalTime / 60) % 24
		switch {
		case morningPeak(hour):
			assert.GreaterOrEqual(t, dwell, 180)
			assert.LessOrEqual(t, dwell, 480)
		case eveningPeak(hour):
			assert.GreaterOrEqual(t, dwell, 60)
			assert.LessOrEqual(t, dwell, 240)
		default:
			assert.GreaterOrEqual(t, dwell, 30)
			assert.LessOrEqual(t, dwell, 360)
		}

		// Long stays arrive emptier and want more; short stays the reverse.
		if dwell > 240 {
			assert.GreaterOrEqual(t, v.InitialCharge, 5.0)
			assert.LessOrEqual(t, v.InitialCharge, 30.0)
			assert.GreaterOrEqual(t, v.RequiredCharge, 70.0)
			assert.LessOrEqual(t, v.RequiredCharge, 95.0)
		} else {
			assert.GreaterOrEqual(t, v.InitialCharge, 15.0)
			assert.LessOrEqual(t, v.InitialCharge, 50.0)
			assert.GreaterOrEqual(t, v.RequiredCharge, 60.0)
			assert.LessOrEqual(t, v.RequiredCharge, 85.0)
		}
		assert.Greater(t, v.RequiredCharge, v.InitialCharge)
	}

	// Every arrival posted its arrival and departure events.
	assert.Equal(t, 2*len(s.vehicles), s.queue.len())
}

func TestPeakHourWindows(t *testing.T) {
	assert.False(t, morningPeak(6))
	assert.True(t, morningPeak(7))
	assert.True(t, morningPeak(9))
	assert.False(t, morningPeak(10))

	assert.False(t, eveningPeak(16))
	assert.True(t, eveningPeak(17))
	assert.True(t, eveningPeak(19))
	assert.False(t, eveningPeak(20))
}
