package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeSpeedBands(t *testing.T) {
	assert.Equal(t, 2.5, ChargeSpeed(0))
	assert.Equal(t, 2.5, ChargeSpeed(49.9))
	assert.Equal(t, 1.8, ChargeSpeed(50))
	assert.Equal(t, 1.8, ChargeSpeed(79.9))
	assert.Equal(t, 0.8, ChargeSpeed(80))
	assert.Equal(t, 0.8, ChargeSpeed(100))
}

func TestChargeTimePiecewise(t *testing.T) {
	// Within one band.
	assert.InDelta(t, 10/2.5, ChargeTime(10, 20), 1e-9)
	assert.InDelta(t, 10/1.8, ChargeTime(60, 70), 1e-9)
	assert.InDelta(t, 10/0.8, ChargeTime(85, 95), 1e-9)

	// Spanning bands.
	assert.InDelta(t, 10/2.5+10/1.8, ChargeTime(40, 60), 1e-9)
	assert.InDelta(t, 50/2.5+30/1.8+20/0.8, ChargeTime(0, 100), 1e-9)

	// Nothing to do.
	assert.Zero(t, ChargeTime(80, 80))
	assert.Zero(t, ChargeTime(90, 70))
}

// Charging minute by minute at the curve rate consumes the predicted time,
// give or take the final partial minute.
func TestChargeTimeMatchesSimulatedCharging(t *testing.T) {
	cases := []struct{ current, required float64 }{
		{10, 80},
		{45, 55},
		{5, 95},
		{75, 85},
	}
	for _, tc := range cases {
		level := tc.current
		minutes := 0
		for level < tc.required {
			level += ChargeSpeed(level)
			minutes++
			require.Less(t, minutes, 200)
		}
		predicted := ChargeTime(tc.current, tc.required)
		assert.InDelta(t, predicted, float64(minutes), 1.0,
			"charging %v -> %v", tc.current, tc.required)
	}
}

func TestUpdatePriority(t *testing.T) {
	v := NewVehicle(0, 0, Point{X: 100, Y: 100}, 20, 200, 80)

	// Plenty of time: need/urgency plus waiting credit.
	p := v.UpdatePriority(100)
	assert.InDelta(t, 60.0/100+100.0/60, p, 1e-9)

	// Departing within 30 minutes: 10x factor.
	p = v.UpdatePriority(180)
	assert.InDelta(t, (60.0/20)*10+180.0/60, p, 1e-9)
}

func TestTimeLeftFloor(t *testing.T) {
	v := NewVehicle(0, 0, Point{}, 20, 100, 80)
	assert.Equal(t, 1.0, v.TimeLeft(100))
	assert.Equal(t, 1.0, v.TimeLeft(500))
	assert.Equal(t, 40.0, v.TimeLeft(60))
}

func TestVehicleDone(t *testing.T) {
	v := NewVehicle(0, 0, Point{}, 20, 100, 80)
	assert.False(t, v.Done())
	v.Status = VehicleCompleted
	assert.True(t, v.Done())
	v.Status = VehicleFailed
	assert.True(t, v.Done())
}
