package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAggregates(t *testing.T) {
	st := newStats()
	st.recordCompletion(0, 10, 20)
	st.recordCompletion(0, 30, 40)
	st.recordCompletion(1, 20, 30)
	st.FailedCount = 1

	st.derive(100, []int{0, 1, 2})

	assert.Equal(t, 3, st.CompletedCount)
	assert.InDelta(t, 75.0, st.CompletionRate, 1e-9)
	assert.InDelta(t, 20.0, st.AvgWaitingTime, 1e-9)
	assert.InDelta(t, 30.0, st.AvgChargingTime, 1e-9)
	assert.InDelta(t, 20.0, st.RobotUtilization[0], 1e-9)
	assert.InDelta(t, 10.0, st.RobotUtilization[1], 1e-9)
	assert.Zero(t, st.RobotUtilization[2])
	assert.InDelta(t, 10.0, st.AvgRobotUtilization, 1e-9)
}

// No completions and a zero clock must derive to zeros, not NaN.
func TestDeriveEmpty(t *testing.T) {
	st := newStats()
	st.derive(0, nil)

	assert.Zero(t, st.CompletionRate)
	assert.Zero(t, st.AvgWaitingTime)
	assert.Zero(t, st.AvgChargingTime)
	assert.Zero(t, st.AvgRobotUtilization)
}

func TestCloneIsIndependent(t *testing.T) {
	st := newStats()
	st.recordCompletion(0, 10, 20)
	st.ZoneCoverage["zone1"] = 3

	c := st.clone()
	c.ZoneCoverage["zone1"] = 99
	c.robotCompleted[0] = 99
	c.derive(10, []int{0})

	assert.Equal(t, 3, st.ZoneCoverage["zone1"])
	assert.Equal(t, 1, st.robotCompleted[0])
	assert.Zero(t, st.CompletionRate)

	// The clone derived from the copied per-robot counts.
	assert.InDelta(t, 100.0, c.CompletionRate, 1e-9)
}
