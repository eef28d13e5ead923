package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRechargeRateBands(t *testing.T) {
	b := NewBattery(0, 60, Point{X: 50, Y: 50})

	b.CurrentCharge = 10
	assert.Equal(t, 2.0, b.RechargeRate())
	b.CurrentCharge = 35
	assert.Equal(t, 1.5, b.RechargeRate())
	b.CurrentCharge = 55
	assert.Equal(t, 1.0, b.RechargeRate())
}

func TestRechargeCapsAtCapacity(t *testing.T) {
	b := NewBattery(0, 60, Point{})
	b.CurrentCharge = 59.5

	assert.True(t, b.Recharge(1))
	assert.Equal(t, 60.0, b.CurrentCharge)
	assert.False(t, b.Recharge(1))
}

func TestSwapReady(t *testing.T) {
	b := NewBattery(0, 60, Point{})

	b.CurrentCharge = 56.9
	assert.False(t, b.SwapReady())
	b.CurrentCharge = 57
	assert.True(t, b.SwapReady())
}
