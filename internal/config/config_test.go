package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsUnknownScale(t *testing.T) {
	cfg := Default()
	cfg.Scale = "gigantic"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scale")
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Policy = "coin_flip"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown policy")
}

func TestValidateRejectsStationOutsidePark(t *testing.T) {
	cfg := Default()
	cfg.Stations = append(cfg.Stations, PointConfig{X: 5000, Y: 50})
	require.Error(t, cfg.Validate())
}

func TestExplicitFleetOverridesScale(t *testing.T) {
	cfg := Default()
	cfg.Scale = "unknown-name"
	cfg.Fleet = FleetConfig{Robots: 3, Batteries: 6, VehiclesPerHour: 5}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.ResolvedFleet().Robots)
}

func TestResolvedFleetPresets(t *testing.T) {
	cfg := Default()
	cfg.Scale = ScaleMedium
	fleet := cfg.ResolvedFleet()
	assert.Equal(t, 25, fleet.Robots)
	assert.Equal(t, 50, fleet.Batteries)
	assert.Equal(t, 30.0, fleet.VehiclesPerHour)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	raw := []byte("scale: large\npolicy: nearest_first\nseed: 7\n")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ScaleLarge, cfg.Scale)
	assert.Equal(t, PolicyNearestFirst, cfg.Policy)
	assert.Equal(t, int64(7), cfg.Seed)
	// Untouched fields keep their defaults.
	assert.Equal(t, 300*60, cfg.HorizonMinutes)
	assert.Len(t, cfg.Stations, 5)
}

func TestLoadRejectsInvalid(t *testing.T) {
	raw := []byte("policy: coin_flip\n")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
