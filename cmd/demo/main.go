package main

import (
	"flag"
	"fmt"

	"charging-robots/internal/config"
	"charging-robots/internal/model"
	"charging-robots/internal/sim"
)

// Demo:
// - Build a small-scale simulation with the default stations
// - Step it for a few simulated hours
// - Print periodic fleet snapshots to show how the pieces fit together
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	policy := flag.String("policy", config.PolicyHybrid, "Dispatch policy")
	hours := flag.Int("hours", 6, "Simulated hours to run")
	every := flag.Int("every", 60, "Minutes between printed snapshots")
	flag.Parse()

	var cfg *config.Config
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg.Policy = *policy
	cfg.HorizonMinutes = *hours * 60
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	s, err := sim.New(cfg)
	if err != nil {
		panic(err)
	}
	if err := s.Setup(); err != nil {
		panic(err)
	}

	fmt.Printf("policy=%s scale=%s horizon=%dmin\n\n", cfg.Policy, cfg.Scale, cfg.HorizonMinutes)

	lastPrinted := -1
	for {
		done, err := s.Step()
		if err != nil {
			panic(err)
		}
		if done {
			break
		}
		if t := s.CurrentTime(); t%*every == 0 && t != lastPrinted {
			lastPrinted = t
			printSnapshot(s)
		}
	}

	stats := s.CurrentStats()
	fmt.Printf("\nDone. completed=%d failed=%d completion=%.1f%% swaps=%d\n",
		stats.CompletedCount, stats.FailedCount, stats.CompletionRate, stats.BatterySwaps)
}

func printSnapshot(s *sim.Simulator) {
	robots := s.Robots()
	vehicles := s.Vehicles()

	byStatus := map[model.RobotStatus]int{}
	for _, r := range robots {
		byStatus[r.Status]++
	}
	waiting, charging := 0, 0
	for _, v := range vehicles {
		switch v.Status {
		case model.VehicleWaiting:
			waiting++
		case model.VehicleCharging:
			charging++
		}
	}

	stats := s.CurrentStats()
	fmt.Printf("[%5d min] robots idle=%d moving=%d charging=%d returning=%d | vehicles waiting=%d charging=%d | done=%d failed=%d\n",
		s.CurrentTime(),
		byStatus[model.RobotIdle],
		byStatus[model.RobotMovingToVehicle],
		byStatus[model.RobotChargingVehicle],
		byStatus[model.RobotReturning],
		waiting, charging,
		stats.CompletedCount, stats.FailedCount)
}
