// Package compare runs the same arrival schedule under several dispatch
// policies and fleet scales and ranks the outcomes.
package compare

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"charging-robots/internal/config"
	"charging-robots/internal/sim"
)

// Result is the outcome of one (scale, policy) run.
type Result struct {
	Scale  string    `json:"scale"`
	Policy string    `json:"policy"`
	Stats  sim.Stats `json:"stats"`
}

// Run executes one simulation per (scale, policy) pair. Every run uses the
// base configuration and seed, so within a scale the arrival schedules are
// identical and only the policy differs.
func Run(base *config.Config, scales, policies []string, log logrus.FieldLogger) ([]Result, error) {
	if len(scales) == 0 {
		scales = []string{base.Scale}
	}
	if len(policies) == 0 {
		policies = config.Policies
	}

	out := make([]Result, 0, len(scales)*len(policies))
	for _, scale := range scales {
		for _, policy := range policies {
			cfg := *base
			cfg.Scale = scale
			cfg.Policy = policy
			cfg.Fleet = config.FleetConfig{} // use the scale preset

			s, err := sim.New(&cfg)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", scale, policy, err)
			}
			if log != nil {
				s.SetLogger(log)
			}
			if err := s.Setup(); err != nil {
				return nil, fmt.Errorf("%s/%s: %w", scale, policy, err)
			}
			stats, err := s.Run()
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", scale, policy, err)
			}
			out = append(out, Result{Scale: scale, Policy: policy, Stats: *stats})
		}
	}
	return out, nil
}

// RankByCompletion orders results by descending completion rate; ties go
// to the lower average waiting time.
func RankByCompletion(results []Result) []Result {
	out := append([]Result(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stats.CompletionRate != out[j].Stats.CompletionRate {
			return out[i].Stats.CompletionRate > out[j].Stats.CompletionRate
		}
		return out[i].Stats.AvgWaitingTime < out[j].Stats.AvgWaitingTime
	})
	return out
}

// BestByScale picks the winning policy per scale by the same ordering.
func BestByScale(results []Result) map[string]Result {
	out := make(map[string]Result)
	for _, r := range RankByCompletion(results) {
		if _, ok := out[r.Scale]; !ok {
			out[r.Scale] = r
		}
	}
	return out
}
