package sim

import "charging-robots/internal/model"

// Snapshot getters return value copies so viewers can render between
// steps without aliasing kernel state.

// Vehicles returns every vehicle that has arrived by the current clock.
func (s *Simulator) Vehicles() []model.Vehicle {
	var out []model.Vehicle
	for _, v := range s.vehicles {
		if v.ArrivalTime <= s.clock {
			out = append(out, *v)
		}
	}
	return out
}

// Robots returns the fleet.
func (s *Simulator) Robots() []model.Robot {
	out := make([]model.Robot, len(s.robots))
	for i, r := range s.robots {
		out[i] = *r
	}
	return out
}

// Batteries returns the battery pool.
func (s *Simulator) Batteries() []model.Battery {
	out := make([]model.Battery, len(s.batteries))
	for i, b := range s.batteries {
		out[i] = *b
	}
	return out
}

// CurrentTime returns the simulation clock in minutes.
func (s *Simulator) CurrentTime() int { return s.clock }

// Horizon returns the configured run length in minutes.
func (s *Simulator) Horizon() int { return s.horizon }

// PolicyName returns the active dispatch policy.
func (s *Simulator) PolicyName() string { return s.policy.Name() }

// Done reports whether the run has terminated.
func (s *Simulator) Done() bool {
	return s.failure != nil || s.clock >= s.horizon || s.queue.len() == 0
}

// CurrentStats derives the statistics as of the current clock without
// disturbing the running counters.
func (s *Simulator) CurrentStats() Stats {
	c := s.stats.clone()
	c.derive(s.clock, s.robotIDs())
	return c
}

// EventLog returns up to n of the most recent log lines, newest last.
func (s *Simulator) EventLog(n int) []string {
	if n <= 0 || n > len(s.eventLog) {
		n = len(s.eventLog)
	}
	out := make([]string, n)
	copy(out, s.eventLog[len(s.eventLog)-n:])
	return out
}
