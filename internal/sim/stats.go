package sim

// Stats accumulates run counters and, once derived, the aggregate
// measures used to compare policies. Averages are 0 when no vehicle
// completes.
type Stats struct {
	CompletedCount int `json:"completed_count"`
	FailedCount    int `json:"failed_count"`

	CompletionRate float64 `json:"completion_rate"` // percent

	TotalWaitingTime  float64 `json:"total_waiting_time"`  // minutes
	TotalChargingTime float64 `json:"total_charging_time"` // minutes
	AvgWaitingTime    float64 `json:"avg_waiting_time"`
	AvgChargingTime   float64 `json:"avg_charging_time"`

	BatterySwaps int `json:"battery_swaps"`

	RobotUtilization    map[int]float64 `json:"robot_utilization"`
	AvgRobotUtilization float64         `json:"avg_robot_utilization"`

	ZoneCoverage map[string]int `json:"zone_coverage"`

	robotCompleted map[int]int
}

func newStats() *Stats {
	return &Stats{
		RobotUtilization: make(map[int]float64),
		ZoneCoverage:     make(map[string]int),
		robotCompleted:   make(map[int]int),
	}
}

func (st *Stats) recordCompletion(robotID int, waiting, charging float64) {
	st.CompletedCount++
	st.TotalWaitingTime += waiting
	st.TotalChargingTime += charging
	st.robotCompleted[robotID]++
}

// derive fills the aggregate fields from the counters at the given clock.
func (st *Stats) derive(clock int, robotIDs []int) {
	total := st.CompletedCount + st.FailedCount
	if total > 0 {
		st.CompletionRate = float64(st.CompletedCount) / float64(total) * 100
	} else {
		st.CompletionRate = 0
	}

	if st.CompletedCount > 0 {
		st.AvgWaitingTime = st.TotalWaitingTime / float64(st.CompletedCount)
		st.AvgChargingTime = st.TotalChargingTime / float64(st.CompletedCount)
	} else {
		st.AvgWaitingTime = 0
		st.AvgChargingTime = 0
	}

	sum := 0.0
	for _, id := range robotIDs {
		util := 0.0
		if clock > 0 {
			util = float64(st.robotCompleted[id]) / float64(clock) * 100 * 10
		}
		st.RobotUtilization[id] = util
		sum += util
	}
	if len(robotIDs) > 0 {
		st.AvgRobotUtilization = sum / float64(len(robotIDs))
	} else {
		st.AvgRobotUtilization = 0
	}
}

// clone deep-copies the stats for snapshot readers.
func (st *Stats) clone() Stats {
	out := *st
	out.RobotUtilization = make(map[int]float64, len(st.RobotUtilization))
	for k, v := range st.RobotUtilization {
		out.RobotUtilization[k] = v
	}
	out.ZoneCoverage = make(map[string]int, len(st.ZoneCoverage))
	for k, v := range st.ZoneCoverage {
		out.ZoneCoverage[k] = v
	}
	out.robotCompleted = make(map[int]int, len(st.robotCompleted))
	for k, v := range st.robotCompleted {
		out.robotCompleted[k] = v
	}
	return out
}
