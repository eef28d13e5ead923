package compare

import (
	"encoding/csv"
	"os"
	"strconv"
)

// WriteResultsCSV writes one row per (scale, policy) run.
func WriteResultsCSV(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"scale",
		"policy",
		"completed",
		"failed",
		"completion_rate",
		"avg_waiting_time",
		"avg_charging_time",
		"battery_swaps",
		"avg_robot_utilization",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Scale,
			r.Policy,
			strconv.Itoa(r.Stats.CompletedCount),
			strconv.Itoa(r.Stats.FailedCount),
			fmtFloat(r.Stats.CompletionRate),
			fmtFloat(r.Stats.AvgWaitingTime),
			fmtFloat(r.Stats.AvgChargingTime),
			strconv.Itoa(r.Stats.BatterySwaps),
			fmtFloat(r.Stats.AvgRobotUtilization),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
