package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// qtableFile is the on-disk shape of a trained Q table. JSON object keys
// must be strings, so state keys and vehicle ids are encoded.
type qtableFile struct {
	Epsilon  float64                       `json:"epsilon"`
	Episodes int                           `json:"episodes"`
	Table    map[string]map[string]float64 `json:"table"`
}

// SaveTable writes the learned Q table so a later run can start from it.
func (q *QLearning) SaveTable(path string) error {
	file := qtableFile{
		Epsilon:  q.epsilon,
		Episodes: q.episodes,
		Table:    make(map[string]map[string]float64, len(q.table)),
	}
	for state, actions := range q.table {
		encoded := make(map[string]float64, len(actions))
		for id, value := range actions {
			encoded[strconv.Itoa(id)] = value
		}
		file.Table[encodeState(state)] = encoded
	}
	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadTable replaces the Q table, exploration rate and episode count with
// a previously saved one.
func (q *QLearning) LoadTable(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file qtableFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return err
	}

	table := make(map[stateKey]map[int]float64, len(file.Table))
	for encoded, actions := range file.Table {
		state, err := decodeState(encoded)
		if err != nil {
			return err
		}
		decoded := make(map[int]float64, len(actions))
		for idStr, value := range actions {
			id, err := strconv.Atoi(idStr)
			if err != nil {
				return fmt.Errorf("bad action id %q: %w", idStr, err)
			}
			decoded[id] = value
		}
		table[state] = decoded
	}

	q.table = table
	q.pending = make(map[int]pendingTask)
	if file.Epsilon > 0 {
		q.epsilon = file.Epsilon
	}
	q.episodes = file.Episodes
	return nil
}

func encodeState(s stateKey) string {
	return fmt.Sprintf("%d,%d,%d,%d,%d,%d",
		s.CellX, s.CellY, s.BatteryLevel, s.Nearby, s.Urgent, s.Period)
}

func decodeState(encoded string) (stateKey, error) {
	var s stateKey
	n, err := fmt.Sscanf(encoded, "%d,%d,%d,%d,%d,%d",
		&s.CellX, &s.CellY, &s.BatteryLevel, &s.Nearby, &s.Urgent, &s.Period)
	if err != nil || n != 6 {
		return stateKey{}, fmt.Errorf("bad state key %q", encoded)
	}
	return s, nil
}
