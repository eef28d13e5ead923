package compare

import (
	"encoding/json"
	"os"
)

// WriteResultsJSON writes the results as indented JSON for downstream
// tooling.
func WriteResultsJSON(path string, results []Result) error {
	raw, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadResultsJSON reads back a results file.
func LoadResultsJSON(path string) ([]Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
