// Package report persists model comparison results.
package report

import (
	"encoding/json"
	"fmt"
	"os"
)

// Record is one side-by-side comparison between the base model and the
// fine-tuned adapter.
type Record struct {
	Input             string `json:"input"`
	Context           string `json:"context"`
	BaseResponse      string `json:"base_response"`
	FineTunedResponse string `json:"fine_tuned_response"`
}

// Write saves the records as a pretty-printed UTF-8 JSON array, written once
// at the end of a batch run.
func Write(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal results: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("could not write results to %s: %w", path, err)
	}

	return nil
}
