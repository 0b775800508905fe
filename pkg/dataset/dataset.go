// Package dataset loads and persists the training example collection.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mindfulware/companion/pkg/fault"
)

// Example is a single training example. Context is optional and defaults to
// empty; an empty context produces a prompt with no Context line.
type Example struct {
	Instruction string `json:"instruction"`
	Context     string `json:"context,omitempty"`
	Response    string `json:"response"`
}

// MinRecommended is the example count below which training quality warnings
// are printed. Training still proceeds.
const MinRecommended = 50

// ErrInvalidExample is returned when an example to be added is missing its
// instruction or response.
var ErrInvalidExample = errors.New("example needs a non-empty instruction and response")

// Load reads the training examples from path. A missing file or an empty
// collection is a fatal precondition with a remediation hint; anything else
// about the examples is left to the runtime.
func Load(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fault.Precondition(
			fmt.Sprintf("training data file not found: %s", path),
			"create training examples first: run `companion collect` and add examples through its API",
		)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read training data: %w", err)
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("could not parse training data %s: %w", path, err)
	}

	if len(examples) == 0 {
		return nil, fault.Precondition(
			"no training examples found",
			"add examples through `companion collect` before training",
		)
	}

	return examples, nil
}

// Read is like Load but treats a missing file as an empty collection. The
// collect server starts from nothing.
func Read(path string) ([]Example, error) {
	examples, err := Load(path)
	if _, ok := fault.AsPrecondition(err); ok {
		return []Example{}, nil
	}
	return examples, err
}

// Save writes the collection back to path, creating parent directories as
// needed.
func Save(path string, examples []Example) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create data directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal examples: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("could not write training data: %w", err)
	}

	return nil
}

// Validate checks an example before it joins the collection.
func Validate(ex Example) error {
	if ex.Instruction == "" || ex.Response == "" {
		return ErrInvalidExample
	}
	return nil
}

// AvgResponseLength reports the mean response length in characters, a rough
// quality signal printed before training.
func AvgResponseLength(examples []Example) float64 {
	if len(examples) == 0 {
		return 0
	}

	var total int
	for _, ex := range examples {
		total += len(ex.Response)
	}
	return float64(total) / float64(len(examples))
}
