package llm

// Options contains model inference parameters.
type Options struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	Seed        *int     `json:"seed,omitempty"`        // Random seed for reproducibility

	// Length parameters
	NumPredict *int `json:"num_predict,omitempty"` // Max new tokens to generate
	NumCtx     *int `json:"num_ctx,omitempty"`     // Context window size

	// Stop sequences
	Stop []string `json:"stop,omitempty"` // Stop generation at these sequences
}

// Float64 returns a pointer to v, for populating optional option fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for populating optional option fields.
func Int(v int) *int { return &v }
