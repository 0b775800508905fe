// Package llm provides internal representations of the model runtime's API
// requests and responses, which the drivers build, send, and decode.
package llm

import "time"

// GenerateRequest represents a raw completion request. The prompt already
// carries the full chat template, so Raw is always true and the runtime must
// not apply its own template on top.
type GenerateRequest struct {
	Model   string `json:"model"`             // Base model name or local adapter path
	Adapter string `json:"adapter,omitempty"` // LoRA adapter directory, if any
	Prompt  string `json:"prompt"`            // Fully templated prompt text
	Raw     bool   `json:"raw"`               // Skip runtime-side templating
	Stream  *bool  `json:"stream,omitempty"`  // Whether to stream responses

	// Generation options
	Options *Options `json:"options,omitempty"`
}

// GenerateResponse represents a completed generation.
type GenerateResponse struct {
	Model     string    `json:"model"`      // Model that generated the response
	CreatedAt time.Time `json:"created_at"` // Response timestamp
	Response  string    `json:"response"`   // Decoded output text
	Done      bool      `json:"done"`       // Whether generation is complete

	// Metrics (only present when done=true)
	TotalDuration      int64 `json:"total_duration,omitempty"`       // Total time in nanoseconds
	LoadDuration       int64 `json:"load_duration,omitempty"`        // Model load time
	PromptEvalCount    int   `json:"prompt_eval_count,omitempty"`    // Tokens in prompt
	PromptEvalDuration int64 `json:"prompt_eval_duration,omitempty"` // Prompt processing time
	EvalCount          int   `json:"eval_count,omitempty"`           // Generated tokens
	EvalDuration       int64 `json:"eval_duration,omitempty"`        // Generation time
}
