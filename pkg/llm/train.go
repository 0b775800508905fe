package llm

import "time"

// LoraConfig holds the adapter hyperparameters for a fine-tune job.
type LoraConfig struct {
	Rank    int     `json:"lora_r"`       // Adapter rank
	Alpha   int     `json:"lora_alpha"`   // Scaling factor
	Dropout float64 `json:"lora_dropout"` // Dropout applied to adapter layers
}

// TrainRequest represents a fine-tune job submission. Prompts are fully
// templated training texts (persona + context + instruction + response), so
// the runtime tokenizes and trains without any templating of its own.
type TrainRequest struct {
	Model     string   `json:"model"`      // Base model to adapt
	Prompts   []string `json:"prompts"`    // Templated training texts
	OutputDir string   `json:"output_dir"` // Where the adapter is persisted

	Lora LoraConfig `json:"lora"`

	LearningRate   float64 `json:"learning_rate"`
	BatchSize      int     `json:"train_batch_size"`
	GradAccumSteps int     `json:"gradient_accumulation_steps"`
	NumEpochs      int     `json:"num_train_epochs"`
	MaxSeqLength   int     `json:"max_seq_length"`
	WarmupSteps    int     `json:"warmup_steps"`
}

// TrainProgress represents a single chunk in a streamed training job.
// The runtime emits one NDJSON line per logging step, and a final line with
// Done set and the persisted adapter location.
type TrainProgress struct {
	Status    string    `json:"status"` // e.g. "loading model", "training", "saving"
	CreatedAt time.Time `json:"created_at"`
	Epoch     int       `json:"epoch,omitempty"`
	Step      int       `json:"step,omitempty"`
	TotalStep int       `json:"total_steps,omitempty"`
	Loss      float64   `json:"loss,omitempty"`
	Done      bool      `json:"done"`
	SavedTo   string    `json:"saved_to,omitempty"` // Adapter directory, final chunk only
}

// DeviceInfo describes the compute device the runtime will train and
// generate on.
type DeviceInfo struct {
	Device      string  `json:"device"`                 // "cuda" or "cpu"
	Name        string  `json:"name,omitempty"`         // e.g. "NVIDIA GeForce RTX 4090"
	TotalMemory float64 `json:"total_memory,omitempty"` // VRAM in GB
}

// CUDA reports whether the runtime has a GPU available.
func (d DeviceInfo) CUDA() bool {
	return d.Device == "cuda"
}
