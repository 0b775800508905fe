// Package config carries the operator-facing configuration for every
// companion command. All values have working defaults matching the shipped
// training recipe; a TOML file can override any of them, and command flags
// override the file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TokenEnv is the environment variable holding the Hugging Face access
// token. Gated base models cannot be pulled without it; its absence is a
// warning, not an error, since the model may already be cached.
const TokenEnv = "HUGGINGFACE_TOKEN"

// Hyperparameters is the training recipe sent to the runtime.
type Hyperparameters struct {
	LoraRank    int     `toml:"lora_r"`
	LoraAlpha   int     `toml:"lora_alpha"`
	LoraDropout float64 `toml:"lora_dropout"`

	LearningRate   float64 `toml:"learning_rate"`
	BatchSize      int     `toml:"batch_size"`
	GradAccumSteps int     `toml:"gradient_accumulation_steps"`
	NumEpochs      int     `toml:"num_epochs"`
	MaxSeqLength   int     `toml:"max_seq_length"`
	WarmupSteps    int     `toml:"warmup_steps"`
}

// Generation holds the sampling parameters shared by test and compare.
type Generation struct {
	Temperature  float64 `toml:"temperature"`
	TopP         float64 `toml:"top_p"`
	MaxNewTokens int     `toml:"max_new_tokens"`
}

// Config is passed into each commander at startup. It replaces what would
// otherwise be a pile of process-wide constants.
type Config struct {
	// RuntimeURL is the model runtime sidecar (generation + training).
	RuntimeURL string `toml:"runtime_url"`

	// BaseModel is the hub name of the model being adapted.
	BaseModel string `toml:"base_model"`

	// TrainingDataFile is the JSON array of training examples.
	TrainingDataFile string `toml:"training_data_file"`

	// AdapterDir is where the fine-tuned adapter and tokenizer are persisted
	// after training and re-loaded by test and compare.
	AdapterDir string `toml:"adapter_dir"`

	// CheckpointDir receives intermediate training checkpoints.
	CheckpointDir string `toml:"checkpoint_dir"`

	// ReportFile receives the comparison results JSON.
	ReportFile string `toml:"report_file"`

	// HistoryDB is the SQLite transcript store. Empty disables recording.
	HistoryDB string `toml:"history_db"`

	// CollectAddr is the listen address for the collect server.
	CollectAddr string `toml:"collect_addr"`

	Train    Hyperparameters `toml:"train"`
	Generate Generation      `toml:"generate"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		RuntimeURL:       "http://localhost:11435",
		BaseModel:        "meta-llama/Llama-3.1-8B-Instruct",
		TrainingDataFile: "fine-tuning/training-data/user-examples.json",
		AdapterDir:       "models/ketamine-therapy-fine-tuned",
		CheckpointDir:    "models/checkpoints",
		ReportFile:       "model_comparison_results.json",
		HistoryDB:        "companion-history.db",
		CollectAddr:      ":3000",
		Train: Hyperparameters{
			LoraRank:       16,
			LoraAlpha:      32,
			LoraDropout:    0.05,
			LearningRate:   2e-4,
			BatchSize:      4,
			GradAccumSteps: 4,
			NumEpochs:      3,
			MaxSeqLength:   512,
			WarmupSteps:    100,
		},
		Generate: Generation{
			Temperature:  0.7,
			TopP:         0.9,
			MaxNewTokens: 512,
		},
	}
}

// Load returns the default configuration overlaid with the TOML file at
// path. An empty path returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Token returns the Hugging Face access token from the environment, which
// may be empty.
func Token() string {
	return os.Getenv(TokenEnv)
}
