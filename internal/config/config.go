// Package config loads the axis configuration: an optional YAML file
// overlaid with environment variables. Every knob has a default; the
// zero-value path (no file, no env) yields a working configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration. It is constructed once at startup and
// passed explicitly; nothing reads it from ambient global state.
type Config struct {
	// DataDir holds the memory index, history file and SQLite database.
	DataDir string `yaml:"data_dir"`

	// OutputDir receives files written by the SAVE action.
	OutputDir string `yaml:"output_dir"`

	LLM      LLMConfig      `yaml:"llm"`
	Memory   MemoryConfig   `yaml:"memory"`
	Observer ObserverConfig `yaml:"observer"`
}

// LLMConfig names the models and credentials for the arbitration core and
// the worker backends.
type LLMConfig struct {
	// CoreModel answers routing arbitration and acts as the local default
	// worker.
	CoreModel   string `yaml:"core_model"`
	CoreBaseURL string `yaml:"core_base_url"`
	CoreAPIKey  string `yaml:"core_api_key"`

	GPTModel  string `yaml:"gpt_model"`
	OpenAIKey string `yaml:"openai_key"`

	GeminiModel string `yaml:"gemini_model"`
	GeminiKey   string `yaml:"gemini_key"`

	GrokModel string `yaml:"grok_model"`
	XAIKey    string `yaml:"xai_key"`

	// VisionModel describes screenshots for the LOOK action; it is served
	// from the core endpoint.
	VisionModel string `yaml:"vision_model"`
}

// MemoryConfig tunes recall.
type MemoryConfig struct {
	// DirectThreshold is the score above which a single memory hit is
	// considered a direct answer candidate.
	DirectThreshold float64 `yaml:"direct_threshold"`

	// RecallLimit caps the hits rendered into the worker prompt.
	RecallLimit int `yaml:"recall_limit"`

	// ContextTurns caps the recent session turns embedded in prompts.
	ContextTurns int `yaml:"context_turns"`
}

// ObserverConfig tunes the background focus observer.
type ObserverConfig struct {
	Enabled bool `yaml:"enabled"`

	// Interval between foreground window samples, as a Go duration string.
	Interval string `yaml:"interval"`

	// StalePolls is how many identical consecutive samples count as
	// lingering on one window.
	StalePolls int `yaml:"stale_polls"`
}

// PollInterval parses Interval, falling back to 5s on absent or malformed
// values.
func (o ObserverConfig) PollInterval() time.Duration {
	d, err := time.ParseDuration(o.Interval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	dataDir := ".axis"
	outputDir := "."
	if home != "" {
		dataDir = filepath.Join(home, ".axis")
		outputDir = filepath.Join(home, "Desktop")
	}

	return &Config{
		DataDir:   dataDir,
		OutputDir: outputDir,
		LLM: LLMConfig{
			CoreModel:   "meta/llama-3.1-70b-instruct",
			CoreBaseURL: "https://integrate.api.nvidia.com/v1",
			GPTModel:    "gpt-5-nano",
			GeminiModel: "gemini-2.5-flash",
			GrokModel:   "grok-4-1-fast-reasoning",
			VisionModel: "meta/llama-3.2-11b-vision-instruct",
		},
		Memory: MemoryConfig{
			DirectThreshold: 6.0,
			RecallLimit:     3,
			ContextTurns:    5,
		},
		Observer: ObserverConfig{
			Enabled:    true,
			Interval:   "5s",
			StalePolls: 12,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// $AXIS_CONFIG, or <data_dir>/config.yaml) if one exists, then environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("AXIS_CONFIG")
	}
	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file: defaults + env only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides folds environment variables over the current values.
// Credentials come only from the environment, never the YAML file defaults.
func (c *Config) applyEnvOverrides() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setStr(&c.DataDir, "AXIS_DATA_DIR")
	setStr(&c.OutputDir, "AXIS_OUTPUT_DIR")

	setStr(&c.LLM.CoreModel, "AI_MODEL")
	setStr(&c.LLM.GPTModel, "GPT_MODEL")
	setStr(&c.LLM.GeminiModel, "GEMINI_MODEL")
	setStr(&c.LLM.GrokModel, "GROK_MODEL")

	setStr(&c.LLM.CoreAPIKey, "NVIDIA_API_KEY")
	setStr(&c.LLM.OpenAIKey, "OPENAI_API_KEY")
	setStr(&c.LLM.GeminiKey, "GEMINI_API_KEY")
	setStr(&c.LLM.XAIKey, "XAI_API_KEY")

	if v := os.Getenv("MEMORY_DIRECT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Memory.DirectThreshold = f
		}
	}

	if v := os.Getenv("AXIS_OBSERVER_INTERVAL"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			c.Observer.Interval = v
		}
	}
}
