package config

import (
	"fmt"

	"github.com/randalmurphal/stategraph/pkg/stategraph/checkpoint"
	"github.com/randalmurphal/stategraph/pkg/stategraph/llm"
)

// Checkpoint driver names accepted in settings files.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Settings is the engine's well-known configuration, decoded from a
// Config. Zero values mean "use the engine default".
type Settings struct {
	// ThreadID selects the checkpoint chain for runs.
	ThreadID string
	// RecursionLimit caps supersteps per run. Zero means the default.
	RecursionLimit int
	// StreamMode names the streaming shape: "values", "updates", or
	// "events".
	StreamMode string
	// Tracing enables OTel spans for runs.
	Tracing bool

	// Checkpoint configures persistence.
	Checkpoint CheckpointSettings
	// LLM configures the chat-model client.
	LLM LLMSettings
}

// CheckpointSettings selects and configures a checkpoint saver.
type CheckpointSettings struct {
	// Driver is "memory" or "sqlite". Empty means no checkpointing.
	Driver string
	// Path is the database file for the sqlite driver.
	Path string
}

// LLMSettings configures the chat-model client.
type LLMSettings struct {
	// Model is the default model identifier.
	Model string
	// BaseURL overrides the API endpoint, for proxies and compatible
	// servers.
	BaseURL string
}

// SettingsFrom decodes the well-known sections of a Config.
func SettingsFrom(cfg Config) Settings {
	cp := cfg.Sub("checkpoint")
	lm := cfg.Sub("llm")
	return Settings{
		ThreadID:       cfg.String("thread_id", ""),
		RecursionLimit: cfg.Int("recursion_limit", 0),
		StreamMode:     cfg.String("stream_mode", ""),
		Tracing:        cfg.Bool("tracing", false),
		Checkpoint: CheckpointSettings{
			Driver: cp.String("driver", ""),
			Path:   cp.String("path", ""),
		},
		LLM: LLMSettings{
			Model:   lm.String("model", ""),
			BaseURL: lm.String("base_url", ""),
		},
	}
}

// LoadSettings reads a settings file and decodes it.
func LoadSettings(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFrom(cfg), nil
}

// OpenSaver constructs the configured checkpoint saver. An empty
// driver returns (nil, nil): checkpointing disabled. The caller owns
// the returned saver and should Close it.
func (s CheckpointSettings) OpenSaver() (checkpoint.Saver, error) {
	switch s.Driver {
	case "":
		return nil, nil
	case DriverMemory:
		return checkpoint.NewMemorySaver(), nil
	case DriverSQLite:
		if s.Path == "" {
			return nil, fmt.Errorf("checkpoint driver %q requires a path", s.Driver)
		}
		return checkpoint.NewSQLiteSaver(s.Path)
	default:
		return nil, fmt.Errorf("unknown checkpoint driver: %q", s.Driver)
	}
}

// NewClient constructs the configured chat-model client, or nil when
// no model is named. The API key comes from the environment.
func (s LLMSettings) NewClient() llm.Client {
	if s.Model == "" {
		return nil
	}
	var opts []llm.OpenAIOption
	if s.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(s.BaseURL))
	}
	return llm.NewOpenAIClient(s.Model, opts...)
}
