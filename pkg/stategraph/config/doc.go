/*
Package config loads engine configuration from YAML or JSON and exposes
it through typed accessors with defaults.

# Basic Usage

	cfg, err := config.FromFile("stategraph.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	limit := cfg.Int("recursion_limit", 25)
	thread := cfg.String("thread_id", "")

# Engine Settings

Settings maps the well-known configuration sections onto engine types:

	settings, err := config.LoadSettings("stategraph.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	saver, err := settings.Checkpoint.OpenSaver()

A settings file looks like:

	recursion_limit: 50
	stream_mode: updates
	checkpoint:
	  driver: sqlite
	  path: ./threads.db
	llm:
	  model: gpt-4o-mini
	  base_url: ""

# Type Coercion

Accessors return the default when the key is missing or the value does
not convert. Duration accepts a time.ParseDuration string or a numeric
second count. Int rejects floats with a fractional part rather than
truncating silently.

# Thread Safety

Config is read-only after creation and safe for concurrent use.
*/
package config
