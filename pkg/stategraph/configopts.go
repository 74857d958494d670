package stategraph

import (
	"github.com/randalmurphal/stategraph/pkg/stategraph/config"
)

// RunOptionsFromSettings translates decoded settings into run options.
// Zero-valued fields produce no option, so engine defaults apply.
// Checkpoint and LLM settings are not covered here: savers have an
// owner who must close them, so construct those explicitly via
// Settings.Checkpoint.OpenSaver and Settings.LLM.NewClient.
func RunOptionsFromSettings(s config.Settings) []RunOption {
	var opts []RunOption
	if s.ThreadID != "" {
		opts = append(opts, WithThreadID(s.ThreadID))
	}
	if s.RecursionLimit > 0 {
		opts = append(opts, WithRecursionLimit(s.RecursionLimit))
	}
	if mode, ok := parseStreamMode(s.StreamMode); ok {
		opts = append(opts, WithStreamMode(mode))
	}
	if s.Tracing {
		opts = append(opts, WithTracing())
	}
	return opts
}

func parseStreamMode(name string) (StreamMode, bool) {
	switch name {
	case "values":
		return StreamValues, true
	case "updates":
		return StreamUpdates, true
	case "events":
		return StreamEvents, true
	default:
		return StreamValues, false
	}
}
