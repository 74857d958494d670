package stategraph

import (
	"fmt"

	"github.com/randalmurphal/stategraph/pkg/stategraph/registry"
)

// Built-in channel spec names resolvable through ChannelSpecByName.
const (
	SpecLastValue          = "last_value"
	SpecOverwriteIfPresent = "overwrite_if_present"
	SpecAppend             = "append"
)

// specRegistry maps names to channel spec factories so schemas can be
// assembled from configuration and other declarative sources.
var specRegistry = func() *registry.Registry[string, func() ChannelSpec] {
	r := registry.New[string, func() ChannelSpec]()
	r.Register(SpecLastValue, LastValue)
	r.Register(SpecOverwriteIfPresent, OverwriteIfPresent)
	r.Register(SpecAppend, func() ChannelSpec { return Append(nil) })
	return r
}()

// RegisterChannelSpec makes a named channel spec factory available to
// ChannelSpecByName. Registering an existing name replaces it, which
// includes the built-ins.
func RegisterChannelSpec(name string, factory func() ChannelSpec) {
	if name == "" {
		panic("stategraph: channel spec name cannot be empty")
	}
	if factory == nil {
		panic("stategraph: channel spec factory cannot be nil")
	}
	specRegistry.Register(name, factory)
}

// ChannelSpecByName resolves a registered spec name.
func ChannelSpecByName(name string) (ChannelSpec, error) {
	factory, ok := specRegistry.Get(name)
	if !ok {
		return ChannelSpec{}, fmt.Errorf("unknown channel spec: %q", name)
	}
	return factory(), nil
}

// SchemaFromChannelNames builds a schema from a channel-name to
// spec-name mapping, the shape settings files use:
//
//	schema, err := stategraph.SchemaFromChannelNames(map[string]string{
//	    "messages": stategraph.SpecAppend,
//	    "topic":    stategraph.SpecLastValue,
//	})
func SchemaFromChannelNames(channels map[string]string) (*Schema, error) {
	schema := NewSchema()
	for channel, specName := range channels {
		spec, err := ChannelSpecByName(specName)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", channel, err)
		}
		schema.AddChannel(channel, spec)
	}
	return schema, nil
}
