package destination

import (
	"fmt"
	"sort"

	"github.com/datazip-inc/tap-hubspot/types"
)

const (
	aliasKey         = "__alias__"
	elseKey          = "__else__"
	keyPropertiesKey = "__key_properties__"
	nullExpression   = "__NULL__"
)

// StreamMap is the parsed stream_maps entry of one stream
type StreamMap struct {
	// Alias renames the stream in SCHEMA and RECORD messages
	Alias string
	// Drop removes the whole stream from the output
	Drop bool
	// KeepUnmapped is false when __else__ is null
	KeepUnmapped bool
	// Removed properties
	Removed *types.Set[string]
	// Copies maps new property names onto existing ones
	Copies map[string]string
	// KeyProperties overrides the stream keys when set
	KeyProperties []string
}

// ParseStreamMaps reads the stream_maps setting. Only null removal, aliasing, __else__: null,
// key overrides and copies of existing properties are supported; anything else is rejected.
func ParseStreamMaps(config map[string]any) (map[string]*StreamMap, error) {
	maps := make(map[string]*StreamMap, len(config))
	for stream, raw := range config {
		streamMap := &StreamMap{
			KeepUnmapped: true,
			Removed:      types.NewSet[string](),
			Copies:       map[string]string{},
		}

		switch value := raw.(type) {
		case nil:
			streamMap.Drop = true
		case string:
			if value != nullExpression {
				return nil, fmt.Errorf("stream map %s: unsupported expression %q", stream, value)
			}
			streamMap.Drop = true
		case map[string]any:
			if err := streamMap.parse(stream, value); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("stream map %s: expected an object, found %T", stream, raw)
		}

		maps[stream] = streamMap
	}

	return maps, nil
}

func (m *StreamMap) parse(stream string, properties map[string]any) error {
	for property, expression := range properties {
		switch property {
		case aliasKey:
			alias, ok := expression.(string)
			if !ok || alias == "" {
				return fmt.Errorf("stream map %s: %s must be a non-empty string", stream, aliasKey)
			}
			m.Alias = alias
			continue
		case elseKey:
			if expression != nil && expression != nullExpression {
				return fmt.Errorf("stream map %s: only null is supported for %s", stream, elseKey)
			}
			m.KeepUnmapped = false
			continue
		case keyPropertiesKey:
			keys, ok := expression.([]any)
			if !ok {
				return fmt.Errorf("stream map %s: %s must be a list", stream, keyPropertiesKey)
			}
			m.KeyProperties = []string{}
			for _, key := range keys {
				name, ok := key.(string)
				if !ok {
					return fmt.Errorf("stream map %s: %s must contain property names", stream, keyPropertiesKey)
				}
				m.KeyProperties = append(m.KeyProperties, name)
			}
			continue
		}

		switch expression := expression.(type) {
		case nil:
			m.Removed.Insert(property)
		case string:
			if expression == nullExpression {
				m.Removed.Insert(property)
			} else {
				m.Copies[property] = expression
			}
		default:
			return fmt.Errorf("stream map %s: unsupported expression for %s: %v", stream, property, expression)
		}
	}

	return nil
}

// mapped is the result of applying a StreamMap to one stream's schema
type mapped struct {
	name          string
	schema        *types.Schema
	keyProperties []string
	streamMap     *StreamMap
}

// mapSchema applies m to the schema of stream; copies must reference existing properties
// and key properties cannot be removed
func (m *StreamMap) mapSchema(stream string, schema *types.Schema, keyProperties []string) (*mapped, error) {
	result := &mapped{
		name:          stream,
		keyProperties: keyProperties,
		streamMap:     m,
	}
	if m.Alias != "" {
		result.name = m.Alias
	}
	if m.KeyProperties != nil {
		result.keyProperties = m.KeyProperties
	}

	out := &types.Schema{
		Type:       schema.Type,
		Properties: map[string]*types.Schema{},
	}

	keys := types.NewSet(result.keyProperties...)
	for _, name := range schema.PropertyNames() {
		if m.Removed.Exists(name) {
			if keys.Exists(name) {
				return nil, fmt.Errorf("stream map %s: key property %s cannot be removed", stream, name)
			}
			continue
		}
		if m.KeepUnmapped || keys.Exists(name) {
			out.Properties[name] = schema.Properties[name]
		}
	}

	targets := make([]string, 0, len(m.Copies))
	for target := range m.Copies {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		source := m.Copies[target]
		property, found := schema.Properties[source]
		if !found {
			return nil, fmt.Errorf("stream map %s: unsupported expression %q for %s, only property names can be copied", stream, source, target)
		}
		out.Properties[target] = property.Clone()
	}

	for _, key := range result.keyProperties {
		if _, found := out.Properties[key]; !found {
			return nil, fmt.Errorf("stream map %s: key property %s is not part of the mapped schema", stream, key)
		}
	}

	for _, name := range schema.Required {
		if _, found := out.Properties[name]; found {
			out.Required = append(out.Required, name)
		}
	}

	result.schema = out
	return result, nil
}

func (m *StreamMap) mapRecord(record types.Record, keys []string) types.Record {
	out := make(types.Record, len(record)+len(m.Copies))
	if m.KeepUnmapped {
		for name, value := range record {
			if !m.Removed.Exists(name) {
				out[name] = value
			}
		}
	} else {
		for _, key := range keys {
			if value, found := record[key]; found {
				out[key] = value
			}
		}
	}

	for target, source := range m.Copies {
		if value, found := record[source]; found {
			out[target] = value
		}
	}

	return out
}
