package typeutils

import (
	"fmt"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/goccy/go-json"
)

// Flattener lifts nested objects into parent__child keys up to maxDepth levels;
// deeper objects and all arrays are serialized as JSON strings
type Flattener struct {
	maxDepth  int
	separator string
}

func NewFlattener(maxDepth int) *Flattener {
	return &Flattener{
		maxDepth:  maxDepth,
		separator: constants.FlattenSeparator,
	}
}

func (f *Flattener) Flatten(record types.Record) (types.Record, error) {
	flattened := make(types.Record, len(record))
	if err := f.flattenInto(flattened, "", record, 0); err != nil {
		return nil, err
	}

	return flattened, nil
}

func (f *Flattener) flattenInto(out types.Record, prefix string, object map[string]any, depth int) error {
	for key, value := range object {
		name := f.join(prefix, key)
		switch value := value.(type) {
		case map[string]any:
			if depth < f.maxDepth {
				if err := f.flattenInto(out, name, value, depth+1); err != nil {
					return err
				}
				continue
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to serialize %s: %s", name, err)
			}
			out[name] = string(encoded)
		case []any:
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to serialize %s: %s", name, err)
			}
			out[name] = string(encoded)
		default:
			out[name] = value
		}
	}

	return nil
}

// FlattenSchema mirrors Flatten for a root object schema
func (f *Flattener) FlattenSchema(schema *types.Schema) *types.Schema {
	flattened := &types.Schema{
		Type:       []types.DataType{types.Object},
		Properties: make(map[string]*types.Schema),
	}
	f.flattenSchemaInto(flattened, "", schema, 0, false)

	for _, name := range schema.Required {
		if _, found := flattened.Properties[name]; found {
			flattened.Required = append(flattened.Required, name)
		}
	}

	return flattened
}

func (f *Flattener) flattenSchemaInto(out *types.Schema, prefix string, object *types.Schema, depth int, nullable bool) {
	for name, property := range object.Properties {
		key := f.join(prefix, name)
		propertyNullable := nullable || property.Has(types.Null)

		switch {
		case property.IsObject() && depth < f.maxDepth:
			f.flattenSchemaInto(out, key, property, depth+1, propertyNullable)
		case property.Has(types.Object) || property.Has(types.Array):
			out.Properties[key] = &types.Schema{
				Type:        []types.DataType{types.String, types.Null},
				Description: property.Description,
			}
		default:
			clone := property.Clone()
			if nullable && !clone.Has(types.Null) {
				clone.Type = append(clone.Type, types.Null)
			}
			out.Properties[key] = clone
		}
	}
}

func (f *Flattener) join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + f.separator + key
}
