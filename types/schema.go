package types

import (
	"sort"
)

// Schema is the subset of JSON Schema emitted in Singer SCHEMA messages and catalogs
type Schema struct {
	Type        []DataType         `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Property is a named schema entry of an object
type Property struct {
	name     string
	schema   *Schema
	required bool
}

func NewProperty(name string, schema *Schema, description string) Property {
	schema = schema.Clone()
	schema.Description = description
	return Property{name: name, schema: schema}
}

// Required marks the property as non-nullable and lists it in the parent's required fields
func (p Property) Required() Property {
	p.required = true
	return p
}

func IntegerType() *Schema {
	return &Schema{Type: []DataType{Int64}}
}

func NumberType() *Schema {
	return &Schema{Type: []DataType{Float64}}
}

func StringType() *Schema {
	return &Schema{Type: []DataType{String}}
}

func BooleanType() *Schema {
	return &Schema{Type: []DataType{Bool}}
}

func ArrayType(items *Schema) *Schema {
	return &Schema{Type: []DataType{Array}, Items: items}
}

func ObjectType(properties ...Property) *Schema {
	schema := &Schema{
		Type:       []DataType{Object},
		Properties: make(map[string]*Schema, len(properties)),
	}
	for _, property := range properties {
		propertySchema := property.schema
		if property.required {
			schema.Required = append(schema.Required, property.name)
		} else if !propertySchema.Has(Null) {
			propertySchema.Type = append(propertySchema.Type, Null)
		}
		schema.Properties[property.name] = propertySchema
	}

	return schema
}

// PropertiesList builds the root object schema of a stream
func PropertiesList(properties ...Property) *Schema {
	return ObjectType(properties...)
}

func (s *Schema) Has(typ DataType) bool {
	for _, one := range s.Type {
		if one == typ {
			return true
		}
	}
	return false
}

func (s *Schema) IsObject() bool {
	return s.Has(Object) && s.Properties != nil
}

// PropertyNames returns the sorted top level property names
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}

	clone := &Schema{
		Type:        append([]DataType(nil), s.Type...),
		Format:      s.Format,
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
		Items:       s.Items.Clone(),
	}
	if s.Properties != nil {
		clone.Properties = make(map[string]*Schema, len(s.Properties))
		for name, property := range s.Properties {
			clone.Properties[name] = property.Clone()
		}
	}

	return clone
}

// Select returns a copy of the root schema restricted to the given properties
func (s *Schema) Select(properties *Set[string]) *Schema {
	clone := s.Clone()
	for name := range clone.Properties {
		if !properties.Exists(name) {
			delete(clone.Properties, name)
		}
	}

	required := []string{}
	for _, name := range clone.Required {
		if properties.Exists(name) {
			required = append(required, name)
		}
	}
	clone.Required = required

	return clone
}
