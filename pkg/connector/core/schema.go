package core

// FieldType is a JSON Schema primitive type
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeObject  FieldType = "object"
	FieldTypeArray   FieldType = "array"
	FieldTypeNull    FieldType = "null"
)

// Schema is the subset of JSON Schema used to describe streams. Every
// property is nullable.
type Schema struct {
	Type       []FieldType        `json:"type" yaml:"type"`
	Format     string             `json:"format,omitempty" yaml:"format,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
}

func nullable(t FieldType) []FieldType {
	return []FieldType{FieldTypeNull, t}
}

// String returns a nullable string schema.
func String() *Schema { return &Schema{Type: nullable(FieldTypeString)} }

// Integer returns a nullable integer schema.
func Integer() *Schema { return &Schema{Type: nullable(FieldTypeInteger)} }

// Number returns a nullable number schema.
func Number() *Schema { return &Schema{Type: nullable(FieldTypeNumber)} }

// Boolean returns a nullable boolean schema.
func Boolean() *Schema { return &Schema{Type: nullable(FieldTypeBoolean)} }

// DateTime returns a nullable date-time string schema.
func DateTime() *Schema {
	return &Schema{Type: nullable(FieldTypeString), Format: "date-time"}
}

// Object returns a nullable object schema with the given properties.
func Object(properties map[string]*Schema) *Schema {
	return &Schema{Type: nullable(FieldTypeObject), Properties: properties}
}

// Array returns a nullable array schema of items.
func Array(items *Schema) *Schema {
	return &Schema{Type: nullable(FieldTypeArray), Items: items}
}

// Has reports whether the schema declares property name at the top level.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Properties[name]
	return ok
}
