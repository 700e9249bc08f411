// Package schema declares the static per-entity field tables consumed by the
// request validator and the resource controller. Schemas are built once at
// startup and never mutated afterwards.
package schema

// FieldType enumerates the primitive types the catalog stores.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeText     FieldType = "text"
	TypeInteger  FieldType = "integer"
	TypeBoolean  FieldType = "boolean"
	TypeEnum     FieldType = "enum"
	TypeUUID     FieldType = "uuid"
	TypeDate     FieldType = "date"
	TypeDateTime FieldType = "datetime"
)

// Field describes a single column of an entity.
type Field struct {
	Name string
	Type FieldType

	// Nullable fields may be omitted on create.
	Nullable bool

	// ServerManaged fields are stamped by the controller and can never be
	// set or changed through the request body.
	ServerManaged bool

	// Enum lists the accepted values for TypeEnum fields.
	Enum []string

	// Default, when non-empty, is coerced and applied on create if the
	// caller omitted the field.
	Default string

	// References names the table a TypeUUID foreign key points at.
	// Informational; constraint enforcement belongs to the store.
	References string
}

// Schema is the ordered field table for one entity.
type Schema struct {
	// Entity is the URL path segment (e.g. "holding_groups").
	Entity string
	// Table is the backing table name.
	Table string
	// Fields in declaration order, audit columns first.
	Fields []Field
}

// Field returns the declared field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns all column names in declaration order.
func (s *Schema) Columns() []string {
	cols := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}
