package metadata

import "strings"

// Entity is a collection of documents sharing one field schema.
type Entity struct {
	Name   string            `json:"name" mapstructure:"name" diff:"name"`
	Label  string            `json:"label,omitempty" mapstructure:"label" diff:"label"`
	Fields []Field           `json:"fields" mapstructure:"fields" diff:"fields"`
	Access map[string]string `json:"access,omitempty" mapstructure:"access" diff:"access"` // operation -> expression
}

// GetField returns the field at a dot-separated data path, or nil. Layout
// fields are transparent: a field inside a row is addressed like a sibling
// of the row.
func (e *Entity) GetField(path string) *Field {
	if path == "" {
		return nil
	}
	fields := e.Fields
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		f := findNamed(fields, seg)
		if f == nil {
			return nil
		}
		if i == len(segments)-1 {
			return f
		}
		fields = f.Children()
	}
	return nil
}

// HasField returns true if the entity has a field at the given path.
func (e *Entity) HasField(path string) bool {
	return e.GetField(path) != nil
}

// FieldNames returns the names on the top data level.
func (e *Entity) FieldNames() []string {
	return namesOnLevel(e.Fields)
}

// ClientFields returns the client-safe projection of the schema.
func (e *Entity) ClientFields() []ClientField {
	out := make([]ClientField, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Client()
	}
	return out
}

func findNamed(fields []Field, name string) *Field {
	for i := range fields {
		f := &fields[i]
		if f.Name == name {
			return f
		}
		if f.Name == "" {
			if found := findNamed(f.Children(), name); found != nil {
				return found
			}
		}
	}
	return nil
}

func namesOnLevel(fields []Field) []string {
	var names []string
	for _, f := range fields {
		if f.Name == "" {
			names = append(names, namesOnLevel(f.Children())...)
			continue
		}
		names = append(names, f.Name)
	}
	return names
}
