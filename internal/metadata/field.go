package metadata

import "fieldaccess/internal/permissions"

// Field types. Layout types group other fields on the same data level and
// carry no name of their own.
const (
	TypeText         = "text"
	TypeTextarea     = "textarea"
	TypeNumber       = "number"
	TypeCheckbox     = "checkbox"
	TypeDate         = "date"
	TypeEmail        = "email"
	TypeSelect       = "select"
	TypeRelationship = "relationship"
	TypeJSON         = "json"
	TypeGroup        = "group"
	TypeArray        = "array"
	TypeRow          = "row"
	TypeCollapsible  = "collapsible"
	TypeTabs         = "tabs"
	TypeTab          = "tab"
)

var fieldTypes = map[string]bool{
	TypeText: true, TypeTextarea: true, TypeNumber: true, TypeCheckbox: true,
	TypeDate: true, TypeEmail: true, TypeSelect: true, TypeRelationship: true,
	TypeJSON: true, TypeGroup: true, TypeArray: true, TypeRow: true,
	TypeCollapsible: true, TypeTabs: true,
}

type Field struct {
	Name     string            `json:"name,omitempty" mapstructure:"name" diff:"name"`
	Type     string            `json:"type" mapstructure:"type" diff:"type"`
	Label    string            `json:"label,omitempty" mapstructure:"label" diff:"label"`
	Required bool              `json:"required,omitempty" mapstructure:"required" diff:"required"`
	Options  []string          `json:"options,omitempty" mapstructure:"options" diff:"options"`
	Fields   []Field           `json:"fields,omitempty" mapstructure:"fields" diff:"fields"`
	Tabs     []Tab             `json:"tabs,omitempty" mapstructure:"tabs" diff:"tabs"`
	Access   map[string]string `json:"access,omitempty" mapstructure:"access" diff:"access"` // operation -> expression
}

// Tab is one tab of a tabs field. A named tab nests its data under its name.
type Tab struct {
	Name   string            `json:"name,omitempty" mapstructure:"name" diff:"name"`
	Label  string            `json:"label,omitempty" mapstructure:"label" diff:"label"`
	Fields []Field           `json:"fields,omitempty" mapstructure:"fields" diff:"fields"`
	Access map[string]string `json:"access,omitempty" mapstructure:"access" diff:"access"`
}

// FieldName implements permissions.Field.
func (f Field) FieldName() (string, bool) {
	return f.Name, f.Name != ""
}

// IsLayout returns true for types that only arrange other fields.
func (f Field) IsLayout() bool {
	return f.Type == TypeRow || f.Type == TypeCollapsible || f.Type == TypeTabs
}

// HasSubFields returns true if the field nests other fields.
func (f Field) HasSubFields() bool {
	return len(f.Fields) > 0 || len(f.Tabs) > 0
}

// Children returns the nested fields, with each tab presented as a field of
// type "tab" so callers can walk one shape.
func (f Field) Children() []Field {
	if len(f.Tabs) == 0 {
		return f.Fields
	}
	children := make([]Field, 0, len(f.Fields)+len(f.Tabs))
	children = append(children, f.Fields...)
	for _, t := range f.Tabs {
		children = append(children, t.AsField())
	}
	return children
}

// AsField converts the tab to a field of type "tab".
func (t Tab) AsField() Field {
	return Field{Name: t.Name, Type: TypeTab, Label: t.Label, Fields: t.Fields, Access: t.Access}
}

// Client returns the client-safe projection of the field.
func (f Field) Client() ClientField {
	cf := ClientField{
		Name:     f.Name,
		Type:     f.Type,
		Label:    f.Label,
		Required: f.Required,
		Options:  f.Options,
	}
	for _, child := range f.Children() {
		cf.Fields = append(cf.Fields, child.Client())
	}
	return cf
}

// ClientField is what the admin UI receives: no access expressions, tabs
// flattened into children of type "tab".
type ClientField struct {
	Name     string        `json:"name,omitempty"`
	Type     string        `json:"type"`
	Label    string        `json:"label,omitempty"`
	Required bool          `json:"required,omitempty"`
	Options  []string      `json:"options,omitempty"`
	Fields   []ClientField `json:"fields,omitempty"`
}

// FieldName implements permissions.Field.
func (f ClientField) FieldName() (string, bool) {
	return f.Name, f.Name != ""
}

var (
	_ permissions.Field = Field{}
	_ permissions.Field = ClientField{}
	_ permissions.Field = Tab{}
)

// FieldName implements permissions.Field.
func (t Tab) FieldName() (string, bool) {
	return t.Name, t.Name != ""
}
