package metadata

import (
	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"

	"fieldaccess/internal/permissions"
)

const (
	entityNamePattern = `^[a-z][a-z0-9_]*$`
	fieldNamePattern  = `^[A-Za-z_][A-Za-z0-9_]*$`
)

var ErrInvalidEntity = errors.New("invalid entity definition")

// ValidateEntity checks the structure of an entity definition. Access
// expressions are only checked for known operations here; compiling them is
// up to the evaluator.
func ValidateEntity(e *Entity) error {
	if e == nil {
		return errors.Wrap(ErrInvalidEntity, "entity is nil")
	}
	if !govalidator.Matches(e.Name, entityNamePattern) {
		return errors.Wrapf(ErrInvalidEntity, "entity name %q must match %s", e.Name, entityNamePattern)
	}
	if len(e.Fields) == 0 {
		return errors.Wrapf(ErrInvalidEntity, "entity %s has no fields", e.Name)
	}
	if err := validateAccess(e.Name, e.Access); err != nil {
		return err
	}
	return validateLevel(e.Name, e.Fields, make(map[string]bool))
}

// validateLevel checks fields sharing one data level; seen collects the
// names on that level across layout fields.
func validateLevel(path string, fields []Field, seen map[string]bool) error {
	for i, f := range fields {
		fpath := path + "." + f.Name
		if f.Name == "" {
			fpath = path + "." + f.Type
		}

		if !fieldTypes[f.Type] {
			return errors.Wrapf(ErrInvalidEntity, "%s[%d]: unknown field type %q", path, i, f.Type)
		}

		if f.IsLayout() {
			if err := validateLayout(fpath, f, seen); err != nil {
				return err
			}
			continue
		}

		if !govalidator.Matches(f.Name, fieldNamePattern) {
			return errors.Wrapf(ErrInvalidEntity, "%s[%d]: field name %q must match %s", path, i, f.Name, fieldNamePattern)
		}
		if seen[f.Name] {
			return errors.Wrapf(ErrInvalidEntity, "%s: duplicate field name", fpath)
		}
		seen[f.Name] = true

		if err := validateAccess(fpath, f.Access); err != nil {
			return err
		}

		switch f.Type {
		case TypeGroup, TypeArray:
			if len(f.Fields) == 0 {
				return errors.Wrapf(ErrInvalidEntity, "%s: %s field needs sub-fields", fpath, f.Type)
			}
			if err := validateLevel(fpath, f.Fields, make(map[string]bool)); err != nil {
				return err
			}
		default:
			if f.HasSubFields() {
				return errors.Wrapf(ErrInvalidEntity, "%s: %s field cannot have sub-fields", fpath, f.Type)
			}
		}
	}
	return nil
}

func validateLayout(path string, f Field, seen map[string]bool) error {
	if f.Name != "" {
		return errors.Wrapf(ErrInvalidEntity, "%s: %s field cannot be named", path, f.Type)
	}
	if len(f.Access) > 0 {
		return errors.Wrapf(ErrInvalidEntity, "%s: %s field cannot carry access rules", path, f.Type)
	}

	if f.Type != TypeTabs {
		if len(f.Fields) == 0 || len(f.Tabs) > 0 {
			return errors.Wrapf(ErrInvalidEntity, "%s: %s field needs sub-fields and no tabs", path, f.Type)
		}
		return validateLevel(path, f.Fields, seen)
	}

	if len(f.Tabs) == 0 || len(f.Fields) > 0 {
		return errors.Wrapf(ErrInvalidEntity, "%s: tabs field needs tabs and no fields", path)
	}
	for i, t := range f.Tabs {
		if t.Name == "" {
			if len(t.Access) > 0 {
				return errors.Wrapf(ErrInvalidEntity, "%s[%d]: unnamed tab cannot carry access rules", path, i)
			}
			if err := validateLevel(path, t.Fields, seen); err != nil {
				return err
			}
			continue
		}

		tpath := path + "." + t.Name
		if !govalidator.Matches(t.Name, fieldNamePattern) {
			return errors.Wrapf(ErrInvalidEntity, "%s[%d]: tab name %q must match %s", path, i, t.Name, fieldNamePattern)
		}
		if seen[t.Name] {
			return errors.Wrapf(ErrInvalidEntity, "%s: duplicate field name", tpath)
		}
		seen[t.Name] = true
		if err := validateAccess(tpath, t.Access); err != nil {
			return err
		}
		if err := validateLevel(tpath, t.Fields, make(map[string]bool)); err != nil {
			return err
		}
	}
	return nil
}

func validateAccess(path string, access map[string]string) error {
	for op, expression := range access {
		if !isOperation(op) {
			return errors.Wrapf(ErrInvalidEntity, "%s: unknown operation %q in access", path, op)
		}
		if govalidator.IsNull(expression) {
			return errors.Wrapf(ErrInvalidEntity, "%s: empty access expression for %s", path, op)
		}
	}
	return nil
}

func isOperation(op string) bool {
	for _, known := range permissions.Operations {
		if string(known) == op {
			return true
		}
	}
	return false
}
