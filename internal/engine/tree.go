package engine

import (
	"strings"

	"fieldaccess/internal/metadata"
	"fieldaccess/internal/permissions"
)

// FieldAccess is the resolved access of one field and its sub-fields.
type FieldAccess struct {
	Name      string        `json:"name,omitempty"`
	Path      string        `json:"path,omitempty"`
	Type      string        `json:"type"`
	Operation bool          `json:"operation"`
	Read      bool          `json:"read"`
	Fields    []FieldAccess `json:"fields,omitempty"`
}

// ResolveTree resolves every field for operation, top down. Each field is
// resolved against the permissions its parent produced; a named field passes
// its own name as the parent name to its children, a layout passes on the
// name it received.
func ResolveTree(fields []metadata.Field, operation permissions.Operation, parentName string, perms permissions.Permissions) []FieldAccess {
	return resolveLevel(fields, operation, "", parentName, perms)
}

func resolveLevel(fields []metadata.Field, operation permissions.Operation, path, parentName string, perms permissions.Permissions) []FieldAccess {
	out := make([]FieldAccess, 0, len(fields))
	for _, f := range fields {
		r := permissions.Resolve(f, operation, parentName, perms)

		fa := FieldAccess{
			Name:      f.Name,
			Path:      joinPath(path, f.Name),
			Type:      f.Type,
			Operation: r.Operation,
			Read:      r.Read,
		}

		childParent := parentName
		if f.Name != "" {
			childParent = f.Name
		}
		if children := f.Children(); len(children) > 0 {
			fa.Fields = resolveLevel(children, operation, fa.Path, childParent, r.Permissions)
		}
		out = append(out, fa)
	}
	return out
}

// ResolvePath resolves the field at a dot-separated data path. Layouts on
// the way are resolved like any other field so the permissions handed down
// match what ResolveTree computes. ok is false when no field lives at path.
func ResolvePath(fields []metadata.Field, path string, operation permissions.Operation, parentName string, perms permissions.Permissions) (permissions.Result, bool) {
	if path == "" {
		return permissions.Result{}, false
	}
	segments := strings.Split(path, ".")
	return resolveSegments(fields, segments, operation, parentName, perms)
}

func resolveSegments(fields []metadata.Field, segments []string, operation permissions.Operation, parentName string, perms permissions.Permissions) (permissions.Result, bool) {
	for _, f := range fields {
		r := permissions.Resolve(f, operation, parentName, perms)

		if f.Name == "" {
			if res, ok := resolveSegments(f.Children(), segments, operation, parentName, r.Permissions); ok {
				return res, true
			}
			continue
		}
		if f.Name != segments[0] {
			continue
		}
		if len(segments) == 1 {
			return r, true
		}
		return resolveSegments(f.Children(), segments[1:], operation, f.Name, r.Permissions)
	}
	return permissions.Result{}, false
}
