package metadata

import (
	"go.uber.org/zap"

	"fieldaccess/internal/permissions"
)

// Issue is a key collision found on one data level of an entity.
type Issue struct {
	Entity string `json:"entity"`
	Path   string `json:"path"`
	permissions.Collision
}

// LintEntity reports every data level where a field name, the enclosing
// container's name and the operation keys overlap. Such keys resolve
// ambiguously because they share one mapping in the permission tree.
func LintEntity(e *Entity) []Issue {
	var issues []Issue
	lintLevel(e, "", "", e.Fields, &issues)
	return issues
}

// LintAll lints every entity and logs what it finds.
func LintAll(log *zap.Logger, entities []*Entity) []Issue {
	var all []Issue
	for _, e := range entities {
		for _, issue := range LintEntity(e) {
			log.Warn("ambiguous permission key",
				zap.String("entity", issue.Entity),
				zap.String("path", issue.Path),
				zap.String("key", issue.Key),
				zap.Any("namespaces", issue.Namespaces),
			)
			all = append(all, issue)
		}
	}
	return all
}

func lintLevel(e *Entity, path, parentName string, fields []Field, issues *[]Issue) {
	var parents []string
	if parentName != "" {
		parents = []string{parentName}
	}

	for _, c := range permissions.Collisions(permissions.Operations, parents, namesOnLevel(fields)) {
		*issues = append(*issues, Issue{Entity: e.Name, Path: path, Collision: c})
	}

	for _, f := range namedOnLevel(fields) {
		if !f.HasSubFields() {
			continue
		}
		childPath := f.Name
		if path != "" {
			childPath = path + "." + f.Name
		}
		lintLevel(e, childPath, f.Name, f.Children(), issues)
	}
}

func namedOnLevel(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if f.Name == "" {
			out = append(out, namedOnLevel(f.Children())...)
			continue
		}
		out = append(out, f)
	}
	return out
}
