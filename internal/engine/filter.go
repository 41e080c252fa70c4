package engine

import (
	"fmt"

	"fieldaccess/internal/metadata"
	"fieldaccess/internal/permissions"
)

// resolvedField is a named field of one data level with its resolution.
type resolvedField struct {
	field  metadata.Field
	result permissions.Result
}

// resolveNamed resolves the named fields of one data level, looking through
// layouts.
func resolveNamed(fields []metadata.Field, operation permissions.Operation, parentName string, perms permissions.Permissions, out map[string]resolvedField) {
	for _, f := range fields {
		r := permissions.Resolve(f, operation, parentName, perms)
		if f.Name == "" {
			resolveNamed(f.Children(), operation, parentName, r.Permissions, out)
			continue
		}
		out[f.Name] = resolvedField{field: f, result: r}
	}
}

// FilterReadable returns a copy of record holding only the fields the
// permissions allow to read. Keys that match no field are dropped. Nested
// objects and arrays of objects are filtered recursively. record is not
// modified.
func FilterReadable(fields []metadata.Field, perms permissions.Permissions, record map[string]any) map[string]any {
	return filterLevel(fields, "", perms, record)
}

func filterLevel(fields []metadata.Field, parentName string, perms permissions.Permissions, record map[string]any) map[string]any {
	level := make(map[string]resolvedField)
	resolveNamed(fields, permissions.OperationRead, parentName, perms, level)

	out := make(map[string]any, len(record))
	for key, value := range record {
		rf, ok := level[key]
		if !ok || !rf.result.Read {
			continue
		}
		children := rf.field.Children()
		if len(children) == 0 {
			out[key] = value
			continue
		}
		out[key] = filterValue(children, rf.field.Name, rf.result.Permissions, value)
	}
	return out
}

func filterValue(fields []metadata.Field, parentName string, perms permissions.Permissions, value any) any {
	switch v := value.(type) {
	case map[string]any:
		return filterLevel(fields, parentName, perms, v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = filterValue(fields, parentName, perms, item)
		}
		return items
	default:
		return value
	}
}

// CheckWritable lists the keys of body the operation may not touch: keys of
// fields it is not allowed on (rule "forbidden") and keys that match no field
// (rule "unknown_field"). Details are ordered by path.
func CheckWritable(fields []metadata.Field, operation permissions.Operation, perms permissions.Permissions, body map[string]any) []ErrorDetail {
	var details []ErrorDetail
	checkLevel(fields, operation, "", "", perms, body, &details)
	return details
}

func checkLevel(fields []metadata.Field, operation permissions.Operation, path, parentName string, perms permissions.Permissions, body map[string]any, details *[]ErrorDetail) {
	level := make(map[string]resolvedField)
	resolveNamed(fields, operation, parentName, perms, level)

	for _, key := range sortedKeys(body) {
		fpath := joinPath(path, key)
		rf, ok := level[key]
		if !ok {
			*details = append(*details, ErrorDetail{
				Field:   fpath,
				Rule:    "unknown_field",
				Message: fmt.Sprintf("%s is not a field", fpath),
			})
			continue
		}
		if !rf.result.Operation {
			*details = append(*details, ErrorDetail{
				Field:   fpath,
				Rule:    "forbidden",
				Message: fmt.Sprintf("%s not allowed on %s", operation, fpath),
			})
			continue
		}

		children := rf.field.Children()
		if len(children) == 0 {
			continue
		}
		checkValue(children, operation, fpath, rf.field.Name, rf.result.Permissions, body[key], details)
	}
}

func checkValue(fields []metadata.Field, operation permissions.Operation, path, parentName string, perms permissions.Permissions, value any, details *[]ErrorDetail) {
	switch v := value.(type) {
	case map[string]any:
		checkLevel(fields, operation, path, parentName, perms, v, details)
	case []any:
		for i, item := range v {
			checkValue(fields, operation, fmt.Sprintf("%s.%d", path, i), parentName, perms, item, details)
		}
	}
}
