package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldaccess/internal/metadata"
	"fieldaccess/internal/permissions"
)

// flatten indexes named entries of a resolved tree by path.
func flatten(fields []FieldAccess, out map[string]FieldAccess) map[string]FieldAccess {
	for _, f := range fields {
		if f.Name != "" {
			out[f.Path] = f
		}
		flatten(f.Fields, out)
	}
	return out
}

func buildFor(t *testing.T, user *metadata.UserContext) permissions.Permissions {
	t.Helper()
	perms, err := BuildPermissions(postEntity(), user, NewExprLangEvaluator())
	require.NoError(t, err)
	return perms
}

func TestResolveTreeViewer(t *testing.T) {
	perms := buildFor(t, viewer)
	fields := postEntity().Fields

	tests := []struct {
		operation permissions.Operation
		denied    []string
		unread    []string
	}{
		{permissions.OperationCreate, []string{"slug"}, []string{"meta.internal_notes"}},
		{permissions.OperationRead, []string{"meta.internal_notes"}, []string{"meta.internal_notes"}},
		{permissions.OperationUpdate, []string{"status"}, []string{"meta.internal_notes"}},
		{permissions.OperationDelete, []string{
			"title", "status", "author", "slug", "meta", "meta.description",
			"meta.internal_notes", "seo", "seo.keywords", "body",
		}, []string{"meta.internal_notes"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.operation), func(t *testing.T) {
			byPath := flatten(ResolveTree(fields, tt.operation, "", perms), map[string]FieldAccess{})
			require.Len(t, byPath, 10)

			for path, fa := range byPath {
				assert.Equal(t, !contains(tt.denied, path), fa.Operation, "operation on %s", path)
				assert.Equal(t, !contains(tt.unread, path), fa.Read, "read on %s", path)
			}
		})
	}
}

func TestResolveTreeEditor(t *testing.T) {
	perms := buildFor(t, editor)
	byPath := flatten(ResolveTree(postEntity().Fields, permissions.OperationCreate, "", perms), map[string]FieldAccess{})

	for path, fa := range byPath {
		assert.Equal(t, path != "slug", fa.Operation, path)
		assert.True(t, fa.Read, path)
	}
}

func TestResolveTreeShape(t *testing.T) {
	tree := ResolveTree(postEntity().Fields, permissions.OperationRead, "", permissions.Full)
	require.Len(t, tree, 5)

	row := tree[2]
	assert.Equal(t, "row", row.Type)
	assert.Empty(t, row.Name)
	assert.True(t, row.Operation, "layouts follow a literal true")
	require.Len(t, row.Fields, 2)
	assert.Equal(t, "slug", row.Fields[1].Path)

	tabs := tree[4]
	require.Len(t, tabs.Fields, 2)
	assert.Equal(t, "tab", tabs.Fields[0].Type)
	assert.Equal(t, "seo.keywords", tabs.Fields[0].Fields[0].Path)
	assert.Equal(t, "body", tabs.Fields[1].Fields[0].Path)
}

func TestResolveTreeLayoutWithoutLiteralTrue(t *testing.T) {
	perms := buildFor(t, viewer)
	tree := ResolveTree(postEntity().Fields, permissions.OperationRead, "", perms)

	// unnamed containers have no entry of their own
	assert.False(t, tree[2].Operation)
	assert.False(t, tree[2].Read)
}

func TestResolvePath(t *testing.T) {
	perms := buildFor(t, viewer)
	fields := postEntity().Fields

	tests := []struct {
		path      string
		operation permissions.Operation
		allowed   bool
		read      bool
	}{
		{"title", permissions.OperationUpdate, true, true},
		{"status", permissions.OperationUpdate, false, true},
		{"slug", permissions.OperationCreate, false, true},
		{"meta", permissions.OperationRead, true, true},
		{"meta.internal_notes", permissions.OperationRead, false, false},
		{"meta.description", permissions.OperationUpdate, true, true},
		{"seo.keywords", permissions.OperationDelete, false, true},
		{"body", permissions.OperationCreate, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+string(tt.operation), func(t *testing.T) {
			r, ok := ResolvePath(fields, tt.path, tt.operation, "", perms)
			require.True(t, ok)
			assert.Equal(t, tt.allowed, r.Operation)
			assert.Equal(t, tt.read, r.Read)
		})
	}

	for _, missing := range []string{"", "nope", "meta.nope", "title.sub", "keywords"} {
		_, ok := ResolvePath(fields, missing, permissions.OperationRead, "", perms)
		assert.False(t, ok, missing)
	}
}

func TestResolvePathMatchesTree(t *testing.T) {
	perms := buildFor(t, viewer)
	fields := postEntity().Fields

	for _, op := range permissions.Operations {
		for path, fa := range flatten(ResolveTree(fields, op, "", perms), map[string]FieldAccess{}) {
			r, ok := ResolvePath(fields, path, op, "", perms)
			require.True(t, ok, path)
			assert.Equal(t, fa.Operation, r.Operation, "%s %s", op, path)
			assert.Equal(t, fa.Read, r.Read, "%s %s", op, path)
		}
	}
}

func TestResolveTreeDeniedGroupDeepNesting(t *testing.T) {
	fields := deepDenied().Fields
	perms, err := BuildPermissions(deepDenied(), viewer, NewExprLangEvaluator())
	require.NoError(t, err)

	nested := []string{"meta", "meta.seo", "meta.seo.social", "meta.seo.social.handle"}
	for _, op := range permissions.Operations {
		byPath := flatten(ResolveTree(fields, op, "", perms), map[string]FieldAccess{})
		assert.True(t, byPath["title"].Operation, op)
		for _, path := range nested {
			fa, ok := byPath[path]
			require.True(t, ok, path)
			assert.False(t, fa.Operation, "%s %s", op, path)
			assert.False(t, fa.Read, "%s %s", op, path)

			r, ok := ResolvePath(fields, path, op, "", perms)
			require.True(t, ok, path)
			assert.False(t, r.Operation, "%s %s", op, path)
			assert.False(t, r.Read, "%s %s", op, path)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
