package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldaccess/internal/metadata"
	"fieldaccess/internal/permissions"
)

func mustParse(t *testing.T, s string) permissions.Permissions {
	t.Helper()
	p, err := permissions.Parse([]byte(s))
	require.NoError(t, err)
	return p
}

func TestBuildPermissionsAdminIsFull(t *testing.T) {
	perms, err := BuildPermissions(postEntity(), admin, NewExprLangEvaluator())
	require.NoError(t, err)
	assert.True(t, perms.IsFull())
}

func TestBuildPermissionsWithoutRulesIsFull(t *testing.T) {
	perms, err := BuildPermissions(openEntity(), viewer, NewExprLangEvaluator())
	require.NoError(t, err)
	assert.True(t, perms.IsFull())

	perms, err = BuildPermissions(openEntity(), nil, NewExprLangEvaluator())
	require.NoError(t, err)
	assert.True(t, perms.IsFull())
}

func TestBuildPermissionsViewer(t *testing.T) {
	perms, err := BuildPermissions(postEntity(), viewer, NewExprLangEvaluator())
	require.NoError(t, err)

	leaf := `{"create": true, "read": true, "update": true, "delete": false}`
	partial := `{"permission": true}`
	want := mustParse(t, `{
		"title": `+leaf+`,
		"status": {"create": true, "read": true, "update": false, "delete": false},
		"author": `+leaf+`,
		"slug": {"create": false, "read": true, "update": true, "delete": false},
		"meta": {
			"description": `+leaf+`,
			"internal_notes": {"create": true, "read": false, "update": true, "delete": false},
			"create": true, "read": `+partial+`, "update": true, "delete": false
		},
		"seo": {
			"keywords": `+leaf+`,
			"create": true, "read": true, "update": true, "delete": false
		},
		"body": `+leaf+`,
		"create": `+partial+`, "read": `+partial+`, "update": `+partial+`, "delete": false
	}`)

	assert.True(t, want.Equal(perms), "got %s", perms)
}

func TestBuildPermissionsEditor(t *testing.T) {
	perms, err := BuildPermissions(postEntity(), editor, NewExprLangEvaluator())
	require.NoError(t, err)

	assert.True(t, perms.Get("title").IsFull())
	assert.True(t, perms.Get("meta").IsFull())
	assert.True(t, perms.Get("read").IsFull())
	assert.True(t, perms.Get("delete").IsFull())
	assert.False(t, perms.Get("create").IsFull())
	assert.True(t, perms.Get("create").Truthy())
	assert.True(t, mustParse(t, `{"create": false, "read": true, "update": true, "delete": true}`).Equal(perms.Get("slug")))
}

func TestBuildPermissionsDeniedContainerKeepsChildren(t *testing.T) {
	e := &metadata.Entity{
		Name: "secret",
		Fields: []metadata.Field{
			{Name: "open", Type: metadata.TypeText},
			{Name: "vault", Type: metadata.TypeGroup, Access: map[string]string{
				"create": "false", "read": "false", "update": "false", "delete": "false",
			}, Fields: []metadata.Field{{Name: "code", Type: metadata.TypeText}}},
		},
	}

	perms, err := BuildPermissions(e, viewer, NewExprLangEvaluator())
	require.NoError(t, err)
	assert.True(t, perms.Get("open").IsFull())

	vault := perms.Get("vault")
	require.True(t, vault.IsKeyed(), "got %s", vault)
	for _, op := range permissions.Operations {
		assert.True(t, vault.Get(string(op)).IsDenied(), op)
	}
	assert.True(t, vault.Get("code").IsDenied())
}

// deepDenied nests four levels under a group that denies every operation.
func deepDenied() *metadata.Entity {
	return &metadata.Entity{
		Name: "doc",
		Fields: []metadata.Field{
			{Name: "title", Type: metadata.TypeText},
			{Name: "meta", Type: metadata.TypeGroup, Access: map[string]string{
				"create": "false", "read": "false", "update": "false", "delete": "false",
			}, Fields: []metadata.Field{
				{Name: "seo", Type: metadata.TypeGroup, Fields: []metadata.Field{
					{Name: "social", Type: metadata.TypeGroup, Fields: []metadata.Field{
						{Type: metadata.TypeRow, Fields: []metadata.Field{
							{Name: "handle", Type: metadata.TypeText},
						}},
					}},
				}},
			}},
		},
	}
}

func TestBuildPermissionsDeniedGroupDeepNesting(t *testing.T) {
	perms, err := BuildPermissions(deepDenied(), viewer, NewExprLangEvaluator())
	require.NoError(t, err)

	assert.True(t, perms.Get("title").IsFull())
	for _, level := range []permissions.Permissions{
		perms.Get("meta"),
		perms.Get("meta").Get("seo"),
		perms.Get("meta").Get("seo").Get("social"),
	} {
		require.True(t, level.IsKeyed(), "got %s", level)
		assert.True(t, level.Get("read").IsDenied())
	}
	assert.True(t, perms.Get("meta").Get("seo").Get("social").Get("handle").IsDenied())
}

func TestBuildPermissionsChildOverridesDeniedParent(t *testing.T) {
	e := &metadata.Entity{
		Name: "profile",
		Fields: []metadata.Field{
			{Name: "account", Type: metadata.TypeGroup, Access: map[string]string{"update": "false"}, Fields: []metadata.Field{
				{Name: "nickname", Type: metadata.TypeText, Access: map[string]string{"update": "true"}},
				{Name: "email", Type: metadata.TypeEmail},
			}},
		},
	}

	perms, err := BuildPermissions(e, viewer, NewExprLangEvaluator())
	require.NoError(t, err)

	account := perms.Get("account")
	assert.True(t, account.Get("update").IsDenied())
	assert.True(t, account.Get("nickname").IsFull())
	assert.True(t, account.Get("email").Get("update").IsDenied())
}

func TestBuildPermissionsExpressionErrorDenies(t *testing.T) {
	eval := failingEvaluator{bad: isEditor, next: NewExprLangEvaluator()}

	perms, err := BuildPermissions(postEntity(), editor, eval)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.True(t, perms.Get("delete").IsDenied())
	assert.True(t, perms.Get("status").Get("update").IsDenied())
	assert.True(t, perms.Get("meta").Get("internal_notes").Get("read").IsDenied())
}

func TestBuildPermissionsOperationKeyShadowsField(t *testing.T) {
	e := &metadata.Entity{
		Name: "odd",
		Fields: []metadata.Field{
			{Name: "read", Type: metadata.TypeText, Access: map[string]string{"update": "false"}},
		},
	}

	perms, err := BuildPermissions(e, viewer, NewExprLangEvaluator())
	require.NoError(t, err)
	assert.True(t, perms.Get("read").IsFull())
	assert.True(t, perms.Get("update").Truthy())
}
