package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldaccess/internal/auth"
	"fieldaccess/internal/config"
	"fieldaccess/internal/engine"
	"fieldaccess/internal/metadata"
	"fieldaccess/internal/store"
)

const jwtSecret = "test-secret"

const postJSON = `{
	"name": "post",
	"label": "Post",
	"fields": [
		{"name": "title", "type": "text"},
		{"name": "status", "type": "select", "options": ["draft", "published"], "access": {"update": "\"editor\" in user.roles"}}
	]
}`

const noteYAML = `
entities:
  - name: note
    fields:
      - name: text
        type: text
`

type fixture struct {
	app      *fiber.App
	store    *store.Store
	reg      *metadata.Registry
	seedFile string
	admin    string
	user     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "admin"})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Bootstrap(ctx))

	seedFile := filepath.Join(t.TempDir(), "entities.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(noteYAML), 0o644))

	log := zap.NewNop()
	reg := metadata.NewRegistry()
	h := NewHandler(s, reg, engine.NewExprLangEvaluator(), seedFile, log)
	seed, err := h.LoadSeed()
	require.NoError(t, err)
	reg.Merge(seed)

	app := fiber.New(fiber.Config{ErrorHandler: engine.NewErrorHandler(log)})
	RegisterAdminRoutes(app, h, auth.AuthMiddleware(jwtSecret, log), auth.RequireAdmin())

	adminToken, err := auth.GenerateAccessToken("root", []string{"admin"}, jwtSecret, time.Minute)
	require.NoError(t, err)
	userToken, err := auth.GenerateAccessToken("bob", []string{"editor"}, jwtSecret, time.Minute)
	require.NoError(t, err)

	return &fixture{app: app, store: s, reg: reg, seedFile: seedFile, admin: adminToken, user: userToken}
}

func (f *fixture) do(t *testing.T, method, target, token, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestAdminRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/api/_admin/entities", f.user, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = f.do(t, http.MethodGet, "/api/_admin/entities", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestEntityLifecycle(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/_admin/entities", f.admin, postJSON)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Empty(t, body["warnings"])
	require.NotNil(t, f.reg.GetEntity("post"))
	require.NotNil(t, f.reg.GetEntity("note"), "seed entity survives reload")

	status, body = f.do(t, http.MethodPost, "/api/_admin/entities", f.admin, postJSON)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = f.do(t, http.MethodGet, "/api/_admin/entities", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = f.do(t, http.MethodGet, "/api/_admin/entities/post", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Post", body["data"].(map[string]any)["label"])

	updated := strings.Replace(postJSON, `"label": "Post"`, `"label": "Posts"`, 1)
	status, body = f.do(t, http.MethodPut, "/api/_admin/entities/post", f.admin, updated)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body["changes"], map[string]any{
		"type": "update",
		"path": "label",
		"from": "Post",
		"to":   "Posts",
	})
	assert.Equal(t, "Posts", f.reg.GetEntity("post").Label)

	stored, err := f.store.GetEntityDefinition(context.Background(), "post")
	require.NoError(t, err)
	assert.Contains(t, string(stored.Definition), "Posts")

	status, _ = f.do(t, http.MethodPut, "/api/_admin/entities/nope", f.admin, updated)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.do(t, http.MethodDelete, "/api/_admin/entities/post", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, f.reg.GetEntity("post"))
	assert.NotNil(t, f.reg.GetEntity("note"))

	status, body = f.do(t, http.MethodDelete, "/api/_admin/entities/post", f.admin, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestCreateEntityValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad name", `{"name":"Bad Name","fields":[{"name":"a","type":"text"}]}`, ""},
		{"unknown type", `{"name":"x","fields":[{"name":"a","type":"blob"}]}`, ""},
		{"bad expression", `{"name":"x","fields":[{"name":"a","type":"text","access":{"read":"user.roles ==="}}]}`, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(t, http.MethodPost, "/api/_admin/entities", f.admin, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

			details := body["error"].(map[string]any)["details"].([]any)
			require.NotEmpty(t, details)
			field, _ := details[0].(map[string]any)["field"].(string)
			assert.Equal(t, tt.field, field)
		})
	}

	status, _ := f.do(t, http.MethodPost, "/api/_admin/entities", f.admin, `{`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateEntityWarnsOnAmbiguousKeys(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/_admin/entities", f.admin,
		`{"name":"odd","fields":[{"name":"read","type":"text"}]}`)
	require.Equal(t, http.StatusCreated, status)

	warnings := body["warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.Equal(t, "read", warnings[0].(map[string]any)["key"])

	status, body = f.do(t, http.MethodGet, "/api/_admin/entities/odd/lint", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestAPIKeys(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/_admin/api-keys", f.admin, `{"name":"ci","roles":["editor"]}`)
	require.Equal(t, http.StatusCreated, status, body)

	data := body["data"].(map[string]any)
	id := data["id"].(string)
	secret := data["secret"].(string)
	assert.Equal(t, []any{"editor"}, data["roles"])

	key, err := f.store.GetAPIKey(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, auth.CheckSecret(secret, key.SecretHash))

	status, body = f.do(t, http.MethodGet, "/api/_admin/api-keys", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = f.do(t, http.MethodPost, "/api/_admin/api-keys", f.admin, `{"roles":["x"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = f.do(t, http.MethodDelete, "/api/_admin/api-keys/"+id, f.admin, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = f.do(t, http.MethodDelete, "/api/_admin/api-keys/"+id, f.admin, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReloadRegistry(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.InsertEntityDefinition(context.Background(), store.EntityDefinition{
		Name:       "post",
		Definition: []byte(postJSON),
	}))
	assert.Nil(t, f.reg.GetEntity("post"))

	status, body := f.do(t, http.MethodPost, "/api/_admin/reload", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["data"].(map[string]any)["entities"])
	assert.NotNil(t, f.reg.GetEntity("post"))
}

func TestReloadRereadsEntitiesFile(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.reg.GetEntity("page"))

	require.NoError(t, os.WriteFile(f.seedFile, []byte(noteYAML+`
  - name: page
    fields:
      - name: heading
        type: text
`), 0o644))

	status, body := f.do(t, http.MethodPost, "/api/_admin/reload", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["data"].(map[string]any)["entities"])
	assert.NotNil(t, f.reg.GetEntity("page"))
	assert.NotNil(t, f.reg.GetEntity("note"))
}

func TestReloadKeepsEntitiesWhenFileBreaks(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, os.WriteFile(f.seedFile, []byte("entities: [{name: 'bad name!'}]"), 0o644))

	status, _ := f.do(t, http.MethodPost, "/api/_admin/reload", f.admin, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, f.reg.GetEntity("note"))
}
