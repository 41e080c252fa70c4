package engine

import (
	"github.com/pkg/errors"

	"fieldaccess/internal/metadata"
)

const isEditor = `"editor" in user.roles`

// postEntity exercises every kind of container: a row, a group, a named tab
// and an unnamed tab.
func postEntity() *metadata.Entity {
	return &metadata.Entity{
		Name:   "post",
		Label:  "Posts",
		Access: map[string]string{"delete": isEditor},
		Fields: []metadata.Field{
			{Name: "title", Type: metadata.TypeText, Required: true},
			{Name: "status", Type: metadata.TypeSelect, Options: []string{"draft", "published"}, Access: map[string]string{"update": isEditor}},
			{Type: metadata.TypeRow, Fields: []metadata.Field{
				{Name: "author", Type: metadata.TypeText},
				{Name: "slug", Type: metadata.TypeText, Access: map[string]string{"create": "false"}},
			}},
			{Name: "meta", Type: metadata.TypeGroup, Fields: []metadata.Field{
				{Name: "description", Type: metadata.TypeTextarea},
				{Name: "internal_notes", Type: metadata.TypeTextarea, Access: map[string]string{"read": isEditor}},
			}},
			{Type: metadata.TypeTabs, Tabs: []metadata.Tab{
				{Name: "seo", Label: "SEO", Fields: []metadata.Field{{Name: "keywords", Type: metadata.TypeText}}},
				{Label: "Content", Fields: []metadata.Field{{Name: "body", Type: metadata.TypeTextarea}}},
			}},
		},
	}
}

func openEntity() *metadata.Entity {
	return &metadata.Entity{
		Name:   "note",
		Fields: []metadata.Field{{Name: "text", Type: metadata.TypeText}},
	}
}

var (
	viewer = &metadata.UserContext{ID: "u-viewer", Roles: []string{"viewer"}}
	editor = &metadata.UserContext{ID: "u-editor", Roles: []string{"editor"}}
	admin  = &metadata.UserContext{ID: "u-admin", Roles: []string{"admin"}}
)

// failingEvaluator fails every expression equal to bad and delegates the rest.
type failingEvaluator struct {
	bad  string
	next ExpressionEvaluator
}

func (f failingEvaluator) EvaluateBool(expression string, env map[string]any) (bool, error) {
	if expression == f.bad {
		return true, errors.New("boom")
	}
	return f.next.EvaluateBool(expression, env)
}
