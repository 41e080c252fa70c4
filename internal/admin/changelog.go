package admin

import (
	"strings"

	"github.com/r3labs/diff"
)

// Change is one entry of an entity definition changelog.
type Change struct {
	Type string `json:"type"`
	Path string `json:"path"`
	From any    `json:"from,omitempty"`
	To   any    `json:"to,omitempty"`
}

func changes(changelog diff.Changelog) []Change {
	out := make([]Change, 0, len(changelog))
	for _, c := range changelog {
		out = append(out, Change{
			Type: c.Type,
			Path: strings.Join(c.Path, "."),
			From: c.From,
			To:   c.To,
		})
	}
	return out
}
