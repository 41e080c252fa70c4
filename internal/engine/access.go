package engine

import (
	"sort"

	"github.com/pkg/errors"

	"fieldaccess/internal/metadata"
	"fieldaccess/internal/permissions"
)

// partialGrant marks an operation allowed on a container while some of its
// descendants deny it. It is truthy but not true, so the resolver grants the
// container itself without short-circuiting the check for its children.
var partialGrant = permissions.Keyed(map[string]permissions.Permissions{"permission": permissions.Full})

type decisions map[permissions.Operation]bool

// subtree summarizes the decisions found in a subtree, per operation.
type subtree struct {
	all decisions // every node allows
	any decisions // at least one node allows
}

func newSubtree() subtree {
	s := subtree{all: decisions{}, any: decisions{}}
	for _, op := range permissions.Operations {
		s.all[op] = true
	}
	return s
}

func (s subtree) add(own decisions, child subtree) {
	for _, op := range permissions.Operations {
		s.all[op] = s.all[op] && own[op] && child.all[op]
		s.any[op] = s.any[op] || own[op] || child.any[op]
	}
}

type builder struct {
	eval ExpressionEvaluator
	env  map[string]any
	errs []error
}

// BuildPermissions computes the permission tree of user for entity.
//
// Admins get Full. Otherwise every access expression is evaluated against
// {"user": {"id", "roles"}}; a missing expression inherits the decision of
// the enclosing field, and the entity defaults to allowed. Every named field
// gets its own entry so that the resolver never has to fall back on an
// ancestor. A subtree where every operation is allowed collapses to Full; a
// field without named children where none is collapses to false.
//
// Expressions that fail to evaluate deny their operation. The tree is still
// returned, together with an error describing the failures.
func BuildPermissions(entity *metadata.Entity, user *metadata.UserContext, eval ExpressionEvaluator) (permissions.Permissions, error) {
	if user != nil && user.IsAdmin() {
		return permissions.Full, nil
	}
	if user == nil {
		user = &metadata.UserContext{}
	}

	b := &builder{eval: eval, env: map[string]any{"user": user.Env()}}

	root := b.decide(entity.Name, entity.Access, nil)
	keys := make(map[string]permissions.Permissions)
	below := newSubtree()
	b.level(entity.Fields, entity.Name, root, keys, below)

	perms := node(root, keys, below)
	return perms, b.err()
}

// level writes an entry for every named field of one data level into out.
// Unnamed layouts are transparent: their children land on the same level.
func (b *builder) level(fields []metadata.Field, path string, parent decisions, out map[string]permissions.Permissions, sum subtree) {
	for _, f := range fields {
		if f.Name == "" {
			b.level(f.Children(), path, parent, out, sum)
			continue
		}

		fpath := path + "." + f.Name
		own := b.decide(fpath, f.Access, parent)

		keys := make(map[string]permissions.Permissions)
		below := newSubtree()
		b.level(f.Children(), fpath, own, keys, below)

		out[f.Name] = node(own, keys, below)
		sum.add(own, below)
	}
}

// decide evaluates access expressions, inheriting parent's decision for
// operations without one. A nil parent allows everything.
func (b *builder) decide(path string, access map[string]string, parent decisions) decisions {
	d := make(decisions, len(permissions.Operations))
	for _, op := range permissions.Operations {
		allowed := true
		if parent != nil {
			allowed = parent[op]
		}
		if expression, ok := access[string(op)]; ok {
			result, err := b.eval.EvaluateBool(expression, b.env)
			if err != nil {
				b.errs = append(b.errs, errors.Wrapf(err, "%s %s", path, op))
				result = false
			}
			allowed = result
		}
		d[op] = allowed
	}
	return d
}

func (b *builder) err() error {
	if len(b.errs) == 0 {
		return nil
	}
	if len(b.errs) == 1 {
		return b.errs[0]
	}
	return errors.Wrapf(b.errs[0], "%d access expressions failed, first", len(b.errs))
}

// node assembles the entry for a container from its own decisions and its
// children's entries. Operation keys are written after the children, so an
// operation wins over a child of the same name.
func node(own decisions, children map[string]permissions.Permissions, below subtree) permissions.Permissions {
	all, none := true, true
	for _, op := range permissions.Operations {
		if !own[op] || !below.all[op] {
			all = false
		}
		if own[op] || below.any[op] {
			none = false
		}
	}
	if all {
		return permissions.Full
	}
	// A denied container keeps its children's entries: a bare false would
	// hand them Absent, which the resolver reads as Full one level down.
	if none && len(children) == 0 {
		return permissions.Bool(false)
	}

	m := make(map[string]permissions.Permissions, len(children)+len(permissions.Operations))
	for k, v := range children {
		m[k] = v
	}
	for _, op := range permissions.Operations {
		switch {
		case own[op] && below.all[op]:
			m[string(op)] = permissions.Full
		case own[op]:
			m[string(op)] = partialGrant
		default:
			m[string(op)] = permissions.Bool(false)
		}
	}
	return permissions.Keyed(m)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
