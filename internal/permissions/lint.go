package permissions

import (
	"sort"
	"strings"
)

// Namespace is one of the key families that share a single mapping level.
type Namespace string

const (
	NamespaceOperation Namespace = "operation"
	NamespaceParent    Namespace = "parent"
	NamespaceField     Namespace = "field"
)

// Collision is a key claimed by more than one namespace on the same level.
// Resolution still treats the key as whatever the lookup finds first; the
// collision only tells operators that the meaning is ambiguous.
type Collision struct {
	Key        string      `json:"key"`
	Namespaces []Namespace `json:"namespaces"`
}

func (c Collision) String() string {
	names := make([]string, len(c.Namespaces))
	for i, ns := range c.Namespaces {
		names[i] = string(ns)
	}
	return c.Key + " (" + strings.Join(names, ", ") + ")"
}

// Collisions reports keys used by more than one namespace on one level.
// "read" always counts as an operation key. Results are sorted by key.
func Collisions(operations []Operation, parentNames, fieldNames []string) []Collision {
	claims := make(map[string]map[Namespace]bool)
	claim := func(key string, ns Namespace) {
		if key == "" {
			return
		}
		if claims[key] == nil {
			claims[key] = make(map[Namespace]bool)
		}
		claims[key][ns] = true
	}

	claim(readKey, NamespaceOperation)
	for _, op := range operations {
		claim(string(op), NamespaceOperation)
	}
	for _, name := range parentNames {
		claim(name, NamespaceParent)
	}
	for _, name := range fieldNames {
		claim(name, NamespaceField)
	}

	var out []Collision
	for key, set := range claims {
		if len(set) < 2 {
			continue
		}
		c := Collision{Key: key}
		for _, ns := range []Namespace{NamespaceOperation, NamespaceParent, NamespaceField} {
			if set[ns] {
				c.Namespaces = append(c.Namespaces, ns)
			}
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
