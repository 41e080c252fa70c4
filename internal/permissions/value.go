package permissions

import "sort"

// Kind identifies which variant a Permissions value holds.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindBool
	KindKeyed
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindKeyed:
		return "keyed"
	default:
		return "unrecognized permissions kind"
	}
}

// Permissions is a node of a permission tree. The zero value is Absent.
// Values are immutable once built; Keyed copies the map it is given.
type Permissions struct {
	kind  Kind
	value bool
	keys  map[string]Permissions
}

var (
	// Absent stands for a missing permissions value and grants full access
	// when handed down to sub-fields.
	Absent = Permissions{}

	// Full grants everything beneath it.
	Full = Permissions{kind: KindBool, value: true}
)

// Bool returns a boolean permissions value.
func Bool(b bool) Permissions {
	return Permissions{kind: KindBool, value: b}
}

// Keyed returns a mapping node. A nil or empty map still yields a keyed
// (and therefore truthy) node.
func Keyed(m map[string]Permissions) Permissions {
	keys := make(map[string]Permissions, len(m))
	for k, v := range m {
		keys[k] = v
	}
	return Permissions{kind: KindKeyed, keys: keys}
}

func (p Permissions) Kind() Kind     { return p.kind }
func (p Permissions) IsAbsent() bool { return p.kind == KindAbsent }
func (p Permissions) IsKeyed() bool  { return p.kind == KindKeyed }
func (p Permissions) IsFull() bool   { return p.kind == KindBool && p.value }
func (p Permissions) IsDenied() bool { return p.kind == KindBool && !p.value }

// Truthy reports whether the value counts as granted when merely present:
// true, or any mapping (even an empty one).
func (p Permissions) Truthy() bool {
	return p.IsFull() || p.IsKeyed()
}

// Lookup returns the value stored under key. Non-keyed values have no keys.
func (p Permissions) Lookup(key string) (Permissions, bool) {
	if p.kind != KindKeyed {
		return Absent, false
	}
	v, ok := p.keys[key]
	return v, ok
}

// Get is Lookup without the presence flag.
func (p Permissions) Get(key string) Permissions {
	v, _ := p.Lookup(key)
	return v
}

// Len returns the number of keys of a mapping node, zero otherwise.
func (p Permissions) Len() int {
	return len(p.keys)
}

// Keys returns the sorted keys of a mapping node.
func (p Permissions) Keys() []string {
	if p.kind != KindKeyed {
		return nil
	}
	keys := make([]string, 0, len(p.keys))
	for k := range p.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports structural equality.
func (p Permissions) Equal(q Permissions) bool {
	if p.kind != q.kind {
		return false
	}
	switch p.kind {
	case KindBool:
		return p.value == q.value
	case KindKeyed:
		if len(p.keys) != len(q.keys) {
			return false
		}
		for k, v := range p.keys {
			w, ok := q.keys[k]
			if !ok || !v.Equal(w) {
				return false
			}
		}
	}
	return true
}

func (p Permissions) String() string {
	buf, err := p.MarshalJSON()
	if err != nil {
		return p.kind.String()
	}
	return string(buf)
}
