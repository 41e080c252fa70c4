package permissions

// Merge returns the union of two permission trees, as needed when several
// permission files (one per role or grant) describe one caller. A literal true on either side wins, a falsy side
// yields the other (Absent is the identity), and two mappings merge key by
// key.
func Merge(a, b Permissions) Permissions {
	switch {
	case a.IsFull() || b.IsFull():
		return Full
	case !a.Truthy():
		if b.IsAbsent() {
			return a
		}
		return b
	case !b.Truthy():
		return a
	}

	keys := make(map[string]Permissions, len(a.keys)+len(b.keys))
	for k, v := range a.keys {
		keys[k] = v
	}
	for k, v := range b.keys {
		if cur, ok := keys[k]; ok {
			keys[k] = Merge(cur, v)
			continue
		}
		keys[k] = v
	}

	return Permissions{kind: KindKeyed, keys: keys}
}

// MergeAll folds Merge over ps. An empty list yields Absent.
func MergeAll(ps ...Permissions) Permissions {
	out := Absent
	for i, p := range ps {
		if i == 0 {
			out = p
			continue
		}
		out = Merge(out, p)
	}
	return out
}
