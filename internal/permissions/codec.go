package permissions

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidPermissions is returned when a decoded value is neither null, a
// boolean, nor an object.
var ErrInvalidPermissions = errors.New("invalid permissions value")

// Parse decodes a JSON permissions document.
func Parse(data []byte) (Permissions, error) {
	var p Permissions
	if err := p.UnmarshalJSON(data); err != nil {
		return Absent, err
	}
	return p, nil
}

// FromValue converts a generically decoded value (JSON or YAML) into a
// Permissions tree. Scalars other than booleans and all arrays are rejected
// here, so the resolver never has to guess about them.
func FromValue(v any) (Permissions, error) {
	return fromValue(v, "$")
}

func fromValue(v any, path string) (Permissions, error) {
	switch t := v.(type) {
	case nil:
		return Absent, nil
	case bool:
		return Bool(t), nil
	case Permissions:
		return t, nil
	case map[string]any:
		keys := make(map[string]Permissions, len(t))
		for k, child := range t {
			p, err := fromValue(child, path+"."+k)
			if err != nil {
				return Absent, err
			}
			keys[k] = p
		}
		return Permissions{kind: KindKeyed, keys: keys}, nil
	case map[any]any:
		keys := make(map[string]Permissions, len(t))
		for k, child := range t {
			name := fmt.Sprint(k)
			p, err := fromValue(child, path+"."+name)
			if err != nil {
				return Absent, err
			}
			keys[name] = p
		}
		return Permissions{kind: KindKeyed, keys: keys}, nil
	default:
		return Absent, errors.Wrapf(ErrInvalidPermissions, "%s: unexpected %T", path, v)
	}
}

// Value converts p back into plain Go values: nil, bool or map[string]any.
func (p Permissions) Value() any {
	switch p.kind {
	case KindBool:
		return p.value
	case KindKeyed:
		m := make(map[string]any, len(p.keys))
		for k, v := range p.keys {
			m[k] = v.Value()
		}
		return m
	default:
		return nil
	}
}

func (p Permissions) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case KindBool:
		if p.value {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindKeyed:
		return json.Marshal(p.keys)
	default:
		return []byte("null"), nil
	}
}

func (p *Permissions) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode permissions")
	}

	v, err := FromValue(raw)
	if err != nil {
		return err
	}

	*p = v
	return nil
}
