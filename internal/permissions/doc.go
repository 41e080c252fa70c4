// Package permissions resolves cascading read and operation flags for a
// single form field.
//
// A permission tree is a Permissions value: absent (full access), a boolean,
// or a keyed mapping whose keys are operation names, "read", parent
// (tab/group) names and field names, all sharing one key space. Resolve is
// the decision function; the caller invokes it once per field and feeds the
// returned effective permissions back in when descending into sub-fields.
//
// The package is pure and in-memory. It must not log, touch storage, or
// depend on the metadata or transport layers.
package permissions
