package permissions

// Operation names the action attempted on a document or one of its fields.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Operations lists the operations known to the access layer.
var Operations = []Operation{OperationCreate, OperationRead, OperationUpdate, OperationDelete}

const readKey = "read"

// Field is the one capability the resolver needs from a field definition.
// Layout fields without a name report ok == false.
type Field interface {
	FieldName() (name string, ok bool)
}

// Name is a Field with the given name.
type Name string

func (n Name) FieldName() (string, bool) { return string(n), true }

// Unnamed is a Field without a name, such as a row or a collapsible.
type Unnamed struct{}

func (Unnamed) FieldName() (string, bool) { return "", false }

// Result holds the flags resolved for one field, and the permissions to use
// for its sub-fields.
type Result struct {
	Operation   bool        `json:"operation"`
	Read        bool        `json:"read"`
	Permissions Permissions `json:"permissions"`
}

// Resolve computes the operation and read flags of field under perms.
// It never mutates its arguments and is safe for concurrent use.
func Resolve(field Field, operation Operation, parentName string, perms Permissions) Result {
	name, named := fieldName(field)

	return Result{
		Operation:   granted(perms, string(operation), parentName, name, named),
		Read:        granted(perms, readKey, parentName, name, named),
		Permissions: effective(perms, name, named),
	}
}

func fieldName(f Field) (string, bool) {
	if f == nil {
		return "", false
	}
	return f.FieldName()
}

// granted applies the cascade for one key (an operation or "read"). The first
// three checks only accept a literal true; the field's own entry only has to
// be present and truthy.
func granted(perms Permissions, key, parentName, name string, named bool) bool {
	if perms.IsFull() || perms.Get(key).IsFull() || perms.Get(parentName).IsFull() {
		return true
	}

	if !named || !perms.IsKeyed() {
		return false
	}

	nested := perms.Get(name)
	if !nested.Truthy() {
		return false
	}
	if nested.IsFull() {
		return true
	}

	v, ok := nested.Lookup(key)
	return ok && v.Truthy()
}

func effective(perms Permissions, name string, named bool) Permissions {
	if perms.IsAbsent() || perms.IsFull() {
		return Full
	}
	if named {
		return perms.Get(name)
	}
	return perms
}
