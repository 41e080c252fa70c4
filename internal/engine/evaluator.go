package engine

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	"fieldaccess/internal/metadata"
)

// ExpressionEvaluator abstracts access expression evaluation.
type ExpressionEvaluator interface {
	EvaluateBool(expression string, env map[string]any) (bool, error)
}

// ExprLangEvaluator uses expr-lang/expr for safe expression evaluation.
// Compiled programs are cached by expression string.
type ExprLangEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func NewExprLangEvaluator() *ExprLangEvaluator {
	return &ExprLangEvaluator{
		cache: make(map[string]*vm.Program),
	}
}

func (e *ExprLangEvaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	prog, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, errors.Wrap(err, "compile expression")
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()
	return prog, nil
}

func (e *ExprLangEvaluator) EvaluateBool(expression string, env map[string]any) (bool, error) {
	prog, err := e.compile(expression)
	if err != nil {
		return false, err
	}

	result, err := expr.Run(prog, env)
	if err != nil {
		return false, errors.Wrap(err, "evaluate expression")
	}

	isTrue, ok := result.(bool)
	if !ok {
		return false, errors.New("expression did not return bool")
	}

	return isTrue, nil
}

// CheckExpressions compiles every access expression of the entity and
// reports the ones that do not compile.
func (e *ExprLangEvaluator) CheckExpressions(entity *metadata.Entity) []ErrorDetail {
	var details []ErrorDetail
	check := func(path string, access map[string]string) {
		for _, op := range sortedKeys(access) {
			if _, err := e.compile(access[op]); err != nil {
				details = append(details, ErrorDetail{
					Field:   path,
					Rule:    "expression",
					Message: op + ": " + errors.Cause(err).Error(),
				})
			}
		}
	}

	check("", entity.Access)
	walkFields(entity.Fields, "", func(path string, f metadata.Field) {
		check(path, f.Access)
	})
	return details
}

// walkFields visits every field depth first. path is the dot path of named
// ancestors plus the field's own name.
func walkFields(fields []metadata.Field, path string, visit func(path string, f metadata.Field)) {
	for _, f := range fields {
		p := joinPath(path, f.Name)
		visit(p, f)
		walkFields(f.Children(), p, visit)
	}
}

func joinPath(path, name string) string {
	switch {
	case name == "":
		return path
	case path == "":
		return name
	default:
		return path + "." + name
	}
}
