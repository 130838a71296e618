package selection

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
)

// Selector picks the attributes a submesh is extracted from, either from an
// explicit list or with a CEL predicate over the variable attr, e.g.
// "attr >= 3 && attr != 5".
type Selector struct {
	list []int
	expr string
	prg  cel.Program
}

func FromList(attrs []int) *Selector {
	return &Selector{list: append([]int(nil), attrs...)}
}

func Compile(expr string) (s *Selector, err error) {
	env, err := cel.NewEnv(cel.Variable("attr", cel.IntType))
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compiling selection %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("selection %q is of type %s, want bool", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building selection %q: %w", expr, err)
	}
	return &Selector{expr: expr, prg: prg}, nil
}

// Select returns the candidates the selector accepts, ascending and without
// duplicates. A list selector accepts its own entries only.
func (s *Selector) Select(candidates []int) (attrs []int, err error) {
	seen := make(map[int]bool)
	for _, a := range candidates {
		if seen[a] {
			continue
		}
		seen[a] = true
		var ok bool
		if ok, err = s.accepts(a); err != nil {
			return nil, err
		}
		if ok {
			attrs = append(attrs, a)
		}
	}
	sort.Ints(attrs)
	return
}

func (s *Selector) accepts(attr int) (bool, error) {
	if s.prg == nil {
		for _, a := range s.list {
			if a == attr {
				return true, nil
			}
		}
		return false, nil
	}
	out, _, err := s.prg.Eval(map[string]interface{}{"attr": int64(attr)})
	if err != nil {
		return false, fmt.Errorf("evaluating selection %q for attribute %d: %w", s.expr, attr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("selection %q returned %v for attribute %d", s.expr, out.Value(), attr)
	}
	return b, nil
}

func (s *Selector) String() string {
	if s.prg == nil {
		return fmt.Sprintf("attributes %v", s.list)
	}
	return fmt.Sprintf("attributes where %s", s.expr)
}
