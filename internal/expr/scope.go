package expr

import (
	"fmt"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// ScopeError reports a variable referenced outside any declaration of it.
type ScopeError struct {
	// Name and Type describe the offending variable.
	Name string
	Type string

	// LookAlike is set when a different variable with the same name and
	// type is in scope, which means the tree was built from two distinct
	// objects standing for one variable.
	LookAlike bool
}

func (e *ScopeError) Error() string {
	if e.LookAlike {
		return fmt.Sprintf("variable %s %s is out of scope (a distinct variable with the same name and type is declared)",
			e.Name, e.Type)
	}
	return fmt.Sprintf("variable %s %s is out of scope", e.Name, e.Type)
}

// CheckScopes verifies that every Parameter referenced in e is declared by
// an enclosing Lambda, Block, or Catch. Variables are compared by
// identity, never by name.
func CheckScopes(e Expr) error {
	s := &scopes{live: map[*Parameter]int{}}
	return s.check(e)
}

type scopes struct {
	live map[*Parameter]int
}

func (s *scopes) push(ps []*Parameter) {
	for _, p := range ps {
		s.live[p]++
	}
}

func (s *scopes) pop(ps []*Parameter) {
	for _, p := range ps {
		if s.live[p]--; s.live[p] == 0 {
			delete(s.live, p)
		}
	}
}

func (s *scopes) check(e Expr) error {
	switch n := e.(type) {
	case nil:
		return nil
	case *Parameter:
		if s.live[n] > 0 {
			return nil
		}
		return s.outOfScope(n)
	case *Lambda:
		return s.within(n.params, n.body)
	case *Block:
		s.push(n.variables)
		defer s.pop(n.variables)
		for _, x := range n.exprs {
			if err := s.check(x); err != nil {
				return err
			}
		}
		return nil
	case *Try:
		if err := s.check(n.body); err != nil {
			return err
		}
		for _, h := range n.handlers {
			var decl []*Parameter
			if h.variable != nil {
				decl = []*Parameter{h.variable}
			}
			if err := s.within(decl, h.body); err != nil {
				return err
			}
		}
		return s.check(n.finally)
	default:
		for _, c := range Children(e) {
			if err := s.check(c); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *scopes) within(decl []*Parameter, body Expr) error {
	s.push(decl)
	defer s.pop(decl)
	return s.check(body)
}

func (s *scopes) outOfScope(p *Parameter) error {
	err := &ScopeError{Name: displayName(p), Type: meta.TypeName(p.typ)}
	for q := range s.live {
		if q.name == p.name && q.typ == p.typ && q.byRef == p.byRef {
			err.LookAlike = true
			break
		}
	}
	return err
}
