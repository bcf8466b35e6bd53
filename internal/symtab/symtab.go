// Package symtab implements the block-structured symbol table of
// spec.md §3.2/§3.3/§4.1: a chain of scopes with parent-chained lookup
// and name uniquification. Grounded on original_source's SymbolTable
// (lv9/src/include/frontend_utils.hpp): each Scope holds a plain Go
// pointer to its parent — scopes never outlive their parent, so the
// chain needs no arena or index.
package symtab

import "fmt"

type Kind int

const (
	VAR Kind = iota
	VAL
	ARR
	PTR
)

// Symbol mirrors spec.md §3.2: for VAL, Value is the folded constant;
// for ARR/PTR, Value is the dimensionality count.
type Symbol struct {
	Kind  Kind
	Value int
}

// Scope is one lexical scope: a flat name table plus a link to its
// parent. Root scope has Depth 0 and a nil parent.
type Scope struct {
	parent   *Scope
	depth    int
	table    map[string]Symbol
	returned bool
}

// NewRoot creates the outermost (global) scope.
func NewRoot() *Scope {
	return &Scope{depth: 0, table: map[string]Symbol{}}
}

// Push opens a child scope one level deeper.
func (s *Scope) Push() *Scope {
	return &Scope{parent: s, depth: s.depth + 1, table: map[string]Symbol{}}
}

func (s *Scope) Depth() int { return s.depth }

// Define inserts a new symbol in this scope. Redefinition in the same
// scope is a fatal error (spec.md §7).
func (s *Scope) Define(name string, sym Symbol) error {
	if _, exists := s.table[name]; exists {
		return fmt.Errorf("duplicate definition of %q in scope depth %d", name, s.depth)
	}
	s.table[name] = sym
	return nil
}

// Lookup walks outward from s until it finds name, or returns false.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.table[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Uniquify returns the canonical "name_depth" identifier for name as
// seen from this scope, per spec.md §3.3: it walks outward for the
// first scope whose table actually contains name, and suffixes with
// *that* scope's depth. If name is not yet defined anywhere (the
// defining call site, about to insert it), it suffixes with this
// scope's own depth.
func (s *Scope) Uniquify(name string) string {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.table[name]; ok {
			return mint(name, sc.depth)
		}
	}
	return mint(name, s.depth)
}

// Mint returns "name_depth" for the current scope's depth without
// inserting anything — used to pre-compute the uniquified name of a
// symbol being defined in this scope.
func (s *Scope) Mint(name string) string { return mint(name, s.depth) }

func mint(name string, depth int) string { return fmt.Sprintf("%s_%d", name, depth) }

// MarkReturned sets the sticky "control has left via return" flag.
func (s *Scope) MarkReturned() { s.returned = true }

// Returned reports whether control has definitely left this scope via
// an unconditional return at this scope's own level (not through a
// conditional arm — see spec.md §4.1 and SPEC_FULL.md §4 on the two
// distinct "returned" facts).
func (s *Scope) Returned() bool { return s.returned }

// Parent exposes the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }
