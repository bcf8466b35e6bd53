// Package session holds the single owned emission environment that
// threads through frontend lowering (spec.md §4.2/§9): label and SSA
// temp counters, the `while` stack consumed by break/continue, the
// per-function "already allocated" set, the whole-program "function
// returns a value" table seeded with the I/O library, the IR object
// graph under construction, and the current lexical scope. This
// replaces the original's mutable-global `EnvironmentManager` /
// `ContextManager` singletons with one struct nothing else mutates.
package session

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"golang.org/x/exp/slices"

	"sysyc/internal/symtab"
)

// Result is the value spec.md §4.3 says every lower() call returns:
// either a folded constant (IMM) or a reference to an already-emitted
// SSA value (REG) carried as the underlying llir/llvm value.
type Kind int

const (
	IMM Kind = iota
	REG
)

type Result struct {
	Kind  Kind
	Value int         // IMM: the folded constant
	IR    value.Value // REG: the llir/llvm value this Result refers to
}

func Imm(v int) Result          { return Result{Kind: IMM, Value: v} }
func Reg(v value.Value) Result  { return Result{Kind: REG, IR: v} }

// Text renders a Result for diagnostics; the backend never reads
// text, it reads Result.IR/Result.Value directly.
func (r Result) Text() string {
	if r.Kind == IMM {
		return fmt.Sprintf("%d", r.Value)
	}
	return fmt.Sprintf("%v", r.IR)
}

// whileFrame is one entry of the while-nesting stack; break/continue
// consult the top of it.
type whileFrame struct {
	entry, end *ir.Block
}

// Session is the single owned emission environment (spec.md §9): no
// package-level mutable state anywhere in internal/frontend or
// internal/session — every counter, flag, and graph handle is a field
// here, and a Session is created fresh per compilation unit (one per
// process).
type Session struct {
	ifElseCount       int
	whileCount        int
	shortCircuitCount int
	jumpCount         int

	tempCount int // reset per function, see ResetFunc

	whileStack []whileFrame

	isGlobal bool

	allocated map[string]bool // per function, see ResetFunc
	returns   map[string]bool // whole program, seeded once

	// Module is the IR object graph under construction (spec.md §3.4 /
	// SPEC_FULL §3): frontend lowering appends globals/functions to it,
	// then serializes it with Module.String() for the -koopa output
	// mode and for re-parsing by cmd/sysyc before the backend walks it.
	Module *ir.Module

	CurFunc  *ir.Func
	CurBlock *ir.Block

	sealed map[*ir.Block]bool

	// Scope is the active lexical scope (spec.md §9's "symbol-scope
	// arena" lives here, not in internal/frontend, so that session
	// remains the single owned value threading everything lowering
	// needs).
	Scope *symtab.Scope

	// addrs maps a uniquified symbol name to the llir/llvm value that
	// holds its address (a *ir.Global or an *ir.InstAlloca) — the
	// object-graph counterpart of symtab.Symbol, which only records
	// kind/value and has no notion of "where this lives in the graph".
	addrs map[string]value.Value

	// elemTypes records the pointee element type for ARR/PTR symbols,
	// needed to compute getelemptr/getptr element strides.
	elemTypes map[string]types.Type

	// funcs is the whole-program function namespace (functions in
	// SysY are never shadowed or scope-uniquified, unlike variables).
	funcs map[string]*ir.Func
}

// New creates a Session with the library function-return table seeded
// per spec.md §4.2: getint/getch/getarray return a value, the put*
// family and starttime/stoptime do not.
func New(mod *ir.Module) *Session {
	return &Session{
		allocated: map[string]bool{},
		returns: map[string]bool{
			"getint":    true,
			"getch":     true,
			"getarray":  true,
			"putint":    false,
			"putch":     false,
			"putarray":  false,
			"starttime": false,
			"stoptime":  false,
		},
		Module:    mod,
		sealed:    map[*ir.Block]bool{},
		Scope:     symtab.NewRoot(),
		addrs:     map[string]value.Value{},
		elemTypes: map[string]types.Type{},
		funcs:     map[string]*ir.Func{},
	}
}

// BindFunc / Func register and resolve the whole-program function
// namespace.
func (s *Session) BindFunc(name string, f *ir.Func) { s.funcs[name] = f }

func (s *Session) Func(name string) (*ir.Func, bool) {
	f, ok := s.funcs[name]
	return f, ok
}

// BindAddr associates a uniquified symbol name with the graph value
// holding its address.
func (s *Session) BindAddr(name string, v value.Value) { s.addrs[name] = v }

// Addr looks up the address value for a uniquified symbol name.
func (s *Session) Addr(name string) (value.Value, bool) {
	v, ok := s.addrs[name]
	return v, ok
}

// BindElemType records the pointee element type of an ARR/PTR symbol.
func (s *Session) BindElemType(name string, t types.Type) { s.elemTypes[name] = t }

func (s *Session) ElemType(name string) (types.Type, bool) {
	t, ok := s.elemTypes[name]
	return t, ok
}

// ResetFunc clears the per-function state (temp counter, allocation
// set) on entry to a new function body, per spec.md §4.2.
func (s *Session) ResetFunc() {
	s.tempCount = 0
	s.allocated = map[string]bool{}
}

// NextTempID returns the next SSA-temporary ordinal for the current
// function, for diagnostics/naming only — llir/llvm mints the actual
// value identity itself.
func (s *Session) NextTempID() int {
	id := s.tempCount
	s.tempCount++
	return id
}

// Label-minting: each returns a fresh monotonic id; callers format it
// into the label family spec.md §4.2 names (then_k, else_k, ...).
func (s *Session) MintIfElse() int {
	id := s.ifElseCount
	s.ifElseCount++
	return id
}

func (s *Session) MintWhile() int {
	id := s.whileCount
	s.whileCount++
	return id
}

func (s *Session) MintShortCircuit() int {
	id := s.shortCircuitCount
	s.shortCircuitCount++
	return id
}

func (s *Session) MintJumpPad() int {
	id := s.jumpCount
	s.jumpCount++
	return id
}

// PushWhile / PopWhile / CurrentWhile implement the while_current
// stack of spec.md §4.2, consumed by break/continue lowering.
func (s *Session) PushWhile(entry, end *ir.Block) {
	s.whileStack = append(s.whileStack, whileFrame{entry: entry, end: end})
}

func (s *Session) PopWhile() {
	s.whileStack = s.whileStack[:len(s.whileStack)-1]
}

// CurrentWhile reports the innermost active while's entry/end blocks;
// ok is false outside any while (a break/continue outside a loop is a
// parser/frontend-contract violation, not a recoverable case).
func (s *Session) CurrentWhile() (entry, end *ir.Block, ok bool) {
	if len(s.whileStack) == 0 {
		return nil, nil, false
	}
	top := s.whileStack[len(s.whileStack)-1]
	return top.entry, top.end, true
}

func (s *Session) SetGlobal(v bool) { s.isGlobal = v }
func (s *Session) IsGlobal() bool   { return s.isGlobal }

// MarkAllocated / IsAllocated implement is_symbol_allocated (spec.md
// §4.2): guards against a second `alloc` for the same uniquified name
// within one function.
func (s *Session) MarkAllocated(name string)    { s.allocated[name] = true }
func (s *Session) IsAllocated(name string) bool { return s.allocated[name] }

// DeclareFunc records whether a function (by its plain name) returns a
// value, so call sites can choose `%t = call` vs bare
// `call` (spec.md §4.2's is_func_return table).
func (s *Session) DeclareFunc(name string, returnsValue bool) {
	s.returns[name] = returnsValue
}

func (s *Session) FuncReturnsValue(name string) bool { return s.returns[name] }

// LibraryFuncs returns every name in the function-return table, sorted.
// Before any DeclareFunc call that table holds exactly the predeclared
// I/O library, which is when the frontend calls this to emit their
// `decl`s once at program start.
func (s *Session) LibraryFuncs() []string {
	names := make([]string, 0, len(s.returns))
	for name := range s.returns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Seal marks a basic block as already terminated (spec.md §9's first
// of the two distinct "returned" facts): subsequent lowering must not
// append another instruction or terminator to it.
func (s *Session) Seal(b *ir.Block) { s.sealed[b] = true }

// Sealed reports whether b already has a terminator emitted.
func (s *Session) Sealed(b *ir.Block) bool { return s.sealed[b] }

// SetBlock switches the current insertion point, used when lowering
// opens a new block (then/else/while bodies, jump pads).
func (s *Session) SetBlock(b *ir.Block) { s.CurBlock = b }
