// Package diag defines the single fatal-diagnostic type the whole
// pipeline raises (spec.md §7). Grounded on the teacher's
// internal/errors.SentraError/SourceLocation shape, collapsed to the
// kinds spec.md §7 actually names since this compiler has no recovery
// path and no call stack to render.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	DuplicateDefinition Kind = "DuplicateDefinition"
	UndeclaredIdent     Kind = "UndeclaredIdent"
	AssignToConst       Kind = "AssignToConst"
	InitializerShape    Kind = "InitializerShape"
	InvalidIROp         Kind = "InvalidIROp"
	InvalidInitializer  Kind = "InvalidInitializer"
)

// Pos is a source position threaded from the AST purely for
// diagnostics; lowering semantics never branch on it (SPEC_FULL §7).
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// CompileError is the one fatal-error type every stage raises.
type CompileError struct {
	Kind    Kind
	Message string
	Pos     Pos
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}

func New(kind Kind, pos Pos, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and position to a lower-level error (e.g. an
// asm.ParseString failure on the regenerated IR text). Only the wrapped
// message text is kept; the pkg/errors stack trace is not stored.
func Wrap(kind Kind, pos Pos, err error, context string) *CompileError {
	return &CompileError{Kind: kind, Pos: pos, Message: errors.Wrap(err, context).Error()}
}
