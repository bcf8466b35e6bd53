// Package parser implements a recursive-descent parser for SysY,
// producing the internal/ast node set. It is deliberately simple: one
// token of lookahead almost everywhere, plus two save-and-rewind spots
// (compUnit looks past `int ident` for `(` to tell a function from a
// global declaration; assignOrExprStmt parses a whole lvalue to see
// whether `=` follows), matching
// spec.md §1's framing of the parser as an external collaborator whose
// only contract is "produces a well-formed AST".
package parser

import (
	"fmt"

	"sysyc/internal/ast"
	"sysyc/internal/lexer"
)

type Parser struct {
	file   string
	tokens []lexer.Token
	pos    int
}

func New(tokens []lexer.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// ParseError is a fatal syntax error; the compiler aborts on the first
// one (spec.md §7's no-recovery policy applies to the whole pipeline).
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error: %s", e.File, e.Line, e.Msg)
}

func (p *Parser) errorf(format string, args ...interface{}) {
	panic(&ParseError{File: p.file, Line: p.cur().Line, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) cur() lexer.Token  { return p.tokens[p.pos] }
func (p *Parser) prev() lexer.Token { return p.tokens[p.pos-1] }

func (p *Parser) check(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *Parser) advance() lexer.Token {
	if p.cur().Type != lexer.TokEOF {
		p.pos++
	}
	return p.prev()
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t lexer.TokenType, what string) lexer.Token {
	if !p.check(t) {
		p.errorf("expected %s, got %s %q", what, p.cur().Type, p.cur().Lexeme)
	}
	return p.advance()
}

func (p *Parser) pos0() ast.Pos {
	t := p.cur()
	return ast.Pos{File: p.file, Line: t.Line, Col: t.Col}
}

// Parse parses an entire translation unit. Panics with *ParseError on
// the first syntax error (no recovery, per spec.md §7).
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.check(lexer.TokEOF) {
		prog.Items = append(prog.Items, p.compUnit())
	}
	return prog
}

// compUnit distinguishes a function definition from a global
// declaration by looking past `type ident` for `(`.
func (p *Parser) compUnit() ast.Node {
	if p.check(lexer.TokConst) {
		return p.constDecl()
	}
	save := p.pos
	if p.match(lexer.TokVoid) {
		p.pos = save
		return p.funcDef()
	}
	p.expect(lexer.TokInt, "type")
	if p.check(lexer.TokIdent) {
		p.advance()
		isFunc := p.check(lexer.TokLParen)
		p.pos = save
		if isFunc {
			return p.funcDef()
		}
		return p.varDecl()
	}
	p.pos = save
	return p.varDecl()
}

func (p *Parser) funcDef() *ast.FuncDef {
	pos := p.pos0()
	var ret ast.FuncType
	if p.match(lexer.TokVoid) {
		ret = ast.FuncVoid
	} else {
		p.expect(lexer.TokInt, "return type")
		ret = ast.FuncInt
	}
	name := p.expect(lexer.TokIdent, "function name").Lexeme
	p.expect(lexer.TokLParen, "(")
	var params []*ast.Param
	if !p.check(lexer.TokRParen) {
		params = append(params, p.funcParam())
		for p.match(lexer.TokComma) {
			params = append(params, p.funcParam())
		}
	}
	p.expect(lexer.TokRParen, ")")
	body := p.block()
	return &ast.FuncDef{Pos: pos, Ret: ret, Name: name, Params: params, Body: body}
}

func (p *Parser) funcParam() *ast.Param {
	pos := p.pos0()
	p.expect(lexer.TokInt, "int")
	name := p.expect(lexer.TokIdent, "parameter name").Lexeme
	if !p.check(lexer.TokLBracket) {
		return &ast.Param{Pos: pos, Name: name}
	}
	p.expect(lexer.TokLBracket, "[")
	p.expect(lexer.TokRBracket, "]") // outermost dimension always unspecified
	var dims []ast.Expr
	for p.match(lexer.TokLBracket) {
		dims = append(dims, p.expr())
		p.expect(lexer.TokRBracket, "]")
	}
	return &ast.Param{Pos: pos, Name: name, IsArray: true, Dims: dims}
}

func (p *Parser) block() *ast.Block {
	pos := p.pos0()
	p.expect(lexer.TokLBrace, "{")
	b := &ast.Block{Pos: pos}
	for !p.check(lexer.TokRBrace) {
		b.Items = append(b.Items, p.blockItem())
	}
	p.expect(lexer.TokRBrace, "}")
	return b
}

func (p *Parser) blockItem() ast.Node {
	if p.check(lexer.TokConst) {
		return p.constDecl()
	}
	if p.check(lexer.TokInt) {
		return p.varDecl()
	}
	return p.stmt()
}

func (p *Parser) constDecl() *ast.ConstDecl {
	pos := p.pos0()
	p.expect(lexer.TokConst, "const")
	p.expect(lexer.TokInt, "int")
	d := &ast.ConstDecl{Pos: pos}
	d.Defs = append(d.Defs, p.constDef())
	for p.match(lexer.TokComma) {
		d.Defs = append(d.Defs, p.constDef())
	}
	p.expect(lexer.TokSemi, ";")
	return d
}

func (p *Parser) constDef() *ast.ConstDef {
	pos := p.pos0()
	name := p.expect(lexer.TokIdent, "identifier").Lexeme
	dims := p.arrayDims()
	p.expect(lexer.TokAssign, "=")
	init := p.initVal()
	return &ast.ConstDef{Pos: pos, Name: name, Dims: dims, Init: init}
}

func (p *Parser) varDecl() *ast.VarDecl {
	pos := p.pos0()
	p.expect(lexer.TokInt, "int")
	d := &ast.VarDecl{Pos: pos}
	d.Defs = append(d.Defs, p.varDef())
	for p.match(lexer.TokComma) {
		d.Defs = append(d.Defs, p.varDef())
	}
	p.expect(lexer.TokSemi, ";")
	return d
}

func (p *Parser) varDef() *ast.VarDef {
	pos := p.pos0()
	name := p.expect(lexer.TokIdent, "identifier").Lexeme
	dims := p.arrayDims()
	vd := &ast.VarDef{Pos: pos, Name: name, Dims: dims}
	if p.match(lexer.TokAssign) {
		vd.Init = p.initVal()
	}
	return vd
}

func (p *Parser) arrayDims() []ast.Expr {
	var dims []ast.Expr
	for p.match(lexer.TokLBracket) {
		dims = append(dims, p.expr())
		p.expect(lexer.TokRBracket, "]")
	}
	return dims
}

func (p *Parser) initVal() ast.Init {
	if !p.check(lexer.TokLBrace) {
		return ast.Init{Scalar: p.expr()}
	}
	p.expect(lexer.TokLBrace, "{")
	init := ast.Init{List: []*ast.Init{}}
	if !p.check(lexer.TokRBrace) {
		v := p.initVal()
		init.List = append(init.List, &v)
		for p.match(lexer.TokComma) {
			v := p.initVal()
			init.List = append(init.List, &v)
		}
	}
	p.expect(lexer.TokRBrace, "}")
	return init
}

func (p *Parser) stmt() ast.Stmt {
	pos := p.pos0()
	switch {
	case p.check(lexer.TokLBrace):
		return &ast.BlockStmt{Pos: pos, Block: p.block()}
	case p.match(lexer.TokIf):
		p.expect(lexer.TokLParen, "(")
		cond := p.expr()
		p.expect(lexer.TokRParen, ")")
		then := p.stmt()
		var els ast.Stmt
		if p.match(lexer.TokElse) {
			els = p.stmt()
		}
		return &ast.IfStmt{Pos: pos, Cond: cond, Then: then, Else: els}
	case p.match(lexer.TokWhile):
		p.expect(lexer.TokLParen, "(")
		cond := p.expr()
		p.expect(lexer.TokRParen, ")")
		body := p.stmt()
		return &ast.WhileStmt{Pos: pos, Cond: cond, Body: body}
	case p.match(lexer.TokBreak):
		p.expect(lexer.TokSemi, ";")
		return &ast.BreakStmt{Pos: pos}
	case p.match(lexer.TokContinue):
		p.expect(lexer.TokSemi, ";")
		return &ast.ContinueStmt{Pos: pos}
	case p.match(lexer.TokReturn):
		var v ast.Expr
		if !p.check(lexer.TokSemi) {
			v = p.expr()
		}
		p.expect(lexer.TokSemi, ";")
		return &ast.ReturnStmt{Pos: pos, Value: v}
	case p.check(lexer.TokSemi):
		p.advance()
		return &ast.ExprStmt{Pos: pos}
	default:
		return p.assignOrExprStmt(pos)
	}
}

// assignOrExprStmt disambiguates `lval = expr;` from a bare expression
// statement by speculatively parsing an lvalue prefix and checking for
// a following `=`.
func (p *Parser) assignOrExprStmt(pos ast.Pos) ast.Stmt {
	save := p.pos
	if p.check(lexer.TokIdent) {
		lv := p.lval()
		if p.check(lexer.TokAssign) {
			p.advance()
			val := p.expr()
			p.expect(lexer.TokSemi, ";")
			return &ast.AssignStmt{Pos: pos, LVal: lv, Value: val}
		}
		p.pos = save
	}
	e := p.expr()
	p.expect(lexer.TokSemi, ";")
	return &ast.ExprStmt{Pos: pos, Expr: e}
}

func (p *Parser) lval() *ast.LVal {
	pos := p.pos0()
	name := p.expect(lexer.TokIdent, "identifier").Lexeme
	var idx []ast.Expr
	for p.match(lexer.TokLBracket) {
		idx = append(idx, p.expr())
		p.expect(lexer.TokRBracket, "]")
	}
	return &ast.LVal{Pos: pos, Name: name, Indices: idx}
}

// Expression grammar, precedence low→high:
//
//	LOr   -> LAnd (|| LAnd)*
//	LAnd  -> Eq (&& Eq)*
//	Eq    -> Rel ((==|!=) Rel)*
//	Rel   -> Add ((<|<=|>|>=) Add)*
//	Add   -> Mul ((+|-) Mul)*
//	Mul   -> Unary ((*|/|%) Unary)*
//	Unary -> (+|-|!) Unary | Primary
func (p *Parser) expr() ast.Expr { return p.lOrExpr() }

func (p *Parser) lOrExpr() ast.Expr {
	pos := p.pos0()
	l := p.lAndExpr()
	for p.match(lexer.TokOr) {
		r := p.lAndExpr()
		l = &ast.Binary{Pos: pos, Op: ast.OpLOr, L: l, R: r}
	}
	return l
}

func (p *Parser) lAndExpr() ast.Expr {
	pos := p.pos0()
	l := p.eqExpr()
	for p.match(lexer.TokAnd) {
		r := p.eqExpr()
		l = &ast.Binary{Pos: pos, Op: ast.OpLAnd, L: l, R: r}
	}
	return l
}

func (p *Parser) eqExpr() ast.Expr {
	pos := p.pos0()
	l := p.relExpr()
	for {
		var op ast.BinOp
		switch {
		case p.match(lexer.TokEq):
			op = ast.OpEq
		case p.match(lexer.TokNe):
			op = ast.OpNe
		default:
			return l
		}
		r := p.relExpr()
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
}

func (p *Parser) relExpr() ast.Expr {
	pos := p.pos0()
	l := p.addExpr()
	for {
		var op ast.BinOp
		switch {
		case p.match(lexer.TokLt):
			op = ast.OpLt
		case p.match(lexer.TokLe):
			op = ast.OpLe
		case p.match(lexer.TokGt):
			op = ast.OpGt
		case p.match(lexer.TokGe):
			op = ast.OpGe
		default:
			return l
		}
		r := p.addExpr()
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
}

func (p *Parser) addExpr() ast.Expr {
	pos := p.pos0()
	l := p.mulExpr()
	for {
		var op ast.BinOp
		switch {
		case p.match(lexer.TokPlus):
			op = ast.OpAdd
		case p.match(lexer.TokMinus):
			op = ast.OpSub
		default:
			return l
		}
		r := p.mulExpr()
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
}

func (p *Parser) mulExpr() ast.Expr {
	pos := p.pos0()
	l := p.unaryExpr()
	for {
		var op ast.BinOp
		switch {
		case p.match(lexer.TokStar):
			op = ast.OpMul
		case p.match(lexer.TokSlash):
			op = ast.OpDiv
		case p.match(lexer.TokPct):
			op = ast.OpMod
		default:
			return l
		}
		r := p.unaryExpr()
		l = &ast.Binary{Pos: pos, Op: op, L: l, R: r}
	}
}

func (p *Parser) unaryExpr() ast.Expr {
	pos := p.pos0()
	switch {
	case p.match(lexer.TokPlus):
		return &ast.Unary{Pos: pos, Op: ast.UnaryPos, X: p.unaryExpr()}
	case p.match(lexer.TokMinus):
		return &ast.Unary{Pos: pos, Op: ast.UnaryNeg, X: p.unaryExpr()}
	case p.match(lexer.TokNot):
		return &ast.Unary{Pos: pos, Op: ast.UnaryNot, X: p.unaryExpr()}
	default:
		return p.primaryExpr()
	}
}

func (p *Parser) primaryExpr() ast.Expr {
	pos := p.pos0()
	switch {
	case p.match(lexer.TokLParen):
		e := p.expr()
		p.expect(lexer.TokRParen, ")")
		return e
	case p.check(lexer.TokNumber):
		tok := p.advance()
		return &ast.Number{Pos: pos, Val: parseIntLiteral(tok.Lexeme)}
	case p.check(lexer.TokIdent):
		save := p.pos
		name := p.advance().Lexeme
		if p.match(lexer.TokLParen) {
			var args []ast.Expr
			if !p.check(lexer.TokRParen) {
				args = append(args, p.expr())
				for p.match(lexer.TokComma) {
					args = append(args, p.expr())
				}
			}
			p.expect(lexer.TokRParen, ")")
			return &ast.Call{Pos: pos, Name: name, Args: args}
		}
		p.pos = save
		return &ast.LValExpr{Pos: pos, LVal: p.lval()}
	default:
		p.errorf("unexpected token %s %q", p.cur().Type, p.cur().Lexeme)
		return nil
	}
}

// parseIntLiteral parses decimal, 0x-hex, and 0-prefixed octal integer
// literals, matching the C integer-constant lexical rules SysY borrows.
func parseIntLiteral(lex string) int {
	if len(lex) > 1 && lex[0] == '0' && (lex[1] == 'x' || lex[1] == 'X') {
		v := 0
		for _, c := range lex[2:] {
			v = v*16 + hexVal(byte(c))
		}
		return v
	}
	if len(lex) > 1 && lex[0] == '0' {
		v := 0
		for _, c := range lex[1:] {
			v = v*8 + int(c-'0')
		}
		return v
	}
	v := 0
	for _, c := range lex {
		v = v*10 + int(c-'0')
	}
	return v
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
