// Package parser implements the lexer and recursive-descent parser for the
// source grammar of spec §6. Per SPEC_FULL.md this exists only deeply enough
// to drive the compiler back end end-to-end; it is the "external
// collaborator with a stated interface" the distilled spec treats as out of
// scope for engineering depth.
package parser

import (
	"errors"
	"fmt"

	"github.com/jakubdabek/gembiler/pkg/ast"
	gerrors "github.com/jakubdabek/gembiler/pkg/errors"
)

// Parser turns a token stream into an *ast.Program, accumulating syntax
// diagnostics the way the reference pkg/parser accumulates parse errors
// instead of aborting at the first one.
type Parser struct {
	lex   *Lexer
	cur   Token
	ahead *Token // one token of lookahead, lazily filled
	diags []*gerrors.CompileError
}

// NewParser creates a Parser over the given source text.
func NewParser(src string) *Parser {
	p := &Parser{lex: NewLexer(src)}
	p.cur = p.lexNext()
	return p
}

func (p *Parser) lexNext() Token {
	tok, err := p.lex.Next()
	for err != nil {
		category := gerrors.SyntaxError
		if errors.Is(err, ErrLiteralOutOfRange) {
			category = gerrors.LiteralOutOfRange
		}
		p.diags = append(p.diags, &gerrors.CompileError{
			Category: category,
			Message:  err.Error(),
			Name:     tok.Text,
			Pos:      gerrors.Position{Line: tok.Line, Column: tok.Column},
		})
		tok, err = p.lex.Next()
	}
	return tok
}

func (p *Parser) advance() Token {
	t := p.cur
	if p.ahead != nil {
		p.cur = *p.ahead
		p.ahead = nil
	} else {
		p.cur = p.lexNext()
	}
	return t
}

func (p *Parser) peekAhead() Token {
	if p.ahead == nil {
		t := p.lexNext()
		p.ahead = &t
	}
	return *p.ahead
}

func (p *Parser) pos() ast.Position {
	return ast.Position{Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diags = append(p.diags, &gerrors.CompileError{
		Category: gerrors.SyntaxError,
		Message:  fmt.Sprintf(format, args...),
		Pos:      gerrors.Position{Line: p.cur.Line, Column: p.cur.Column},
	})
}

// expect consumes the current token if it matches tt, else records a
// diagnostic and returns the zero Token without advancing.
func (p *Parser) expect(tt TokenType) Token {
	if p.cur.Type != tt {
		p.errorf("expected %s, got %s %q", tt, p.cur.Type, p.cur.Text)
		return Token{}
	}
	return p.advance()
}

// Errors returns every accumulated syntax diagnostic.
func (p *Parser) Errors() []*gerrors.CompileError {
	return p.diags
}

// Parse parses a complete program. Callers must check Errors() after
// calling Parse; a non-nil *ast.Program may still be incomplete if syntax
// errors were recovered from.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}

	p.expect(TokDeclare)
	prog.Declarations = p.parseDeclList()
	p.expect(TokBegin)
	prog.Commands = p.parseCommands()
	p.expect(TokEnd)

	return prog
}

func (p *Parser) parseDeclList() []ast.Declaration {
	var decls []ast.Declaration
	for p.cur.Type == TokIdent {
		decls = append(decls, p.parseDecl())
		if p.cur.Type == TokComma {
			p.advance()
			continue
		}
		break
	}
	return decls
}

func (p *Parser) parseDecl() ast.Declaration {
	pos := p.pos()
	name := p.expect(TokIdent).Text

	if p.cur.Type != TokLParen {
		return &ast.ScalarDecl{Ident: name, Position: pos}
	}

	p.advance() // '('
	lo := p.expectSignedNum()
	p.expect(TokColon)
	hi := p.expectSignedNum()
	p.expect(TokRParen)

	return &ast.ArrayDecl{Ident: name, Lo: lo, Hi: hi, Position: pos}
}

func (p *Parser) expectSignedNum() int64 {
	tok := p.expect(TokNumber)
	return tok.Num
}

func (p *Parser) parseCommands() []ast.Command {
	var cmds []ast.Command
	for isCommandStart(p.cur.Type) {
		if p.cur.Type == TokWhile {
			// WHILE cond ENDDO closes the enclosing DO body rather than
			// opening a nested WHILE loop; scan the condition, then rewind.
			lexState, cur, ahead, nDiags := *p.lex, p.cur, p.ahead, len(p.diags)
			p.advance()
			p.parseCondition()
			closesDo := p.cur.Type == TokEnddo
			*p.lex, p.cur, p.ahead, p.diags = lexState, cur, ahead, p.diags[:nDiags]
			if closesDo {
				break
			}
		}
		cmd := p.parseCommand()
		cmds = append(cmds, cmd)
		// Only the simple commands end in ';'; IF/WHILE/DO/FOR end in their
		// closing keyword.
		switch cmd.(type) {
		case *ast.AssignCmd, *ast.ReadCmd, *ast.WriteCmd:
			p.expect(TokSemicolon)
		}
	}
	return cmds
}

func isCommandStart(tt TokenType) bool {
	switch tt {
	case TokIdent, TokIf, TokWhile, TokDo, TokFor, TokRead, TokWrite:
		return true
	}
	return false
}

func (p *Parser) parseCommand() ast.Command {
	switch p.cur.Type {
	case TokIf:
		return p.parseIf()
	case TokWhile:
		return p.parseWhile()
	case TokDo:
		return p.parseDoWhile()
	case TokFor:
		return p.parseFor()
	case TokRead:
		return p.parseRead()
	case TokWrite:
		return p.parseWrite()
	case TokIdent:
		return p.parseAssign()
	default:
		pos := p.pos()
		p.errorf("expected a command, got %s %q", p.cur.Type, p.cur.Text)
		p.advance()
		return &ast.AssignCmd{Position: pos}
	}
}

func (p *Parser) parseAssign() ast.Command {
	pos := p.pos()
	lv := p.parseLValue()
	p.expect(TokAssign)
	expr := p.parseExpr()
	return &ast.AssignCmd{Target: lv, Expr: expr, Position: pos}
}

func (p *Parser) parseIf() ast.Command {
	pos := p.pos()
	p.advance() // IF
	cond := p.parseCondition()
	p.expect(TokThen)
	thenCmds := p.parseCommands()
	var elseCmds []ast.Command
	if p.cur.Type == TokElse {
		p.advance()
		elseCmds = p.parseCommands()
	}
	p.expect(TokEndif)
	return &ast.IfCmd{Cond: cond, Then: thenCmds, Else: elseCmds, Position: pos}
}

func (p *Parser) parseWhile() ast.Command {
	pos := p.pos()
	p.advance() // WHILE
	cond := p.parseCondition()
	p.expect(TokDo)
	body := p.parseCommands()
	p.expect(TokEndwhile)
	return &ast.WhileCmd{Cond: cond, Body: body, Position: pos}
}

// DO commands WHILE cond ENDDO — the body runs before the condition is
// tested for the first time (spec §4.3 DO…WHILE lowering).
func (p *Parser) parseDoWhile() ast.Command {
	pos := p.pos()
	p.advance() // DO
	body := p.parseCommands()
	p.expect(TokWhile)
	cond := p.parseCondition()
	p.expect(TokEnddo)
	return &ast.DoWhileCmd{Body: body, Cond: cond, Position: pos}
}

func (p *Parser) parseFor() ast.Command {
	pos := p.pos()
	p.advance() // FOR
	iter := p.expect(TokIdent).Text
	p.expect(TokFrom)
	from := p.parseValue()
	down := false
	switch p.cur.Type {
	case TokTo:
		p.advance()
	case TokDownto:
		down = true
		p.advance()
	default:
		p.errorf("expected TO or DOWNTO, got %s %q", p.cur.Type, p.cur.Text)
	}
	to := p.parseValue()
	p.expect(TokDo)
	body := p.parseCommands()
	p.expect(TokEndfor)
	return &ast.ForCmd{Iterator: iter, From: from, To: to, Down: down, Body: body, Position: pos}
}

func (p *Parser) parseRead() ast.Command {
	pos := p.pos()
	p.advance() // READ
	lv := p.parseLValue()
	return &ast.ReadCmd{Target: lv, Position: pos}
}

func (p *Parser) parseWrite() ast.Command {
	pos := p.pos()
	p.advance() // WRITE
	expr := p.parseExpr()
	return &ast.WriteCmd{Expr: expr, Position: pos}
}

// parseLValue parses `pid`, `pid '(' (pid|num) ')'`, or a bare `num` — the
// last of these is never writable and exists only so the verifier, not the
// parser, is the one that rejects it as WriteToNonLvalue (spec §9 open
// question).
func (p *Parser) parseLValue() ast.LValue {
	pos := p.pos()
	if p.cur.Type == TokNumber {
		n := p.cur.Num
		p.advance()
		return ast.LValue{IsLiteral: true, LitNum: n, Position: pos}
	}

	name := p.expect(TokIdent).Text
	if p.cur.Type != TokLParen {
		return ast.LValue{Name: name, Position: pos}
	}
	p.advance() // '('
	lv := ast.LValue{IsArray: true, Name: name, Position: pos}
	if p.cur.Type == TokNumber {
		lv.IndexKind = ast.ValNum
		lv.IndexNum = p.cur.Num
		p.advance()
	} else {
		lv.IndexKind = ast.ValIdent
		lv.IndexName = p.expect(TokIdent).Text
	}
	p.expect(TokRParen)
	return lv
}

// parseValue parses `num | pid | pid '(' pid ')' | pid '(' num ')'`.
func (p *Parser) parseValue() ast.Value {
	pos := p.pos()
	if p.cur.Type == TokNumber {
		n := p.cur.Num
		p.advance()
		return ast.Value{Kind: ast.ValNum, Num: n, Position: pos}
	}

	name := p.expect(TokIdent).Text
	if p.cur.Type != TokLParen {
		return ast.Value{Kind: ast.ValIdent, Name: name, Position: pos}
	}

	p.advance() // '('
	if p.cur.Type == TokNumber {
		idx := p.cur.Num
		p.advance()
		p.expect(TokRParen)
		return ast.Value{Kind: ast.ValArrayByNum, Name: name, Num: idx, Position: pos}
	}
	idxName := p.expect(TokIdent).Text
	p.expect(TokRParen)
	return ast.Value{Kind: ast.ValArrayByIdent, Name: name, IndexName: idxName, Position: pos}
}

func isBinOp(tt TokenType) (ast.BinOp, bool) {
	switch tt {
	case TokPlus:
		return ast.OpPlus, true
	case TokMinus:
		return ast.OpMinus, true
	case TokTimes:
		return ast.OpTimes, true
	case TokDiv:
		return ast.OpDiv, true
	case TokMod:
		return ast.OpMod, true
	}
	return 0, false
}

func (p *Parser) parseExpr() ast.Expr {
	pos := p.pos()
	left := p.parseValue()
	if op, ok := isBinOp(p.cur.Type); ok {
		p.advance()
		right := p.parseValue()
		return ast.Expr{IsBinary: true, Op: op, Left: left, Right: right, Position: pos}
	}
	return ast.Expr{IsBinary: false, Value: left, Position: pos}
}

func isRelOp(tt TokenType) (ast.RelOp, bool) {
	switch tt {
	case TokEq:
		return ast.RelEq, true
	case TokNeq:
		return ast.RelNeq, true
	case TokLe:
		return ast.RelLt, true
	case TokGe:
		return ast.RelGt, true
	case TokLeq:
		return ast.RelLe, true
	case TokGeq:
		return ast.RelGe, true
	}
	return 0, false
}

func (p *Parser) parseCondition() ast.Condition {
	pos := p.pos()
	left := p.parseValue()
	op, ok := isRelOp(p.cur.Type)
	if !ok {
		p.errorf("expected a relational operator, got %s %q", p.cur.Type, p.cur.Text)
	} else {
		p.advance()
	}
	right := p.parseValue()
	return ast.Condition{Op: op, Left: left, Right: right, Position: pos}
}
