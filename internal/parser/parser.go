package parser

import (
	"fmt"

	"ramc/internal/cst"
	"ramc/internal/diag"
	"ramc/internal/lexer"
	"ramc/internal/source"
	"ramc/internal/token"
)

// Options configures a parse.
type Options struct {
	Reporter diag.Reporter
}

// Parser holds the state for parsing one file into a lossless tree.
type Parser struct {
	lx   *lexer.Lexer
	b    *cst.Builder
	opts Options
	buf  []token.Token // lookahead buffer (the grammar needs two tokens)
}

// ParseFile parses a file into a concrete syntax tree. The tree always
// covers the entire input, even in the presence of errors.
func ParseFile(file *source.File, opts Options) *cst.Tree {
	p := &Parser{
		lx:   lexer.New(file, lexer.Options{Reporter: opts.Reporter}),
		b:    cst.NewBuilder(file.ID),
		opts: opts,
	}
	p.parseProgram()
	return p.b.Finish()
}

func (p *Parser) peek() token.Token {
	return p.peekN(0)
}

func (p *Parser) peekN(n int) token.Token {
	for len(p.buf) <= n {
		p.buf = append(p.buf, p.lx.Next())
	}
	return p.buf[n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

// advance consumes the next token into the current tree node.
func (p *Parser) advance() token.Token {
	tok := p.peek()
	p.buf = p.buf[1:]
	p.b.PushToken(tok)
	return tok
}

func (p *Parser) atLineEnd() bool {
	k := p.peek().Kind
	return k == token.Newline || k == token.EOF
}

func (p *Parser) err(code diag.Code, sp source.Span, msg string) {
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(diag.New(diag.SevError, code, sp, msg))
	}
}

// parseProgram implements: program := { line NEWLINE } line? EOF.
// Newline tokens and blank lines attach directly to the root.
func (p *Parser) parseProgram() {
	for !p.at(token.EOF) {
		if p.at(token.Newline) {
			p.advance()
			continue
		}
		p.parseLine()
		if p.at(token.Newline) {
			p.advance()
		}
	}
	// Materialize trailing trivia hanging off EOF.
	p.b.PushToken(p.peek())
}

// parseLine implements: line := { label_def } [ instruction ].
// Trailing comments are trivia and ride on the newline/EOF token.
func (p *Parser) parseLine() {
	p.b.Open(cst.KindLine)
	defer p.b.Close()

	// An IDENT followed by ':' is a label definition; several may stack
	// in front of one instruction.
	for p.at(token.Ident) && p.peekN(1).Kind == token.Colon {
		p.b.Open(cst.KindLabelDef)
		p.advance() // name
		p.advance() // ':'
		p.b.Close()
	}

	sawInstruction := false
	if p.at(token.Ident) {
		p.parseInstruction()
		sawInstruction = true
	}

	if !p.atLineEnd() {
		p.recoverLine(sawInstruction)
	}
}

// parseInstruction implements: instruction := IDENT [ operand ].
func (p *Parser) parseInstruction() {
	p.b.Open(cst.KindInstruction)
	defer p.b.Close()

	p.advance() // opcode

	if p.peek().IsOperandStart() {
		p.parseOperand()
	}
}

// parseOperand implements: operand := immediate | indirect | direct | label_ref.
// Tie-break: a bare NUMBER followed by '[' is direct with an accessor; a
// bare IDENT in operand position is a label reference.
func (p *Parser) parseOperand() {
	p.b.Open(cst.KindOperand)
	defer p.b.Close()

	switch p.peek().Kind {
	case token.Equals:
		p.b.Open(cst.KindImmediate)
		p.advance() // '='
		p.expectNumber("immediate value")
		p.b.Close()
	case token.Star:
		p.b.Open(cst.KindIndirect)
		p.advance() // '*'
		p.expectNumber("indirect address")
		p.b.Close()
	case token.Number:
		p.b.Open(cst.KindDirect)
		p.advance() // register number
		if p.at(token.LBracket) {
			p.parseAccessor()
		}
		p.b.Close()
	case token.Ident:
		p.b.Open(cst.KindLabelRef)
		p.advance()
		p.b.Close()
	}
}

// parseAccessor implements: accessor := '[' index ']'.
// A missing ']' opens an error region that ends at the next newline.
func (p *Parser) parseAccessor() {
	p.b.Open(cst.KindAccessor)
	defer p.b.Close()

	lbrack := p.advance() // '['

	p.b.Open(cst.KindIndex)
	switch p.peek().Kind {
	case token.Equals:
		p.b.Open(cst.KindImmediate)
		p.advance()
		p.expectNumber("immediate index")
		p.b.Close()
	case token.Star:
		p.b.Open(cst.KindIndirect)
		p.advance()
		p.expectNumber("indirect index")
		p.b.Close()
	case token.Number:
		p.b.Open(cst.KindDirect)
		p.advance()
		p.b.Close()
	default:
		p.err(diag.SynUnexpectedToken, p.peek().Span,
			fmt.Sprintf("expected index operand, got %s", describe(p.peek())))
	}
	p.b.Close()

	if p.at(token.RBracket) {
		p.advance()
		return
	}

	p.err(diag.SynUnterminatedAccessor, lbrack.Span, "unterminated accessor, missing ']'")
	if !p.atLineEnd() {
		p.b.Open(cst.KindError)
		for !p.atLineEnd() {
			p.advance()
		}
		p.b.Close()
	}
}

// recoverLine wraps everything up to the next newline in an error node.
func (p *Parser) recoverLine(afterInstruction bool) {
	first := p.peek()
	// Invalid tokens were already reported by the lexer; anything else is
	// either garbage after a complete instruction or an unexpected token.
	if first.Kind != token.Invalid {
		if afterInstruction {
			p.err(diag.SynTrailingGarbage, first.Span,
				fmt.Sprintf("trailing input after instruction: %s", describe(first)))
		} else {
			p.err(diag.SynUnexpectedToken, first.Span,
				fmt.Sprintf("expected label or instruction, got %s", describe(first)))
		}
	}
	p.b.Open(cst.KindError)
	for !p.atLineEnd() {
		p.advance()
	}
	p.b.Close()
}

// expectNumber consumes a NUMBER or reports an error, leaving the
// unexpected token for line-level recovery.
func (p *Parser) expectNumber(what string) {
	if p.at(token.Number) {
		p.advance()
		return
	}
	p.err(diag.SynUnexpectedToken, p.peek().Span,
		fmt.Sprintf("expected %s, got %s", what, describe(p.peek())))
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.Newline:
		return "end of line"
	default:
		return fmt.Sprintf("%q", tok.Text)
	}
}
