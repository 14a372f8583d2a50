package lexer

import (
	"fmt"
	"strconv"

	"ramc/internal/diag"
	"ramc/internal/source"
	"ramc/internal/token"
)

// Lexer turns file bytes into a token stream. Whitespace and comments are
// collected as leading trivia on the next significant token; newlines are
// significant because they terminate statements.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token  // one-token lookahead buffer
	hold   []token.Token // accumulated leading trivia
}

// New creates a lexer over the given file.
func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next significant token with its leading trivia attached.
// After the end of input it always returns EOF; any trailing trivia rides on
// the EOF token.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		tok := token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
		tok.Leading = lx.hold
		lx.hold = nil
		return tok
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStart(ch):
		tok = lx.scanIdent()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '\n' || ch == '\r':
		tok = lx.scanNewline()
	default:
		tok = lx.scanPunct()
	}

	tok.Leading = lx.hold
	lx.hold = nil
	return tok
}

// Peek returns the next significant token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// EmptySpan is a zero-length span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// collectLeadingTrivia gathers whitespace and comments into lx.hold.
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t':
			m := lx.cursor.Mark()
			for !lx.cursor.EOF() {
				b := lx.cursor.Peek()
				if b != ' ' && b != '\t' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.Whitespace, m)
		case ch == '#':
			m := lx.cursor.Mark()
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' && lx.cursor.Peek() != '\r' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.Comment, m)
		default:
			return
		}
	}
}

func (lx *Lexer) pushTrivia(kind token.Kind, m Mark) {
	sp := lx.cursor.SpanFrom(m)
	lx.hold = append(lx.hold, token.Token{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	})
}

func (lx *Lexer) scanIdent() token.Token {
	m := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(m)
	return token.Token{
		Kind: token.Ident,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	}
}

func (lx *Lexer) scanNumber() token.Token {
	m := lx.cursor.Mark()
	for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(m)
	text := string(lx.file.Content[sp.Start:sp.End])
	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		lx.report(diag.SynNumberOverflow, sp,
			fmt.Sprintf("number %s does not fit in 64 bits", text))
		return token.Token{Kind: token.Invalid, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Number, Span: sp, Text: text}
}

func (lx *Lexer) scanNewline() token.Token {
	m := lx.cursor.Mark()
	if lx.cursor.Eat('\r') {
		if !lx.cursor.Eat('\n') {
			// A lone \r is not a line terminator in this grammar.
			sp := lx.cursor.SpanFrom(m)
			lx.report(diag.SynUnknownChar, sp, "unexpected character '\\r'")
			return token.Token{Kind: token.Invalid, Span: sp, Text: "\r"}
		}
	} else {
		lx.cursor.Eat('\n')
	}
	sp := lx.cursor.SpanFrom(m)
	return token.Token{
		Kind: token.Newline,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	}
}

func (lx *Lexer) scanPunct() token.Token {
	m := lx.cursor.Mark()
	ch := lx.cursor.Bump()
	sp := lx.cursor.SpanFrom(m)
	text := string(lx.file.Content[sp.Start:sp.End])

	var kind token.Kind
	switch ch {
	case ':':
		kind = token.Colon
	case '=':
		kind = token.Equals
	case '*':
		kind = token.Star
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	default:
		// Unknown byte: emit a single-character error token and keep going.
		// Multi-byte UTF-8 runes are consumed whole so the error text is
		// the full codepoint.
		for !lx.cursor.EOF() && isUTF8Continuation(lx.cursor.Peek()) && ch >= 0x80 {
			lx.cursor.Bump()
		}
		sp = lx.cursor.SpanFrom(m)
		text = string(lx.file.Content[sp.Start:sp.End])
		lx.report(diag.SynUnknownChar, sp, fmt.Sprintf("unexpected character %q", text))
		return token.Token{Kind: token.Invalid, Span: sp, Text: text}
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter == nil {
		return
	}
	lx.opts.Reporter.Report(diag.New(diag.SevError, code, sp, msg))
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b) || b == '_'
}

func isDec(b byte) bool {
	return b >= '0' && b <= '9'
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}
