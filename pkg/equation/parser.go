package equation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseError reports the first syntax error in an equation
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokPipe
	tokEq
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits the input into tokens. Unicode operator variants are folded
// onto their ASCII forms.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r >= '0' && r <= '9' || r == '.':
			start := i
			i = scanNumber(src, i)
			toks = append(toks, token{tokNum, src[start:i], start})
		case unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{tokIdent, strings.ToLower(src[start:i]), start})
		case r == '*' && strings.HasPrefix(src[i:], "**"):
			toks = append(toks, token{tokOp, "^", i})
			i += 2
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{tokOp, string(r), i})
			i += size
		case r == '−':
			toks = append(toks, token{tokOp, "-", i})
			i += size
		case r == '·' || r == '×':
			toks = append(toks, token{tokOp, "*", i})
			i += size
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i += size
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i += size
		case r == '|':
			toks = append(toks, token{tokPipe, "|", i})
			i += size
		case r == '=':
			toks = append(toks, token{tokEq, "=", i})
			i += size
		default:
			return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func scanNumber(src string, i int) int {
	for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
		i++
	}
	// exponent only when followed by digits, so "2e^x" stays 2 * e^x
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			i = j
			for i < len(src) && isDigit(src[i]) {
				i++
			}
		}
	}
	return i
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

type parser struct {
	toks []token
	pos  int
}

// Parse parses a full equation of the form "lhs = rhs".
func Parse(src string) (*Equation, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEq {
		return nil, p.errorf(t, "expected '='")
	}
	p.next()

	rhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return &Equation{LHS: lhs, RHS: rhs}, nil
}

// ParseExpr parses a bare expression with no '='.
func ParseExpr(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return e, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	if t.kind == tokEOF {
		return &ParseError{Pos: t.pos, Msg: "unexpected end of input"}
	}
	return &ParseError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: t.text[0], L: left, R: right}
	}
}

// term := unary (('*' | '/' | implicit) unary)*
func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op byte
		switch {
		case t.kind == tokOp && (t.text == "*" || t.text == "/"):
			p.next()
			op = t.text[0]
		case t.kind == tokNum || t.kind == tokIdent || t.kind == tokLParen:
			op = '*'
		default:
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
}

// unary := ('+' | '-') unary | power
func (p *parser) unary() (Expr, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			return x, nil
		}
		return &Neg{X: x}, nil
	}
	return p.power()
}

// power := primary ('^' unary)?
func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "^" {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: '^', L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("bad number %q", t.text)}
		}
		return &Num{Value: v}, nil

	case tokIdent:
		if t.text == "x" || t.text == "y" {
			return &Var{Name: t.text}, nil
		}
		if v, ok := constants[t.text]; ok {
			name := t.text
			if name == "π" {
				name = "pi"
			}
			return &Const{Name: name, Value: v}, nil
		}
		if _, ok := functions[t.text]; ok {
			if open := p.next(); open.kind != tokLParen {
				return nil, p.errorf(open, "expected '(' after %s", t.text)
			}
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			if closing := p.next(); closing.kind != tokRParen {
				return nil, p.errorf(closing, "expected ')'")
			}
			return &Call{Fn: t.text, Arg: arg}, nil
		}
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unknown identifier %q", t.text)}

	case tokLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')'")
		}
		return e, nil

	case tokPipe:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokPipe {
			return nil, p.errorf(closing, "expected '|'")
		}
		return &Call{Fn: "abs", Arg: e}, nil
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}
