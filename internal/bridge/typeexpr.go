package bridge

import (
	"fmt"
	"strings"
	"unicode"
)

// ExprKind tags the shape of a TypeExpr.
type ExprKind uint8

const (
	// ExprPath is a named type with optional generic arguments: u8, Vec<T>.
	ExprPath ExprKind = iota
	// ExprRef is a borrow: &T, &'a mut T.
	ExprRef
	// ExprSlice is [T]; it only appears behind a reference.
	ExprSlice
	ExprUnit
	// ExprFnOnce is Box<dyn FnOnce(A, B) -> R>.
	ExprFnOnce
)

// TypeExpr is a parsed type reference as written in a signature or field.
type TypeExpr struct {
	Kind     ExprKind
	Name     string
	Args     []*TypeExpr
	Elem     *TypeExpr
	Mut      bool
	Lifetime string
	Params   []*TypeExpr
	Ret      *TypeExpr
}

func (e *TypeExpr) IsUnit() bool { return e != nil && e.Kind == ExprUnit }

// String renders the canonical spelling. ParseTypeExpr(e.String()) yields an
// equal expression.
func (e *TypeExpr) String() string {
	if e == nil {
		return "()"
	}
	switch e.Kind {
	case ExprUnit:
		return "()"
	case ExprRef:
		var b strings.Builder
		b.WriteByte('&')
		if e.Lifetime != "" {
			b.WriteString("'" + e.Lifetime + " ")
		}
		if e.Mut {
			b.WriteString("mut ")
		}
		b.WriteString(e.Elem.String())
		return b.String()
	case ExprSlice:
		return "[" + e.Elem.String() + "]"
	case ExprFnOnce:
		s := "Box<dyn FnOnce(" + joinExprs(e.Params) + ")"
		if e.Ret != nil && !e.Ret.IsUnit() {
			s += " -> " + e.Ret.String()
		}
		return s + ">"
	default:
		if len(e.Args) == 0 {
			return e.Name
		}
		return e.Name + "<" + joinExprs(e.Args) + ">"
	}
}

// LinkSegment renders the expression as a symbol-name segment.
func (e *TypeExpr) LinkSegment() string {
	if e.Kind == ExprPath {
		parts := []string{e.Name}
		for _, a := range e.Args {
			parts = append(parts, a.LinkSegment())
		}
		return strings.Join(parts, "$")
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, e.String())
}

func joinExprs(list []*TypeExpr) string {
	parts := make([]string, len(list))
	for i, x := range list {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

// MustParseTypeExpr is ParseTypeExpr for literals known to be valid.
func MustParseTypeExpr(s string) *TypeExpr {
	e, err := ParseTypeExpr(s)
	if err != nil {
		panic(err)
	}
	return e
}

// ParseTypeExpr parses a Rust type reference.
func ParseTypeExpr(s string) (*TypeExpr, error) {
	p := &typeParser{toks: lexType(s), src: s}
	e, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.at("") {
		return nil, p.errorf("unexpected %q after type", p.peek())
	}
	return e, nil
}

type typeParser struct {
	toks []string
	pos  int
	src  string
}

func lexType(s string) []string {
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '-' && i+1 < len(s) && s[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		case c == ':' && i+1 < len(s) && s[i+1] == ':':
			// path separators stay attached to the identifier
			if len(toks) > 0 {
				toks[len(toks)-1] += "::"
			} else {
				toks = append(toks, "::")
			}
			i += 2
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			if n := len(toks); n > 0 && strings.HasSuffix(toks[n-1], "::") {
				toks[n-1] += s[i:j]
			} else {
				toks = append(toks, s[i:j])
			}
			i = j
		default:
			toks = append(toks, string(c))
			i++
		}
	}
	return toks
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (p *typeParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *typeParser) at(tok string) bool { return p.peek() == tok }

func (p *typeParser) next() string {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *typeParser) expect(tok string) error {
	if got := p.next(); got != tok {
		if got == "" {
			got = "end of input"
		}
		return p.errorf("expected %q, found %q", tok, got)
	}
	return nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid type %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) parseType() (*TypeExpr, error) {
	switch tok := p.peek(); {
	case tok == "&":
		p.next()
		ref := &TypeExpr{Kind: ExprRef}
		if p.at("'") {
			p.next()
			ref.Lifetime = p.next()
			if !isIdent(ref.Lifetime) {
				return nil, p.errorf("bad lifetime %q", ref.Lifetime)
			}
		}
		if p.at("mut") {
			p.next()
			ref.Mut = true
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ref.Elem = elem
		return ref, nil
	case tok == "[":
		p.next()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: ExprSlice, Elem: elem}, nil
	case tok == "(":
		p.next()
		if err := p.expect(")"); err != nil {
			return nil, p.errorf("tuples are not supported")
		}
		return &TypeExpr{Kind: ExprUnit}, nil
	case tok == "Box":
		if p.pos+2 < len(p.toks) && p.toks[p.pos+1] == "<" && p.toks[p.pos+2] == "dyn" {
			return p.parseFnOnce()
		}
		return p.parsePath()
	case isIdent(tok):
		return p.parsePath()
	case tok == "":
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected %q", tok)
	}
}

func (p *typeParser) parsePath() (*TypeExpr, error) {
	e := &TypeExpr{Kind: ExprPath, Name: p.next()}
	if !p.at("<") {
		return e, nil
	}
	p.next()
	args, err := p.parseList(">")
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, p.errorf("empty generic argument list")
	}
	e.Args = args
	return e, nil
}

func (p *typeParser) parseFnOnce() (*TypeExpr, error) {
	p.next() // Box
	p.next() // <
	p.next() // dyn
	if err := p.expect("FnOnce"); err != nil {
		return nil, err
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	params, err := p.parseList(")")
	if err != nil {
		return nil, err
	}
	e := &TypeExpr{Kind: ExprFnOnce, Params: params}
	if p.at("->") {
		p.next()
		if e.Ret, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(">"); err != nil {
		return nil, err
	}
	return e, nil
}

// parseList parses comma separated types up to and including end.
func (p *typeParser) parseList(end string) ([]*TypeExpr, error) {
	var out []*TypeExpr
	for !p.at(end) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.at(",") {
			p.next()
			continue
		}
		if !p.at(end) {
			return nil, p.errorf("expected %q or \",\", found %q", end, p.peek())
		}
	}
	p.next()
	return out, nil
}

func isIdent(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) && s[i] != ':' {
			return false
		}
	}
	return true
}
