package mathexpr

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ParseError is returned when every parse strategy failed. It keeps the
// per-strategy failures for diagnostics.
type ParseError struct {
	Input    string
	Attempts []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, strings.Join(e.Attempts, "; "))
}

// Parse turns a raw answer string into a Statement. Strategies are tried in
// a fixed order, most capable first; the first success wins:
//
//  1. LaTeX translation of the raw string, then ASCII parse.
//  2. If the string looks like LaTeX: cleanup (strip math-mode delimiters,
//     \left/\right, alias \ln -> \log, ...) then strategy 1 again.
//  3. ASCII parse of the raw string.
//  4. ASCII parse with math-mode delimiters stripped.
//
// A single unescaped "=" splits the input into an equality.
func Parse(input string) (Statement, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Statement{}, &ParseError{Input: input, Attempts: []string{"empty input"}}
	}

	var attempts []string
	try := func(name string, fn func() (Statement, error)) (Statement, bool) {
		st, err := fn()
		if err == nil {
			return st, true
		}
		attempts = append(attempts, name+": "+err.Error())
		return Statement{}, false
	}

	if st, ok := try("latex", func() (Statement, error) {
		t, err := translateLaTeX(s)
		if err != nil {
			return Statement{}, err
		}
		return parseASCII(t)
	}); ok {
		return st, nil
	}

	if looksLaTeX(s) {
		if st, ok := try("latex-cleanup", func() (Statement, error) {
			t, err := translateLaTeX(cleanupLaTeX(s))
			if err != nil {
				return Statement{}, err
			}
			return parseASCII(t)
		}); ok {
			return st, nil
		}
	}

	if st, ok := try("ascii", func() (Statement, error) {
		return parseASCII(s)
	}); ok {
		return st, nil
	}

	if st, ok := try("bare", func() (Statement, error) {
		return parseASCII(stripDelimiters(s))
	}); ok {
		return st, nil
	}

	return Statement{}, &ParseError{Input: input, Attempts: attempts}
}

var delimReplacer = strings.NewReplacer("$", "", `\(`, "", `\)`, "", `\[`, "", `\]`, "")

func stripDelimiters(s string) string {
	return strings.TrimSpace(delimReplacer.Replace(s))
}

// ============================================================
// Tokenizer
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp  // + - * / ^ ( ) ,
	tokRel // = == != < <= > >=
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(s string) ([]token, error) {
	var toks []token
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r >= '0' && r <= '9' || r == '.':
			start := i
			seenDot := false
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				if runes[i] == '.' {
					if seenDot {
						return nil, fmt.Errorf("malformed number at %d", start)
					}
					seenDot = true
				}
				i++
			}
			lit := string(runes[start:i])
			if lit == "." {
				return nil, fmt.Errorf("malformed number at %d", start)
			}
			toks = append(toks, token{kind: tokNum, text: lit, pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			for _, part := range splitSymbol(string(runes[start:i])) {
				toks = append(toks, token{kind: tokIdent, text: part, pos: start})
			}
		case strings.ContainsRune("+-*/^(),", r):
			// "**" is accepted as a spelling of "^"
			if r == '*' && i+1 < len(runes) && runes[i+1] == '*' {
				toks = append(toks, token{kind: tokOp, text: "^", pos: i})
				i += 2
				break
			}
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, token{kind: tokRel, text: "==", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokRel, text: "=", pos: i})
				i++
			}
		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, token{kind: tokRel, text: "!=", pos: i})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected %q at %d", r, i)
			}
		case r == '<' || r == '>':
			text := string(r)
			if i+1 < len(runes) && runes[i+1] == '=' {
				text += "="
				i++
			}
			toks = append(toks, token{kind: tokRel, text: text, pos: i})
			i++
		default:
			return nil, fmt.Errorf("unexpected %q at %d", r, i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}

// splitSymbol breaks an unknown multi-letter identifier into single-letter
// symbols, so "xy" means x*y the way handwritten math does. Function names,
// relation constructors, constants and greek letters stay whole, as do
// subscripted or digit-bearing names like x_1.
func splitSymbol(name string) []string {
	runes := []rune(name)
	if len(runes) == 1 || strings.ContainsAny(name, "_0123456789") {
		return []string{name}
	}
	if _, ok := canonicalFuncName(name); ok {
		return []string{name}
	}
	if _, ok := relationCtors[name]; ok {
		return []string{name}
	}
	if _, ok := greekNames[name]; ok {
		return []string{name}
	}
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return parts
}

var relOps = map[string]RelOp{
	"=":  OpEq,
	"==": OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
}

// ============================================================
// Recursive-descent parser
// ============================================================

type parser struct {
	toks []token
	pos  int
}

func parseASCII(s string) (Statement, error) {
	toks, err := tokenize(s)
	if err != nil {
		return Statement{}, err
	}
	p := &parser{toks: toks}
	st, err := p.parseStatement()
	if err != nil {
		return Statement{}, err
	}
	return st, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) expectOp(text string) error {
	t := p.cur()
	if t.kind != tokOp || t.text != text {
		return fmt.Errorf("expected %q at %d", text, t.pos)
	}
	p.pos++
	return nil
}

func (p *parser) parseStatement() (Statement, error) {
	// Relational constructor form: Eq(lhs, rhs) and friends, only at the top.
	if t := p.cur(); t.kind == tokIdent {
		if op, ok := relationCtors[t.text]; ok && p.peekIsOp(1, "(") {
			p.pos += 2
			lhs, err := p.parseExpr()
			if err != nil {
				return Statement{}, err
			}
			if err := p.expectOp(","); err != nil {
				return Statement{}, err
			}
			rhs, err := p.parseExpr()
			if err != nil {
				return Statement{}, err
			}
			if err := p.expectOp(")"); err != nil {
				return Statement{}, err
			}
			if p.cur().kind != tokEOF {
				return Statement{}, fmt.Errorf("trailing input at %d", p.cur().pos)
			}
			return relStatement(&Relation{Op: op, LHS: lhs, RHS: rhs}), nil
		}
	}

	lhs, err := p.parseExpr()
	if err != nil {
		return Statement{}, err
	}
	if t := p.cur(); t.kind == tokRel {
		p.pos++
		rhs, err := p.parseExpr()
		if err != nil {
			return Statement{}, err
		}
		if p.cur().kind != tokEOF {
			return Statement{}, fmt.Errorf("trailing input at %d", p.cur().pos)
		}
		return relStatement(&Relation{Op: relOps[t.text], LHS: lhs, RHS: rhs}), nil
	}
	if p.cur().kind != tokEOF {
		return Statement{}, fmt.Errorf("trailing input at %d", p.cur().pos)
	}
	return exprStatement(lhs), nil
}

func (p *parser) peekIsOp(offset int, text string) bool {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return false
	}
	t := p.toks[idx]
	return t.kind == tokOp && t.text == text
}

func (p *parser) parseExpr() (Expr, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []Expr{lhs}
	for {
		t := p.cur()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			break
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			rhs = MulOf(N(-1), rhs)
		}
		terms = append(terms, rhs)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return AddOf(terms...), nil
}

func (p *parser) parseTerm() (Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{lhs}
	for {
		t := p.cur()
		switch {
		case t.kind == tokOp && (t.text == "*" || t.text == "/"):
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if t.text == "/" {
				rhs = PowOf(rhs, N(-1))
			}
			factors = append(factors, rhs)
		case p.startsAtom(t):
			// implicit multiplication: 2x, 3(x+1), (x+1)(x-1), x y
			rhs, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			factors = append(factors, rhs)
		default:
			if len(factors) == 1 {
				return factors[0], nil
			}
			return MulOf(factors...), nil
		}
	}
}

func (p *parser) startsAtom(t token) bool {
	switch t.kind {
	case tokNum, tokIdent:
		return true
	case tokOp:
		return t.text == "("
	}
	return false
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.cur()
	if t.kind == tokOp {
		switch t.text {
		case "-":
			p.pos++
			inner, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return MulOf(N(-1), inner), nil
		case "+":
			p.pos++
			return p.parseUnary()
		}
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if t := p.cur(); t.kind == tokOp && t.text == "^" {
		p.pos++
		// right-associative; the exponent may carry a sign
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, fmt.Errorf("malformed number %q at %d", t.text, t.pos)
		}
		return numFromRat(r), nil
	case tokIdent:
		if _, isCtor := relationCtors[t.text]; isCtor && p.peekIsOp(0, "(") {
			return nil, fmt.Errorf("relation %s not allowed inside an expression at %d", t.text, t.pos)
		}
		if name, isFunc := canonicalFuncName(t.text); isFunc && p.peekIsOp(0, "(") {
			p.pos++
			var args []Expr
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.peekIsOp(0, ",") {
					p.pos++
					continue
				}
				break
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			if want := functions[name]; len(args) != want {
				return nil, fmt.Errorf("%s takes %d argument(s), got %d", name, want, len(args))
			}
			if name == "sqrt" {
				return PowOf(args[0], F(1, 2)), nil
			}
			return CallOf(name, args...), nil
		}
		return S(t.text), nil
	case tokOp:
		if t.text == "(" {
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q at %d", t.text, t.pos)
}
