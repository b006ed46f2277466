// Package mathexpr implements the expression engine behind answer grading:
// parsing of free-form ASCII/LaTeX math, canonicalization to a stable string
// form, and mathematical equivalence checking. All values are immutable;
// every transformation returns a new expression. The package is pure and
// stateless apart from the read-only symbol table in symtab.go, so it is safe
// for concurrent use from request handlers.
package mathexpr

import (
	"math"
	"math/big"
	"sort"
	"strings"
)

// Expr is a symbolic expression node. Implementations: *Num, *Sym, *Add,
// *Mul, *Pow, *Call.
type Expr interface {
	// Simplify returns an algebraically reduced copy with deterministic
	// term/factor ordering.
	Simplify() Expr
	// String renders the expression in a form the parser can read back.
	String() string
	// Subst replaces every occurrence of the named symbol.
	Subst(name string, value Expr) Expr
	// EvalFloat numerically evaluates the expression with the given variable
	// bindings. Domain failures (division by zero, log of a non-positive
	// value, ...) are reported as *DomainError.
	EvalFloat(env map[string]float64) (float64, error)
	// Equal reports structural equality.
	Equal(other Expr) bool

	collectVars(out map[string]struct{})
}

// DomainError signals that a numeric evaluation hit an undefined operation.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return "domain error: " + e.Reason }

func domainErr(reason string) error { return &DomainError{Reason: reason} }

// ============================================================
// Num — exact rational constant
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

func F(p, q int64) *Num {
	if q == 0 {
		panic("mathexpr: zero denominator")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

func numFromRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr { return n }

func (n *Num) Subst(string, Expr) Expr { return n }

func (n *Num) collectVars(map[string]struct{}) {}

func (n *Num) IsZero() bool { return n.val.Sign() == 0 }

func (n *Num) IsOne() bool { return n.val.Cmp(ratOne) == 0 }

func (n *Num) IsNegOne() bool { return n.val.Cmp(ratNegOne) == 0 }

func (n *Num) IsInteger() bool { return n.val.IsInt() }

func (n *Num) IsNegative() bool { return n.val.Sign() < 0 }

func (n *Num) Rat() *big.Rat { return new(big.Rat).Set(n.val) }

var (
	ratOne    = new(big.Rat).SetInt64(1)
	ratNegOne = new(big.Rat).SetInt64(-1)
)

func (n *Num) String() string { return n.val.RatString() }

func (n *Num) EvalFloat(map[string]float64) (float64, error) {
	f, _ := n.val.Float64()
	return f, nil
}

func (n *Num) Equal(other Expr) bool {
	o, ok := other.(*Num)
	return ok && n.val.Cmp(o.val) == 0
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("mathexpr: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// ============================================================
// Sym — named symbol (free variable or constant)
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) Name() string   { return s.name }

func (s *Sym) Subst(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

func (s *Sym) collectVars(out map[string]struct{}) {
	if _, isConst := constants[s.name]; !isConst {
		out[s.name] = struct{}{}
	}
}

func (s *Sym) EvalFloat(env map[string]float64) (float64, error) {
	if v, ok := constants[s.name]; ok {
		return v, nil
	}
	if v, ok := env[s.name]; ok {
		return v, nil
	}
	return 0, domainErr("unbound symbol " + s.name)
}

func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}

// ============================================================
// Add — n-ary sum
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func SubOf(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

func (a *Add) Terms() []Expr { return a.terms }

// Simplify flattens nested sums and collects like terms: every term is split
// into a rational coefficient and a residual factor, and coefficients of
// identical residuals (by rendered key) are summed exactly. The numeric
// constant is kept last; remaining terms are ordered lexicographically by
// their residual key so the result is independent of input order.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	constant := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant = numAdd(constant, n)
			continue
		}
		coeff, rest := splitCoefficient(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			coeffs[key] = N(0)
			rests[key] = rest
			order = append(order, key)
		}
		coeffs[key] = numAdd(coeffs[key], coeff)
	}
	sort.Strings(order)

	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		coeff := coeffs[key]
		if coeff.IsZero() {
			continue
		}
		if coeff.IsOne() {
			result = append(result, rests[key])
		} else {
			result = append(result, remul(coeff, rests[key]))
		}
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}

	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

// remul attaches a numeric coefficient without re-simplifying the residual
// (which is already simplified); it avoids the O(n^2) churn of MulOf here.
func remul(coeff *Num, rest Expr) Expr {
	if m, ok := rest.(*Mul); ok {
		return &Mul{factors: append([]Expr{coeff}, m.factors...)}
	}
	return &Mul{factors: []Expr{coeff, rest}}
}

// splitCoefficient splits a (simplified) term into its leading rational
// coefficient and the residual expression.
func splitCoefficient(e Expr) (*Num, Expr) {
	m, ok := e.(*Mul)
	if !ok {
		return N(1), e
	}
	coeff := N(1)
	rest := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		if n, isNum := f.(*Num); isNum {
			coeff = numMul(coeff, n)
		} else {
			rest = append(rest, f)
		}
	}
	switch len(rest) {
	case 0:
		return coeff, N(1)
	case 1:
		return coeff, rest[0]
	}
	return coeff, &Mul{factors: rest}
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range a.terms {
		part := t.String()
		if i == 0 {
			sb.WriteString(part)
			continue
		}
		if strings.HasPrefix(part, "-") {
			sb.WriteString(" - ")
			sb.WriteString(part[1:])
		} else {
			sb.WriteString(" + ")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func (a *Add) Subst(name string, value Expr) Expr {
	terms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		terms[i] = t.Subst(name, value)
	}
	return AddOf(terms...)
}

func (a *Add) collectVars(out map[string]struct{}) {
	for _, t := range a.terms {
		t.collectVars(out)
	}
}

func (a *Add) EvalFloat(env map[string]float64) (float64, error) {
	var acc float64
	for _, t := range a.terms {
		v, err := t.EvalFloat(env)
		if err != nil {
			return 0, err
		}
		acc += v
	}
	return acc, nil
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

// ============================================================
// Mul — n-ary product
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

func (m *Mul) Factors() []Expr { return m.factors }

// Simplify flattens nested products, folds numeric factors into a single
// leading coefficient and merges factors sharing a base into one power
// (x*x -> x^2, x*x^-1 -> 1). Non-numeric factors are ordered
// lexicographically by their base rendering.
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := N(1)
	type group struct {
		base Expr
		exps []Expr
	}
	groups := map[string]*group{}
	order := []string{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		base, exp := splitPower(f)
		key := base.String()
		g, seen := groups[key]
		if !seen {
			g = &group{base: base}
			groups[key] = g
			order = append(order, key)
		}
		g.exps = append(g.exps, exp)
	}
	if coeff.IsZero() {
		return N(0)
	}
	sort.Strings(order)

	others := make([]Expr, 0, len(order))
	for _, key := range order {
		g := groups[key]
		var f Expr
		if len(g.exps) == 1 {
			f = rebuildPower(g.base, g.exps[0])
		} else {
			f = PowOf(g.base, AddOf(g.exps...))
		}
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		if inner, ok := f.(*Mul); ok {
			others = append(others, inner.factors...)
			continue
		}
		others = append(others, f)
	}
	if coeff.IsZero() {
		return N(0)
	}

	if len(others) == 0 {
		return coeff
	}
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func splitPower(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func rebuildPower(base, exp Expr) Expr {
	if n, ok := exp.(*Num); ok && n.IsOne() {
		return base
	}
	return PowOf(base, exp)
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	// -1*x renders as -x
	factors := m.factors
	prefix := ""
	if n, ok := factors[0].(*Num); ok && n.IsNegOne() && len(factors) > 1 {
		prefix = "-"
		factors = factors[1:]
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return prefix + strings.Join(parts, "*")
}

func (m *Mul) Subst(name string, value Expr) Expr {
	factors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		factors[i] = f.Subst(name, value)
	}
	return MulOf(factors...)
}

func (m *Mul) collectVars(out map[string]struct{}) {
	for _, f := range m.factors {
		f.collectVars(out)
	}
}

func (m *Mul) EvalFloat(env map[string]float64) (float64, error) {
	acc := 1.0
	for _, f := range m.factors {
		v, err := f.EvalFloat(env)
		if err != nil {
			return 0, err
		}
		acc *= v
	}
	return acc, nil
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Base() Expr { return p.base }
func (p *Pow) Exp() Expr  { return p.exp }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			return N(1)
		}
		if en.IsOne() {
			return base
		}
	}

	if bn, ok := base.(*Num); ok {
		if bn.IsZero() {
			if en, ok2 := exp.(*Num); ok2 && (en.IsZero() || en.IsNegative()) {
				// 0^0 and 0^negative stay unevaluated.
				return &Pow{base: base, exp: exp}
			}
			return N(0)
		}
		if bn.IsOne() {
			return N(1)
		}
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() {
			e := en.val.Num().Int64()
			if e >= -24 && e <= 24 {
				pos := e
				if pos < 0 {
					pos = -pos
				}
				result := N(1)
				for i := int64(0); i < pos; i++ {
					result = numMul(result, bn)
				}
				if e < 0 {
					return numRecip(result)
				}
				return result
			}
		}
	}

	if inner, ok := base.(*Pow); ok {
		// (x^a)^b -> x^(a*b); applied unconditionally, ignoring domain
		// restrictions, to favour a canonical-looking form.
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	default:
		if strings.HasPrefix(baseStr, "-") {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	if !isPlainExponent(p.exp) {
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

// isPlainExponent reports whether the exponent can be printed without parens
// and still be read back correctly.
func isPlainExponent(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.IsInteger() && !v.IsNegative()
	case *Sym:
		return true
	}
	return false
}

func (p *Pow) Subst(name string, value Expr) Expr {
	return PowOf(p.base.Subst(name, value), p.exp.Subst(name, value))
}

func (p *Pow) collectVars(out map[string]struct{}) {
	p.base.collectVars(out)
	p.exp.collectVars(out)
}

func (p *Pow) EvalFloat(env map[string]float64) (float64, error) {
	b, err := p.base.EvalFloat(env)
	if err != nil {
		return 0, err
	}
	e, err := p.exp.EvalFloat(env)
	if err != nil {
		return 0, err
	}
	if b == 0 && e < 0 {
		return 0, domainErr("division by zero")
	}
	v := math.Pow(b, e)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domainErr("undefined power")
	}
	return v, nil
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

// ============================================================
// Call — named function application
// ============================================================

type Call struct {
	name string
	args []Expr
}

func CallOf(name string, args ...Expr) Expr {
	return (&Call{name: name, args: args}).Simplify()
}

func (c *Call) FuncName() string { return c.name }
func (c *Call) Args() []Expr     { return c.args }

// Simplify applies only exact rewrites (log(1)=0, exp(0)=1, log(exp(x))=x,
// ...); transcendental values like sin(2) stay symbolic so canonical strings
// remain exact rationals.
func (c *Call) Simplify() Expr {
	args := make([]Expr, len(c.args))
	for i, a := range c.args {
		args[i] = a.Simplify()
	}
	out := &Call{name: c.name, args: args}
	if len(args) != 1 {
		if len(args) == 2 && (c.name == "min" || c.name == "max") {
			if x, ok := args[0].(*Num); ok {
				if y, ok2 := args[1].(*Num); ok2 {
					cmp := x.val.Cmp(y.val)
					if (c.name == "min") == (cmp <= 0) {
						return x
					}
					return y
				}
			}
		}
		return out
	}

	arg := args[0]
	switch c.name {
	case "log":
		if n, ok := arg.(*Num); ok && n.IsOne() {
			return N(0)
		}
		if s, ok := arg.(*Sym); ok && s.name == "e" {
			return N(1)
		}
		if inner, ok := arg.(*Call); ok && inner.name == "exp" && len(inner.args) == 1 {
			return inner.args[0]
		}
	case "exp":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(1)
		}
		if inner, ok := arg.(*Call); ok && inner.name == "log" && len(inner.args) == 1 {
			return inner.args[0]
		}
	case "sin", "tan", "sinh", "tanh", "asin", "atan":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(0)
		}
	case "cos", "cosh":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(1)
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		}
	case "sign":
		if n, ok := arg.(*Num); ok {
			switch n.val.Sign() {
			case 1:
				return N(1)
			case -1:
				return N(-1)
			default:
				return N(0)
			}
		}
	case "floor":
		if n, ok := arg.(*Num); ok {
			q := new(big.Int).Div(n.val.Num(), n.val.Denom())
			return &Num{val: new(big.Rat).SetInt(q)}
		}
	case "ceiling":
		if n, ok := arg.(*Num); ok {
			neg := numNeg(n)
			q := new(big.Int).Div(neg.val.Num(), neg.val.Denom())
			return &Num{val: new(big.Rat).Neg(new(big.Rat).SetInt(q))}
		}
	}
	return out
}

func (c *Call) String() string {
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = a.String()
	}
	return c.name + "(" + strings.Join(parts, ", ") + ")"
}

func (c *Call) Subst(name string, value Expr) Expr {
	args := make([]Expr, len(c.args))
	for i, a := range c.args {
		args[i] = a.Subst(name, value)
	}
	return CallOf(c.name, args...)
}

func (c *Call) collectVars(out map[string]struct{}) {
	for _, a := range c.args {
		a.collectVars(out)
	}
}

func (c *Call) EvalFloat(env map[string]float64) (float64, error) {
	vals := make([]float64, len(c.args))
	for i, a := range c.args {
		v, err := a.EvalFloat(env)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	v, err := evalFunc(c.name, vals)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domainErr("undefined value of " + c.name)
	}
	return v, nil
}

func (c *Call) Equal(other Expr) bool {
	o, ok := other.(*Call)
	if !ok || c.name != o.name || len(c.args) != len(o.args) {
		return false
	}
	for i := range c.args {
		if !c.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// ============================================================
// Expand, free variables
// ============================================================

// Expand distributes products over sums and multiplies out small integer
// powers of sums, then re-simplifies (which re-collects like terms).
func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			a, ok := f.(*Add)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(expanded)-1)
			for j, ef := range expanded {
				if j != i {
					rest = append(rest, ef)
				}
			}
			terms := make([]Expr, len(a.terms))
			for k, t := range a.terms {
				terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
			}
			return AddOf(terms...)
		}
		return MulOf(expanded...)
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = expandExpr(t)
		}
		return AddOf(terms...)
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			e := n.val.Num().Int64()
			if e >= 2 && e <= 16 {
				base := expandExpr(v.base)
				if sum, isAdd := base.(*Add); isAdd {
					// Distribute term-by-term. Multiplying the whole sums
					// would let Mul.Simplify refold the equal factors into
					// the very power being expanded.
					result := sum.terms
					for i := int64(1); i < e; i++ {
						result = crossTerms(result, sum.terms)
					}
					return AddOf(result...)
				}
				return PowOf(base, v.exp)
			}
		}
		return PowOf(expandExpr(v.base), expandExpr(v.exp))
	case *Call:
		args := make([]Expr, len(v.args))
		for i, a := range v.args {
			args[i] = expandExpr(a)
		}
		return CallOf(v.name, args...)
	}
	return e
}

// crossTerms returns the pairwise products of two term lists, expanding each
// product so nested sums keep distributing.
func crossTerms(xs, ys []Expr) []Expr {
	out := make([]Expr, 0, len(xs)*len(ys))
	for _, x := range xs {
		for _, y := range ys {
			p := expandExpr(MulOf(x, y))
			if sum, ok := p.(*Add); ok {
				out = append(out, sum.terms...)
			} else {
				out = append(out, p)
			}
		}
	}
	return out
}

// FreeVars returns the sorted names of free variables (constants excluded).
func FreeVars(e Expr) []string {
	set := map[string]struct{}{}
	e.collectVars(set)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsZero reports whether the expression is the exact numeric zero.
func IsZero(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsZero()
}

// ============================================================
// Relations and statements
// ============================================================

// RelOp is a relational operator kind.
type RelOp int

const (
	OpEq RelOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op RelOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	}
	return "?"
}

// Relation is a comparison between two expressions. Only OpEq participates in
// difference-based equivalence reasoning; other kinds degrade to structural
// comparison.
type Relation struct {
	Op  RelOp
	LHS Expr
	RHS Expr
}

// Residual returns LHS - RHS.
func (r *Relation) Residual() Expr { return SubOf(r.LHS, r.RHS) }

func (r *Relation) String() string {
	return r.LHS.String() + " " + r.Op.String() + " " + r.RHS.String()
}

// Statement is the result of parsing: either a plain expression or a
// relational statement. Exactly one of the fields is set.
type Statement struct {
	Expr Expr
	Rel  *Relation
}

func exprStatement(e Expr) Statement { return Statement{Expr: e} }

func relStatement(r *Relation) Statement { return Statement{Rel: r} }

// IsRel reports whether the statement is relational.
func (s Statement) IsRel() bool { return s.Rel != nil }

func (s Statement) String() string {
	if s.Rel != nil {
		return s.Rel.String()
	}
	if s.Expr != nil {
		return s.Expr.String()
	}
	return ""
}
