package mathexpr

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Canonicalization pipeline. The pass order is fixed; each pass is
// fault-isolated so a failure inside one transformation degrades to the
// output of the last successful pass instead of losing the whole result.
// The log and power rewrites are applied unconditionally, without tracking
// domain assumptions (log(x*y) -> log(x)+log(y) even for symbols that could
// be negative). That trades soundness on edge domains for canonical forms
// that match across notations, which is what answer grading needs.

type pass struct {
	name string
	fn   func(Expr) Expr
}

var pipeline = []pass{
	{"simplify", func(e Expr) Expr { return e.Simplify() }},
	{"fraction", combineFractions},
	{"logs", normalizeLogs},
	{"powers", normalizePowers},
	{"collect", expandCollect},
	{"simplify", func(e Expr) Expr { return e.Simplify() }},
}

// maxExpansionTerms bounds how large a pass result may grow; a pass that
// blows past it is treated as failed and its input kept.
const maxExpansionTerms = 512

// CanonicalizeExpr runs the full pipeline on a plain expression.
func CanonicalizeExpr(e Expr) Expr {
	cur := e
	for _, p := range pipeline {
		cur = runPass(p, cur)
	}
	return cur
}

// Canonicalize canonicalizes a statement; relations canonicalize each side
// with the operator preserved.
func Canonicalize(st Statement) Statement {
	if st.Rel != nil {
		return relStatement(&Relation{
			Op:  st.Rel.Op,
			LHS: CanonicalizeExpr(st.Rel.LHS),
			RHS: CanonicalizeExpr(st.Rel.RHS),
		})
	}
	if st.Expr != nil {
		return exprStatement(CanonicalizeExpr(st.Expr))
	}
	return st
}

// StableString renders the canonical form. Add already orders terms
// lexicographically, so rendering is deterministic.
func StableString(st Statement) string { return st.String() }

func runPass(p pass, in Expr) (out Expr) {
	defer func() {
		if recover() != nil {
			out = in
		}
	}()
	out = p.fn(in)
	if out == nil || nodeCount(out) > maxExpansionTerms {
		return in
	}
	return out
}

func nodeCount(e Expr) int {
	switch v := e.(type) {
	case *Add:
		n := 1
		for _, t := range v.terms {
			n += nodeCount(t)
		}
		return n
	case *Mul:
		n := 1
		for _, f := range v.factors {
			n += nodeCount(f)
		}
		return n
	case *Pow:
		return 1 + nodeCount(v.base) + nodeCount(v.exp)
	case *Call:
		n := 1
		for _, a := range v.args {
			n += nodeCount(a)
		}
		return n
	}
	return 1
}

// mapSubexprs applies fn to the children of composite nodes and rebuilds.
func mapSubexprs(e Expr, fn func(Expr) Expr) Expr {
	switch v := e.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = fn(t)
		}
		return AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = fn(f)
		}
		return MulOf(factors...)
	case *Pow:
		return PowOf(fn(v.base), fn(v.exp))
	case *Call:
		args := make([]Expr, len(v.args))
		for i, a := range v.args {
			args[i] = fn(a)
		}
		return CallOf(v.name, args...)
	}
	return e
}

// ============================================================
// fraction pass — single fraction + cancellation
// ============================================================

// combineFractions rewrites a sum of quotients as a single quotient and
// cancels shared factors, so x/y + 1 and (x + y)/y meet in the same form.
func combineFractions(e Expr) Expr {
	e = mapSubexprs(e, combineFractions)
	a, ok := e.(*Add)
	if !ok {
		num, den := splitQuotient(e)
		return cancelQuotient(num, den)
	}

	nums := make([]Expr, len(a.terms))
	dens := make([]Expr, len(a.terms))
	allOne := true
	for i, t := range a.terms {
		nums[i], dens[i] = splitQuotient(t)
		if !isOne(dens[i]) {
			allOne = false
		}
	}
	if allOne {
		return e
	}

	common := Expr(N(1))
	for _, d := range dens {
		common = MulOf(common, d)
	}
	terms := make([]Expr, len(nums))
	for i, n := range nums {
		t := n
		for j, d := range dens {
			if j != i {
				t = MulOf(t, d)
			}
		}
		terms[i] = t
	}
	return cancelQuotient(Expand(AddOf(terms...)), common)
}

func isOne(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsOne()
}

func numFromInt(x *big.Int) *Num { return &Num{val: new(big.Rat).SetInt(x)} }

// splitQuotient separates the factors with negative exponents (the
// denominator) from the rest; rational coefficients contribute their
// denominators too (3/2*x splits into 3*x over 2).
func splitQuotient(e Expr) (num, den Expr) {
	factors := []Expr{e}
	if m, ok := e.(*Mul); ok {
		factors = m.factors
	}
	var numFs, denFs []Expr
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if n, isNum := p.exp.(*Num); isNum && n.IsNegative() {
				denFs = append(denFs, PowOf(p.base, numNeg(n)))
				continue
			}
		}
		if n, ok := f.(*Num); ok && !n.IsInteger() {
			numFs = append(numFs, numFromInt(n.val.Num()))
			denFs = append(denFs, numFromInt(n.val.Denom()))
			continue
		}
		numFs = append(numFs, f)
	}
	num = Expr(N(1))
	if len(numFs) > 0 {
		num = MulOf(numFs...)
	}
	den = Expr(N(1))
	if len(denFs) > 0 {
		den = MulOf(denFs...)
	}
	return num, den
}

// cancelQuotient removes factors appearing in both numerator and denominator
// (matched by rendering) and rebuilds num*den^-1.
func cancelQuotient(num, den Expr) Expr {
	if isOne(den) {
		return num
	}
	numFs := mulFactors(num)
	denFs := mulFactors(den)

	remainingDen := make([]Expr, 0, len(denFs))
	for _, d := range denFs {
		cancelled := false
		for i, n := range numFs {
			if n != nil && n.String() == d.String() {
				numFs[i] = nil
				cancelled = true
				break
			}
		}
		if !cancelled {
			remainingDen = append(remainingDen, d)
		}
	}
	kept := make([]Expr, 0, len(numFs)+1)
	kept = append(kept, N(1))
	for _, n := range numFs {
		if n != nil {
			kept = append(kept, n)
		}
	}
	newNum := MulOf(kept...)
	if len(remainingDen) == 0 {
		return newNum
	}
	return MulOf(newNum, PowOf(MulOf(remainingDen...), N(-1)))
}

func mulFactors(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		out := make([]Expr, len(m.factors))
		copy(out, m.factors)
		return out
	}
	return []Expr{e}
}

// ============================================================
// log pass
// ============================================================

// normalizeLogs expands every logarithm over products and powers, then
// recombines integer-coefficient log terms in sums, yielding one canonical
// log per sum regardless of how the input grouped them.
func normalizeLogs(e Expr) Expr {
	return combineLogs(expandLogs(e))
}

func expandLogs(e Expr) Expr {
	e = mapSubexprs(e, expandLogs)
	c, ok := e.(*Call)
	if !ok || c.name != "log" || len(c.args) != 1 {
		return e
	}
	switch arg := c.args[0].(type) {
	case *Mul:
		terms := make([]Expr, 0, len(arg.factors))
		for _, f := range arg.factors {
			terms = append(terms, expandLogs(CallOf("log", f)))
		}
		return AddOf(terms...)
	case *Pow:
		return MulOf(arg.exp, expandLogs(CallOf("log", arg.base)))
	}
	return e
}

// combineLogs folds c1*log(u1) + c2*log(u2) + ... (integer coefficients)
// into log(u1^c1 * u2^c2 * ...).
func combineLogs(e Expr) Expr {
	e = mapSubexprs(e, combineLogs)
	a, ok := e.(*Add)
	if !ok {
		return e
	}
	var logArgs []Expr
	var rest []Expr
	for _, t := range a.terms {
		coeff, body := splitCoefficient(t)
		c, isCall := body.(*Call)
		if isCall && c.name == "log" && len(c.args) == 1 && coeff.IsInteger() {
			logArgs = append(logArgs, PowOf(c.args[0], coeff))
			continue
		}
		rest = append(rest, t)
	}
	if len(logArgs) < 2 {
		return e
	}
	combined := CallOf("log", MulOf(logArgs...))
	return AddOf(append(rest, combined)...)
}

// ============================================================
// power pass
// ============================================================

// normalizePowers denests nested powers and distributes integer exponents
// over products: (x^a)^b -> x^(a*b), (x*y)^n -> x^n*y^n. Both rewrites are
// forced, ignoring branch cuts, matching the pipeline's documented
// trade-off.
func normalizePowers(e Expr) Expr {
	e = mapSubexprs(e, normalizePowers)
	p, ok := e.(*Pow)
	if !ok {
		return e
	}
	// Pow.Simplify already merges (x^a)^b; distribute over products here.
	if m, isMul := p.base.(*Mul); isMul {
		if n, isNum := p.exp.(*Num); isNum && n.IsInteger() {
			factors := make([]Expr, len(m.factors))
			for i, f := range m.factors {
				factors[i] = normalizePowers(PowOf(f, n))
			}
			return MulOf(factors...)
		}
	}
	return e
}

// ============================================================
// collect pass
// ============================================================

// expandCollect multiplies everything out and then pulls common numeric and
// symbolic content back out of the resulting sum, so 2*x + 2*y ends up as
// 2*(x + y) no matter how it arrived.
func expandCollect(e Expr) Expr {
	return factorTerms(Expand(e))
}

// factorTerms extracts the greatest common rational coefficient and any
// factor present in every term of a sum.
func factorTerms(e Expr) Expr {
	e = mapSubexprs(e, factorTerms)
	a, ok := e.(*Add)
	if !ok {
		return e
	}

	type termParts struct {
		coeff   *Num
		factors map[string]Expr
	}
	parts := make([]termParts, len(a.terms))
	for i, t := range a.terms {
		coeff, rest := splitCoefficient(t)
		fs := map[string]Expr{}
		for _, f := range mulFactors(rest) {
			if isOne(f) {
				continue
			}
			fs[f.String()] = f
		}
		parts[i] = termParts{coeff: coeff, factors: fs}
	}

	var commonKeys []string
	for key := range parts[0].factors {
		inAll := true
		for _, p := range parts[1:] {
			if _, ok := p.factors[key]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			commonKeys = append(commonKeys, key)
		}
	}

	// gcd of the rational coefficients: gcd of numerators over lcm of
	// denominators, negated when every term is negative
	gNum := new(big.Int).Abs(parts[0].coeff.val.Num())
	gDen := new(big.Int).Set(parts[0].coeff.val.Denom())
	allNeg := parts[0].coeff.IsNegative()
	for _, p := range parts[1:] {
		gNum.GCD(nil, nil, gNum, new(big.Int).Abs(p.coeff.val.Num()))
		d := p.coeff.val.Denom()
		gcdD := new(big.Int).GCD(nil, nil, gDen, d)
		gDen.Div(new(big.Int).Mul(gDen, d), gcdD)
		if !p.coeff.IsNegative() {
			allNeg = false
		}
	}
	gcd := &Num{val: new(big.Rat).SetFrac(gNum, gDen)}
	if allNeg {
		gcd = numNeg(gcd)
	}
	if gcd.IsZero() {
		gcd = N(1)
	}

	if len(commonKeys) == 0 && gcd.IsOne() {
		return e
	}

	commonFs := []Expr{gcd}
	for _, key := range commonKeys {
		commonFs = append(commonFs, parts[0].factors[key])
	}

	reduced := make([]Expr, len(parts))
	for i, p := range parts {
		fs := []Expr{numMul(p.coeff, numRecip(gcd))}
		for key, f := range p.factors {
			isCommon := false
			for _, ck := range commonKeys {
				if key == ck {
					isCommon = true
					break
				}
			}
			if !isCommon {
				fs = append(fs, f)
			}
		}
		reduced[i] = MulOf(fs...)
	}
	return MulOf(append(commonFs, AddOf(reduced...))...)
}

// ============================================================
// fallback string normalization
// ============================================================

var (
	fallbackStrip = strings.NewReplacer(
		" ", "", "\t", "", "\n", "",
		"$", "", `\(`, "", `\)`, "", `\[`, "", `\]`, "",
		`\left`, "", `\right`, "",
	)
	digitLetterRe = regexp.MustCompile(`(\d)([a-z])`)
	digitParenRe  = regexp.MustCompile(`(\d)\(`)
	parenAtomRe   = regexp.MustCompile(`\)([a-z0-9(])`)
	letterParenRe = regexp.MustCompile(`([a-z])\(`)
)

// FallbackNormalize is the last-resort normalization for strings no parse
// strategy could handle: lower-case, delimiter stripping, ^ -> ** and
// explicit multiplication marks. Function applications like sin(x) are
// protected from the letter-paren rule.
func FallbackNormalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = fallbackStrip.Replace(s)
	s = strings.ReplaceAll(s, "**", "^")
	s = strings.ReplaceAll(s, "^", "**")

	// shield known function names so sin(x) does not become sin*(x)
	type shield struct{ token, name string }
	var shields []shield
	idx := 0
	for name := range functions {
		if strings.Contains(s, name+"(") {
			token := fmt.Sprintf("__fn%d__", idx)
			s = strings.ReplaceAll(s, name+"(", token+"(")
			shields = append(shields, shield{token: token, name: name})
			idx++
		}
	}

	s = digitLetterRe.ReplaceAllString(s, "$1*$2")
	s = digitParenRe.ReplaceAllString(s, "$1*(")
	s = parenAtomRe.ReplaceAllString(s, ")*$1")
	s = letterParenRe.ReplaceAllString(s, "$1*(")

	for _, sh := range shields {
		s = strings.ReplaceAll(s, sh.token+"*(", sh.name+"(")
		s = strings.ReplaceAll(s, sh.token+"(", sh.name+"(")
	}
	return s
}
