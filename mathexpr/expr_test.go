package mathexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddCollectsLikeTerms(t *testing.T) {
	x := S("x")
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"sum of equal symbols", AddOf(x, x), "2*x"},
		{"cancellation to zero", AddOf(x, MulOf(N(-1), x)), "0"},
		{"mixed coefficients", AddOf(MulOf(N(2), x), MulOf(N(3), x), N(1)), "5*x + 1"},
		{"constant folding", AddOf(N(2), N(3), x), "x + 5"},
		{"nested sums flatten", AddOf(AddOf(x, N(1)), AddOf(x, N(2))), "2*x + 3"},
		{"powers collect separately", AddOf(PowOf(x, N(2)), x, PowOf(x, N(2))), "x + 2*x^2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestAddOrderIsInputIndependent(t *testing.T) {
	x, y, z := S("x"), S("y"), S("z")
	a := AddOf(z, x, y)
	b := AddOf(y, z, x)
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, "x + y + z", a.String())
}

func TestMulSimplify(t *testing.T) {
	x, y := S("x"), S("y")
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"coefficient folding", MulOf(N(2), x, N(3)), "6*x"},
		{"zero annihilates", MulOf(N(0), x, y), "0"},
		{"equal bases merge", MulOf(x, x), "x^2"},
		{"inverse cancels", MulOf(x, PowOf(x, N(-1))), "1"},
		{"factor order is stable", MulOf(y, x), "x*y"},
		{"negative one prefix", MulOf(N(-1), x), "-x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestPowSimplify(t *testing.T) {
	x := S("x")
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"exponent zero", PowOf(x, N(0)), "1"},
		{"exponent one", PowOf(x, N(1)), "x"},
		{"numeric power", PowOf(N(2), N(10)), "1024"},
		{"numeric negative power", PowOf(N(2), N(-2)), "1/4"},
		{"nested powers merge", PowOf(PowOf(x, N(2)), N(3)), "x^6"},
		{"fractional exponent parenthesized", PowOf(x, F(1, 2)), "x^(1/2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestCallExactRewrites(t *testing.T) {
	x := S("x")
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"log of one", CallOf("log", N(1)), "0"},
		{"log of e", CallOf("log", S("e")), "1"},
		{"log of exp", CallOf("log", CallOf("exp", x)), "x"},
		{"exp of zero", CallOf("exp", N(0)), "1"},
		{"sin stays symbolic", CallOf("sin", N(2)), "sin(2)"},
		{"abs of negative", CallOf("abs", N(-3)), "3"},
		{"floor of rational", CallOf("floor", F(7, 2)), "3"},
		{"ceiling of rational", CallOf("ceiling", F(7, 2)), "4"},
		{"min of numbers", CallOf("min", N(2), N(5)), "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestExpand(t *testing.T) {
	x, y := S("x"), S("y")
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"binomial square", PowOf(AddOf(x, N(1)), N(2)), "2*x + x^2 + 1"},
		{"binomial cube", PowOf(AddOf(x, y), N(3)), "3*x*y^2 + 3*x^2*y + x^3 + y^3"},
		{"binomial fourth power", PowOf(AddOf(x, N(1)), N(4)), "4*x + 6*x^2 + 4*x^3 + x^4 + 1"},
		{"distribution", MulOf(N(2), AddOf(x, y)), "2*x + 2*y"},
		{"product of sums", MulOf(AddOf(x, N(1)), AddOf(x, N(-1))), "x^2 - 1"},
		{"sum power times sum", MulOf(PowOf(AddOf(x, N(1)), N(2)), AddOf(x, N(2))), "5*x + 4*x^2 + x^3 + 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.expr).String())
		})
	}
}

func TestEvalFloat(t *testing.T) {
	x := S("x")

	v, err := AddOf(MulOf(N(2), x), N(1)).EvalFloat(map[string]float64{"x": 3})
	assert.NoError(t, err)
	assert.InDelta(t, 7, v, 1e-12)

	v, err = S("pi").EvalFloat(nil)
	assert.NoError(t, err)
	assert.InDelta(t, 3.14159265, v, 1e-6)

	_, err = x.EvalFloat(nil)
	assert.Error(t, err)
	assert.IsType(t, &DomainError{}, err)

	_, err = PowOf(x, N(-1)).EvalFloat(map[string]float64{"x": 0})
	assert.IsType(t, &DomainError{}, err)

	_, err = CallOf("log", x).EvalFloat(map[string]float64{"x": -1})
	assert.IsType(t, &DomainError{}, err)

	_, err = CallOf("asin", N(2)).EvalFloat(nil)
	assert.IsType(t, &DomainError{}, err)
}

func TestFreeVars(t *testing.T) {
	e := AddOf(MulOf(S("b"), S("a")), S("pi"), CallOf("sin", S("c")))
	assert.Equal(t, []string{"a", "b", "c"}, FreeVars(e))
}

func TestSubst(t *testing.T) {
	x := S("x")
	e := AddOf(PowOf(x, N(2)), x)
	got := e.Subst("x", N(3))
	assert.Equal(t, "12", got.String())
}
