package mathexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForStorage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"orders terms", "1 + x + x^2", "x + x^2 + 1"},
		{"collapses like terms", "x + x + 1", "2*x + 1"},
		{"expands power of sum", "(x+1)^2", "2*x + x^2 + 1"},
		{"expands cube of sum", "(x+1)^3", "3*x + 3*x^2 + x^3 + 1"},
		{"implicit and explicit agree", "2x", "2*x"},
		{"equation keeps operator", "x^2 = 4", "x^2 = 4"},
		{"inequality keeps operator", "x > 2", "x > 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeForStorage(tt.input))
		})
	}
}

func TestNormalizeForStorageIdempotent(t *testing.T) {
	inputs := []string{
		"x^2 + 2x + 1",
		"(x+1)^2",
		"2x",
		`\frac{a}{b}`,
		"x/2 + 1/2",
		"log(x*y)",
		"x^2 = 4",
		"sin(x)cos(x)",
		"not math at all!!",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := NormalizeForStorage(in)
			twice := NormalizeForStorage(once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestNormalizeCrossNotation(t *testing.T) {
	// different spellings of the same value canonicalize to the same string
	tests := []struct {
		name string
		a, b string
	}{
		{"latex fraction", `\frac{a}{b}`, "a/b"},
		{"braced power", `x^{2}`, "x^2"},
		{"left right", `c\left(a+b\right)`, "c*(a+b)"},
		{"reordered sum", "1 + x", "x + 1"},
		{"log of product", "log(x*y)", "log(x) + log(y)"},
		{"power denesting", "(x^2)^3", "x^6"},
		{"common factor", "2x + 2y", "2(x + y)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, NormalizeForStorage(tt.a), NormalizeForStorage(tt.b))
		})
	}
}

func TestNormalizeForStorageNeverPanics(t *testing.T) {
	inputs := []string{
		"", "   ", "@@@", `\frac{`, "((((", "x +", "1.2.3", "=", "== ==",
	}
	for _, in := range inputs {
		t.Run("input_"+in, func(t *testing.T) {
			assert.NotPanics(t, func() { NormalizeForStorage(in) })
		})
	}
}

func TestCanonicalizeDegradesOnPassFailure(t *testing.T) {
	// a pass that panics must not lose the expression
	broken := pass{name: "boom", fn: func(Expr) Expr { panic("boom") }}
	in := AddOf(S("x"), N(1))
	out := runPass(broken, in)
	assert.Equal(t, in.String(), out.String())

	nilPass := pass{name: "nil", fn: func(Expr) Expr { return nil }}
	out = runPass(nilPass, in)
	assert.Equal(t, in.String(), out.String())
}

func TestFallbackNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and strips spaces", " 2 X ", "2*x"},
		{"caret to double star", "x^2", "x**2"},
		{"digit letter product", "2x", "2*x"},
		{"digit paren product", "3(x+1)", "3*(x+1)"},
		{"paren letter product", "(x+1)y", "(x+1)*y"},
		{"function call protected", "sin(x)", "sin(x)"},
		{"latex delimiters stripped", `$x$`, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackNormalize(tt.input))
		})
	}
}
