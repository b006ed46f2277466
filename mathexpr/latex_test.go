package mathexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLaTeX(t *testing.T) {
	assert.True(t, looksLaTeX(`\frac{1}{2}`))
	assert.True(t, looksLaTeX(`$x+1$`))
	assert.True(t, looksLaTeX(`x^{2}`))
	assert.True(t, looksLaTeX(`x_{1}`))
	assert.False(t, looksLaTeX("2x + 1"))
	assert.False(t, looksLaTeX("x^2"))
}

func TestTranslateLaTeX(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ascii unchanged", "2x + 1", "2x + 1"},
		{"frac", `\frac{a}{b}`, "((a)/(b))"},
		{"braced exponent", `x^{2}`, "x^(2)"},
		{"cdot", `a \cdot b`, "a * b"},
		{"times", `a\times b`, "a* b"},
		{"left right dropped", `c\left(a+b\right)`, "c(a+b)"},
		{"sqrt", `\sqrt{x}`, "sqrt(x)"},
		{"nth root", `\sqrt[3]{x}`, "((x)^(1/(3)))"},
		{"sin with operand", `\sin x`, "sin(x)"},
		{"ln aliases to log", `\ln(x)`, "log((x))"},
		{"pi command", `2\pi`, "2pi"},
		{"greek letter", `\theta + 1`, "theta + 1"},
		{"operatorname", `\operatorname{max}(a, b)`, "max(a, b)"},
		{"subscript group", `x_{12}`, "x_12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := translateLaTeX(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateLaTeXErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"dollar delimiters", `$x+1$`},
		{"unknown command", `\foo{x}`},
		{"unbalanced brace", `\frac{a}{b`},
		{"dangling backslash", `x + \`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := translateLaTeX(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestCleanupLaTeX(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"math mode dollars", `$\frac{1}{2}$`, `\frac{1}{2}`},
		{"inline delimiters", `\(x + 1\)`, `x + 1`},
		{"ln to log", `\ln(x)`, `\log(x)`},
		{"cdot to star", `a \cdot b`, `a * b`},
		{"mathrm unwrapped", `\mathrm{abs}(x)`, `abs(x)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanupLaTeX(tt.input))
		})
	}
}

func TestParseLaTeXEndToEnd(t *testing.T) {
	// full chain: LaTeX input lands on the same tree as its ASCII spelling
	tests := []struct {
		name  string
		latex string
		ascii string
	}{
		{"fraction", `\frac{a}{b}`, "a/b"},
		{"dollar wrapped", `$\frac{a}{b}$`, "a/b"},
		{"braced power", `x^{2}`, "x^2"},
		{"cdot product", `2 \cdot x`, "2*x"},
		{"left right parens", `c\left(a+b\right)`, "c*(a+b)"},
		{"sqrt", `\sqrt{x^2}`, "(x^2)^(1/2)"},
		{"equation", `x^{2} = 4`, "x^2 = 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fromLaTeX, err := Parse(tt.latex)
			assert.NoError(t, err)
			fromASCII, err := Parse(tt.ascii)
			assert.NoError(t, err)
			assert.Equal(t, fromASCII.String(), fromLaTeX.String())
		})
	}
}
