package mathexpr

import (
	"fmt"
	"regexp"
	"strings"
)

var latexHints = []string{`\`, "$", "^{", "_{"}

// looksLaTeX reports whether the string carries LaTeX markers; it gates the
// cleanup-and-retry parse strategy.
func looksLaTeX(s string) bool {
	for _, h := range latexHints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

var (
	mathrmRe   = regexp.MustCompile(`\\(?:mathrm|operatorname)\{([^{}]*)\}`)
	textRe     = regexp.MustCompile(`\\text\{[^{}]*\}`)
	cleanupRep = strings.NewReplacer(
		"$", "",
		`\(`, "", `\)`, "",
		`\[`, "", `\]`, "",
		`\left`, "", `\right`, "",
		`\displaystyle`, "",
		`\ln`, `\log`,
		`\cdot`, "*", `\times`, "*",
		`\div`, "/",
	)
)

// cleanupLaTeX strips math-mode delimiters and normalizes common command
// variants so a second translation attempt can succeed.
func cleanupLaTeX(s string) string {
	s = cleanupRep.Replace(s)
	s = mathrmRe.ReplaceAllString(s, "$1")
	s = textRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// greekNames are LaTeX letter commands translated to plain symbol names.
var greekNames = map[string]string{
	"alpha": "alpha", "beta": "beta", "gamma": "gamma", "delta": "delta",
	"epsilon": "epsilon", "zeta": "zeta", "eta": "eta", "theta": "theta",
	"iota": "iota", "kappa": "kappa", "lambda": "lambda", "mu": "mu",
	"nu": "nu", "xi": "xi", "rho": "rho", "sigma": "sigma", "tau": "tau",
	"phi": "phi", "chi": "chi", "psi": "psi", "omega": "omega",
	"pi": "pi",
}

// latexFuncs are function commands; \sin x applies to the next operand even
// without parentheses.
var latexFuncs = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan",
	"arcsin": "asin", "arccos": "acos", "arctan": "atan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"log": "log", "ln": "log", "exp": "exp",
	"min": "min", "max": "max",
}

var latexSpacing = map[string]bool{
	",": true, ";": true, ":": true, "!": true, " ": true,
	"quad": true, "qquad": true,
}

// translateLaTeX converts LaTeX math to the ASCII dialect understood by
// parseASCII. Plain ASCII input passes through unchanged. Unknown commands
// and stray markup are errors — the caller falls back to cleanupLaTeX and
// retries.
func translateLaTeX(s string) (string, error) {
	t := &latexTranslator{src: []rune(s)}
	out, err := t.run(len(t.src))
	if err != nil {
		return "", err
	}
	return out, nil
}

type latexTranslator struct {
	src []rune
	pos int
}

// run translates until the given end offset.
func (t *latexTranslator) run(end int) (string, error) {
	var sb strings.Builder
	for t.pos < end {
		r := t.src[t.pos]
		switch r {
		case '\\':
			frag, err := t.command(end)
			if err != nil {
				return "", err
			}
			sb.WriteString(frag)
		case '{':
			group, err := t.braceGroup(end)
			if err != nil {
				return "", err
			}
			inner, err := translateLaTeX(group)
			if err != nil {
				return "", err
			}
			sb.WriteString("(" + inner + ")")
		case '}':
			return "", fmt.Errorf("unbalanced } at %d", t.pos)
		case '_':
			t.pos++
			sub, err := t.subscript(end)
			if err != nil {
				return "", err
			}
			sb.WriteString("_" + sub)
		case '$', '&', '%', '~':
			return "", fmt.Errorf("unexpected %q at %d", r, t.pos)
		default:
			sb.WriteRune(r)
			t.pos++
		}
	}
	return sb.String(), nil
}

// braceGroup consumes a balanced {...} group and returns its raw content.
func (t *latexTranslator) braceGroup(end int) (string, error) {
	if t.pos >= end || t.src[t.pos] != '{' {
		return "", fmt.Errorf("expected { at %d", t.pos)
	}
	depth := 0
	start := t.pos + 1
	for i := t.pos; i < end; i++ {
		switch t.src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				t.pos = i + 1
				return string(t.src[start:i]), nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced { at %d", t.pos)
}

// translatedGroup consumes {...} and translates its content.
func (t *latexTranslator) translatedGroup(end int) (string, error) {
	raw, err := t.braceGroup(end)
	if err != nil {
		return "", err
	}
	return translateLaTeX(raw)
}

func (t *latexTranslator) skipSpaces(end int) {
	for t.pos < end && (t.src[t.pos] == ' ' || t.src[t.pos] == '\t') {
		t.pos++
	}
}

// operand reads the target of a parenless function application: a braced
// group, a parenthesized run, a number, a single letter, or a command.
func (t *latexTranslator) operand(end int) (string, error) {
	t.skipSpaces(end)
	if t.pos >= end {
		return "", fmt.Errorf("missing operand at %d", t.pos)
	}
	switch r := t.src[t.pos]; {
	case r == '{':
		return t.translatedGroup(end)
	case r == '(':
		depth := 0
		start := t.pos
		for i := t.pos; i < end; i++ {
			switch t.src[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					t.pos = i + 1
					return translateLaTeX(string(t.src[start : i+1]))
				}
			}
		}
		return "", fmt.Errorf("unbalanced ( at %d", start)
	case r == '\\':
		return t.command(end)
	case r >= '0' && r <= '9':
		start := t.pos
		for t.pos < end && (t.src[t.pos] >= '0' && t.src[t.pos] <= '9' || t.src[t.pos] == '.') {
			t.pos++
		}
		return string(t.src[start:t.pos]), nil
	case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		t.pos++
		return string(r), nil
	}
	return "", fmt.Errorf("bad operand at %d", t.pos)
}

func (t *latexTranslator) subscript(end int) (string, error) {
	t.skipSpaces(end)
	if t.pos >= end {
		return "", fmt.Errorf("missing subscript at %d", t.pos)
	}
	var content string
	if t.src[t.pos] == '{' {
		raw, err := t.braceGroup(end)
		if err != nil {
			return "", err
		}
		content = raw
	} else {
		content = string(t.src[t.pos])
		t.pos++
	}
	for _, r := range content {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", fmt.Errorf("unsupported subscript %q", content)
		}
	}
	return content, nil
}

// command translates one backslash command starting at t.pos.
func (t *latexTranslator) command(end int) (string, error) {
	start := t.pos
	t.pos++ // backslash
	if t.pos >= end {
		return "", fmt.Errorf("dangling backslash at %d", start)
	}
	// single-char spacing commands: \, \; \: \! and escaped space
	if c := string(t.src[t.pos]); latexSpacing[c] {
		t.pos++
		return " ", nil
	}
	nameStart := t.pos
	for t.pos < end && (t.src[t.pos] >= 'a' && t.src[t.pos] <= 'z' || t.src[t.pos] >= 'A' && t.src[t.pos] <= 'Z') {
		t.pos++
	}
	name := string(t.src[nameStart:t.pos])
	if name == "" {
		return "", fmt.Errorf("bad command at %d", start)
	}

	switch name {
	case "frac", "dfrac", "tfrac":
		num, err := t.translatedGroup(end)
		if err != nil {
			return "", err
		}
		den, err := t.translatedGroup(end)
		if err != nil {
			return "", err
		}
		return "((" + num + ")/(" + den + "))", nil
	case "sqrt":
		t.skipSpaces(end)
		if t.pos < end && t.src[t.pos] == '[' {
			// \sqrt[n]{x} -> x^(1/n)
			close := -1
			for i := t.pos; i < end; i++ {
				if t.src[i] == ']' {
					close = i
					break
				}
			}
			if close < 0 {
				return "", fmt.Errorf("unbalanced [ at %d", t.pos)
			}
			idx, err := translateLaTeX(string(t.src[t.pos+1 : close]))
			if err != nil {
				return "", err
			}
			t.pos = close + 1
			arg, err := t.translatedGroup(end)
			if err != nil {
				return "", err
			}
			return "((" + arg + ")^(1/(" + idx + ")))", nil
		}
		arg, err := t.operand(end)
		if err != nil {
			return "", err
		}
		return "sqrt(" + arg + ")", nil
	case "cdot", "times":
		return "*", nil
	case "div":
		return "/", nil
	case "left", "right":
		return "", nil
	case "quad", "qquad":
		return " ", nil
	case "mathrm", "operatorname", "text", "textrm":
		raw, err := t.braceGroup(end)
		if err != nil {
			return "", err
		}
		return raw, nil
	case "abs":
		arg, err := t.operand(end)
		if err != nil {
			return "", err
		}
		return "abs(" + arg + ")", nil
	}
	if fn, ok := latexFuncs[name]; ok {
		arg, err := t.operand(end)
		if err != nil {
			return "", err
		}
		return fn + "(" + arg + ")", nil
	}
	if sym, ok := greekNames[name]; ok {
		return sym, nil
	}
	return "", fmt.Errorf("unknown command \\%s at %d", name, start)
}
