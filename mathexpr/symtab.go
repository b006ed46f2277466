package mathexpr

import "math"

// The symbol table is fixed and read-only: callers cannot register functions
// or constants at runtime.

// functions maps a function name to its accepted argument count.
var functions = map[string]int{
	"log":     1,
	"exp":     1,
	"sqrt":    1,
	"sin":     1,
	"cos":     1,
	"tan":     1,
	"asin":    1,
	"acos":    1,
	"atan":    1,
	"sinh":    1,
	"cosh":    1,
	"tanh":    1,
	"abs":     1,
	"floor":   1,
	"ceiling": 1,
	"sign":    1,
	"min":     2,
	"max":     2,
}

// functionAliases maps accepted spellings to table names. ln is natural log,
// same as log.
var functionAliases = map[string]string{
	"ln":     "log",
	"arcsin": "asin",
	"arccos": "acos",
	"arctan": "atan",
	"ceil":   "ceiling",
	"Abs":    "abs",
	"Min":    "min",
	"Max":    "max",
}

// constants maps symbolic constants to their numeric values. These are not
// free variables: numeric probing never assigns them.
var constants = map[string]float64{
	"e":  math.E,
	"pi": math.Pi,
}

// relationCtors maps the relational constructor names accepted at statement
// level, e.g. "Eq(x^2, 4)".
var relationCtors = map[string]RelOp{
	"Eq": OpEq,
	"Ne": OpNe,
	"Lt": OpLt,
	"Le": OpLe,
	"Gt": OpGt,
	"Ge": OpGe,
}

// canonicalFuncName resolves aliases; ok is false for unknown names.
func canonicalFuncName(name string) (string, bool) {
	if resolved, ok := functionAliases[name]; ok {
		name = resolved
	}
	_, ok := functions[name]
	return name, ok
}

func evalFunc(name string, args []float64) (float64, error) {
	if len(args) == 2 {
		switch name {
		case "min":
			return math.Min(args[0], args[1]), nil
		case "max":
			return math.Max(args[0], args[1]), nil
		}
		return 0, domainErr("bad arity for " + name)
	}
	if len(args) != 1 {
		return 0, domainErr("bad arity for " + name)
	}
	x := args[0]
	switch name {
	case "log":
		if x <= 0 {
			return 0, domainErr("log of non-positive value")
		}
		return math.Log(x), nil
	case "exp":
		return math.Exp(x), nil
	case "sqrt":
		if x < 0 {
			return 0, domainErr("square root of negative value")
		}
		return math.Sqrt(x), nil
	case "sin":
		return math.Sin(x), nil
	case "cos":
		return math.Cos(x), nil
	case "tan":
		return math.Tan(x), nil
	case "asin":
		if x < -1 || x > 1 {
			return 0, domainErr("asin outside [-1, 1]")
		}
		return math.Asin(x), nil
	case "acos":
		if x < -1 || x > 1 {
			return 0, domainErr("acos outside [-1, 1]")
		}
		return math.Acos(x), nil
	case "atan":
		return math.Atan(x), nil
	case "sinh":
		return math.Sinh(x), nil
	case "cosh":
		return math.Cosh(x), nil
	case "tanh":
		return math.Tanh(x), nil
	case "abs":
		return math.Abs(x), nil
	case "floor":
		return math.Floor(x), nil
	case "ceiling":
		return math.Ceil(x), nil
	case "sign":
		switch {
		case x > 0:
			return 1, nil
		case x < 0:
			return -1, nil
		}
		return 0, nil
	}
	return 0, domainErr("unknown function " + name)
}
