package mathexpr

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

const (
	// numericTrials is how many successful random evaluations must agree on
	// zero before the difference is accepted as zero.
	numericTrials = 8
	// numericTol is the magnitude under which a sampled value counts as zero.
	numericTol = 1e-9
)

// Comparer decides mathematical equivalence of answer strings. It is safe
// for concurrent use; the zero value is not usable, construct with
// NewComparer.
type Comparer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewComparer() *Comparer {
	return &Comparer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// newSeededComparer pins the probe sequence; tests use it.
func newSeededComparer(seed int64) *Comparer {
	return &Comparer{rng: rand.New(rand.NewSource(seed))}
}

var defaultComparer = NewComparer()

// Compare reports whether two answer strings are mathematically equivalent.
// It never panics and never returns an error: anything that cannot be
// decided positively is reported as not equivalent. Uses the package-level
// comparer.
func Compare(expr1, expr2 string) bool { return defaultComparer.Compare(expr1, expr2) }

// NormalizeForStorage returns the canonical storage form of an answer
// string, falling back to string normalization when parsing fails. Never
// panics. Uses the package-level comparer.
func NormalizeForStorage(expr string) string { return defaultComparer.NormalizeForStorage(expr) }

// Compare runs the escalation chain: parse both sides, build difference
// forms, try the symbolic zero test, then numeric probing. When either side
// cannot be parsed at all, both strings get the fallback normalization and
// are compared literally.
func (c *Comparer) Compare(expr1, expr2 string) (eq bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("mathexpr: compare recovered: %v", r)
			eq = fallbackEqual(expr1, expr2)
		}
	}()

	st1, err1 := Parse(expr1)
	st2, err2 := Parse(expr2)
	if err1 != nil || err2 != nil {
		log.Debugf("mathexpr: compare falling back to string form (%v, %v)", err1, err2)
		return fallbackEqual(expr1, expr2)
	}

	diffs, ok := differenceForms(st1, st2)
	if !ok {
		// relational statements outside plain equality: compare canonical
		// renderings structurally
		return StableString(Canonicalize(st1)) == StableString(Canonicalize(st2))
	}

	for _, d := range diffs {
		if symbolicallyZero(d) {
			return true
		}
	}
	for _, d := range diffs {
		if c.numericallyZero(d) {
			return true
		}
	}
	return false
}

// NormalizeForStorage parses and canonicalizes; unparseable input degrades
// to the fallback normalization so storage always receives something
// deterministic.
func (c *Comparer) NormalizeForStorage(expr string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("mathexpr: normalize recovered: %v", r)
			out = FallbackNormalize(expr)
		}
	}()
	st, err := Parse(expr)
	if err != nil {
		return FallbackNormalize(expr)
	}
	return StableString(Canonicalize(st))
}

func fallbackEqual(expr1, expr2 string) bool {
	return FallbackNormalize(expr1) == FallbackNormalize(expr2)
}

// differenceForms builds the candidate difference expressions whose
// vanishing implies equivalence:
//
//   - expression vs expression: e1 - e2
//   - equality vs equality: (l1-r1) - (l2-r2), plus the orientation-flipped
//     (l1-r1) + (l2-r2) so "x^2 = 4" matches "4 = x^2"
//   - equality vs expression: (l-r) - e
//
// Any other relational statement yields no difference form; the caller
// degrades to structural comparison.
func differenceForms(st1, st2 Statement) ([]Expr, bool) {
	switch {
	case !st1.IsRel() && !st2.IsRel():
		return []Expr{SubOf(st1.Expr, st2.Expr)}, true
	case st1.IsRel() && st2.IsRel():
		if st1.Rel.Op != OpEq || st2.Rel.Op != OpEq {
			return nil, false
		}
		r1, r2 := st1.Rel.Residual(), st2.Rel.Residual()
		return []Expr{SubOf(r1, r2), AddOf(r1, r2)}, true
	case st1.IsRel():
		if st1.Rel.Op != OpEq {
			return nil, false
		}
		return []Expr{SubOf(st1.Rel.Residual(), st2.Expr)}, true
	default:
		if st2.Rel.Op != OpEq {
			return nil, false
		}
		return []Expr{SubOf(st2.Rel.Residual(), st1.Expr)}, true
	}
}

// symbolicallyZero applies increasingly aggressive exact transformations;
// reaching literal zero at any stage decides equivalence.
func symbolicallyZero(d Expr) bool {
	s := d.Simplify()
	if IsZero(s) {
		return true
	}
	fr := combineFractions(s)
	if IsZero(fr.Simplify()) {
		return true
	}
	if IsZero(Expand(fr)) {
		return true
	}
	return IsZero(CanonicalizeExpr(d))
}

// numericallyZero samples the free variables at small integers and accepts
// only when numericTrials evaluations all land within numericTol of zero.
// Domain failures are discarded and retried within a bounded budget; a
// single clearly nonzero sample rejects, and running out of valid samples
// rejects too (conservative: numeric evidence can only confirm, never
// excuse).
func (c *Comparer) numericallyZero(d Expr) bool {
	vars := FreeVars(d)
	if len(vars) == 0 {
		v, err := d.EvalFloat(nil)
		return err == nil && math.Abs(v) <= numericTol
	}

	successes := 0
	for attempts := numericTrials * 3; attempts > 0 && successes < numericTrials; attempts-- {
		env := make(map[string]float64, len(vars))
		for _, name := range vars {
			env[name] = c.sample()
		}
		v, err := d.EvalFloat(env)
		if err != nil {
			continue
		}
		if math.Abs(v) > numericTol {
			return false
		}
		successes++
	}
	return successes >= numericTrials
}

// sample draws an integer in [-5, 5], remapping zero to a small nonzero
// value so quotients stay evaluable more often.
func (c *Comparer) sample() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.rng.Intn(11) - 5
	if v == 0 {
		nonzero := []int{1, -1, 2, -2, 3, -3}
		v = nonzero[c.rng.Intn(len(nonzero))]
	}
	return float64(v)
}
