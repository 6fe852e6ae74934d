package formula

import (
	"fmt"
	"sort"
)

// Evaluator answers constant lookups and formula evaluations against an
// immutable registry. It holds no mutable state; methods are pure given the
// registry and caller-supplied parameters.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator creates an evaluator over a loaded registry.
func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Registry exposes the underlying metric catalog.
func (e *Evaluator) Registry() *Registry { return e.registry }

// Constant returns the value of a constant metric.
func (e *Evaluator) Constant(key string) (float64, error) {
	return e.registry.Constant(key)
}

// Evaluate computes a formula metric with the supplied parameters. Free
// variables not present in params are resolved from registry constants by
// convention; anything still unresolved fails with a MissingParameterError
// naming every absent variable.
func (e *Evaluator) Evaluate(key string, params map[string]float64) (float64, error) {
	def, ok := e.registry.Definition(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}
	if def.IsConstant {
		return 0, fmt.Errorf("%w: %s is a constant, not a formula", ErrUnknownMetric, key)
	}

	src := normalize(def.Formula)

	resolved, err := e.resolveParameters(key, src, params)
	if err != nil {
		return 0, err
	}

	switch def.Method {
	case TierFast:
		v, ferr := evalFast(src, resolved)
		if ferr != nil {
			return 0, &EvaluationError{Metric: key, Tier: TierFast, Err: ferr}
		}
		return v, nil
	case TierSymbolic:
		v, serr := evalSymbolic(src, resolved)
		if serr != nil {
			return 0, &EvaluationError{Metric: key, Tier: TierSymbolic, Err: serr}
		}
		return v, nil
	case TierFallback:
		v, gerr := evalFallback(src, resolved)
		if gerr != nil {
			return 0, &EvaluationError{Metric: key, Tier: TierFallback, Err: gerr}
		}
		return v, nil
	default:
		if v, ferr := evalFast(src, resolved); ferr == nil {
			return v, nil
		}
		if v, serr := evalSymbolic(src, resolved); serr == nil {
			return v, nil
		}
		v, gerr := evalFallback(src, resolved)
		if gerr != nil {
			return 0, &EvaluationError{Metric: key, Tier: TierAuto, Err: gerr}
		}
		return v, nil
	}
}

// resolveParameters copies the caller's parameters and fills remaining free
// variables from registry constants. Caller parameters always win over
// registry resolution.
func (e *Evaluator) resolveParameters(key, src string, params map[string]float64) (map[string]float64, error) {
	resolved := make(map[string]float64, len(params))
	for name, val := range params {
		resolved[name] = val
	}

	group := groupName(key)
	var missing []string
	seen := make(map[string]bool)
	for _, tok := range scanIdentifiers(src) {
		if tok.call || seen[tok.text] {
			continue
		}
		seen[tok.text] = true
		if _, ok := resolved[tok.text]; ok {
			continue
		}
		if tok.text == "pi" || tok.text == "e" {
			continue
		}
		if val, ok := e.registry.resolveVariable(group, tok.text); ok {
			resolved[tok.text] = val
			continue
		}
		missing = append(missing, tok.text)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingParameterError{Metric: key, Names: missing}
	}
	return resolved, nil
}
