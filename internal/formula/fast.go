package formula

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
)

// fastFuncs is the restricted function set the vectorized tier accepts.
var fastFuncs = map[string]interface{}{
	"sin":     math.Sin,
	"cos":     math.Cos,
	"tan":     math.Tan,
	"asin":    math.Asin,
	"acos":    math.Acos,
	"atan":    math.Atan,
	"log":     math.Log,
	"log10":   math.Log10,
	"exp":     math.Exp,
	"sqrt":    math.Sqrt,
	"abs":     math.Abs,
	"pow":     math.Pow,
	"floor":   math.Floor,
	"ceil":    math.Ceil,
	"radians": func(deg float64) float64 { return deg * math.Pi / 180 },
	"degrees": func(rad float64) float64 { return rad * 180 / math.Pi },
}

// evalFast evaluates an expression with the compiled expr engine. It rejects
// expressions that reference functions outside the restricted set, and
// expressions where a called name collides with a parameter name, so the
// caller can fall through to the symbolic tier.
func evalFast(src string, params map[string]float64) (float64, error) {
	for _, tok := range scanIdentifiers(src) {
		if !tok.call {
			continue
		}
		if _, ok := fastFuncs[tok.text]; !ok {
			return 0, fmt.Errorf("function %s is not supported by the fast evaluator", tok.text)
		}
		if _, collides := params[tok.text]; collides {
			return 0, fmt.Errorf("name %s is both a parameter and a function", tok.text)
		}
	}

	env := make(map[string]interface{}, len(params)+len(fastFuncs)+2)
	for name, fn := range fastFuncs {
		env[name] = fn
	}
	env["pi"] = math.Pi
	env["e"] = math.E
	for name, val := range params {
		env[name] = val
	}

	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return 0, fmt.Errorf("compile failed: %w", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, fmt.Errorf("run failed: %w", err)
	}
	return toFloat(out)
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expression produced %T, want a number", v)
	}
}
