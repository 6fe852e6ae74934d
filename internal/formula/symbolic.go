package formula

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// symbolicFuncs extends the fast tier's function set with min/max and
// piecewise selection for formulas the restricted evaluator rejects.
var symbolicFuncs = map[string]govaluate.ExpressionFunction{
	"sin":     unary(math.Sin),
	"cos":     unary(math.Cos),
	"tan":     unary(math.Tan),
	"asin":    unary(math.Asin),
	"acos":    unary(math.Acos),
	"atan":    unary(math.Atan),
	"log":     unary(math.Log),
	"log10":   unary(math.Log10),
	"exp":     unary(math.Exp),
	"sqrt":    unary(math.Sqrt),
	"abs":     unary(math.Abs),
	"floor":   unary(math.Floor),
	"ceil":    unary(math.Ceil),
	"radians": unary(func(deg float64) float64 { return deg * math.Pi / 180 }),
	"degrees": unary(func(rad float64) float64 { return rad * 180 / math.Pi }),
	"pow":     binary(math.Pow),
	"min":     binary(math.Min),
	"max":     binary(math.Max),
	"piecewise": func(args ...interface{}) (interface{}, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("piecewise expects 3 arguments, got %d", len(args))
		}
		cond, err := truthy(args[0])
		if err != nil {
			return nil, err
		}
		if cond {
			return args[1], nil
		}
		return args[2], nil
	},
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		x, err := argFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func binary(fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		x, err := argFloat(args[0])
		if err != nil {
			return nil, err
		}
		y, err := argFloat(args[1])
		if err != nil {
			return nil, err
		}
		return fn(x, y), nil
	}
}

func argFloat(v interface{}) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return f, nil
}

func truthy(v interface{}) (bool, error) {
	switch c := v.(type) {
	case bool:
		return c, nil
	case float64:
		return c != 0, nil
	default:
		return false, fmt.Errorf("expected condition, got %T", v)
	}
}

// evalSymbolic evaluates an expression with the govaluate algebra engine.
func evalSymbolic(src string, params map[string]float64) (float64, error) {
	ee, err := govaluate.NewEvaluableExpressionWithFunctions(src, symbolicFuncs)
	if err != nil {
		return 0, fmt.Errorf("parse failed: %w", err)
	}

	args := make(map[string]interface{}, len(params)+2)
	args["pi"] = math.Pi
	args["e"] = math.E
	for name, val := range params {
		args[name] = val
	}

	out, err := ee.Evaluate(args)
	if err != nil {
		return 0, fmt.Errorf("evaluate failed: %w", err)
	}
	return toFloat(out)
}
