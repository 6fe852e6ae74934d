package formula

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// fallbackPrelude defines the whitelisted function set inside the sandboxed
// interpreter. Only the math package is exposed; the interpreter sees no
// filesystem, network, or exec symbols.
const fallbackPrelude = `
import "math"

func sin(x float64) float64     { return math.Sin(x) }
func cos(x float64) float64     { return math.Cos(x) }
func tan(x float64) float64     { return math.Tan(x) }
func asin(x float64) float64    { return math.Asin(x) }
func acos(x float64) float64    { return math.Acos(x) }
func atan(x float64) float64    { return math.Atan(x) }
func log(x float64) float64     { return math.Log(x) }
func log10(x float64) float64   { return math.Log10(x) }
func exp(x float64) float64     { return math.Exp(x) }
func sqrt(x float64) float64    { return math.Sqrt(x) }
func abs(x float64) float64     { return math.Abs(x) }
func pow(x, y float64) float64  { return math.Pow(x, y) }
func floor(x float64) float64   { return math.Floor(x) }
func ceil(x float64) float64    { return math.Ceil(x) }
func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
func min(x, y float64) float64  { return math.Min(x, y) }
func max(x, y float64) float64  { return math.Max(x, y) }
func piecewise(c bool, a, b float64) float64 {
	if c {
		return a
	}
	return b
}
`

// evalFallback evaluates an expression in a sandbox-restricted interpreter,
// given no environment beyond the parameter mapping and the whitelisted
// math functions above. Last-resort tier.
func evalFallback(src string, params map[string]float64) (float64, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(interp.Exports{"math/math": stdlib.Symbols["math/math"]}); err != nil {
		return 0, fmt.Errorf("sandbox setup failed: %w", err)
	}
	if _, err := i.Eval(fallbackPrelude); err != nil {
		return 0, fmt.Errorf("sandbox setup failed: %w", err)
	}

	if _, shadowed := params["pi"]; !shadowed {
		if _, err := i.Eval("var pi float64 = math.Pi"); err != nil {
			return 0, fmt.Errorf("sandbox setup failed: %w", err)
		}
	}
	if _, shadowed := params["e"]; !shadowed {
		if _, err := i.Eval("var e float64 = math.E"); err != nil {
			return 0, fmt.Errorf("sandbox setup failed: %w", err)
		}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		val := params[name]
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("parameter %s is not a finite number", name)
		}
		stmt := fmt.Sprintf("var %s float64 = %s", name, strconv.FormatFloat(val, 'g', -1, 64))
		if _, err := i.Eval(stmt); err != nil {
			return 0, fmt.Errorf("failed to bind parameter %s: %w", name, err)
		}
	}

	v, err := i.Eval(src)
	if err != nil {
		return 0, fmt.Errorf("evaluate failed: %w", err)
	}
	return reflectFloat(v)
}

func reflectFloat(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float64, reflect.Float32:
		return v.Float(), nil
	case reflect.Int, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Interface:
		return reflectFloat(v.Elem())
	default:
		return 0, fmt.Errorf("expression produced %s, want a number", v.Kind())
	}
}
