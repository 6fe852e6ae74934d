package formula

import "strings"

// token is one identifier occurrence inside an expression. Dots are part of
// an identifier so qualified names like math.sin scan as a single token.
type token struct {
	start int
	end   int // exclusive
	text  string
	call  bool // followed by '('
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '.' || (c >= '0' && c <= '9')
}

// scanIdentifiers walks an expression and returns every maximal identifier
// token. Scanning maximal runs is what guarantees word-boundary safety: a
// parameter named sin_angle is one token and can never match the function
// name sin.
func scanIdentifiers(src string) []token {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tok := token{start: start, end: i, text: src[start:i]}
			j := i
			for j < len(src) && src[j] == ' ' {
				j++
			}
			tok.call = j < len(src) && src[j] == '('
			tokens = append(tokens, tok)
		case c >= '0' && c <= '9':
			// Skip numeric literals, including exponents, so 1e3 does
			// not yield a spurious identifier.
			for i < len(src) && (src[i] == '.' || src[i] == 'e' || src[i] == 'E' ||
				src[i] == '+' || src[i] == '-' || (src[i] >= '0' && src[i] <= '9')) {
				if (src[i] == '+' || src[i] == '-') && i > 0 && src[i-1] != 'e' && src[i-1] != 'E' {
					break
				}
				i++
			}
		default:
			i++
		}
	}
	return tokens
}

// aliases maps verbose math-library call syntax found in imported formula
// definitions onto the evaluators' native function names.
var aliases = map[string]string{
	"math.sin":   "sin",
	"math.cos":   "cos",
	"math.tan":   "tan",
	"math.asin":  "asin",
	"math.acos":  "acos",
	"math.atan":  "atan",
	"math.log":   "log",
	"math.log10": "log10",
	"math.exp":   "exp",
	"math.sqrt":  "sqrt",
	"math.pow":   "pow",
	"math.fabs":  "abs",
	"math.floor": "floor",
	"math.ceil":  "ceil",
	"math.pi":    "pi",
	"np.sin":     "sin",
	"np.cos":     "cos",
	"np.tan":     "tan",
	"np.log":     "log",
	"np.log10":   "log10",
	"np.exp":     "exp",
	"np.sqrt":    "sqrt",
	"np.power":   "pow",
	"np.abs":     "abs",
	"np.pi":      "pi",
	"np.radians": "radians",
	"np.degrees": "degrees",
	"np.minimum": "min",
	"np.maximum": "max",
}

// normalize rewrites aliased function names to their native spelling using
// exact token replacement, never substring matching.
func normalize(src string) string {
	tokens := scanIdentifiers(src)
	if len(tokens) == 0 {
		return src
	}
	var b strings.Builder
	last := 0
	for _, tok := range tokens {
		native, ok := aliases[tok.text]
		if !ok {
			continue
		}
		b.WriteString(src[last:tok.start])
		b.WriteString(native)
		last = tok.end
	}
	b.WriteString(src[last:])
	return b.String()
}
