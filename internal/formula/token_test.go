package formula

import "testing"

func TestNormalizeAliases(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"math qualified call", "math.sin(x) + math.cos(y)", "sin(x) + cos(y)"},
		{"numpy qualified call", "np.log10(x) * np.sqrt(y)", "log10(x) * sqrt(y)"},
		{"numpy power", "np.power(base, 2)", "pow(base, 2)"},
		{"pi constant", "np.pi * r * r", "pi * r * r"},
		{"native names untouched", "sin(x) + pow(y, 2)", "sin(x) + pow(y, 2)"},
		{"no identifiers", "1 + 2 * 3", "1 + 2 * 3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalize(tc.in); got != tc.want {
				t.Errorf("normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeWordBoundaries(t *testing.T) {
	// A parameter whose name embeds a function name must never be rewritten.
	in := "math.sin(sin_angle) + my_math.sin_total"
	want := "sin(sin_angle) + my_math.sin_total"
	if got := normalize(in); got != want {
		t.Errorf("normalize(%q) = %q, want %q", in, got, want)
	}
}

func TestScanIdentifiersSkipsNumericLiterals(t *testing.T) {
	tokens := scanIdentifiers("1e3 + 2.5E-4 * x")
	if len(tokens) != 1 || tokens[0].text != "x" {
		t.Fatalf("scanIdentifiers = %+v, want single token x", tokens)
	}
}

func TestScanIdentifiersMarksCalls(t *testing.T) {
	tokens := scanIdentifiers("pow(base, exp_rate) + base")
	byText := map[string]bool{}
	for _, tok := range tokens {
		// base appears both as an argument and as a bare term; either
		// occurrence is a non-call.
		if tok.text == "base" {
			if tok.call {
				t.Errorf("token base marked as call")
			}
			continue
		}
		byText[tok.text] = tok.call
	}
	if !byText["pow"] {
		t.Errorf("pow not marked as call")
	}
	if byText["exp_rate"] {
		t.Errorf("exp_rate marked as call")
	}
}
