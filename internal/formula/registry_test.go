package formula

import (
	"strings"
	"testing"
)

func TestLoadFlattensNestedKeys(t *testing.T) {
	reg, err := Load([]byte(`
site:
  array:
    tilt:
      value: 30.0
      units: degrees
`))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	got, err := reg.Constant("site.array.tilt")
	if err != nil {
		t.Fatalf("Constant(site.array.tilt) error = %v", err)
	}
	if got != 30.0 {
		t.Errorf("Constant(site.array.tilt) = %v, want 30.0", got)
	}
}

func TestLoadRejectsMalformedDefinitions(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "both value and formula",
			doc: `
a:
  b:
    value: 1.0
    formula: x + 1
`,
			wantErr: "cannot be both",
		},
		{
			name: "empty formula",
			doc: `
a:
  b:
    formula: "  "
`,
			wantErr: "empty formula",
		},
		{
			name: "unknown evaluation method",
			doc: `
a:
  b:
    formula: x + 1
    evaluation_method: quantum
`,
			wantErr: "unknown evaluation_method",
		},
		{
			name: "method on constant",
			doc: `
a:
  b:
    value: 1.0
    evaluation_method: fast
`,
			wantErr: "not valid on a constant",
		},
		{
			name:    "empty document",
			doc:     "",
			wantErr: "empty",
		},
		{
			name:    "scalar leaf",
			doc:     "a: 1.0",
			wantErr: "expected mapping",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.doc))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Load error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestResolveVariableSiblingFirst(t *testing.T) {
	reg, err := Load([]byte(`
a:
  rate:
    value: 1.0
  derived:
    formula: rate * 2
b:
  rate:
    value: 9.0
`))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	// rate is ambiguous across groups, but a.derived sees its own sibling.
	got, err := NewEvaluator(reg).Evaluate("a.derived", nil)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if got != 2.0 {
		t.Errorf("a.derived = %v, want 2.0 (sibling rate)", got)
	}
}

func TestResolveVariableAmbiguousFails(t *testing.T) {
	reg, err := Load([]byte(`
a:
  rate:
    value: 1.0
b:
  rate:
    value: 9.0
c:
  derived:
    formula: rate * 2
`))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	_, err = NewEvaluator(reg).Evaluate("c.derived", nil)
	if err == nil {
		t.Fatal("Evaluate with ambiguous reference succeeded, want error")
	}
}

func TestDefaultRegistryKeys(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry() error = %v", err)
	}

	for _, key := range []string{
		"panel.efficiency",
		"system.default_capacity_kw",
		"irradiance.effective",
		"energy.production",
		"financial.payback_years",
		"sizing.panels_for_capacity",
	} {
		if _, ok := reg.Definition(key); !ok {
			t.Errorf("default registry missing %s", key)
		}
	}

	keys := reg.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Keys() not sorted: %s before %s", keys[i-1], keys[i])
		}
	}
}
