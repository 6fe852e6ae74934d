package formula

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier selects which evaluation engine handles a formula.
type Tier string

const (
	TierAuto     Tier = "auto"
	TierFast     Tier = "fast"
	TierSymbolic Tier = "symbolic"
	TierFallback Tier = "fallback"
)

//go:embed metrics.yaml
var defaultDefinitions []byte

// Definition is one named entry in the registry: either a constant value or
// a formula over named parameters.
type Definition struct {
	Key         string
	Value       float64
	IsConstant  bool
	Formula     string
	Description string
	Units       string
	Method      Tier
}

// Registry is the immutable metric catalog, loaded once at startup. Reads
// are safe for unsynchronized concurrent use.
type Registry struct {
	defs map[string]Definition
}

type rawDefinition struct {
	Value            *float64 `yaml:"value"`
	Formula          string   `yaml:"formula"`
	Description      string   `yaml:"description"`
	Units            string   `yaml:"units"`
	EvaluationMethod string   `yaml:"evaluation_method"`
}

// Load parses a hierarchical YAML definition document. Keys are flattened
// to dotted form (panel.efficiency). Structural problems fail fast; formula
// cross-references are resolved per call, not validated here.
func Load(data []byte) (*Registry, error) {
	var root map[string]interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse metric definitions: %w", err)
	}

	defs := make(map[string]Definition)
	if err := flatten("", root, defs); err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("metric definitions document is empty")
	}
	return &Registry{defs: defs}, nil
}

// DefaultRegistry loads the embedded solar metric definition set.
func DefaultRegistry() (*Registry, error) {
	return Load(defaultDefinitions)
}

func flatten(prefix string, node map[string]interface{}, defs map[string]Definition) error {
	for name, child := range node {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		m, ok := child.(map[string]interface{})
		if !ok {
			return fmt.Errorf("metric %s: expected mapping, got %T", key, child)
		}

		if isLeaf(m) {
			def, err := parseLeaf(key, m)
			if err != nil {
				return err
			}
			defs[key] = def
			continue
		}

		if err := flatten(key, m, defs); err != nil {
			return err
		}
	}
	return nil
}

func isLeaf(m map[string]interface{}) bool {
	_, hasValue := m["value"]
	_, hasFormula := m["formula"]
	return hasValue || hasFormula
}

func parseLeaf(key string, m map[string]interface{}) (Definition, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return Definition{}, fmt.Errorf("metric %s: %w", key, err)
	}
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("metric %s: %w", key, err)
	}

	if raw.Value != nil && raw.Formula != "" {
		return Definition{}, fmt.Errorf("metric %s: cannot be both constant and formula", key)
	}

	def := Definition{
		Key:         key,
		Description: raw.Description,
		Units:       raw.Units,
		Method:      TierAuto,
	}

	if raw.Value != nil {
		def.Value = *raw.Value
		def.IsConstant = true
		if raw.EvaluationMethod != "" {
			return Definition{}, fmt.Errorf("metric %s: evaluation_method is not valid on a constant", key)
		}
		return def, nil
	}

	def.Formula = strings.TrimSpace(raw.Formula)
	if def.Formula == "" {
		return Definition{}, fmt.Errorf("metric %s: empty formula", key)
	}
	if raw.EvaluationMethod != "" {
		tier := Tier(raw.EvaluationMethod)
		switch tier {
		case TierAuto, TierFast, TierSymbolic, TierFallback:
			def.Method = tier
		default:
			return Definition{}, fmt.Errorf("metric %s: unknown evaluation_method %q", key, raw.EvaluationMethod)
		}
	}
	return def, nil
}

// Constant returns the value of a constant entry. It fails with
// ErrUnknownMetric when the key is absent or names a formula.
func (r *Registry) Constant(key string) (float64, error) {
	def, ok := r.defs[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}
	if !def.IsConstant {
		return 0, fmt.Errorf("%w: %s is a formula, not a constant", ErrUnknownMetric, key)
	}
	return def.Value, nil
}

// Definition returns the entry for a key.
func (r *Registry) Definition(key string) (Definition, bool) {
	def, ok := r.defs[key]
	return def, ok
}

// Keys returns all registered metric keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.defs))
	for k := range r.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveVariable maps a free variable to a constant entry by convention:
// first a sibling in the referencing metric's group, then a unique leaf name
// anywhere in the registry.
func (r *Registry) resolveVariable(group, name string) (float64, bool) {
	if group != "" {
		if def, ok := r.defs[group+"."+name]; ok && def.IsConstant {
			return def.Value, true
		}
	}

	var found *Definition
	for k := range r.defs {
		def := r.defs[k]
		if !def.IsConstant {
			continue
		}
		if leafName(k) == name {
			if found != nil {
				return 0, false // ambiguous
			}
			found = &def
		}
	}
	if found == nil {
		return 0, false
	}
	return found.Value, true
}

func leafName(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}

func groupName(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[:i]
	}
	return ""
}
