package ancestry

import (
	"context"
	"fmt"

	"github.com/bmv-2143/lintchecks/internal/runtime"
)

// Rules is the data that drives fix selection: the priority-ordered
// component table and the known framework supertypes.
type Rules struct {
	ComponentKinds  []ComponentKind
	KnownSupertypes map[string][]string
}

// DefaultRules returns the built-in rules.
func DefaultRules() *Rules {
	known := make(map[string][]string, len(DefaultKnownSupertypes))
	for k, v := range DefaultKnownSupertypes {
		known[k] = append([]string(nil), v...)
	}
	return &Rules{
		ComponentKinds:  append([]ComponentKind(nil), DefaultComponentKinds...),
		KnownSupertypes: known,
	}
}

// FrameworkTypes returns every fully qualified name the rules mention: the
// component base types and both sides of the known supertype edges.
func (r *Rules) FrameworkTypes() map[string]bool {
	out := make(map[string]bool)
	if r == nil {
		return out
	}
	for _, k := range r.ComponentKinds {
		out[k.BaseType] = true
	}
	for name, supers := range r.KnownSupertypes {
		out[name] = true
		for _, s := range supers {
			out[s] = true
		}
	}
	return out
}

// LoadRules evaluates a rules script. The script's final expression must be
// a map with a "component_kinds" list of maps (name, base_type, capability,
// replacement) and an optional "known_supertypes" map of name to list.
func LoadRules(ctx context.Context, rt *runtime.Runtime, path string) (*Rules, error) {
	result, err := rt.RunScript(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return rulesFromValue(result.Interface())
}

func rulesFromValue(v any) (*Rules, error) {
	top, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ancestry: rules script must evaluate to a map, got %T", v)
	}

	rawKinds, ok := top["component_kinds"].([]any)
	if !ok {
		return nil, fmt.Errorf("ancestry: rules: component_kinds must be a list")
	}
	rules := &Rules{KnownSupertypes: map[string][]string{}}
	for i, rk := range rawKinds {
		m, ok := rk.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ancestry: rules: component_kinds[%d] must be a map", i)
		}
		kind := ComponentKind{
			Name:        stringField(m, "name"),
			BaseType:    stringField(m, "base_type"),
			Capability:  stringField(m, "capability"),
			Replacement: stringField(m, "replacement"),
		}
		if kind.BaseType == "" || kind.Replacement == "" {
			return nil, fmt.Errorf("ancestry: rules: component_kinds[%d] needs base_type and replacement", i)
		}
		rules.ComponentKinds = append(rules.ComponentKinds, kind)
	}

	if rawKnown, ok := top["known_supertypes"]; ok {
		km, ok := rawKnown.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ancestry: rules: known_supertypes must be a map")
		}
		for name, sts := range km {
			list, ok := sts.([]any)
			if !ok {
				return nil, fmt.Errorf("ancestry: rules: known_supertypes[%q] must be a list", name)
			}
			for _, st := range list {
				s, ok := st.(string)
				if !ok {
					return nil, fmt.Errorf("ancestry: rules: known_supertypes[%q] must contain strings", name)
				}
				rules.KnownSupertypes[name] = append(rules.KnownSupertypes[name], s)
			}
		}
	}
	return rules, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
