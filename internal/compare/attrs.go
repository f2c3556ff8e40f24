package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Cross-reference and dimension-list bookkeeping attributes are storage
// artifacts of the container format, not semantic data, and are never
// compared.
var reservedAttrKeys = map[string]struct{}{
	"REFERENCE_LIST": {},
	"DIMENSION_LIST": {},
}

// Approximate equality for float attribute values mirrors the usual
// allclose tolerances.
const (
	attrRelTol = 1e-5
	attrAbsTol = 1e-8
)

// compareAttrs checks the full attribute key set of two same-named
// nodes and the values of every common, non-reserved key.
func compareAttrs(s *Session, path string, golden, test map[string]any) {
	gKeys := attrKeys(golden)
	tKeys := attrKeys(test)

	if missing := diffKeys(gKeys, tKeys); len(missing) > 0 {
		s.Report(path, KindStructural, "attributes missing from test: %s", strings.Join(missing, ", "))
	}
	if extra := diffKeys(tKeys, gKeys); len(extra) > 0 {
		s.Report(path, KindStructural, "attributes only in test: %s", strings.Join(extra, ", "))
	}

	for _, key := range gKeys {
		if _, reserved := reservedAttrKeys[key]; reserved {
			continue
		}
		tv, ok := test[key]
		if !ok {
			continue
		}
		if !attrValueEqual(golden[key], tv) {
			s.Report(path, KindStructural, "attribute %q differs: golden=%v test=%v", key, golden[key], tv)
		}
	}
}

func attrKeys(attrs map[string]any) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// diffKeys returns elements of a that are absent from b. Both inputs
// are sorted.
func diffKeys(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, k := range b {
		set[k] = struct{}{}
	}
	var out []string
	for _, k := range a {
		if _, ok := set[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// attrValueEqual compares two attribute values. Float arrays and
// scalars use approximate equality with NaN equal to NaN; everything
// else compares exactly after normalization.
func attrValueEqual(g, t any) bool {
	if gf, gok := toFloatSlice(g); gok {
		tf, tok := toFloatSlice(t)
		if !tok || len(gf) != len(tf) {
			return false
		}
		for i := range gf {
			if !floatClose(gf[i], tf[i]) {
				return false
			}
		}
		return true
	}
	if gs, gok := toStringSlice(g); gok {
		ts, tok := toStringSlice(t)
		if !tok || len(gs) != len(ts) {
			return false
		}
		for i := range gs {
			if gs[i] != ts[i] {
				return false
			}
		}
		return true
	}
	return fmt.Sprintf("%v", g) == fmt.Sprintf("%v", t)
}

// floatClose treats NaN as equal to NaN and otherwise applies the
// combined absolute/relative tolerance.
func floatClose(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) <= attrAbsTol+attrRelTol*math.Abs(b)
}

// toFloatSlice normalizes numeric attribute values (scalars and
// slices of any width) to []float64.
func toFloatSlice(v any) ([]float64, bool) {
	switch x := v.(type) {
	case float64:
		return []float64{x}, true
	case float32:
		return []float64{float64(x)}, true
	case int:
		return []float64{float64(x)}, true
	case int8:
		return []float64{float64(x)}, true
	case int16:
		return []float64{float64(x)}, true
	case int32:
		return []float64{float64(x)}, true
	case int64:
		return []float64{float64(x)}, true
	case uint8:
		return []float64{float64(x)}, true
	case uint16:
		return []float64{float64(x)}, true
	case uint32:
		return []float64{float64(x)}, true
	case uint64:
		return []float64{float64(x)}, true
	case []float64:
		return x, true
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []int:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []int16:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []int32:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []int64:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	default:
		return nil, false
	}
}

func toStringSlice(v any) ([]string, bool) {
	switch x := v.(type) {
	case string:
		return []string{x}, true
	case []string:
		return x, true
	default:
		return nil, false
	}
}
