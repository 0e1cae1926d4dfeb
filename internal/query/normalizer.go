package query

// Reserved keys are consumed by the pagination/sort engine and the search
// condition; they never reach the composed filter as field matches.
var reservedKeys = map[string]struct{}{
	"page":   {},
	"limit":  {},
	"sort":   {},
	"order":  {},
	"search": {},
}

// NormalizeFilters turns raw request query values into a typed filter map:
// reserved keys are stripped, "true"/"false" strings become booleans
// (element-wise for arrays), everything else passes through unchanged.
// Arrays are preserved as-is; collapsing single-element arrays is the
// composer's concern, not the normalizer's. The input map is not mutated.
func NormalizeFilters(raw map[string]any) map[string]any {
	normalized := make(map[string]any, len(raw))
	for key, value := range raw {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		normalized[key] = coerceValue(value)
	}
	return normalized
}

func coerceValue(value any) any {
	switch v := value.(type) {
	case string:
		return coerceScalar(v)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = coerceScalar(s)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = coerceValue(e)
		}
		return out
	default:
		return value
	}
}

func coerceScalar(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	default:
		return s
	}
}
