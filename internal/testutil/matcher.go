package testutil

import (
	"reflect"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchFilter evaluates a composed filter document against a plain document,
// covering the operator subset the query pipeline emits: equality, $in, $ne,
// $exists, $size, range operators, regular expressions and $and/$or. It is
// an in-memory stand-in for server-side filter evaluation.
func MatchFilter(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		switch key {
		case "$and":
			for _, sub := range toSlice(cond) {
				subFilter, ok := toBsonM(sub)
				if !ok || !MatchFilter(doc, subFilter) {
					return false
				}
			}
		case "$or":
			matched := false
			for _, sub := range toSlice(cond) {
				if subFilter, ok := toBsonM(sub); ok && MatchFilter(doc, subFilter) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		default:
			if !matchField(doc, key, cond) {
				return false
			}
		}
	}
	return true
}

func matchField(doc bson.M, field string, cond any) bool {
	docVal, present := doc[field]

	switch c := cond.(type) {
	case primitive.Regex:
		return matchRegex(docVal, c)
	case bson.M:
		if isOperatorDoc(c) {
			return matchOperators(docVal, present, c)
		}
		return equalValues(docVal, c)
	case map[string]any:
		if isOperatorDoc(bson.M(c)) {
			return matchOperators(docVal, present, bson.M(c))
		}
		return equalValues(docVal, c)
	default:
		return equalOrContains(docVal, cond)
	}
}

func isOperatorDoc(m bson.M) bool {
	for key := range m {
		if len(key) == 0 || key[0] != '$' {
			return false
		}
	}
	return len(m) > 0
}

func matchOperators(docVal any, present bool, ops bson.M) bool {
	for op, arg := range ops {
		switch op {
		case "$in":
			matched := false
			for _, v := range toSlice(arg) {
				if equalOrContains(docVal, v) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case "$nin":
			for _, v := range toSlice(arg) {
				if equalOrContains(docVal, v) {
					return false
				}
			}
		case "$ne":
			if equalOrContains(docVal, arg) {
				return false
			}
		case "$exists":
			want, _ := arg.(bool)
			if present != want {
				return false
			}
		case "$size":
			v := reflect.ValueOf(docVal)
			if v.Kind() != reflect.Slice || float64(v.Len()) != toFloat(arg) {
				return false
			}
		case "$regex":
			pattern, _ := arg.(string)
			options, _ := ops["$options"].(string)
			if !matchRegex(docVal, primitive.Regex{Pattern: pattern, Options: options}) {
				return false
			}
		case "$options":
			// consumed by $regex
		case "$lt", "$lte", "$gt", "$gte":
			cmp, ok := compareValues(docVal, arg)
			if !ok {
				return false
			}
			switch op {
			case "$lt":
				ok = cmp < 0
			case "$lte":
				ok = cmp <= 0
			case "$gt":
				ok = cmp > 0
			case "$gte":
				ok = cmp >= 0
			}
			if !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func matchRegex(docVal any, re primitive.Regex) bool {
	pattern := re.Pattern
	for _, opt := range re.Options {
		pattern = "(?" + string(opt) + ")" + pattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}

	if v := reflect.ValueOf(docVal); v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if s, ok := v.Index(i).Interface().(string); ok && compiled.MatchString(s) {
				return true
			}
		}
		return false
	}

	s, ok := docVal.(string)
	return ok && compiled.MatchString(s)
}

// equalOrContains applies document-store equality: a scalar condition
// matches either the field itself or, when the field is an array, any of
// its elements
func equalOrContains(docVal, value any) bool {
	if equalValues(docVal, value) {
		return true
	}

	v := reflect.ValueOf(docVal)
	if docVal == nil || v.Kind() != reflect.Slice {
		return false
	}
	if reflect.ValueOf(value).Kind() == reflect.Slice {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if equalValues(v.Index(i).Interface(), value) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if a != nil && b != nil && av.Kind() == reflect.Slice && bv.Kind() == reflect.Slice {
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !equalValues(av.Index(i).Interface(), bv.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	// comparing a slice or map with == would panic
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !av.Comparable() || !bv.Comparable() {
		return false
	}
	return a == b
}

// compareValues orders two values when both are numeric or both are times
func compareValues(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	af, aok := numeric(a)
	bf, bok := numeric(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	default:
		return 0, false
	}
}

func toFloat(v any) float64 {
	f, _ := numeric(v)
	return f
}

func toSlice(v any) []any {
	switch s := v.(type) {
	case bson.A:
		return s
	case []any:
		return s
	}

	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func toBsonM(v any) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]any:
		return bson.M(m), true
	}
	return nil, false
}
