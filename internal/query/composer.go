package query

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldExpander lets a caller override the generic per-field expansion rules
// with entity-specific semantics (relative-date tokens, assignment tokens).
// It returns the condition for the field, whether it handled the field at
// all, and an error for malformed values. Unhandled fields fall back to the
// generic expansion.
type FieldExpander func(field string, value any) (condition any, handled bool, err error)

// ChainExpanders tries each expander in order and uses the first that
// handles the field
func ChainExpanders(expanders ...FieldExpander) FieldExpander {
	return func(field string, value any) (any, bool, error) {
		for _, expand := range expanders {
			if expand == nil {
				continue
			}
			cond, handled, err := expand(field, value)
			if err != nil {
				return nil, false, err
			}
			if handled {
				return cond, true, nil
			}
		}
		return nil, false, nil
	}
}

// Compose merges base filters, normalized client filters and a free-text
// search condition into one filter document.
//
// Base filters always win: a client filter on a key already present in the
// base is dropped, so security constraints supplied as base filters can
// never be weakened by client input. Client filters expand generically
// (array of one collapses to an equality, longer arrays become $in, scalars
// stay equalities) unless the caller-supplied expander claims the field.
// A search term over at least one searchable field adds a disjunction of
// case-insensitive contains conditions, ANDed with everything else.
func Compose(base bson.M, filters map[string]any, search string, searchable []string, expand FieldExpander) (bson.M, error) {
	composed := bson.M{}
	for key, value := range base {
		composed[key] = value
	}

	for field, value := range filters {
		if _, protected := composed[field]; protected {
			continue
		}

		if expand != nil {
			cond, handled, err := expand(field, value)
			if err != nil {
				return nil, err
			}
			if handled {
				composed[field] = cond
				continue
			}
		}

		composed[field] = genericCondition(value)
	}

	if search != "" && len(searchable) > 0 {
		composed = withSearch(composed, search, searchable)
	}

	return composed, nil
}

// genericCondition applies the default expansion rules for a client filter
func genericCondition(value any) any {
	arr, ok := value.([]any)
	if !ok {
		return value
	}
	switch len(arr) {
	case 0:
		return bson.M{"$in": bson.A{}}
	case 1:
		return arr[0]
	default:
		return bson.M{"$in": arr}
	}
}

// toConjunction normalizes an existing $and value, whatever slice type the
// base filters used for it, into a bson.A ready for appending.
func toConjunction(value any) bson.A {
	switch v := value.(type) {
	case nil:
		return nil
	case bson.A:
		return v
	case []any:
		return bson.A(v)
	case []bson.M:
		out := make(bson.A, len(v))
		for i, clause := range v {
			out[i] = clause
		}
		return out
	default:
		return bson.A{value}
	}
}

// withSearch ANDs a case-insensitive contains disjunction into the filter.
// The term is quoted so user input never acts as a pattern.
func withSearch(composed bson.M, term string, fields []string) bson.M {
	conditions := make(bson.A, len(fields))
	for i, field := range fields {
		conditions[i] = bson.M{field: primitive.Regex{
			Pattern: regexp.QuoteMeta(term),
			Options: "i",
		}}
	}

	// keep any $or the base filters may already carry
	if _, taken := composed["$or"]; taken {
		composed["$and"] = append(toConjunction(composed["$and"]), bson.M{"$or": conditions})
		return composed
	}

	composed["$or"] = conditions
	return composed
}
