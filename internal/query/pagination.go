package query

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	OrderAsc  = "asc"
	OrderDesc = "desc"

	defaultSortField = "created_at"
)

// PageRequest is the resolved pagination and sort specification for one
// list call
type PageRequest struct {
	Page  int
	Limit int
	Skip  int
	Sort  bson.D
}

// NewPageRequest computes page, limit, skip and sort order from raw request
// values. Out-of-range or non-numeric page/limit values fall back to their
// defaults rather than failing the request; limit is clamped to MaxLimit.
// Sort fields are comma-separated and paired positionally with orders;
// anything that is not "asc" sorts descending, and fields beyond the order
// list default to descending.
func NewPageRequest(page, limit, sort, order string) PageRequest {
	p := parseBounded(page, DefaultPage, 0)
	l := parseBounded(limit, DefaultLimit, MaxLimit)

	return PageRequest{
		Page:  p,
		Limit: l,
		Skip:  (p - 1) * l,
		Sort:  parseSort(sort, order),
	}
}

func parseBounded(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

func parseSort(sort, order string) bson.D {
	fields := splitList(sort)
	if len(fields) == 0 {
		return bson.D{{Key: defaultSortField, Value: -1}}
	}

	orders := splitList(order)
	spec := make(bson.D, 0, len(fields))
	for i, field := range fields {
		direction := -1
		if i < len(orders) && orders[i] == OrderAsc {
			direction = 1
		}
		spec = append(spec, bson.E{Key: field, Value: direction})
	}
	return spec
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
