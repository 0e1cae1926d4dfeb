package query

import (
	"context"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/lexcore/lexcore/internal/types"
	"go.mongodb.org/mongo-driver/bson"
)

// JoinSpec describes one relation to populate on the fetched records.
// LocalField on the listed entity is matched against ForeignField in the
// From collection, and the joined documents land under As (defaulting to
// LocalField). Project optionally narrows the joined documents to the named
// fields.
type JoinSpec struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Project      []string
}

// OutputField returns the field the joined documents are written to
func (j JoinSpec) OutputField() string {
	if j.As != "" {
		return j.As
	}
	return j.LocalField
}

// Repository is the minimal persistence surface the list executor needs.
// Count and Find must evaluate the exact filter they are given.
type Repository[T any] interface {
	Count(ctx context.Context, filter bson.M) (int64, error)
	Find(ctx context.Context, filter bson.M, page PageRequest, joins []JoinSpec) ([]T, error)
}

// Resolver computes base filters dynamically, e.g. role-dependent ownership
// constraints. It receives the normalized client filters so entity-specific
// expansion rules can be returned alongside the base filter.
type Resolver func(ctx context.Context, clientFilters map[string]any) (bson.M, FieldExpander, error)

// BaseFilters is a tagged variant: either a static filter document or a
// resolver invoked per call
type BaseFilters struct {
	static   bson.M
	resolver Resolver
}

// Static wraps a fixed base filter document
func Static(filter bson.M) BaseFilters {
	return BaseFilters{static: filter}
}

// Resolve wraps a dynamic base filter resolver
func Resolve(fn Resolver) BaseFilters {
	return BaseFilters{resolver: fn}
}

func (b BaseFilters) resolve(ctx context.Context, clientFilters map[string]any) (bson.M, FieldExpander, error) {
	if b.resolver != nil {
		return b.resolver(ctx, clientFilters)
	}
	if b.static != nil {
		return b.static, nil, nil
	}
	return bson.M{}, nil, nil
}

// ListParams carries everything one list call needs besides the repository
type ListParams struct {
	// Query is the raw request query map: string or []string values for
	// pagination/sort/search keys and arbitrary filter keys
	Query map[string]any

	// SearchableFields are matched case-insensitively against the search term
	SearchableFields []string

	// Joins are populated on the fetched page
	Joins []JoinSpec

	// BaseFilters hold the security/ownership constraints for this call.
	// Authorization is always the caller's responsibility; the executor
	// never infers it.
	BaseFilters BaseFilters

	// Expander optionally overrides generic filter expansion per field. A
	// resolver-supplied expander runs first.
	Expander FieldExpander
}

// List runs one paginated query: normalize client filters, resolve base
// filters, compose a single immutable filter, then count and fetch against
// that same filter. Repository errors propagate unchanged.
func List[T any](ctx context.Context, repo Repository[T], params ListParams) (*types.ListResponse[T], error) {
	if repo == nil {
		return nil, ierr.NewError("repository is required").
			WithHint("List called without a repository").
			Mark(ierr.ErrValidation)
	}

	filters := NormalizeFilters(params.Query)

	base, resolvedExpander, err := params.BaseFilters.resolve(ctx, filters)
	if err != nil {
		return nil, err
	}

	composed, err := Compose(
		base,
		filters,
		queryString(params.Query, "search"),
		params.SearchableFields,
		ChainExpanders(resolvedExpander, params.Expander),
	)
	if err != nil {
		return nil, err
	}

	page := NewPageRequest(
		queryString(params.Query, "page"),
		queryString(params.Query, "limit"),
		queryString(params.Query, "sort"),
		queryString(params.Query, "order"),
	)

	total, err := repo.Count(ctx, composed)
	if err != nil {
		return nil, err
	}

	data, err := repo.Find(ctx, composed, page, params.Joins)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []T{}
	}

	resp := types.NewListResponse(data, int(total), page.Page, page.Limit)
	return &resp, nil
}

// queryString extracts a scalar request value; repeated values collapse to
// the first occurrence, matching common query-string semantics
func queryString(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
