package query

import (
	"testing"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestComposeGenericExpansion(t *testing.T) {
	composed, err := Compose(bson.M{}, map[string]any{
		"status":    []any{"open", "pending"},
		"client_id": []any{"cli_1"},
		"priority":  "high",
		"tags":      []any{},
	}, "", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, bson.M{"$in": []any{"open", "pending"}}, composed["status"])
	assert.Equal(t, "cli_1", composed["client_id"])
	assert.Equal(t, "high", composed["priority"])
	assert.Equal(t, bson.M{"$in": bson.A{}}, composed["tags"])
}

func TestComposeBaseFiltersWin(t *testing.T) {
	base := bson.M{
		"tenant_id":  "tenant_1",
		"is_deleted": false,
	}

	composed, err := Compose(base, map[string]any{
		"tenant_id": "tenant_2",
		"status":    "open",
	}, "", nil, nil)
	require.NoError(t, err)

	// a client filter can never weaken a base constraint
	assert.Equal(t, "tenant_1", composed["tenant_id"])
	assert.Equal(t, false, composed["is_deleted"])
	assert.Equal(t, "open", composed["status"])
}

func TestComposeDoesNotMutateBase(t *testing.T) {
	base := bson.M{"tenant_id": "tenant_1"}

	_, err := Compose(base, map[string]any{"status": "open"}, "term", []string{"title"}, nil)
	require.NoError(t, err)

	assert.Equal(t, bson.M{"tenant_id": "tenant_1"}, base)
}

func TestComposeSearchDisjunction(t *testing.T) {
	composed, err := Compose(bson.M{}, map[string]any{
		"status": []any{"open", "pending"},
	}, "acme", []string{"title", "description"}, nil)
	require.NoError(t, err)

	assert.Equal(t, bson.M{"$in": []any{"open", "pending"}}, composed["status"])

	or, ok := composed["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"title": primitive.Regex{Pattern: "acme", Options: "i"}}, or[0])
	assert.Equal(t, bson.M{"description": primitive.Regex{Pattern: "acme", Options: "i"}}, or[1])
}

func TestComposeSearchQuotesRegexMetacharacters(t *testing.T) {
	composed, err := Compose(bson.M{}, nil, "a.b(c)", []string{"title"}, nil)
	require.NoError(t, err)

	or := composed["$or"].(bson.A)
	re := or[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, `a\.b\(c\)`, re.Pattern)
}

func TestComposeSearchPreservesBaseOr(t *testing.T) {
	base := bson.M{
		"$or": bson.A{
			bson.M{"owner_id": "usr_1"},
			bson.M{"team_member_ids": "usr_1"},
		},
	}

	composed, err := Compose(base, nil, "acme", []string{"title"}, nil)
	require.NoError(t, err)

	// the ownership disjunction stays intact; the search condition lands
	// under $and
	assert.Len(t, composed["$or"], 2)
	and, ok := composed["$and"].(bson.A)
	require.True(t, ok)
	require.Len(t, and, 1)
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"title": primitive.Regex{Pattern: "acme", Options: "i"}},
	}}, and[0])
}

func TestComposeSearchKeepsExistingAndClauses(t *testing.T) {
	base := bson.M{
		"$or": bson.A{
			bson.M{"owner_id": "usr_1"},
			bson.M{"team_member_ids": "usr_1"},
		},
		"$and": []bson.M{
			{"archived": false},
		},
	}

	composed, err := Compose(base, nil, "acme", []string{"title"}, nil)
	require.NoError(t, err)

	and, ok := composed["$and"].(bson.A)
	require.True(t, ok)
	require.Len(t, and, 2)
	assert.Equal(t, bson.M{"archived": false}, and[0])
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"title": primitive.Regex{Pattern: "acme", Options: "i"}},
	}}, and[1])
}

func TestComposeSearchIgnoredWithoutSearchableFields(t *testing.T) {
	composed, err := Compose(bson.M{}, nil, "acme", nil, nil)
	require.NoError(t, err)

	_, present := composed["$or"]
	assert.False(t, present)
}

func TestComposeExpanderClaimsField(t *testing.T) {
	expander := func(field string, value any) (any, bool, error) {
		if field == "due_date" {
			return bson.M{"$lt": "cutoff"}, true, nil
		}
		return nil, false, nil
	}

	composed, err := Compose(bson.M{}, map[string]any{
		"due_date": "overdue",
		"status":   "open",
	}, "", nil, expander)
	require.NoError(t, err)

	assert.Equal(t, bson.M{"$lt": "cutoff"}, composed["due_date"])
	assert.Equal(t, "open", composed["status"])
}

func TestComposeExpanderErrorPropagates(t *testing.T) {
	expander := func(field string, value any) (any, bool, error) {
		return nil, false, ierr.NewError("bad token").Mark(ierr.ErrInvalidFilterValue)
	}

	_, err := Compose(bson.M{}, map[string]any{"due_date": "soonish"}, "", nil, expander)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidFilterValue(err))
}

func TestChainExpandersFirstHandlerWins(t *testing.T) {
	first := func(field string, value any) (any, bool, error) {
		if field == "a" {
			return "first", true, nil
		}
		return nil, false, nil
	}
	second := func(field string, value any) (any, bool, error) {
		return "second", true, nil
	}

	chained := ChainExpanders(nil, first, second)

	cond, handled, err := chained("a", "x")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "first", cond)

	cond, handled, err = chained("b", "x")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "second", cond)
}

func TestComposeIsDeterministic(t *testing.T) {
	base := bson.M{"tenant_id": "tenant_1"}
	filters := map[string]any{
		"status":   []any{"open", "pending"},
		"priority": "high",
	}

	first, err := Compose(base, filters, "acme", []string{"title"}, nil)
	require.NoError(t, err)
	second, err := Compose(base, filters, "acme", []string{"title"}, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
