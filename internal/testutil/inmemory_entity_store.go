package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/lexcore/lexcore/internal/query"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// InMemoryEntityStore implements query.Repository over plain documents,
// evaluating composed filters with MatchFilter. Related collections can be
// registered so join specs resolve in tests.
type InMemoryEntityStore struct {
	mu      sync.RWMutex
	docs    []bson.M
	related map[string][]bson.M
}

// NewInMemoryEntityStore creates a new in-memory entity store
func NewInMemoryEntityStore(docs ...bson.M) *InMemoryEntityStore {
	return &InMemoryEntityStore{
		docs:    docs,
		related: make(map[string][]bson.M),
	}
}

var _ query.Repository[bson.M] = (*InMemoryEntityStore)(nil)

// Insert adds documents to the listed collection
func (s *InMemoryEntityStore) Insert(docs ...bson.M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
}

// RegisterCollection registers documents of a related collection for joins
func (s *InMemoryEntityStore) RegisterCollection(name string, docs ...bson.M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.related[name] = append(s.related[name], docs...)
}

// Count returns how many documents match the filter
func (s *InMemoryEntityStore) Count(ctx context.Context, filter bson.M) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, doc := range s.docs {
		if MatchFilter(doc, filter) {
			count++
		}
	}
	return count, nil
}

// Find returns the matching page in sort order, with joins resolved against
// the registered collections
func (s *InMemoryEntityStore) Find(ctx context.Context, filter bson.M, page query.PageRequest, joins []query.JoinSpec) ([]bson.M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]bson.M, 0)
	for _, doc := range s.docs {
		if MatchFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, field := range page.Sort {
			cmp, ok := compareValues(matched[i][field.Key], matched[j][field.Key])
			if !ok || cmp == 0 {
				if a, aok := matched[i][field.Key].(string); aok {
					if b, bok := matched[j][field.Key].(string); bok && a != b {
						cmp = 1
						if a < b {
							cmp = -1
						}
						ok = true
					}
				}
			}
			if !ok || cmp == 0 {
				continue
			}
			if direction, _ := field.Value.(int); direction < 0 {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	if page.Skip >= len(matched) {
		return []bson.M{}, nil
	}
	end := page.Skip + page.Limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]bson.M, 0, end-page.Skip)
	for _, doc := range matched[page.Skip:end] {
		result = append(result, s.withJoins(doc, joins))
	}
	return result, nil
}

func (s *InMemoryEntityStore) withJoins(doc bson.M, joins []query.JoinSpec) bson.M {
	out := bson.M{}
	for k, v := range doc {
		out[k] = v
	}

	for _, join := range joins {
		local := out[join.LocalField]
		matches := make([]bson.M, 0)
		for _, candidate := range s.related[join.From] {
			if equalOrContains(local, candidate[join.ForeignField]) {
				matches = append(matches, project(candidate, join.Project))
			}
		}
		out[join.OutputField()] = matches
	}
	return out
}

func project(doc bson.M, fields []string) bson.M {
	if len(fields) == 0 {
		return doc
	}
	out := bson.M{}
	for k, v := range doc {
		if k == "_id" || lo.Contains(fields, k) {
			out[k] = v
		}
	}
	return out
}
