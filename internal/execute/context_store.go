package execute

import (
	"sync"

	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/invoke"
)

// ContextStore owns every node's persistent invoke.Context, keyed by the
// node's graph.ID rather than by RuntimeGraph generation. spec.md §9's
// design note requires contexts to "persist for the node's lifetime in
// the Graph ... not the RuntimeGraph's" and to be destroyed when the node
// is removed — a single long-lived store, pruned explicitly, is how that
// is honored across many Preprocess/Run cycles.
type ContextStore struct {
	mu   sync.Mutex
	byID map[graph.ID]*invoke.Context
}

// NewContextStore returns an empty store.
func NewContextStore() *ContextStore {
	return &ContextStore{byID: make(map[graph.ID]*invoke.Context)}
}

// Get returns the persistent context for id, creating an empty one on
// first use.
func (s *ContextStore) Get(id graph.ID) *invoke.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.byID[id]
	if !ok {
		ctx = &invoke.Context{}
		s.byID[id] = ctx
	}
	return ctx
}

// Prune drops every context whose node no longer exists in g.
func (s *ContextStore) Prune(g *graph.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.byID {
		if _, ok := g.NodeByID(id); !ok {
			delete(s.byID, id)
		}
	}
}

// Len reports how many node contexts the store currently holds.
func (s *ContextStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
