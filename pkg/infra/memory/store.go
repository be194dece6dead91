package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// ErrRunNotFound is returned when a run ID is unknown
var ErrRunNotFound = goerr.New("run not found")

// Store is an in-memory RunStore. Records do not survive a restart; it is
// the default store and the one used in tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*model.PipelineRun
}

// NewStore creates an empty in-memory run store
func NewStore() *Store {
	return &Store{
		runs: make(map[string]*model.PipelineRun),
	}
}

func (s *Store) Put(ctx context.Context, run *model.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, goerr.Wrap(ErrRunNotFound, "no such run", goerr.V("id", id))
	}
	return run, nil
}

// List returns runs ordered by start time, newest first
func (s *Store) List(ctx context.Context, limit int) ([]*model.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*model.PipelineRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

var _ interfaces.RunStore = (*Store)(nil)
