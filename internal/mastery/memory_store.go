package mastery

import (
	"context"
	"sync"
	"time"

	"github.com/learnloop/backend/internal/models"
)

// MemoryStore keeps mastery rows in process. Commits for one key are
// serialized by a per-key mutex and still checked against the version.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[models.MasteryKey]models.LearnerMasteryState
	locks map[models.MasteryKey]*sync.Mutex
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:  make(map[models.MasteryKey]models.LearnerMasteryState),
		locks: make(map[models.MasteryKey]*sync.Mutex),
		now:   time.Now,
	}
}

func (s *MemoryStore) keyLock(key models.MasteryKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *MemoryStore) Load(_ context.Context, key models.MasteryKey) (*models.LearnerMasteryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rows[key]
	if !ok {
		st = *models.NewMasteryState(key)
		st.UpdatedAt = s.now().UTC()
		s.rows[key] = st
	}
	return &st, nil
}

func (s *MemoryStore) CommitSession(ctx context.Context, state *models.LearnerMasteryState, perf *models.SessionPerformance, final models.Difficulty) (*models.LearnerMasteryState, error) {
	if err := validateCommit(state, perf); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := state.Key()
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	current, ok := s.rows[key]
	s.mu.Unlock()
	if !ok {
		current = *models.NewMasteryState(key)
	}
	if current.Version != state.Version {
		return nil, ErrConflict
	}

	next := ApplySession(*state, perf, final, s.now())

	s.mu.Lock()
	s.rows[key] = next
	s.mu.Unlock()
	return &next, nil
}
