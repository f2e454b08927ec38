package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"riddle-game-service/internal/app"
	"riddle-game-service/internal/domain"
)

// RiddleStore is an in-memory riddle table. It backs tests and the
// standalone (no Postgres) mode, and satisfies both the read and the admin
// repositories.
type RiddleStore struct {
	mu      sync.RWMutex
	nextID  int64
	riddles map[int64]domain.Riddle
	rnd     *rand.Rand
}

func NewRiddleStore(seed ...domain.Riddle) *RiddleStore {
	s := &RiddleStore{
		riddles: make(map[int64]domain.Riddle),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, r := range seed {
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
		s.riddles[r.ID] = r
	}
	return s
}

func (s *RiddleStore) SelectRandom(_ context.Context, category string) (domain.Riddle, error) {
	want := app.NormalizeCategory(category)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []domain.Riddle
	for _, r := range s.riddles {
		if app.NormalizeCategory(r.Category) == want {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return domain.Riddle{}, domain.ErrNoRiddles
	}
	return matches[s.rnd.Intn(len(matches))], nil
}

func (s *RiddleStore) GetByID(_ context.Context, id int64) (domain.Riddle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	riddle, ok := s.riddles[id]
	if !ok {
		return domain.Riddle{}, domain.ErrRiddleNotFound
	}
	return riddle, nil
}

// ListIDs returns the ids of every riddle in the category; used by the redis
// cache to build its category sets.
func (s *RiddleStore) ListIDs(_ context.Context, category string) ([]int64, error) {
	want := app.NormalizeCategory(category)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, r := range s.riddles {
		if app.NormalizeCategory(r.Category) == want {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *RiddleStore) Create(_ context.Context, riddle domain.Riddle) (domain.Riddle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	riddle.ID = s.nextID
	s.riddles[riddle.ID] = riddle
	return riddle, nil
}

func (s *RiddleStore) Update(_ context.Context, riddle domain.Riddle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.riddles[riddle.ID]; !ok {
		return domain.ErrRiddleNotFound
	}
	s.riddles[riddle.ID] = riddle
	return nil
}

func (s *RiddleStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.riddles[id]; !ok {
		return domain.ErrRiddleNotFound
	}
	delete(s.riddles, id)
	return nil
}

func (s *RiddleStore) List(_ context.Context) ([]domain.Riddle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Riddle, 0, len(s.riddles))
	for _, r := range s.riddles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
