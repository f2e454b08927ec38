package memory

import (
	"context"
	"sort"
	"sync"

	"riddle-game-service/internal/domain"
)

// PlayerStore is an in-memory player table with the same relative-update
// semantics as the Postgres store: every mutation happens under one lock,
// conditioned on the current row.
type PlayerStore struct {
	mu      sync.Mutex
	players map[string]*domain.Player
	solved  map[string]map[int64]struct{}
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		players: make(map[string]*domain.Player),
		solved:  make(map[string]map[int64]struct{}),
	}
}

func (s *PlayerStore) Upsert(_ context.Context, playerID, displayName string, initialHints int) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player, ok := s.players[playerID]; ok {
		// Re-contact refreshes the name only; score and hints survive.
		player.DisplayName = displayName
		return *player, nil
	}
	player := &domain.Player{
		ID:          playerID,
		DisplayName: displayName,
		Hints:       initialHints,
	}
	s.players[playerID] = player
	return *player, nil
}

func (s *PlayerStore) Get(_ context.Context, playerID string) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return *player, nil
}

func (s *PlayerStore) GrantHints(_ context.Context, playerID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return 0, domain.ErrPlayerNotFound
	}
	player.Hints += amount
	return player.Hints, nil
}

func (s *PlayerStore) DebitHints(_ context.Context, playerID string, amount int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return 0, false, domain.ErrPlayerNotFound
	}
	if player.Hints < amount {
		return player.Hints, false, nil
	}
	player.Hints -= amount
	return player.Hints, true, nil
}

// SolveAndAward records the solve and credits the points under one lock
// acquisition, mirroring the single-statement semantics of the Postgres
// store: either both take or neither does.
func (s *PlayerStore) SolveAndAward(_ context.Context, playerID string, riddleID int64, points int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return false, 0, domain.ErrPlayerNotFound
	}
	pairs, ok := s.solved[playerID]
	if !ok {
		pairs = make(map[int64]struct{})
		s.solved[playerID] = pairs
	}
	if _, seen := pairs[riddleID]; seen {
		return false, player.Score, nil
	}
	pairs[riddleID] = struct{}{}
	player.Score += points
	return true, player.Score, nil
}

func (s *PlayerStore) Rank(_ context.Context, playerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return 0, domain.ErrPlayerNotFound
	}
	rank := 1
	for _, other := range s.players {
		if other.Score > player.Score {
			rank++
		}
	}
	return rank, nil
}

func (s *PlayerStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*domain.Player, 0, len(s.players))
	for _, p := range s.players {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].DisplayName < all[j].DisplayName
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(all))
	rank := 1
	for i, p := range all {
		if i > 0 && p.Score < all[i-1].Score {
			rank = i + 1
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        rank,
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		})
	}
	return entries, nil
}
