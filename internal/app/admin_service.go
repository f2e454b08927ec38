package app

import (
	"context"
	"log/slog"
	"strings"

	"riddle-game-service/internal/domain"
)

// RiddleAdminRepository is the write side of the riddle table. Only the
// admin surface mutates riddles; the game path just reads.
type RiddleAdminRepository interface {
	Create(ctx context.Context, riddle domain.Riddle) (domain.Riddle, error)
	Update(ctx context.Context, riddle domain.Riddle) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Riddle, error)
}

// CacheInvalidator drops cached riddle state after an admin write. A nil
// invalidator is fine for cache-less deployments.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id int64, categories ...string) error
}

// AdminService is the curation path: create/list/update/delete riddles.
// Answers are normalized here, once, at write time.
type AdminService struct {
	repo    RiddleAdminRepository
	riddles RiddleRepository
	cache   CacheInvalidator
	log     *slog.Logger
}

func NewAdminService(repo RiddleAdminRepository, riddles RiddleRepository, cache CacheInvalidator, log *slog.Logger) *AdminService {
	if log == nil {
		log = slog.Default()
	}
	return &AdminService{repo: repo, riddles: riddles, cache: cache, log: log}
}

// CreateRiddle stores a new riddle with a normalized answer and trimmed
// category.
func (s *AdminService) CreateRiddle(ctx context.Context, riddle domain.Riddle) (domain.Riddle, error) {
	sanitizeRiddle(&riddle)
	created, err := s.repo.Create(ctx, riddle)
	if err != nil {
		return domain.Riddle{}, err
	}
	s.invalidate(ctx, created.ID, created.Category)
	return created, nil
}

// UpdateRiddle rewrites an existing riddle. Both the old and the new
// category are invalidated in case the riddle moved.
func (s *AdminService) UpdateRiddle(ctx context.Context, riddle domain.Riddle) error {
	old, err := s.riddles.GetByID(ctx, riddle.ID)
	if err != nil {
		return err
	}
	sanitizeRiddle(&riddle)
	if err := s.repo.Update(ctx, riddle); err != nil {
		return err
	}
	s.invalidate(ctx, riddle.ID, old.Category, riddle.Category)
	return nil
}

func (s *AdminService) DeleteRiddle(ctx context.Context, id int64) error {
	old, err := s.riddles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id, old.Category)
	return nil
}

func (s *AdminService) ListRiddles(ctx context.Context) ([]domain.Riddle, error) {
	return s.repo.List(ctx)
}

// invalidate is best-effort; the cache self-heals via TTL anyway.
func (s *AdminService) invalidate(ctx context.Context, id int64, categories ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id, categories...); err != nil {
		s.log.Warn("cache invalidation failed", slog.Int64("riddleId", id), slog.String("error", err.Error()))
	}
}

func sanitizeRiddle(r *domain.Riddle) {
	r.Question = strings.TrimSpace(r.Question)
	r.Answer = NormalizeAnswer(r.Answer)
	r.Category = strings.TrimSpace(r.Category)
	r.Explanation = strings.TrimSpace(r.Explanation)
}
