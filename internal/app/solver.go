package app

import (
	"context"
	"log/slog"

	"go.aimuz.me/interviewcoder/cache"
	"go.aimuz.me/interviewcoder/internal/types"
	"go.aimuz.me/interviewcoder/llm"
)

// cachedSolver answers repeated screenshot jobs from the cache.
// Audio requests pass straight through.
type cachedSolver struct {
	llm.Solver
	cache *cache.Cache
}

// withCache wraps s with c. A nil cache disables caching.
func withCache(s llm.Solver, c *cache.Cache) llm.Solver {
	if s == nil || c == nil {
		return s
	}
	return &cachedSolver{Solver: s, cache: c}
}

func (s *cachedSolver) SolveImages(ctx context.Context, req llm.ImageRequest) (types.Solution, error) {
	key := cache.ImageKey(s.Name(), req.Language, req.InterviewType, req.Images)

	if entry, ok := s.cache.Get(key); ok {
		sol := entry.Solution
		sol.Cached = true
		return sol, nil
	}

	sol, err := s.Solver.SolveImages(ctx, req)
	if err != nil {
		return sol, err
	}

	// Best effort.
	if err := s.cache.Set(key, &cache.Entry{Solution: sol}, cache.DefaultTTL); err != nil {
		slog.Warn("cache solution", "error", err)
	}
	return sol, nil
}
