package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"pharmacy-api/internal/cache"
	"pharmacy-api/internal/models"
)

const statsCacheKey = "dashboard:stats"

// DashboardStats returns the staff summary, served from cache when fresh.
func (s *Service) DashboardStats(ctx context.Context, caller models.Profile) (models.DashboardStats, error) {
	if err := requireStaff(caller); err != nil {
		return models.DashboardStats{}, err
	}

	if s.cache != nil && s.statsTTL > 0 {
		data, err := s.cache.Get(ctx, statsCacheKey)
		if err == nil {
			var stats models.DashboardStats
			err = json.Unmarshal(data, &stats)
			if err == nil {
				return stats, nil
			}
			slog.Warn("Discarding unreadable cached stats", "error", err)
		} else if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("Stats cache read failed", "error", err)
		}
	}

	stats, err := s.store.DashboardStats(ctx)
	if err != nil {
		return models.DashboardStats{}, storeErr(err, "stats")
	}

	if s.cache != nil && s.statsTTL > 0 {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, data, s.statsTTL); err != nil {
				slog.Warn("Stats cache write failed", "error", err)
			}
		}
	}
	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		slog.Warn("Stats cache invalidation failed", "error", err)
	}
}
