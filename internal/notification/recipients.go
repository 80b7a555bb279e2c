package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"clinica/internal/platform/redis"
	"clinica/internal/principal"
)

// AdminSource supplies the ACTIVE admin principals a fan-out targets.
type AdminSource interface {
	ListActiveAdmins(ctx context.Context) ([]string, error)
}

const (
	adminCacheKey = "clinica:recipients:active-admins"
	adminCacheTTL = 5 * time.Minute
)

// CachedAdminSource serves the admin recipient list from Redis, refreshing
// from the principal store on a miss. Cache failures fall through to the
// store silently; the dispatcher must not notice Redis being down.
type CachedAdminSource struct {
	cache  *redis.Client
	store  principal.Store
	logger *slog.Logger
}

func NewCachedAdminSource(cache *redis.Client, store principal.Store, logger *slog.Logger) *CachedAdminSource {
	return &CachedAdminSource{cache: cache, store: store, logger: logger}
}

func (s *CachedAdminSource) ListActiveAdmins(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, adminCacheKey).Bytes(); err == nil {
			var ids []string
			if err := json.Unmarshal(raw, &ids); err == nil {
				return ids, nil
			}
		}
	}

	admins, err := s.store.ListActiveByRole(ctx, principal.RoleAdmin)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(ids); err == nil {
			if err := s.cache.Set(ctx, adminCacheKey, raw, adminCacheTTL).Err(); err != nil {
				s.logger.Debug("admin recipient cache write failed", "error", err)
			}
		}
	}
	return ids, nil
}
