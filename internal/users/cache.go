package users

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
	"github.com/imadgeboyega/kiekky-feed/internal/metrics"
)

const (
	blockedKeyPrefix = "feed:blocked:"
	profileKeyPrefix = "feed:profile:"
)

// cachedDirectory is a read-through Redis cache in front of a Directory.
// Redis failures fall back to the underlying directory.
type cachedDirectory struct {
	Directory
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedDirectory wraps next with a Redis cache. A nil client or zero ttl disables caching.
func NewCachedDirectory(next Directory, rdb *redis.Client, ttl time.Duration) Directory {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &cachedDirectory{Directory: next, rdb: rdb, ttl: ttl}
}

func (c *cachedDirectory) BlockedCreatorIDs(ctx context.Context, viewerID string) ([]string, error) {
	if viewerID == "" {
		return nil, nil
	}

	key := blockedKeyPrefix + viewerID
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err == nil {
			metrics.RecordCacheLookup("blocked", true)
			return ids, nil
		}
	} else if err != redis.Nil {
		log.Printf("blocked cache read failed for %s: %v", viewerID, err)
	}
	metrics.RecordCacheLookup("blocked", false)

	ids, err := c.Directory.BlockedCreatorIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if ids == nil {
		ids = []string{}
	}
	c.store(ctx, key, ids)
	return ids, nil
}

func (c *cachedDirectory) PublicProfiles(ctx context.Context, userIDs []string) (map[string]models.UserView, error) {
	ids := dedupe(userIDs)
	profiles := make(map[string]models.UserView, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKeyPrefix + id
	}

	var missing []string
	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("profile cache read failed: %v", err)
		missing = ids
	} else {
		for i, v := range values {
			s, ok := v.(string)
			var u models.UserView
			if ok && json.Unmarshal([]byte(s), &u) == nil {
				profiles[ids[i]] = u
				continue
			}
			missing = append(missing, ids[i])
		}
	}

	metrics.RecordCacheLookup("profile", len(missing) == 0)
	if len(missing) == 0 {
		return profiles, nil
	}

	loaded, err := c.Directory.PublicProfiles(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range loaded {
		profiles[id] = u
		c.store(ctx, profileKeyPrefix+id, u)
	}
	return profiles, nil
}

// InvalidateBlocked drops the cached block list of a viewer
func InvalidateBlocked(ctx context.Context, rdb *redis.Client, viewerID string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, blockedKeyPrefix+viewerID).Err()
}

func (c *cachedDirectory) store(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("cache write failed for %s: %v", key, err)
	}
}
