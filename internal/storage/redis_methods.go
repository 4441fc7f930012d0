package storage

import (
	"errors"

	"privacyreport/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// ClaimInteraction records an interaction delivery id in Redis with SETNX.
// The first delivery claims the id and returns true; replays and duplicate
// clicks of the same delivery return false and are dropped by the handler.
func (s *Service) ClaimInteraction(interactionID string) (bool, error) {
	key := "interaction:" + interactionID
	return s.Redis.SetNX(s.Ctx, key, "1", config.InteractionDedupTTL).Result()
}

// ReleaseInteraction frees a claimed delivery id after a transient handler
// failure, so the platform's retry of the same delivery gets processed
// instead of dropped as a replay.
func (s *Service) ReleaseInteraction(interactionID string) error {
	return s.Redis.Del(s.Ctx, "interaction:"+interactionID).Err()
}

// CachedDMChannel returns the cached DM channel id for a user, or "" when
// the cache has no entry.
func (s *Service) CachedDMChannel(userID string) (string, error) {
	key := "dm_channel:" + userID
	channelID, err := s.Redis.Get(s.Ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return channelID, nil
}

// SaveDMChannel caches a resolved DM channel id so repeated prompts to the
// same reporter do not re-open the channel through the Discord API.
func (s *Service) SaveDMChannel(userID, channelID string) error {
	key := "dm_channel:" + userID
	return s.Redis.Set(s.Ctx, key, channelID, config.DMChannelCacheTTL).Err()
}
