package storage

import "github.com/redis/go-redis/v9"

const eventChannelPrefix = "room:"

// PublishEvent pushes an already-encoded relay event onto the room's Redis
// channel so other instances can fan it out to their local connections.
func (s *Service) PublishEvent(roomID string, payload []byte) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Publish(s.Ctx, eventChannelPrefix+roomID, payload).Err()
}

// SubscribeEvents subscribes to every room event channel. Returns nil when
// Redis is not configured.
func (s *Service) SubscribeEvents() *redis.PubSub {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.PSubscribe(s.Ctx, eventChannelPrefix+"*")
}
