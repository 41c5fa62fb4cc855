package snapshot

import (
	"context"
	"time"
)

// Store abstracts the room snapshot key-value storage. Implementations can be
// swapped for testing (in-memory) or different backends. Every call is an
// independent best-effort operation; callers log failures and move on.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns (nil, nil) when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close()
}

const roomKeyPrefix = "hanamikoji:room:"

// RoomKey returns the namespaced storage key for a room id.
func RoomKey(roomID string) string {
	return roomKeyPrefix + roomID
}

// Ensure *RedisStore implements Store at compile time.
var _ Store = (*RedisStore)(nil)
