package redis

import (
	"fmt"

	"github.com/mcoot/duoplay/internal/model"
)

// Key prefix for all read model data
const keyPrefix = "duoplay"

// presenceKey returns the Redis key for a PresenceRecord
func presenceKey(userID model.UserID) string {
	return fmt.Sprintf("%s:presence:%s", keyPrefix, userID)
}

// roomKey returns the Redis key for a RoomSummary
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// roomIndexKey returns the Redis key for the SET of live room codes
func roomIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}
