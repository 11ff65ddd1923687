package redis

import (
	"fmt"

	"github.com/mcoot/tictacmatch-go/internal/model"
)

// Key prefix for all matchmaking data
const keyPrefix = "ttmatch"

// playerKey returns the Redis key for a Player
func playerKey(id model.ConnID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionIndexKey returns the Redis key for the SET of all session ids
func sessionIndexKey() string {
	return fmt.Sprintf("%s:idx:sessions", keyPrefix)
}

// queueKey returns the Redis key for the matchmaking queue LIST
func queueKey() string {
	return fmt.Sprintf("%s:queue", keyPrefix)
}
