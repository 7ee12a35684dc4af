package event

import (
	"fmt"
	"unicode/utf16"
)

// RoutingKeyPrefix is the literal every room routing key starts with; the
// full key is "<prefix>.<appPid>.<shard>" so all traffic for one room
// namespace funnels through one delivery queue.
const RoutingKeyPrefix = "ds.rooms"

// ComputeShard assigns roomID to a shard in [0, shardCount) using a 31-base
// rolling hash over the id's UTF-16 code units, wrapping on int32 overflow.
// The double-mod keeps the result non-negative when the hash wraps negative.
// The algorithm is fixed: existing queue bindings depend on the assignment
// surviving process restarts.
func ComputeShard(roomID string, shardCount int) int {
	var h int32
	for _, cu := range utf16.Encode([]rune(roomID)) {
		h = h*31 + int32(cu)
	}

	n := int32(shardCount)
	return int((h%n + n) % n)
}

// ShardedRoutingKey builds the routing key for one room namespace.
func ShardedRoutingKey(appPid, roomID string, shardCount int) string {
	return fmt.Sprintf("%s.%s.%d", RoutingKeyPrefix, appPid, ComputeShard(roomID, shardCount))
}
