// Package realtime implements the broadcast chat channel: one process-wide
// room fanning plain-text messages out to every connected websocket client.
//
// Delivery is best-effort. Broadcast never blocks; a member whose send queue
// is full misses the message rather than stalling the room.
package realtime
