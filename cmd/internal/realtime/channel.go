package realtime

import (
	"log/slog"
	"sync"
)

// Channel is the process-wide membership + broadcast fanout primitive.
//
// Concurrency guarantees:
// - Join/Leave are safe under concurrent Broadcast.
// - Broadcast never blocks (drops under backpressure).
// - Broadcast is panic-safe because Client.Send is never closed by the server.
type Channel struct {
	log *slog.Logger

	mu      sync.RWMutex
	members map[string]*Client
}

// NewChannel constructs the broadcast channel.
func NewChannel(log *slog.Logger) *Channel {
	if log == nil {
		log = slog.Default()
	}
	return &Channel{
		log:     log,
		members: make(map[string]*Client),
	}
}

// Join adds a client to membership.
func (c *Channel) Join(client *Client) {
	if c == nil || client == nil || client.SessionID == "" {
		return
	}

	c.mu.Lock()
	c.members[client.SessionID] = client
	c.mu.Unlock()

	c.log.Info("ws.channel.join", "session_id", client.SessionID, "client_id", client.ClientID)
}

// Leave removes a client from membership and signals shutdown for that client.
func (c *Channel) Leave(sessionID string) {
	if c == nil || sessionID == "" {
		return
	}

	var cl *Client

	c.mu.Lock()
	cl = c.members[sessionID]
	delete(c.members, sessionID)
	c.mu.Unlock()

	// Signal client shutdown after removing from membership.
	// This ordering avoids race windows where a broadcaster still holds a
	// pointer while the client goroutines are being torn down.
	if cl != nil {
		cl.Close()
	}

	c.log.Info("ws.channel.leave", "session_id", sessionID)
}

// Len reports current membership size.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Broadcast fanouts a message to all members.
// Non-blocking: if a member queue is full or the client is shutting down,
// that member is skipped.
func (c *Channel) Broadcast(msg string) {
	if c == nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.members {
		if m == nil {
			continue
		}
		if !m.TrySend(msg) {
			// Drop rather than block the whole channel.
			continue
		}
	}
}
