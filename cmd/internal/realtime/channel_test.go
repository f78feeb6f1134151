package realtime

import (
	"fmt"
	"sync"
	"testing"
)

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestChannel_JoinBroadcastLeave(t *testing.T) {
	ch := NewChannel(nil)

	a := NewClient("1", "sess-a", 8)
	b := NewClient("2", "sess-b", 8)
	ch.Join(a)
	ch.Join(b)
	if ch.Len() != 2 {
		t.Fatalf("len = %d, want 2", ch.Len())
	}

	ch.Broadcast("hello")
	for _, c := range []*Client{a, b} {
		got := drain(c)
		if len(got) != 1 || got[0] != "hello" {
			t.Fatalf("client %s got %v, want [hello]", c.SessionID, got)
		}
	}

	ch.Leave("sess-a")
	if ch.Len() != 1 {
		t.Fatalf("len after leave = %d, want 1", ch.Len())
	}
	select {
	case <-a.Done():
	default:
		t.Fatalf("leave must close the client")
	}

	// The departed client no longer receives broadcasts.
	ch.Broadcast("again")
	if got := drain(a); len(got) != 0 {
		t.Fatalf("departed client got %v", got)
	}
	if got := drain(b); len(got) != 1 || got[0] != "again" {
		t.Fatalf("remaining client got %v, want [again]", got)
	}
}

func TestChannel_BroadcastDropsOnBackpressure(t *testing.T) {
	ch := NewChannel(nil)

	slow := NewClient("1", "sess-slow", 2)
	ch.Join(slow)

	// Fill the queue and then some; Broadcast must never block.
	for i := 0; i < 10; i++ {
		ch.Broadcast(fmt.Sprintf("msg-%d", i))
	}

	got := drain(slow)
	if len(got) != 2 {
		t.Fatalf("queued %d messages, want 2 (rest dropped)", len(got))
	}
	if got[0] != "msg-0" || got[1] != "msg-1" {
		t.Fatalf("unexpected queue contents: %v", got)
	}
}

func TestChannel_LeaveUnknownSession(t *testing.T) {
	ch := NewChannel(nil)
	ch.Leave("never-joined")
	if ch.Len() != 0 {
		t.Fatalf("len = %d, want 0", ch.Len())
	}
}

func TestClient_TrySendAfterClose(t *testing.T) {
	c := NewClient("1", "sess", 8)
	c.Close()
	c.Close()

	if c.TrySend("late") {
		t.Fatalf("TrySend after Close must report false")
	}
	if got := drain(c); len(got) != 0 {
		t.Fatalf("closed client queued %v", got)
	}
}

func TestChannel_ConcurrentJoinLeaveBroadcast(t *testing.T) {
	ch := NewChannel(nil)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers * 2)

	for i := 0; i < workers; i++ {
		sessionID := fmt.Sprintf("sess-%d", i)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ch.Join(NewClient("c", id, 4))
				ch.Leave(id)
			}
		}(sessionID)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ch.Broadcast("ping")
			}
		}()
	}

	wg.Wait()
	if n := ch.Len(); n != 0 {
		t.Fatalf("len after churn = %d, want 0", n)
	}
}
