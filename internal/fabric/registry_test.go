package fabric

import (
	"sync"
	"testing"
)

// chanHandle is a minimal Handle backed by a buffered channel.
type chanHandle struct {
	ch   chan []byte
	once sync.Once
}

func newChanHandle(buffer int) *chanHandle {
	return &chanHandle{ch: make(chan []byte, buffer)}
}

func (h *chanHandle) Enqueue(payload []byte) bool {
	select {
	case h.ch <- payload:
		return true
	default:
		return false
	}
}

func (h *chanHandle) Shutdown() {
	h.once.Do(func() { close(h.ch) })
}

func TestRegistry_BroadcastReachesAllMembers(t *testing.T) {
	reg := NewRegistry()

	handles := []*chanHandle{newChanHandle(4), newChanHandle(4), newChanHandle(4)}
	for _, h := range handles {
		reg.Register("room-1", h)
	}

	// A member of another group must not receive the broadcast.
	other := newChanHandle(4)
	reg.Register("room-2", other)

	reg.Broadcast("room-1", []byte("hello"))

	for i, h := range handles {
		select {
		case got := <-h.ch:
			if string(got) != "hello" {
				t.Errorf("handle %d received %q", i, got)
			}
		default:
			t.Errorf("handle %d received nothing", i)
		}
	}

	select {
	case got := <-other.ch:
		t.Errorf("other group received %q", got)
	default:
	}
}

func TestRegistry_UnregisterRemovesAndShutsDown(t *testing.T) {
	reg := NewRegistry()
	h := newChanHandle(1)

	reg.Register("room-1", h)
	if !reg.Contains("room-1", h) {
		t.Fatal("handle not registered")
	}

	reg.Unregister("room-1", h)
	if reg.Contains("room-1", h) {
		t.Error("handle still registered after unregister")
	}
	if reg.Count("room-1") != 0 {
		t.Errorf("expected empty group, got %d", reg.Count("room-1"))
	}

	// The handle's outbound path is closed.
	if _, open := <-h.ch; open {
		t.Error("handle channel left open after unregister")
	}

	// Unregister is idempotent, including for handles that never joined.
	reg.Unregister("room-1", h)
	reg.Unregister("room-1", newChanHandle(1))
}

func TestRegistry_EvictsFullHandles(t *testing.T) {
	reg := NewRegistry()

	slow := newChanHandle(1)
	fast := newChanHandle(4)
	reg.Register("room-1", slow)
	reg.Register("room-1", fast)

	// Fill the slow handle's buffer; the next broadcast must evict it.
	reg.Broadcast("room-1", []byte("one"))
	reg.Broadcast("room-1", []byte("two"))

	if reg.Contains("room-1", slow) {
		t.Error("slow handle not evicted")
	}
	if !reg.Contains("room-1", fast) {
		t.Error("fast handle evicted")
	}
	if reg.Count("room-1") != 1 {
		t.Errorf("expected 1 member, got %d", reg.Count("room-1"))
	}
}
