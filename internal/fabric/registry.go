package fabric

import (
	"sync"

	"go.uber.org/zap"

	"chat-gateway/internal/logger"
)

// Registry tracks which local handles belong to which group. Fabric
// implementations use it for the instance-local leg of delivery; the
// cross-instance leg is the broker's job.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[Handle]bool
}

func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[string]map[Handle]bool),
	}
}

func (r *Registry) Register(group string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.groups[group] == nil {
		logger.Debug("[FABRIC] Creating group", zap.String("group", group))
		r.groups[group] = make(map[Handle]bool)
	}
	r.groups[group][h] = true

	logger.Debug("[FABRIC] Handle registered", zap.String("group", group),
		zap.Int("members", len(r.groups[group])))
}

// Unregister removes the handle and shuts it down. Safe to call for handles
// that never joined or were already evicted.
func (r *Registry) Unregister(group string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.groups[group]
	if !ok {
		return
	}
	if _, ok := handles[h]; !ok {
		return
	}
	delete(handles, h)
	h.Shutdown()

	if len(handles) == 0 {
		logger.Debug("[FABRIC] Group empty, removing", zap.String("group", group))
		delete(r.groups, group)
	}
}

// Broadcast delivers payload to every handle in the group. Handles that
// cannot keep up are shut down and evicted.
func (r *Registry) Broadcast(group string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.groups[group]
	if !ok {
		return
	}

	sent := 0
	for h := range handles {
		if h.Enqueue(payload) {
			sent++
			continue
		}
		logger.Warn("[FABRIC] Handle buffer full, evicting", zap.String("group", group))
		h.Shutdown()
		delete(handles, h)
	}

	logger.Debug("[FABRIC] Broadcast complete", zap.String("group", group),
		zap.Int("sent", sent))
}

// Count returns the number of handles joined to the group.
func (r *Registry) Count(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}

// Contains reports whether the handle is currently joined to the group.
func (r *Registry) Contains(group string, h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groups[group][h]
}
