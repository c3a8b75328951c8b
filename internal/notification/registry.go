package notification

import "sync"

// Registry maps each connected user to their current live channel. A user
// has at most one registered channel at any instant.
//
// The registry only tracks registrations. Closing a channel, including one
// that has been superseded, is left to the transport that created it.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]Channel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]Channel)}
}

// Connect registers ch for userID, replacing any earlier channel. It reports
// whether an earlier channel was superseded.
func (r *Registry) Connect(userID int64, ch Channel) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.conns[userID]
	r.conns[userID] = ch
	return ok && prev != ch
}

// Disconnect removes the registration for userID only if it still refers to
// ch. A stale disconnect for a superseded channel leaves the newer one alone.
// It reports whether an entry was removed.
func (r *Registry) Disconnect(userID int64, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.conns[userID]
	if !ok || cur != ch {
		return false
	}
	delete(r.conns, userID)
	return true
}

// ChannelFor returns the live channel for userID, if any.
func (r *Registry) ChannelFor(userID int64) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.conns[userID]
	return ch, ok
}

// Len returns the number of connected users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
