package meshsync

import (
	"sync"

	"meshbbs/internal/models"
)

// Registry is the in-memory table of known sync peers. Insert order is
// preserved so sweeps visit peers in registration order. Last write wins on
// the node-id key; there is no persistence, a restart relies on rediscovery.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*models.Peer
	order []string
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]*models.Peer)}
}

// Add inserts or replaces a peer by node id.
func (r *Registry) Add(p *models.Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[p.NodeID]; !exists {
		r.order = append(r.order, p.NodeID)
	}
	r.peers[p.NodeID] = p
}

// Remove deletes a peer. Unknown ids are a no-op.
func (r *Registry) Remove(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[nodeID]; !exists {
		return
	}
	delete(r.peers, nodeID)
	for i, id := range r.order {
		if id == nodeID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the peer for nodeID, or nil.
func (r *Registry) Get(nodeID string) *models.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peers[nodeID]
}

// All returns the peers in registration order.
func (r *Registry) All() []*models.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Peer, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.peers[id])
	}
	return result
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
