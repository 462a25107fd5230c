package server

import (
	"sort"
	"sync"
)

// Registry is the set of seated connections. The accept loop adds to it while the table
// actor iterates it for broadcasts, so every access goes through the mutex.
type Registry struct {
	mu    sync.Mutex
	peers map[int]*Peer
}

func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[int]*Peer),
	}
}

func (r *Registry) Add(p *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p.Seat] = p
}

func (r *Registry) Get(seat int) (*Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[seat]
	return p, ok
}

func (r *Registry) Remove(seat int) (*Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[seat]
	if ok {
		delete(r.peers, seat)
	}
	return p, ok
}

// Snapshot returns the current peers in seat order.
func (r *Registry) Snapshot() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// RemoteCount counts peers other than the host's own seat.
func (r *Registry) RemoteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.peers {
		if !p.Local {
			n++
		}
	}
	return n
}
