package hub

import "sync"

// DedupSet is a fixed-capacity set of event identifiers already forwarded
// to one connection's client. When full, the oldest identifier is evicted
// first. Eviction is safe because an event is never republished after its
// initial fan-out.
type DedupSet struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
	next     int
}

func NewDedupSet(capacity int) *DedupSet {
	if capacity <= 0 {
		capacity = 512
	}
	return &DedupSet{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, capacity),
	}
}

// Observe records id and reports whether it was already present.
func (d *DedupSet) Observe(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if evicted := d.order[d.next]; evicted != "" {
		delete(d.seen, evicted)
	}
	d.order[d.next] = id
	d.next = (d.next + 1) % d.capacity
	d.seen[id] = struct{}{}
	return false
}

// Len reports the number of identifiers currently retained.
func (d *DedupSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
