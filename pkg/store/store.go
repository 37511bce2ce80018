// Package store provides a thread-safe in-process collaborator for holding
// whole Lite³ document blobs keyed by a caller-supplied string id, guarded
// by a single RWMutex over the blob map.
package store

import (
	"fmt"
	"sync"

	"github.com/fastserial/lite3/pkg/lite3"
)

// Pool holds named Lite³ document blobs in memory, safe for concurrent use.
type Pool struct {
	mu    sync.RWMutex // Read-Write mutex for thread-safe blob access
	blobs map[string][]byte
}

// NewPool creates an empty blob pool.
func NewPool() *Pool {
	return &Pool{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under id, overwriting any existing blob with
// that id.
func (p *Pool) Put(id string, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	p.mu.Lock()         // Acquire exclusive lock - only one writer at a time
	defer p.mu.Unlock() // Ensure lock is released after function returns

	p.blobs[id] = cp
}

// Create stores data under id, failing if id is already in use.
func (p *Pool) Create(id string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.blobs[id]; exists {
		return fmt.Errorf("blob %q: %w", id, lite3.ErrAlreadyExists)
	}
	p.blobs[id] = cp
	return nil
}

// Get returns a copy of the blob stored under id.
func (p *Pool) Get(id string) ([]byte, error) {
	p.mu.RLock()         // Acquire read lock - allows multiple concurrent reads
	defer p.mu.RUnlock() // Ensure lock is released after function returns

	data, ok := p.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %q: %w", id, lite3.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Delete removes the blob stored under id, if any.
func (p *Pool) Delete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.blobs, id)
}

// Len reports how many blobs the pool currently holds.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.blobs)
}

// Ids returns the ids of every blob currently in the pool, in no
// particular order.
func (p *Pool) Ids() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.blobs))
	for id := range p.blobs {
		ids = append(ids, id)
	}
	return ids
}

// Stream copies the blob stored under id through write in a single call,
// without handing out the pool's internal copy, for callers that want to
// write straight to an io.Writer-like sink without an intermediate Get.
func (p *Pool) Stream(id string, write func([]byte) error) error {
	p.mu.RLock()
	data, ok := p.blobs[id]
	p.mu.RUnlock()

	if !ok {
		return fmt.Errorf("blob %q: %w", id, lite3.ErrNotFound)
	}
	return write(append([]byte(nil), data...))
}
