// Package bloom provides a Bloom filter over artwork IDs used to answer
// negative ledger lookups without touching the database.
package bloom

import (
	"strconv"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Default sizing for a ledger filter.
const (
	DefaultCapacity = 100000
	DefaultFPRate   = 0.001
)

// Filter wraps a Bloom filter for artwork ID membership tests.
// It is safe for concurrent use.
type Filter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds an artwork ID to the filter.
func (f *Filter) Add(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.Add(key(id))
}

// Test returns true if the ID might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(id int64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.f.Test(key(id))
}

// EstimatedCount returns the approximate number of items in the filter.
func (f *Filter) EstimatedCount() uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint(f.f.ApproximatedSize())
}

func key(id int64) []byte {
	return strconv.AppendInt(nil, id, 10)
}
