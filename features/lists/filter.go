package lists

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rs/zerolog/log"
)

const minFilterCapacity = 1000

// Filter answers "is this id in none of the lists" without walking them.
// False positives only cost a full lookup.
type Filter struct {
	bf *bloom.BloomFilter
	mu sync.RWMutex
}

// NewFilter builds a filter holding every id of all.
func NewFilter(all map[string]List) *Filter {
	n := 0
	for _, l := range all {
		n += len(l)
	}
	capacity := max(n*2, minFilterCapacity)

	f := &Filter{bf: bloom.NewWithEstimates(uint(capacity), 0.01)}
	for _, l := range all {
		for id := range l {
			f.bf.AddString(id)
		}
	}

	log.Debug().
		Int("ids", n).
		Uint("bloom_capacity", f.bf.Cap()).
		Uint("hash_functions", f.bf.K()).
		Msg("Created list filter")

	return f
}

func (f *Filter) Add(id string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.bf.AddString(id)
	f.mu.Unlock()
}

// MayContain is true for a nil filter.
func (f *Filter) MayContain(id string) bool {
	if f == nil {
		return true
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(id)
}
