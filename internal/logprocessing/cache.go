package logprocessing

import "sync/atomic"

// CacheStats reports memo cache effectiveness.
type CacheStats struct {
	Hits   uint64 `json:"hits" yaml:"hits"`
	Misses uint64 `json:"misses" yaml:"misses"`
	Size   int    `json:"size" yaml:"size"`
}

// HitRatio returns hits/(hits+misses), or 0 before the first lookup.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type cacheCounters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *cacheCounters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *cacheCounters) stats(size int) CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: size}
}
