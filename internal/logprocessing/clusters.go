package logprocessing

import (
	"sort"
	"sync"

	"github.com/moolen/logsieve/internal/models"
)

// signatureGroup holds every eligible entry sharing one signature hash.
type signatureGroup struct {
	// signature is taken from the member with the lowest input index so the
	// result does not depend on shard order.
	signature PatternSignature
	firstIdx  int

	members []models.CategorizedEntry
}

// ClusterMap groups categorized entries by signature hash.
//
// Maps built over disjoint shards of the input are combined with Merge,
// which is commutative and associative. The min_occurrences filter is only
// applied afterwards, by BuildPatterns.
type ClusterMap struct {
	groups map[string]*signatureGroup
	mu     sync.Mutex
}

// NewClusterMap creates an empty cluster map.
func NewClusterMap() *ClusterMap {
	return &ClusterMap{groups: make(map[string]*signatureGroup)}
}

// Add records an entry under its signature. Entries below WARNING are
// ignored; Add reports whether the entry was kept.
func (m *ClusterMap) Add(entry models.CategorizedEntry, sig PatternSignature) bool {
	if !entry.Eligible() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	g, exists := m.groups[sig.Hash]
	if !exists {
		g = &signatureGroup{
			signature: sig,
			firstIdx:  entry.Index,
		}
		m.groups[sig.Hash] = g
	} else if entry.Index < g.firstIdx {
		g.signature = sig
		g.firstIdx = entry.Index
	}
	g.members = append(g.members, entry)
	return true
}

// Merge folds other into m. other must not be used afterwards.
func (m *ClusterMap) Merge(other *ClusterMap) {
	if other == nil || other == m {
		return
	}

	other.mu.Lock()
	defer other.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	for hash, og := range other.groups {
		g, exists := m.groups[hash]
		if !exists {
			m.groups[hash] = og
			continue
		}
		if og.firstIdx < g.firstIdx {
			g.signature = og.signature
			g.firstIdx = og.firstIdx
		}
		g.members = append(g.members, og.members...)
	}
	other.groups = nil
}

// Len returns the number of distinct signatures.
func (m *ClusterMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.groups)
}

// Reset drops every group.
func (m *ClusterMap) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = make(map[string]*signatureGroup)
}

// snapshot returns the groups with members in input order, sorted by hash.
func (m *ClusterMap) snapshot() []*signatureGroup {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := make([]*signatureGroup, 0, len(m.groups))
	for _, g := range m.groups {
		sort.SliceStable(g.members, func(i, j int) bool {
			return g.members[i].Index < g.members[j].Index
		})
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].signature.Hash < groups[j].signature.Hash
	})
	return groups
}
