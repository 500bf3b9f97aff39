package prediction

import (
	"sort"
	"sync"
	"time"

	"github.com/moolen/logsieve/internal/models"
)

// HistoryRecord is one past occurrence of an issue category.
type HistoryRecord struct {
	Timestamp        time.Time       `json:"timestamp" yaml:"timestamp"`
	Severity         models.Severity `json:"severity" yaml:"severity"`
	AccountsAffected int             `json:"accounts_affected" yaml:"accounts_affected"`
}

// HistoryStore is an append-only log of records keyed by issue category.
// It is safe for concurrent use and may be shared across analysis runs.
type HistoryStore struct {
	records map[string][]HistoryRecord
	mu      sync.RWMutex
}

// NewHistoryStore creates an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string][]HistoryRecord)}
}

// NewHistoryStoreFrom creates a store seeded with history.
func NewHistoryStoreFrom(history map[string][]HistoryRecord) *HistoryStore {
	s := NewHistoryStore()
	for category, recs := range history {
		s.Append(category, recs...)
	}
	return s
}

// Append adds records for a category.
func (s *HistoryStore) Append(category string, records ...HistoryRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[category] = append(s.records[category], records...)
}

// AppendNewer adds record only when its timestamp is after every record
// already stored for the category, and reports whether it was added.
// Replaying a batch that was already recorded therefore leaves the store
// unchanged.
func (s *HistoryStore) AppendNewer(category string, record HistoryRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records[category] {
		if !record.Timestamp.After(r.Timestamp) {
			return false
		}
	}
	s.records[category] = append(s.records[category], record)
	return true
}

// Records returns a copy of the records for a category, in append order.
func (s *HistoryStore) Records(category string) []HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]HistoryRecord(nil), s.records[category]...)
}

// Categories returns the sorted categories that have records.
func (s *HistoryStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.records))
	for c := range s.records {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy of the whole store.
func (s *HistoryStore) Snapshot() map[string][]HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]HistoryRecord, len(s.records))
	for c, recs := range s.records {
		out[c] = append([]HistoryRecord(nil), recs...)
	}
	return out
}

// Len returns the total number of records.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}
