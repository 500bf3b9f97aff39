package analysis

import (
	"github.com/google/uuid"
	"github.com/moolen/logsieve/internal/logprocessing"
	"github.com/moolen/logsieve/internal/models"
)

// Session holds the working state of one analysis run. A session may be
// reused for another run after Reset.
type Session struct {
	ID uuid.UUID

	entries []models.CategorizedEntry

	// hashes[i] is the signature hash of entries[i], empty for entries below
	// the severity floor.
	hashes   []string
	clusters *logprocessing.ClusterMap
}

// NewSession creates an empty session with a fresh ID.
func NewSession() *Session {
	return &Session{
		ID:       uuid.New(),
		clusters: logprocessing.NewClusterMap(),
	}
}

// Reset drops all working state and assigns a new ID. The zero Session is
// ready for use after Reset.
func (s *Session) Reset() {
	s.ID = uuid.New()
	s.entries = nil
	s.hashes = nil
	if s.clusters == nil {
		s.clusters = logprocessing.NewClusterMap()
		return
	}
	s.clusters.Reset()
}

// Entries returns the categorized entries of the last run.
func (s *Session) Entries() []models.CategorizedEntry {
	return s.entries
}

// Clusters returns the number of distinct signatures seen in the last run,
// before the min_occurrences filter.
func (s *Session) Clusters() int {
	if s.clusters == nil {
		return 0
	}
	return s.clusters.Len()
}

// membersByCategory groups the eligible entries whose signature belongs to
// one of the given patterns by issue type.
func (s *Session) membersByCategory(patterns []logprocessing.ErrorPattern) map[string][]models.CategorizedEntry {
	reported := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		if p.Signature != nil {
			reported[p.Signature.Hash] = struct{}{}
		}
	}

	members := make(map[string][]models.CategorizedEntry)
	for i, h := range s.hashes {
		if h == "" {
			continue
		}
		if _, ok := reported[h]; !ok {
			continue
		}
		e := s.entries[i]
		issue := e.Category.IssueType()
		members[issue] = append(members[issue], e)
	}
	return members
}
