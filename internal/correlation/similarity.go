package correlation

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

const hoursPerDay = 24

// Matrix holds pairwise cosine similarity of hour-of-day profiles.
// Values[i][j] compares Types[i] and Types[j].
type Matrix struct {
	Types  []string    `json:"types" yaml:"types"`
	Values [][]float64 `json:"values" yaml:"values"`
}

// Empty reports whether the matrix has no entries.
func (m Matrix) Empty() bool { return len(m.Types) == 0 }

// Get returns the similarity of two issue types, or 0 if either is absent.
func (m Matrix) Get(a, b string) float64 {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0
	}
	return m.Values[i][j]
}

func (m Matrix) index(t string) int {
	i := sort.SearchStrings(m.Types, t)
	if i < len(m.Types) && m.Types[i] == t {
		return i
	}
	return -1
}

// SimilarityMatrix builds a 24-bucket hour-of-day histogram (UTC, summing
// to 1) per issue type and compares every pair by cosine similarity.
// Fewer than two issue types yields an empty matrix.
func SimilarityMatrix(events []Event) Matrix {
	profiles := make(map[string][]float64)
	for _, e := range events {
		p, ok := profiles[e.IssueType]
		if !ok {
			p = make([]float64, hoursPerDay)
			profiles[e.IssueType] = p
		}
		p[e.Timestamp.UTC().Hour()]++
	}
	if len(profiles) < 2 {
		return Matrix{Types: []string{}, Values: [][]float64{}}
	}

	types := make([]string, 0, len(profiles))
	for t, p := range profiles {
		if sum := floats.Sum(p); sum > 0 {
			floats.Scale(1/sum, p)
		}
		types = append(types, t)
	}
	sort.Strings(types)

	values := make([][]float64, len(types))
	for i := range types {
		values[i] = make([]float64, len(types))
		for j := range types {
			values[i][j] = cosine(profiles[types[i]], profiles[types[j]])
		}
	}
	return Matrix{Types: types, Values: values}
}

func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return clip(floats.Dot(a, b) / (na * nb))
}
