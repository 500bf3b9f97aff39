package logprocessing

import (
	"strings"

	"github.com/faceair/drain"
)

// DrainConfig holds configuration for the Drain family miner.
type DrainConfig struct {
	// LogClusterDepth controls the depth of the parse tree (minimum 3).
	LogClusterDepth int

	// SimTh is the token similarity needed to join an existing family.
	// Higher values produce more, tighter families.
	SimTh float64

	// MaxChildren limits branches per node.
	MaxChildren int

	// MaxClusters limits the number of families (0 = unlimited).
	MaxClusters int

	// ExtraDelimiters are additional token separators beyond whitespace.
	ExtraDelimiters []string

	// ParamString is the wildcard placeholder used in family templates.
	ParamString string
}

// DefaultDrainConfig returns the miner configuration used by the engine.
// Signature templates are already masked, so the tree can stay shallow.
func DefaultDrainConfig() DrainConfig {
	return DrainConfig{
		LogClusterDepth: 4,
		SimTh:           0.4,
		MaxChildren:     100,
		MaxClusters:     0,
		ExtraDelimiters: []string{"_", "="},
		ParamString:     "<*>",
	}
}

// FamilyMiner groups signature templates into coarse Drain families.
// It is not safe for concurrent use; build one per analysis run.
type FamilyMiner struct {
	drain *drain.Drain
}

// NewFamilyMiner creates a miner with the given configuration.
func NewFamilyMiner(config DrainConfig) *FamilyMiner {
	return &FamilyMiner{
		drain: drain.New(&drain.Config{
			LogClusterDepth: config.LogClusterDepth,
			SimTh:           config.SimTh,
			MaxChildren:     config.MaxChildren,
			MaxClusters:     config.MaxClusters,
			ExtraDelimiters: config.ExtraDelimiters,
			ParamString:     config.ParamString,
		}),
	}
}

// Train feeds a template and returns the family template it joined.
func (fm *FamilyMiner) Train(template string) string {
	cluster := fm.drain.Train(preProcess(template))
	if cluster == nil {
		return preProcess(template)
	}
	return extractPattern(cluster.String())
}

// Family returns the current family template for a trained template, or
// the template itself when no family matches.
func (fm *FamilyMiner) Family(template string) string {
	cluster := fm.drain.Match(preProcess(template))
	if cluster == nil {
		return preProcess(template)
	}
	return extractPattern(cluster.String())
}

// AssignFamilies trains the miner on every signature pattern, then sets
// Family from the final state of the tree so early patterns see the
// generalized template. Patterns without a signature are skipped.
func (fm *FamilyMiner) AssignFamilies(patterns []ErrorPattern) {
	for i := range patterns {
		if patterns[i].Signature != nil {
			fm.Train(patterns[i].Signature.Template)
		}
	}
	for i := range patterns {
		if patterns[i].Signature != nil {
			patterns[i].Family = fm.Family(patterns[i].Signature.Template)
		}
	}
}

// preProcess lowercases and trims a template for case-insensitive mining.
func preProcess(template string) string {
	return strings.TrimSpace(strings.ToLower(template))
}

// extractPattern extracts the template from Drain cluster string output.
// Drain cluster.String() format: "id={X} : size={Y} : [pattern]"
func extractPattern(clusterStr string) string {
	lastSep := strings.LastIndex(clusterStr, " : ")
	if lastSep == -1 {
		return clusterStr
	}
	return strings.TrimSpace(clusterStr[lastSep+3:])
}
