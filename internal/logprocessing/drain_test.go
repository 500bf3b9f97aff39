package logprocessing

import (
	"strings"
	"testing"
)

func TestFamilyMiner_Train(t *testing.T) {
	miner := NewFamilyMiner(DefaultDrainConfig())

	templates := []string{
		"sync of folder inbox failed for <EMAIL>",
		"sync of folder sent failed for <EMAIL>",
		"sync of folder drafts failed for <EMAIL>",
	}

	var last string
	for _, tmpl := range templates {
		last = miner.Train(tmpl)
		if last == "" {
			t.Fatalf("Train(%q) returned empty family", tmpl)
		}
	}

	if !strings.Contains(last, "<*>") {
		t.Errorf("Expected generalized family with wildcard, got %q", last)
	}
}

func TestFamilyMiner_AssignFamilies(t *testing.T) {
	miner := NewFamilyMiner(DefaultDrainConfig())

	patterns := []ErrorPattern{
		{PatternID: "SIG-a", Signature: &PatternSignature{Template: "sync of folder inbox failed for <EMAIL>"}},
		{PatternID: "SIG-b", Signature: &PatternSignature{Template: "sync of folder sent failed for <EMAIL>"}},
		{PatternID: "TEMP-1"},
	}
	miner.AssignFamilies(patterns)

	if patterns[0].Family == "" || patterns[0].Family != patterns[1].Family {
		t.Errorf("Expected shared family, got %q and %q", patterns[0].Family, patterns[1].Family)
	}
	if patterns[2].Family != "" {
		t.Errorf("Temporal pattern should have no family, got %q", patterns[2].Family)
	}
}

func TestFamilyMiner_UnknownTemplate(t *testing.T) {
	miner := NewFamilyMiner(DefaultDrainConfig())
	if got := miner.Family("  Never Trained  "); got != "never trained" {
		t.Errorf("Expected normalized template fallback, got %q", got)
	}
}

func TestExtractPattern(t *testing.T) {
	if got := extractPattern("id={1} : size={3} : connected to <*>"); got != "connected to <*>" {
		t.Errorf("Unexpected pattern %q", got)
	}
	if got := extractPattern("no separator"); got != "no separator" {
		t.Errorf("Unexpected pattern %q", got)
	}
}

func TestDrainConfig_Defaults(t *testing.T) {
	config := DefaultDrainConfig()

	if config.LogClusterDepth != 4 {
		t.Errorf("Expected LogClusterDepth=4, got %d", config.LogClusterDepth)
	}
	if config.SimTh != 0.4 {
		t.Errorf("Expected SimTh=0.4, got %f", config.SimTh)
	}
	if config.ParamString != "<*>" {
		t.Errorf("Expected ParamString='<*>', got %q", config.ParamString)
	}
}
