package logprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TemplateSimilarity("disk full", "disk full"))
	assert.Equal(t, 0.0, TemplateSimilarity("", "disk full"))
	assert.Equal(t, 0.0, TemplateSimilarity("abc", "xyz-long-string"))
	assert.InDelta(t, 0.9, TemplateSimilarity("connected to <IP>", "connected to <IP>."), 0.1)
}

func TestLinkRelated(t *testing.T) {
	patterns := []ErrorPattern{
		{PatternID: "SIG-1", Signature: &PatternSignature{Template: "IMAP timeout for <EMAIL>"}},
		{PatternID: "SIG-2", Signature: &PatternSignature{Template: "IMAP timeouts for <EMAIL>"}},
		{PatternID: "SIG-3", Signature: &PatternSignature{Template: "permission denied on <PATH>"}},
		{PatternID: "TEMP-1"},
	}

	LinkRelated(patterns, 0.7)

	assert.Equal(t, []string{"SIG-2"}, patterns[0].RelatedPatterns)
	assert.Equal(t, []string{"SIG-1"}, patterns[1].RelatedPatterns)
	assert.Empty(t, patterns[2].RelatedPatterns)
	assert.Empty(t, patterns[3].RelatedPatterns)

	// relinking does not accumulate duplicates
	LinkRelated(patterns, 0.7)
	assert.Equal(t, []string{"SIG-2"}, patterns[0].RelatedPatterns)
}
