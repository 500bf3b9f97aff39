package logprocessing

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/moolen/logsieve/internal/models"
)

// signatureHashLen is the number of hex characters kept from the digest.
const signatureHashLen = 16

// maxTopFrames caps PatternSignature.TopFrames.
const maxTopFrames = 3

// PatternSignature is the normalized shape of a message.
type PatternSignature struct {
	// Hash is derived from Template only, so messages that differ just in
	// masked values share it.
	Hash string `json:"hash" yaml:"hash"`

	// Template is the message with volatile values replaced by placeholders
	// (e.g., "IMAP timeout for <EMAIL>").
	Template string `json:"template" yaml:"template"`

	// Variables are the masked values in substitution order.
	Variables []string `json:"variables" yaml:"variables"`

	Category      models.ErrorCategory `json:"category" yaml:"category"`
	ExceptionName string               `json:"exception_name,omitempty" yaml:"exception_name,omitempty"`
	TopFrames     []string             `json:"top_frames" yaml:"top_frames"`
}

var (
	exceptionNamePattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*Exception)\b`)
	frameInSuffix        = regexp.MustCompile(`\s+in\s+.*$`)
	frameLineSuffix      = regexp.MustCompile(`:\d+(:\d+)?$`)
)

// GenerateSignatureHash creates a stable short hash for a template.
// It is a pure function of the template string.
func GenerateSignatureHash(template string) string {
	hash := sha256.Sum256([]byte(template))
	return hex.EncodeToString(hash[:])[:signatureHashLen]
}

// ExtractSignature masks a message and derives its signature.
func ExtractSignature(message string, category models.ErrorCategory) PatternSignature {
	template, variables := MaskVariables(message)
	return PatternSignature{
		Hash:          GenerateSignatureHash(template),
		Template:      template,
		Variables:     variables,
		Category:      category,
		ExceptionName: extractExceptionName(message),
		TopFrames:     extractTopFrames(message),
	}
}

func extractExceptionName(message string) string {
	if m := exceptionNamePattern.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	return ""
}

// extractTopFrames returns up to three distinct stack frames. A frame is a
// line starting with "at " or the text after an inline " at ".
func extractTopFrames(message string) []string {
	frames := make([]string, 0, maxTopFrames)
	seen := make(map[string]bool)

	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)

		var frame string
		switch {
		case strings.HasPrefix(line, "at "):
			frame = line[len("at "):]
		case strings.Contains(line, " at "):
			frame = line[strings.Index(line, " at ")+len(" at "):]
		default:
			continue
		}

		frame = frameInSuffix.ReplaceAllString(frame, "")
		frame = frameLineSuffix.ReplaceAllString(strings.TrimSpace(frame), "")
		if frame == "" || seen[frame] {
			continue
		}
		seen[frame] = true
		frames = append(frames, frame)
		if len(frames) == maxTopFrames {
			break
		}
	}

	return frames
}

// SignatureCache memoizes ExtractSignature per (message, category).
// Safe for concurrent use.
type SignatureCache struct {
	cache    *lru.Cache[signatureKey, PatternSignature]
	counters cacheCounters
}

type signatureKey struct {
	message  string
	category models.ErrorCategory
}

// NewSignatureCache creates a cache holding up to size signatures.
func NewSignatureCache(size int) *SignatureCache {
	if size < 1 {
		size = 1
	}
	cache, _ := lru.New[signatureKey, PatternSignature](size)
	return &SignatureCache{cache: cache}
}

// Signature returns the cached signature or extracts and stores it.
// Callers receive their own Variables and TopFrames slices.
func (c *SignatureCache) Signature(message string, category models.ErrorCategory) PatternSignature {
	key := signatureKey{message: message, category: category}
	sig, ok := c.cache.Get(key)
	c.counters.record(ok)
	if !ok {
		sig = ExtractSignature(message, category)
		c.cache.Add(key, sig)
	}
	sig.Variables = append([]string(nil), sig.Variables...)
	sig.TopFrames = append([]string(nil), sig.TopFrames...)
	if sig.Variables == nil {
		sig.Variables = []string{}
	}
	if sig.TopFrames == nil {
		sig.TopFrames = []string{}
	}
	return sig
}

// Len reports how many signatures are cached.
func (c *SignatureCache) Len() int {
	return c.cache.Len()
}

// Stats returns hit/miss counters since creation.
func (c *SignatureCache) Stats() CacheStats {
	return c.counters.stats(c.cache.Len())
}
