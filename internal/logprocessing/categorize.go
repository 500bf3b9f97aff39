package logprocessing

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/moolen/logsieve/internal/models"
)

// CategoryRule pairs a category with the case-insensitive patterns that
// select it. Rules are evaluated in table order; the first match wins.
type CategoryRule struct {
	Category models.ErrorCategory
	Patterns []*regexp.Regexp
}

// KeywordRule is the fallback used when no regex matched. A keyword matches
// a message word that starts with it ("auth" matches "authentication").
type KeywordRule struct {
	Category models.ErrorCategory
	Keywords []string
}

func rule(category models.ErrorCategory, patterns ...string) CategoryRule {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return CategoryRule{Category: category, Patterns: compiled}
}

// categoryRules is the canonical regex table. Changing its order changes
// tie-breaking between categories.
var categoryRules = []CategoryRule{
	rule(models.CategoryAuthentication,
		`auth(entication|orization)?\s+(failed|failure|error|denied|rejected)`,
		`(login|log\s+in|sign[\s-]?in)\s+(failed|failure|error|rejected)`,
		`invalid\s+(credentials?|password|username|token|api\s*key)`,
		`(token|session|certificate)\s+(has\s+)?(expired|invalid|revoked)`,
		`\bunauthori[sz]ed\b`,
		`\b(oauth2?|saml|kerberos)\b.*\b(fail|error|invalid)`,
	),
	rule(models.CategorySynchronization,
		`\bimap\b`,
		`\bsync(hroni[sz](e|ed|ation|ing))?\b.*\b(fail|error|conflict|abort|timeout)`,
		`(mailbox|folder|calendar|contacts?)\s+(sync|update|refresh)`,
		`conflict(ing)?\s+(change|update|version|revision)s?`,
		`\b(stale|outdated)\s+(data|state|cache|revision)\b`,
		`\breplication\s+(lag|error|failed)\b`,
	),
	rule(models.CategoryNetwork,
		`(connection|socket)\s+(refused|reset|closed|aborted|failed|timed?\s*out)`,
		`\btime[sd]?\s*out\b|\btimeout\b`,
		`\bdns\b|name\s+resolution|could\s+not\s+resolve|no\s+such\s+host`,
		`network\s+(error|unreachable|failure|down)`,
		`\bhost\s+unreachable\b|\bno\s+route\s+to\s+host\b`,
		`\b(ssl|tls)\b.*\b(error|handshake|fail)`,
		`\b(econnrefused|econnreset|etimedout|ehostunreach)\b`,
	),
	rule(models.CategoryDatabase,
		`\b(sql|sqlite|postgres(ql)?|mysql|mongo(db)?|database|db)\b.*\b(error|fail|locked|corrupt|unavailable)`,
		`\bdeadlock\b`,
		`constraint\s+(violation|failed)`,
		`(query|transaction)\s+(failed|error|aborted|rolled\s+back)`,
		`\b(too\s+many\s+connections|connection\s+pool\s+exhausted)\b`,
	),
	rule(models.CategoryPerformance,
		`\b(slow|sluggish|latency|lagging)\b`,
		`took\s+\d+(\.\d+)?\s*(ms|s|sec|seconds)\b`,
		`out\s+of\s+memory|\boom\b|memory\s+(pressure|leak|exhausted)`,
		`\b(cpu|memory|heap)\s+usage\s+(high|exceeded|critical)`,
		`\bhigh\s+(cpu|memory|load)\b`,
		`\b(throttl(ed|ing)|backpressure)\b`,
	),
	rule(models.CategoryUIInteraction,
		`\b(ui|view|window|button|click|render(ing|er)?|widget|dialog|layout)\b.*\b(error|fail|crash|unresponsive|freeze)`,
		`(main|ui)\s+thread\s+(blocked|hang|stalled)`,
		`\bnot\s+responding\b`,
	),
	rule(models.CategoryFileSystem,
		`(file|directory|folder)\s+not\s+found`,
		`no\s+such\s+file`,
		`permission\s+denied`,
		`(disk|volume|device)\s+(is\s+)?(full|out\s+of\s+space)|no\s+space\s+left`,
		`\b(enoent|eacces|enospc|erofs)\b`,
		`\b(read|write)\s+(error|failed)\b|read-only\s+file\s*system`,
	),
}

// keywordRules is the fallback table, in the same category order.
var keywordRules = []KeywordRule{
	{models.CategoryAuthentication, []string{"auth", "login", "password", "credential", "token", "unauthori", "forbidden"}},
	{models.CategorySynchronization, []string{"sync", "imap", "conflict", "replica", "mailbox"}},
	{models.CategoryNetwork, []string{"network", "connection", "socket", "dns", "http", "offline", "unreachable"}},
	{models.CategoryDatabase, []string{"database", "sql", "query", "transaction", "db"}},
	{models.CategoryPerformance, []string{"slow", "latency", "memory", "cpu", "performance"}},
	{models.CategoryUIInteraction, []string{"ui", "click", "render", "view", "button", "window"}},
	{models.CategoryFileSystem, []string{"file", "disk", "directory", "path", "storage", "folder"}},
}

// CategorizeMessage applies the regex table, then the keyword fallback,
// then UNKNOWN. It is pure and total.
func CategorizeMessage(message string) models.ErrorCategory {
	for _, r := range categoryRules {
		for _, p := range r.Patterns {
			if p.MatchString(message) {
				return r.Category
			}
		}
	}

	words := wordPattern.FindAllString(strings.ToLower(message), -1)
	for _, r := range keywordRules {
		for _, kw := range r.Keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return r.Category
				}
			}
		}
	}

	return models.CategoryUnknown
}

// Categorizer memoizes CategorizeMessage in a bounded LRU. It is safe for
// concurrent use, so shards can share one instance.
type Categorizer struct {
	cache    *lru.Cache[string, models.ErrorCategory]
	counters cacheCounters
}

// NewCategorizer creates a categorizer whose cache holds up to size messages.
func NewCategorizer(size int) *Categorizer {
	if size < 1 {
		size = 1
	}
	cache, _ := lru.New[string, models.ErrorCategory](size)
	return &Categorizer{cache: cache}
}

// Categorize returns the category of an entry's message.
func (c *Categorizer) Categorize(entry *models.LogEntry) models.ErrorCategory {
	if category, ok := c.cache.Get(entry.Message); ok {
		c.counters.record(true)
		return category
	}
	c.counters.record(false)
	category := CategorizeMessage(entry.Message)
	c.cache.Add(entry.Message, category)
	return category
}

// CategorizeAll annotates every entry with its category and input index.
// offset is added to the index so shards keep global positions.
func (c *Categorizer) CategorizeAll(entries []models.LogEntry, offset int) []models.CategorizedEntry {
	out := make([]models.CategorizedEntry, len(entries))
	for i := range entries {
		out[i] = models.CategorizedEntry{
			Index:    offset + i,
			Entry:    entries[i],
			Category: c.Categorize(&entries[i]),
		}
	}
	return out
}

// Len reports how many messages are cached.
func (c *Categorizer) Len() int {
	return c.cache.Len()
}

// Stats returns hit/miss counters since creation.
func (c *Categorizer) Stats() CacheStats {
	return c.counters.stats(c.cache.Len())
}
