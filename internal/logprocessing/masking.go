package logprocessing

import (
	"regexp"
	"strings"
)

// Placeholders substituted into templates.
const (
	PlaceholderHex       = "<HEX>"
	PlaceholderNum       = "<NUM>"
	PlaceholderEmail     = "<EMAIL>"
	PlaceholderIP        = "<IP>"
	PlaceholderPath      = "<PATH>"
	PlaceholderException = "<EXCEPTION>"
	PlaceholderString    = "<STRING>"
)

// maskRule replaces every match of pattern with placeholder. keep, when set,
// vetoes individual matches, which are then left untouched.
type maskRule struct {
	name        string
	pattern     *regexp.Regexp
	placeholder string
	keep        func(match string) bool
}

// Regex patterns compiled once at package initialization
var (
	// hex tokens of 8+ digits, optionally 0x-prefixed
	hexPattern = regexp.MustCompile(`\b(?:0[xX])?[0-9a-fA-F]{8,}\b`)

	// decimal runs of 4+ digits
	longNumberPattern = regexp.MustCompile(`\b\d{4,}\b`)

	emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)

	ipv4Pattern = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

	// any whitespace-free token holding two or more path separators
	pathPattern = regexp.MustCompile(`[^\s"'<>]*[/\\][^\s"'<>]*[/\\][^\s"'<>]*`)

	exceptionPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*Exception\b`)

	// quoted strings must open at the start or after a separator so
	// contractions ("can't") are not mistaken for quotes
	quotedPattern = regexp.MustCompile(`(?:^|[\s=:(\[{,])(?:"[^"]*"|'[^']*')`)
)

// maskRules is the fixed substitution order. Variables are recorded rule by
// rule, in match order within each rule.
var maskRules = []maskRule{
	{name: "hex", pattern: hexPattern, placeholder: PlaceholderHex, keep: isDecimal},
	{name: "number", pattern: longNumberPattern, placeholder: PlaceholderNum},
	{name: "email", pattern: emailPattern, placeholder: PlaceholderEmail},
	{name: "ipv4", pattern: ipv4Pattern, placeholder: PlaceholderIP},
	{name: "path", pattern: pathPattern, placeholder: PlaceholderPath},
	{name: "exception", pattern: exceptionPattern, placeholder: PlaceholderException},
	{name: "string", pattern: quotedPattern, placeholder: PlaceholderString},
}

// MaskVariables replaces volatile substrings with typed placeholders and
// returns the template together with the removed values.
func MaskVariables(message string) (template string, variables []string) {
	template = message
	variables = make([]string, 0)

	for _, r := range maskRules {
		template = r.pattern.ReplaceAllStringFunc(template, func(match string) string {
			if r.keep != nil && r.keep(match) {
				return match
			}
			if r.placeholder == PlaceholderString {
				lead, quoted := splitQuoteLead(match)
				variables = append(variables, quoted)
				return lead + r.placeholder
			}
			variables = append(variables, match)
			return r.placeholder
		})
	}

	return template, variables
}

// splitQuoteLead separates the separator consumed in front of a quote.
func splitQuoteLead(match string) (lead, quoted string) {
	if match == "" {
		return "", ""
	}
	if match[0] == '"' || match[0] == '\'' {
		return "", match
	}
	return match[:1], match[1:]
}

// isDecimal vetoes hex matches made only of decimal digits; those are left
// for the number rule.
func isDecimal(s string) bool {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
