// Package redact provides utilities for redacting sensitive information from strings
// before they are logged. This package helps prevent the accidental leakage of
// credentials, connection strings, tokens, duplicate key values, and other
// sensitive data that database drivers include in error messages.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedValuePlaceholder      = "[REDACTED_VALUE]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order. Connection strings go before emails and paths so the
// user info of a URL is not mistaken for an address.
var rules = []rule{
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mongodb(?:\+srv)?|rediss?)://[^@\s/]+@`),
		"${1}://" + RedactedCredentialPlaceholder + "@",
	},
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		"[REDACTED_JWT]",
	},
	{
		regexp.MustCompile(`\$2[aby]?\$\d{2}\$[./A-Za-z0-9]{53}`),
		"[REDACTED_HASH]",
	},
	{
		regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\s*[=:]\s*['"]?[^'"&\s,}]{3,}['"]?`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(?:api[_-]?key|token|secret)\s*[=:]\s*['"]?[A-Za-z0-9_\-.~+/]{8,}['"]?`),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`\b[a-f0-9]{64}\b`),
		"[REDACTED_TOKEN]",
	},
	{
		// MongoDB: E11000 duplicate key error ... dup key: { email: "x" }
		regexp.MustCompile(`dup key: \{[^}]*\}`),
		"dup key: " + RedactedValuePlaceholder,
	},
	{
		// PostgreSQL: Key (lower(doc ->> 'email'::text))=(x) already exists.
		regexp.MustCompile(`Key \((.*)\)=\([^)]*\)`),
		"Key (${1})=(" + RedactedValuePlaceholder + ")",
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		"[REDACTED_EMAIL]",
	},
	{
		regexp.MustCompile(`\b(SELECT|INSERT INTO|UPDATE|DELETE FROM)\s.*`),
		"${1} [REDACTED_SQL]",
	},
	{
		regexp.MustCompile(`(/[\w.-]+){2,}`),
		RedactedPathPlaceholder,
	},
	{
		regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`),
		RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
