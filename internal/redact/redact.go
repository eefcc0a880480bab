// Package redact scrubs sensitive material from strings before they
// are logged or stored on a task record. Provider SDK errors routinely
// embed request URLs, API keys, and auth headers; a task's error field
// is shown to the user and persisted, so it must never carry any of
// them.
package redact

import "regexp"

// Constants for redaction placeholders
const (
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
)

// Precompiled regex patterns
var (
	// Provider API keys: OpenAI sk-..., Google AIza..., generic hex/base64 keys
	// attached to a key-ish label.
	openaiKeyRegex  = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{10,}`)
	googleKeyRegex  = regexp.MustCompile(`\bAIza[A-Za-z0-9_-]{10,}`)
	labeledKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|authorization|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// Bearer header values and JWTs.
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/]+=*`)
	jwtRegex    = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Connection strings with inline credentials.
	connStringRegex = regexp.MustCompile(`(?i)(postgres|postgresql|redis|mysql)://[^@\s]+@`)

	// key=... query parameters in provider request URLs.
	keyParamRegex = regexp.MustCompile(`(?i)([?&](api[_-]?key|key|token)=)[^&\s]+`)

	patterns = []*regexp.Regexp{
		openaiKeyRegex, googleKeyRegex, bearerRegex, jwtRegex,
		connStringRegex, keyParamRegex, labeledKeyRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		openaiKeyRegex:  RedactedKeyPlaceholder,
		googleKeyRegex:  RedactedKeyPlaceholder,
		bearerRegex:     "Bearer " + RedactedKeyPlaceholder,
		jwtRegex:        "[REDACTED_JWT]",
		connStringRegex: RedactedCredentialPlaceholder,
		keyParamRegex:   "$1" + RedactedKeyPlaceholder,
		labeledKeyRegex: "$1$2" + RedactedKeyPlaceholder,
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		result = pattern.ReplaceAllString(result, patternPlaceholders[pattern])
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
