package generation

import "errors"

// Common errors returned by generation providers
var (
	// ErrGenerationFailed is returned when article generation fails for
	// any general reason.
	ErrGenerationFailed = errors.New("failed to generate article")

	// ErrAuth is returned when the provider rejects the configured
	// credentials (HTTP 401).
	ErrAuth = errors.New("llm authentication failed")

	// ErrQuota is returned when the provider reports an exhausted quota
	// or rate limit (HTTP 403/429).
	ErrQuota = errors.New("llm quota exceeded")

	// ErrTransient is returned for temporary errors that might resolve
	// on retry, such as network failures.
	ErrTransient = errors.New("transient error during article generation")

	// ErrInvalidResponse is returned when the provider response cannot
	// be parsed or contains no content.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrInvalidConfig is returned when the generator configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
