// Package openai implements the generation.Generator interface against
// the OpenAI chat-completions API (or any OpenAI-compatible endpoint
// via a base URL override). Long conversations are composed through a
// chunked summarize-then-write pass bounded by a token budget.
package openai
