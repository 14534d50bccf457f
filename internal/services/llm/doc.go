// Package llm provides a chat-completions client used as the semantic oracle
// for image matching.
//
// The client speaks the OpenAI-compatible chat schema, so it works against a
// local Ollama server (the default, no API key) as well as OpenRouter or any
// other hosted gateway (API key sent as a bearer token when configured).
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive the JSON payload.
// Client.HealthCheck: verify the endpoint and model answer.
// DecodeLLMJSON: decode a payload, tolerating code fences and prose wrappers.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, empty content, and network
// timeouts with exponential backoff. Context cancellation aborts retries
// immediately. Callers are expected to treat any returned error as "oracle
// unavailable" and fall back to their own scoring.
package llm
