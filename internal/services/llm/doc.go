// Package llm provides a chat-completions client used by the translation
// validation layer.
//
// The client speaks the OpenAI-compatible /v1/chat/completions schema exposed
// by Ollama, llama.cpp server, and OpenRouter. Requests carry a system prompt,
// a user prompt, and the sampling knobs (temperature, top_p, max_tokens); the
// reply is returned as trimmed plain text.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Complete: send one prompt pair and return the model's text.
// Client.HealthCheck: verify that the endpoint answers for a given model.
//
// # Retry Behaviour
//
// HTTP 408/429/5xx responses, network timeouts, and empty completions are
// retried with exponential backoff (base 500ms, max 5s, 3 attempts by
// default). Context cancellation aborts retries immediately.
//
// An API key is optional: local servers usually accept unauthenticated
// requests, so the Authorization header is only sent when a key is set.
package llm
