package config

import "time"

// LLMTimeouts bounds text-generation calls made by the translator.
// The zero value imposes nothing: one attempt, no local deadline.
//
// The shortest timeout in the chain wins: a per-call timeout longer than the
// incoming request's deadline has no effect.
type LLMTimeouts struct {
	// PerCallTimeout is the deadline for a single attempt. Zero means none.
	PerCallTimeout time.Duration

	// MaxRetries is the number of extra attempts after a transient failure
	// (rate limiting or a server-side error). Zero disables retries.
	MaxRetries int

	// RetryBackoffBase is the wait before the first retry; it doubles per attempt.
	RetryBackoffBase time.Duration

	// RetryBackoffMax caps the backoff.
	RetryBackoffMax time.Duration
}

// DefaultLLMTimeouts returns the timeouts used when none are configured:
// a single attempt with no local deadline. The backoff only matters once
// retries are enabled explicitly.
func DefaultLLMTimeouts() LLMTimeouts {
	return LLMTimeouts{
		RetryBackoffBase: 500 * time.Millisecond,
		RetryBackoffMax:  4 * time.Second,
	}
}

// Backoff returns the wait before retry number attempt (1-based).
func (t LLMTimeouts) Backoff(attempt int) time.Duration {
	if attempt < 1 || t.RetryBackoffBase <= 0 {
		return 0
	}
	d := t.RetryBackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if t.RetryBackoffMax > 0 && d >= t.RetryBackoffMax {
			return t.RetryBackoffMax
		}
	}
	if t.RetryBackoffMax > 0 && d > t.RetryBackoffMax {
		return t.RetryBackoffMax
	}
	return d
}

// GetLLMTimeouts resolves the configured timeouts. An empty, zero, negative
// or unparsable llm.timeout leaves calls without a local deadline.
func (c *Config) GetLLMTimeouts() LLMTimeouts {
	t := DefaultLLMTimeouts()
	if d, err := time.ParseDuration(c.LLM.Timeout); err == nil && d > 0 {
		t.PerCallTimeout = d
	}
	if c.LLM.MaxRetries != nil && *c.LLM.MaxRetries >= 0 {
		t.MaxRetries = *c.LLM.MaxRetries
	}
	return t
}
