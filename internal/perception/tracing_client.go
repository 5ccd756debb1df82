package perception

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"nlsql/internal/config"
	"nlsql/internal/logging"
)

// Trace captures one text-generation interaction, retries included.
type Trace struct {
	ID           string    `json:"id"`
	Model        string    `json:"model,omitempty"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	Attempts     int       `json:"attempts"`
	DurationMs   int64     `json:"duration_ms"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// TraceSink receives finished traces. Implementations must be safe for
// concurrent use and must not block.
type TraceSink interface {
	RecordTrace(trace *Trace)
}

// TraceRing keeps the most recent traces in memory.
type TraceRing struct {
	mu     sync.Mutex
	traces []Trace
	next   int
	full   bool
}

// NewTraceRing creates a ring holding up to size traces.
func NewTraceRing(size int) *TraceRing {
	if size <= 0 {
		size = 64
	}
	return &TraceRing{traces: make([]Trace, size)}
}

// RecordTrace implements TraceSink.
func (r *TraceRing) RecordTrace(trace *Trace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces[r.next] = *trace
	r.next = (r.next + 1) % len(r.traces)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the stored traces, oldest first.
func (r *TraceRing) Recent() []Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Trace(nil), r.traces[:r.next]...)
	}
	out := make([]Trace, 0, len(r.traces))
	out = append(out, r.traces[r.next:]...)
	return append(out, r.traces[:r.next]...)
}

// TracingLLMClient wraps any LLMClient with trace capture. With the default
// timeouts it makes exactly one call and adds no deadline; a per-attempt
// deadline and retries on transient failures apply only when configured.
type TracingLLMClient struct {
	underlying LLMClient
	sink       TraceSink
	timeouts   config.LLMTimeouts

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTracingLLMClient creates a tracing wrapper around an existing client.
// sink may be nil.
func NewTracingLLMClient(underlying LLMClient, sink TraceSink, timeouts config.LLMTimeouts) *TracingLLMClient {
	return &TracingLLMClient{
		underlying: underlying,
		sink:       sink,
		timeouts:   timeouts,
		sleep:      sleepContext,
	}
}

type modelGetter interface {
	Model() string
}

// Complete implements LLMClient.
func (tc *TracingLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	trace := &Trace{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Timestamp: time.Now(),
	}
	if mg, ok := tc.underlying.(modelGetter); ok {
		trace.Model = mg.Model()
	}

	start := time.Now()
	logging.APIDebug("LLM call started: trace=%s prompt_len=%d", trace.ID, len(prompt))

	var response string
	var err error
	for attempt := 0; attempt <= tc.timeouts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := tc.timeouts.Backoff(attempt)
			logging.API("LLM call retry %d/%d in %v: %v", attempt, tc.timeouts.MaxRetries, wait, err)
			if sleepErr := tc.sleep(ctx, wait); sleepErr != nil {
				break
			}
		}
		trace.Attempts++

		response, err = tc.attempt(ctx, prompt)
		if err == nil || ctx.Err() != nil || !IsTransient(err) {
			break
		}
	}

	duration := time.Since(start)
	trace.DurationMs = duration.Milliseconds()
	trace.Response = response
	trace.Success = err == nil
	if err != nil {
		trace.ErrorMessage = err.Error()
		logging.APIError("LLM call failed: trace=%s attempts=%d duration=%v error=%v", trace.ID, trace.Attempts, duration, err)
	} else {
		logging.APIDebug("LLM call completed: trace=%s attempts=%d duration=%v response_len=%d", trace.ID, trace.Attempts, duration, len(response))
	}

	if tc.sink != nil {
		tc.sink.RecordTrace(trace)
	}
	return response, err
}

func (tc *TracingLLMClient) attempt(ctx context.Context, prompt string) (string, error) {
	if tc.timeouts.PerCallTimeout <= 0 {
		return tc.underlying.Complete(ctx, prompt)
	}
	callCtx, cancel := context.WithTimeout(ctx, tc.timeouts.PerCallTimeout)
	defer cancel()

	response, err := tc.underlying.Complete(callCtx, prompt)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("text generation timed out after %v: %w", tc.timeouts.PerCallTimeout, err)
	}
	return response, err
}

// IsTransient reports whether a failed call is worth retrying: rate limiting,
// a server-side error, or a per-attempt timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return transientStatus(apiErrPtr.Code)
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
