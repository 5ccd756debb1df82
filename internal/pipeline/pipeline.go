// Package pipeline composes translation and guarded execution for one request.
// All collaborators are injected; nothing here is process-global.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"nlsql/internal/guard"
	"nlsql/internal/logging"
	"nlsql/internal/metrics"
	"nlsql/internal/store"
)

// Translator produces a candidate query from a question.
type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

// Executor validates and runs a candidate query, returning the text it attempted.
type Executor interface {
	Run(ctx context.Context, candidate string) (string, *store.ResultSet, error)
}

// Outcome is everything the presentation step needs.
// Results is nil whenever Err is set; an empty, non-nil Results means zero rows.
type Outcome struct {
	RequestID string
	Question  string
	Query     string
	Results   *store.ResultSet
	Err       error
	Duration  time.Duration
}

// Failed reports whether the request ended on the error path.
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// ErrorMessage returns the user-facing error text, or "".
func (o *Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	var pe *Error
	if errors.As(o.Err, &pe) {
		return pe.Message()
	}
	return o.Err.Error()
}

// Pipeline is the per-process context object handed to request handlers.
type Pipeline struct {
	translator Translator
	executor   Executor
}

// New creates a pipeline from its collaborators.
func New(t Translator, e Executor) *Pipeline {
	return &Pipeline{translator: t, executor: e}
}

// Run processes one question start to finish. It never panics on collaborator
// errors; every failure is returned inside the Outcome.
func (p *Pipeline) Run(ctx context.Context, question string) *Outcome {
	start := time.Now()
	out := &Outcome{RequestID: uuid.NewString(), Question: question}
	log := logging.WithRequestID(logging.CategoryHTTP, out.RequestID)
	audit := logging.AuditWithRequest(out.RequestID)
	defer func() { out.Duration = time.Since(start) }()

	candidate, err := p.translator.Translate(ctx, question)
	translateElapsed := time.Since(start)
	metrics.RecordStage("translate", translateElapsed.Seconds())
	if err != nil {
		log.Warn("translation failed: %v", err)
		audit.TranslationFailed(question, translateElapsed.Milliseconds(), err.Error())
		metrics.RecordOutcome(metrics.OutcomeTranslationError)
		out.Err = &Error{Kind: KindTranslation, Err: err}
		return out
	}
	out.Query = candidate
	audit.Translated(question, candidate, translateElapsed.Milliseconds())

	execStart := time.Now()
	query, rs, err := p.executor.Run(ctx, candidate)
	execElapsed := time.Since(execStart)
	if query != "" {
		out.Query = query
	}

	switch {
	case errors.Is(err, guard.ErrForbidden):
		kw, _ := guard.Keyword(err)
		audit.Refused(out.Query, kw)
		metrics.RecordOutcome(metrics.OutcomeForbidden)
		out.Err = &Error{Kind: KindForbidden, Err: err}
	case err != nil:
		log.Warn("execution failed: %v", err)
		metrics.RecordStage("execute", execElapsed.Seconds())
		audit.Failed(out.Query, execElapsed.Milliseconds(), err.Error())
		metrics.RecordOutcome(metrics.OutcomeExecutionError)
		out.Err = &Error{Kind: KindExecution, Err: err}
	default:
		if rs == nil {
			rs = &store.ResultSet{Records: []store.Record{}}
		}
		metrics.RecordStage("execute", execElapsed.Seconds())
		metrics.RecordRows(rs.Len())
		metrics.RecordOutcome(metrics.OutcomeOK)
		audit.Executed(out.Query, rs.Len(), execElapsed.Milliseconds())
		log.Debug("query returned %d rows", rs.Len())
		out.Results = rs
	}
	return out
}
