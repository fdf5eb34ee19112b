package errors

import (
	"fmt"
	"time"
)

// StoreError wraps a Store-layer failure (IO, migration). Fatal mid-run:
// the orchestrator rolls back the current phase on sight of one.
type StoreError struct {
	Op         string
	Underlying error
	Timestamp  time.Time
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Underlying: err, Timestamp: time.Now()}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Underlying)
}

func (e *StoreError) Unwrap() error { return e.Underlying }

// LlmUnavailable signals a doc-generation or discovery pass that got no LLM
// output, because no LLM collaborator is configured or its call failed.
// Never fatal: callers fall back to structural-only output.
type LlmUnavailable struct {
	Pass string
}

func NewLlmUnavailable(pass string) *LlmUnavailable { return &LlmUnavailable{Pass: pass} }

func (e *LlmUnavailable) Error() string {
	return fmt.Sprintf("llm unavailable, skipping %s", e.Pass)
}

// RerankUnavailable signals the cross-encoder reranker could not run.
// Never fatal: the RRF fusion order is preserved.
type RerankUnavailable struct {
	Underlying error
}

func NewRerankUnavailable(err error) *RerankUnavailable { return &RerankUnavailable{Underlying: err} }

func (e *RerankUnavailable) Error() string {
	if e.Underlying == nil {
		return "reranker unavailable"
	}
	return fmt.Sprintf("reranker unavailable: %v", e.Underlying)
}

func (e *RerankUnavailable) Unwrap() error { return e.Underlying }

// TimeoutError surfaces a deadline exceeded in a retrieval or indexing
// operation. Always logged (a Metric row or phase log line is still written).
type TimeoutError struct {
	Op       string
	Deadline time.Duration
}

func NewTimeoutError(op string, deadline time.Duration) *TimeoutError {
	return &TimeoutError{Op: op, Deadline: deadline}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s exceeded deadline of %s", e.Op, e.Deadline)
}

// ConcurrentRunError is returned (HTTP/MCP-mapped to 409) when a reindex is
// requested while the orchestrator's advisory lock is already held.
type ConcurrentRunError struct {
	RunID string
}

func NewConcurrentRunError(runID string) *ConcurrentRunError {
	return &ConcurrentRunError{RunID: runID}
}

func (e *ConcurrentRunError) Error() string {
	return fmt.Sprintf("index run %s already in progress", e.RunID)
}
