// Package telemetry produces the opt-in per-run aggregate: one RunSummary
// per completed index run, appended as a JSON line to a file separate from
// the workspace store. Shipping that aggregate anywhere over the network is
// left to the deployment — a real shipping client (metrics backend, support
// bundle uploader) implements TelemetrySink and is threaded through
// orchestrator.Options in FileSink's place.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// RunSummary is the aggregate counters produced by one orchestrator run,
// shaped for external consumption rather than the richer, error-carrying
// orchestrator.Report it is derived from.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	Timestamp         time.Time `json:"timestamp"`
	FilesParsed       int       `json:"files_parsed"`
	FilesSkipped      int       `json:"files_skipped"`
	FilesUnparseable  int       `json:"files_unparseable"`
	EdgesBuilt        int       `json:"edges_built"`
	FlowsDetected     int       `json:"flows_detected"`
	CardsWritten      int       `json:"cards_written"`
	EmbeddingsWritten int       `json:"embeddings_written"`
	FilesIndexed      int       `json:"files_indexed"`
	ErrorCount        int       `json:"error_count"`
}

// TelemetrySink receives one RunSummary per completed run. Telemetry is an
// opt-in feature — callers log Emit failures, never abort the run over
// them.
type TelemetrySink interface {
	Emit(RunSummary) error
}

// FileSink appends one JSON line per run to a file distinct from the
// workspace's SQLite store.
type FileSink struct {
	path string
}

// NewFileSink returns a FileSink writing to path, creating it and any
// missing parent directory on first Emit.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Emit(s RunSummary) error {
	line, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = fh.Write(append(line, '\n'))
	return err
}
