package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSinkAppendsOneLinePerEmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")
	sink := NewFileSink(path)

	require.NoError(t, sink.Emit(RunSummary{RunID: "run-1", CardsWritten: 3}))
	require.NoError(t, sink.Emit(RunSummary{RunID: "run-2", CardsWritten: 5}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := splitLines(data)
	require.Len(t, lines, 2)

	var first, second RunSummary
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	require.Equal(t, "run-1", first.RunID)
	require.Equal(t, 3, first.CardsWritten)
	require.Equal(t, "run-2", second.RunID)
	require.Equal(t, 5, second.CardsWritten)
}

func TestFileSinkCreatesMissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry", "run.jsonl")
	sink := NewFileSink(path)
	require.NoError(t, sink.Emit(RunSummary{RunID: "run-1"}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
