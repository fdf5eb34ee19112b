package orchestrator

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures Run doesn't leak goroutines across the phases it drives
// (parsing, graph building, doc generation, embedding).
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
