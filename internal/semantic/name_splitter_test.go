package semantic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The splitter feeds both the repo-signal tokenizer and the embedder, so
// these cases mirror the identifier shapes that actually show up in doc
// bodies and card identifier bags.
func TestSplitIdentifierShapes(t *testing.T) {
	ns := NewNameSplitter()

	tests := []struct {
		name     string
		expected []string
	}{
		{"preAuthorization", []string{"pre", "authorization"}},
		{"PreAuthorization", []string{"pre", "authorization"}},
		{"pre_authorization", []string{"pre", "authorization"}},
		{"pre-authorization", []string{"pre", "authorization"}},
		{"blood_pressure_reading", []string{"blood", "pressure", "reading"}},
		{"XMLHttpRequest", []string{"xml", "http", "request"}},
		{"HTTPServer", []string{"http", "server"}},
		{"BillingService", []string{"billing", "service"}},
		{"billing.service", []string{"billing", "service"}},
		{"Http2Handler", []string{"http", "2", "handler"}},
		{"SCREAMING_SNAKE", []string{"screaming", "snake"}},
		{"plain", []string{"plain"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ns.Split(tc.name))
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	ns := NewNameSplitter()
	require.Empty(t, ns.Split(""))
	require.Empty(t, ns.Split("___"))
}

func TestSplitCachedResultIsStable(t *testing.T) {
	ns := NewNameSplitter()
	first := ns.Split("CardEmbedding")
	second := ns.Split("CardEmbedding")
	require.Equal(t, first, second)
	require.Equal(t, []string{"card", "embedding"}, second)
}
