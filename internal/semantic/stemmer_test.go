package semantic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The embedder constructs its stemmer as NewStemmer(true, "porter2", 3, nil);
// these tests pin the behavior that construction relies on.
func TestStemCollapsesInflections(t *testing.T) {
	s := NewStemmer(true, "porter2", 3, nil)

	require.Equal(t, s.Stem("authentication"), s.Stem("authenticate"))
	require.Equal(t, s.Stem("billing"), s.Stem("billed"))
	require.Equal(t, s.Stem("prescriptions"), s.Stem("prescription"))
	require.NotEqual(t, s.Stem("billing"), s.Stem("ledger"))
}

func TestStemLeavesShortWordsAlone(t *testing.T) {
	s := NewStemmer(true, "porter2", 3, nil)
	require.Equal(t, "go", s.Stem("go"))
	require.Equal(t, "db", s.Stem("db"))
}

func TestStemRespectsExclusions(t *testing.T) {
	s := NewStemmer(true, "porter2", 3, map[string]bool{"kubernetes": true})
	require.Equal(t, "kubernetes", s.Stem("kubernetes"))
	// The exclusion lookup ignores case; the word itself is returned as given.
	require.Equal(t, "Kubernetes", s.Stem("Kubernetes"))
}

func TestStemDisabledPassesThrough(t *testing.T) {
	s := NewStemmer(false, "porter2", 3, nil)
	require.Equal(t, "authentication", s.Stem("authentication"))
}

func TestStemDefaultsApplied(t *testing.T) {
	s := NewStemmer(true, "", -1, nil)
	require.Equal(t, s.Stem("searching"), s.Stem("searches"))
	require.Equal(t, "ab", s.Stem("ab"), "defaulted min length keeps two-letter words")
}
