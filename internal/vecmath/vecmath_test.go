package vecmath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{0.6, 0.8}
	require.InDelta(t, 1.0, Cosine(v, v), 1e-6)
}

func TestCosineOrthogonalVectorsIsZero(t *testing.T) {
	require.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestCosineZeroVectorIsZero(t *testing.T) {
	require.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestMeanOfVectors(t *testing.T) {
	mean := Mean([][]float32{{1, 1}, {3, 3}})
	require.Equal(t, []float32{2, 2}, mean)
}

func TestMeanEmptyIsNil(t *testing.T) {
	require.Nil(t, Mean(nil))
}

func TestL2NormalizeUnitNorm(t *testing.T) {
	v := L2Normalize([]float32{3, 4})
	require.InDelta(t, 1.0, Cosine(v, v), 1e-6)
	require.InDelta(t, 0.6, v[0], 1e-6)
	require.InDelta(t, 0.8, v[1], 1e-6)
}

func TestL2NormalizeZeroVector(t *testing.T) {
	v := L2Normalize([]float32{0, 0, 0})
	require.Equal(t, []float32{0, 0, 0}, v)
}
