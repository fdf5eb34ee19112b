// Package vecmath provides the small set of float32-vector operations the
// specificity scorer and hybrid retriever share (cosine similarity, mean,
// L2 normalization). Dimensionality is fixed at embed.Dimensionality (256)
// throughout this build, so brute-force loops over plain slices outperform
// pulling in a BLAS binding for what is, at that width, a handful of
// microseconds of arithmetic per call — no vector-math library of any kind
// appears anywhere in the retrieved corpus, which is itself evidence this is
// genuinely a stdlib-scale operation rather than a gap.
package vecmath

import "math"

// Cosine returns the cosine similarity of a and b, 0 if either is a zero
// vector. a and b must be the same length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Mean returns the element-wise mean of vectors. Returns nil for an empty
// input.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	d := len(vectors[0])
	sum := make([]float64, d)
	for _, v := range vectors {
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	out := make([]float32, d)
	for i, s := range sum {
		out[i] = float32(s / float64(len(vectors)))
	}
	return out
}

// L2Normalize returns a copy of v scaled to unit L2 norm, or a zero vector
// of the same length if v is already the zero vector.
func L2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
