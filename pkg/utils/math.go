package utils

import "math"

// NormalizeL2 scales vec in place to unit L2 norm, so that the cosine
// similarity of two normalized vectors reduces to their dot product.
// Accumulation runs in float64 to limit rounding drift on long vectors.
// A zero vector is left unchanged.
func NormalizeL2(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
