package embedcache

import "math"

// Truncate keeps the first dim components of values. Shorter vectors are returned as-is.
func Truncate(values []float32, dim int) []float32 {
	if dim <= 0 || len(values) <= dim {
		return values
	}
	return values[:dim]
}

// L2Normalize returns a unit-length copy of values. A zero vector is returned unnormalized.
func L2Normalize(values []float32) []float32 {
	out := make([]float32, len(values))
	var sum float64
	for _, v := range values {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		copy(out, values)
		return out
	}
	norm := math.Sqrt(sum)
	for i, v := range values {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// Dot is the cosine similarity of two unit vectors. Mismatched lengths score 0.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot)
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
