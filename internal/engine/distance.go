package engine

import "math"

// EuclideanDistance computes the Euclidean distance between two embeddings.
// For the dlib-style face encodings this engine consumes, distances fall
// roughly in [0, ~1.2], which is what makes 1-distance usable as a
// confidence score. Returns +Inf for mismatched or empty inputs.
func EuclideanDistance(a, b Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
