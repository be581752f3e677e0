package vector

import "math"

// Scorer computes a similarity between two vectors of equal length.
type Scorer interface {
	Score(a, b Vector) (float64, error)
}

// CosineScorer scores by cosine similarity.
type CosineScorer struct{}

// Score implements Scorer.
func (CosineScorer) Score(a, b Vector) (float64, error) {
	return Cosine(a, b)
}

// Cosine returns dot(a,b) / (|a| * |b|) in [-1, 1]. A zero-norm operand yields 0.
func Cosine(a, b Vector) (float64, error) {
	if err := CheckDims(a, b); err != nil {
		return 0, err
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return math.Max(-1, math.Min(1, dot/(math.Sqrt(normA)*math.Sqrt(normB)))), nil
}
