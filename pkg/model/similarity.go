package model

import "math"

// Similarity returns the highest cosine similarity between vec and any of
// refs, mapped from [-1, 1] to [0, 1]. Zero vectors and references of a
// different dimension contribute 0.
func Similarity(vec []float32, refs [][]float32) float32 {
	var best float32
	for _, ref := range refs {
		if s := similarity(vec, ref); s > best {
			best = s
		}
	}
	return best
}

func similarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors.
	cos = max(-1, min(1, cos))
	return float32((1 + cos) / 2)
}
