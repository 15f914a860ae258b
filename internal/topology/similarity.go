package topology

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// NearestZone finds the zone whose embedding is most similar to vec.
// Returns false when the graph has no zones with embeddings or every
// similarity is zero.
func (g Graph) NearestZone(vec []float64) (Zone, float64, bool) {
	var best Zone
	bestSim := 0.0
	found := false
	for _, z := range g.zones {
		if len(z.Embedding) == 0 {
			continue
		}
		sim := CosineSimilarity(vec, z.Embedding)
		if !found || sim > bestSim {
			best = z
			bestSim = sim
			found = true
		}
	}
	if !found || bestSim == 0 {
		return Zone{}, 0, false
	}
	return best, bestSim, true
}
