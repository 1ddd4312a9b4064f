package recommend

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RaceConfidence scores how concentrated the model's win distribution is,
// via normalized Shannon entropy. 1 means one horse dominates, 0 means the
// field looks uniform to the model. Returns 0.5 when the distribution is
// too small or degenerate to score.
func RaceConfidence(winProbs []float64) float64 {
	positive := make([]float64, 0, len(winProbs))
	total := 0.0
	for _, p := range winProbs {
		if p > 0 {
			positive = append(positive, p)
			total += p
		}
	}

	if len(positive) < 2 || total <= 0 {
		return 0.5
	}

	for i := range positive {
		positive[i] /= total
	}

	entropy := stat.Entropy(positive)
	maxEntropy := math.Log(float64(len(positive)))
	if maxEntropy <= 0 {
		return 0.5
	}

	return 1.0 - entropy/maxEntropy
}
