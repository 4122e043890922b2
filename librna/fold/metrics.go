package fold

import (
	"github.com/agext/levenshtein"
	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/rnacad"
)

// Hamming is the percentage of positions where target and predicted agree.
// Positions past the end of the shorter string count as mismatches.
func Hamming(target, predicted string) float64 {
	N := len(target)
	if len(predicted) > N {
		N = len(predicted)
	}
	if N == 0 {
		return 100
	}
	same := 0
	for i := 0; i < len(target) && i < len(predicted); i++ {
		if target[i] == predicted[i] {
			same++
		}
	}
	return 100 * float64(same) / float64(N)
}

// Levenshtein is the edit-distance similarity of target and predicted, in percent.
func Levenshtein(target, predicted string) float64 {
	return 100 * levenshtein.Similarity(target, predicted, nil)
}

// MetricByName returns "hamming" or "levenshtein".
func MetricByName(name string) (rnacad.Metric, error) {
	switch name {
	case "", "hamming":
		return Hamming, nil
	case "levenshtein":
		return Levenshtein, nil
	}
	return nil, errors.Wrapf(rnacad.ErrBadConfig, "unknown similarity metric %q", name)
}
