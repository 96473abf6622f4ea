// Summary statistics for metric queries
package calc

import "slices"

// Mean of values after dropping trimRatio of the samples from each end of the sorted set.
// At least one sample always remains.
func TrimmedMeanFloat64(values []float64, trimRatio float64) (mean float64) {
	if len(values) == 0 {
		return
	}
	trimRatio = max(trimRatio, 0)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	trim := int(float64(len(sorted)) * trimRatio)
	if 2*trim >= len(sorted) {
		trim = (len(sorted) - 1) / 2
	}
	kept := sorted[trim : len(sorted)-trim]

	for _, v := range kept {
		mean += v
	}
	mean /= float64(len(kept))
	return
}
