package memory

// Blend weights for the profile's exponential moving average.
const (
	ColdStartWeight = 1.0
	StableWeight    = 0.3
)

// Blend folds sample into prev. The first recorded fight overwrites the
// default outright; later fights move the value by StableWeight.
func Blend(prev, sample float64, totalFightsBefore int) float64 {
	w := StableWeight
	if totalFightsBefore <= 0 {
		w = ColdStartWeight
	}
	return prev*(1-w) + sample*w
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
