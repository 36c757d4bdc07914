package sweep

import "math"

// Freqspace returns n exponentially spaced frequencies between fmin and fmax
// inclusive, rounded to the nearest hertz. It is the standard grid for
// 3-omega sweeps, giving even coverage per decade.
func Freqspace(fmin, fmax float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{math.Round(fmin)}
	}
	out := make([]float64, n)
	ratio := fmax / fmin
	for i := 0; i < n; i++ {
		out[i] = math.Round(fmin * math.Pow(ratio, float64(i)/float64(n-1)))
	}
	return out
}
