package sweep

import "math"

// DefaultLMax is the per-point sample slot count used when a sweep does not
// specify one.
const DefaultLMax = 50

// RawBuffer holds the unreduced sample traces of one sweep: two 3-D arrays
// (in-phase X and quadrature Y) indexed by amplitude, frequency, and sample
// slot. Unfilled slots hold NaN.
type RawBuffer struct {
	Freqs []float64
	Ampls []float64
	LMax  int

	X [][][]float64
	Y [][][]float64
}

// NewRawBuffer allocates a NaN-filled buffer pair for the given grids.
func NewRawBuffer(freqs, ampls []float64, lmax int) *RawBuffer {
	if lmax <= 0 {
		lmax = DefaultLMax
	}
	b := &RawBuffer{
		Freqs: freqs,
		Ampls: ampls,
		LMax:  lmax,
		X:     nanCube(len(ampls), len(freqs), lmax),
		Y:     nanCube(len(ampls), len(freqs), lmax),
	}
	return b
}

func nanCube(m, n, l int) [][][]float64 {
	cube := make([][][]float64, m)
	for i := range cube {
		cube[i] = make([][]float64, n)
		for j := range cube[i] {
			row := make([]float64, l)
			for k := range row {
				row[k] = math.NaN()
			}
			cube[i][j] = row
		}
	}
	return cube
}

// WritePoint stores the traces for one (amplitude, frequency) point. Slots
// beyond the trace length keep their NaN padding. If either trace is longer
// than LMax the point overflows: both traces are truncated to the first LMax
// values, the cell is overwritten in full, and WritePoint reports true.
func (b *RawBuffer) WritePoint(ai, fi int, x, y []float64) bool {
	if len(x) > b.LMax || len(y) > b.LMax {
		copy(b.X[ai][fi], x[:min(len(x), b.LMax)])
		copy(b.Y[ai][fi], y[:min(len(y), b.LMax)])
		return true
	}
	copy(b.X[ai][fi], x)
	copy(b.Y[ai][fi], y)
	return false
}

// Cell returns the sample slots for one point, NaN padding included.
func (b *RawBuffer) Cell(ai, fi int) (x, y []float64) {
	return b.X[ai][fi], b.Y[ai][fi]
}
