package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// idTimeLayout keeps digest identifiers filesystem-safe: day-month-year
// followed by hour-minute.
const idTimeLayout = "02-01-2006_15-04"

// OverflowWarning records a point whose trace exceeded the buffer's sample
// slots and was truncated. It is informational: the sweep carries on.
type OverflowWarning struct {
	Freq float64
	Ampl float64
}

func (w OverflowWarning) String() string {
	return fmt.Sprintf("buffer overflow encountered at point f = %.1f Hz, V = %.1f volts",
		w.Freq, w.Ampl)
}

// Digest is the reduced representation of one sweep: per-cell mean and
// population variance for both channels, keyed by frequency (rows) and
// amplitude (columns). A Digest is immutable once constructed.
type Digest struct {
	ID          string
	Label       string
	Harmonic    int
	Sensitivity int
	CreatedAt   time.Time

	Freqs []float64
	Ampls []float64

	// [frequency][amplitude] tables. A cell with no valid samples holds
	// NaN in all four tables.
	MeanX [][]float64
	MeanY [][]float64
	VarX  [][]float64
	VarY  [][]float64

	Warnings []OverflowWarning
}

// NewDigest reduces a raw buffer into a Digest. NaN slots are dropped per
// cell before the mean and variance are computed, so variable fill counts
// across points digest cleanly. Construction is deterministic: the same
// buffer always yields the same tables.
func NewDigest(buf *RawBuffer, label string, sens, harm int, warnings []OverflowWarning) *Digest {
	now := time.Now()
	n := len(buf.Freqs)
	m := len(buf.Ampls)

	d := &Digest{
		ID: strings.Join([]string{
			label,
			"HARM" + strconv.Itoa(harm),
			"SENS" + strconv.Itoa(sens),
			now.Format(idTimeLayout),
		}, "_"),
		Label:       label,
		Harmonic:    harm,
		Sensitivity: sens,
		CreatedAt:   now,
		Freqs:       append([]float64(nil), buf.Freqs...),
		Ampls:       append([]float64(nil), buf.Ampls...),
		MeanX:       newTable(n, m),
		MeanY:       newTable(n, m),
		VarX:        newTable(n, m),
		VarY:        newTable(n, m),
		Warnings:    append([]OverflowWarning(nil), warnings...),
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			x, y := buf.Cell(i, j)
			d.MeanX[j][i], d.VarX[j][i] = reduce(x)
			d.MeanY[j][i], d.VarY[j][i] = reduce(y)
		}
	}
	return d
}

// reduce computes the mean and population variance of the non-NaN entries.
// An all-NaN cell reduces to NaN, never an error.
func reduce(slots []float64) (mean, variance float64) {
	valid := dropNaN(slots)
	if len(valid) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.Mean(valid, nil), stat.PopVariance(valid, nil)
}

func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func newTable(rows, cols int) [][]float64 {
	t := make([][]float64, rows)
	for i := range t {
		t[i] = make([]float64, cols)
	}
	return t
}

// AmplColumn returns the column index of an amplitude value, or false when
// the amplitude is not part of this digest's grid.
func (d *Digest) AmplColumn(ampl float64) (int, bool) {
	for i, v := range d.Ampls {
		if v == ampl {
			return i, true
		}
	}
	return 0, false
}

// Column returns the per-frequency means (in-phase and quadrature) for one
// amplitude column.
func (d *Digest) Column(col int) (x, y []float64) {
	x = make([]float64, len(d.Freqs))
	y = make([]float64, len(d.Freqs))
	for j := range d.Freqs {
		x[j] = d.MeanX[j][col]
		y[j] = d.MeanY[j][col]
	}
	return x, y
}
