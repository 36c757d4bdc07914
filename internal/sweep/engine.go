// Package sweep implements the 3-omega acquisition core: the sweep engine
// that drives the amplitude x frequency grid against the instrument, the
// digest reduction of its raw sample buffers, and the cross-sweep aligner.
package sweep

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lockin.report/internal/lockin"
)

// Instrument is the device surface the sweep engine drives. *lockin.Amp
// satisfies it; tests substitute a scripted fake.
type Instrument interface {
	SetFrequency(freq float64) error
	SetAmplitude(ampl float64) error
	SetSensitivity(sens int) error
	SetHarmonic(harm int) error
	Reset() error
	SamplePoint(meas time.Duration) (x, y []float64, err error)
}

// Params configures one sweep run.
type Params struct {
	Label string
	Freqs []float64
	Ampls []float64

	Sensitivity int
	Harmonic    int

	// StabilizeTime is the settling wait after each frequency change,
	// AmplitudeTime after each amplitude change, and MeasureTime the
	// capture window at each point. All are best-effort blocking waits.
	StabilizeTime time.Duration
	MeasureTime   time.Duration
	AmplitudeTime time.Duration

	// LMax is the per-point sample slot count (DefaultLMax when zero).
	LMax int
}

func (p Params) withDefaults() Params {
	if p.LMax == 0 {
		p.LMax = DefaultLMax
	}
	return p
}

// Validate rejects a configuration before any device command is issued.
func (p Params) Validate() error {
	if len(p.Freqs) == 0 {
		return fmt.Errorf("sweep needs at least one frequency")
	}
	if len(p.Ampls) == 0 {
		return fmt.Errorf("sweep needs at least one amplitude")
	}
	for _, f := range p.Freqs {
		if err := lockin.ValidateFrequency(f); err != nil {
			return err
		}
	}
	for _, v := range p.Ampls {
		if err := lockin.ValidateAmplitude(v); err != nil {
			return err
		}
	}
	if err := lockin.ValidateSensitivity(p.Sensitivity); err != nil {
		return err
	}
	if err := lockin.ValidateHarmonic(p.Harmonic); err != nil {
		return err
	}
	if p.LMax < 0 {
		return fmt.Errorf("sample slot count %d out of range: must be positive", p.LMax)
	}
	return nil
}

// Engine executes sweeps against a single instrument. The instrument is a
// singly-owned serial resource, so Run holds an internal lock for the whole
// sweep; concurrent Run calls on one Engine serialize rather than
// interleave device commands.
type Engine struct {
	dev   Instrument
	runMu sync.Mutex

	sleep func(time.Duration)
	logf  func(format string, args ...any)
}

// New creates an Engine for the given instrument.
func New(dev Instrument) *Engine {
	return &Engine{
		dev:   dev,
		sleep: time.Sleep,
		logf:  log.Printf,
	}
}

// Run executes one sweep: for each amplitude (outer, in order) and each
// frequency (inner, in order) it configures the point, waits out the
// settling delays, and collects the point's sample traces. Overflowing
// points are truncated and recorded as warnings; a transport failure or an
// invalid parameter aborts the sweep with no digest.
func (e *Engine) Run(p Params) (*Digest, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := e.dev.SetHarmonic(p.Harmonic); err != nil {
		return nil, err
	}
	if err := e.dev.SetSensitivity(p.Sensitivity); err != nil {
		return nil, err
	}

	buf := NewRawBuffer(p.Freqs, p.Ampls, p.LMax)
	var warnings []OverflowWarning

	for i, ampl := range p.Ampls {
		if err := e.dev.SetAmplitude(ampl); err != nil {
			return nil, err
		}
		e.logf("V = %.2f volts", ampl)
		e.logf("waiting for stabilization after amplitude change...")
		e.sleep(p.AmplitudeTime)

		for j, freq := range p.Freqs {
			if err := e.dev.SetFrequency(freq); err != nil {
				return nil, err
			}
			if err := e.dev.Reset(); err != nil {
				return nil, err
			}
			e.sleep(p.StabilizeTime)

			x, y, err := e.dev.SamplePoint(p.MeasureTime)
			if err != nil {
				return nil, fmt.Errorf("sampling point f = %g Hz, V = %g volts: %w", freq, ampl, err)
			}

			if buf.WritePoint(i, j, x, y) {
				w := OverflowWarning{Freq: freq, Ampl: ampl}
				warnings = append(warnings, w)
				e.logf("warning: %s", w)
			}

			e.logf("(%3d : %10.2f Hz) x_ave, y_ave = %.4e, %.4e [V]",
				j+1, freq, stat.Mean(dropNaN(buf.X[i][j]), nil), stat.Mean(dropNaN(buf.Y[i][j]), nil))
		}
	}

	return NewDigest(buf, p.Label, p.Sensitivity, p.Harmonic, warnings), nil
}
