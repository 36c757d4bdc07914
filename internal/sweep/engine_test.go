package sweep

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
)

// fakeDevice is a scripted stand-in for the lock-in amplifier. It records
// every configuration call and serves per-point traces through samplesAt.
type fakeDevice struct {
	calls []string

	curFreq float64
	curAmpl float64

	// samplesAt returns the traces for the current (freq, ampl) point.
	samplesAt func(freq, ampl float64) (x, y []float64, err error)

	// failCall, when non-empty, makes the named call fail.
	failCall string
}

func (f *fakeDevice) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failCall != "" && strings.HasPrefix(call, f.failCall) {
		return errors.New("injected device failure")
	}
	return nil
}

func (f *fakeDevice) SetFrequency(freq float64) error {
	f.curFreq = freq
	return f.record(fmt.Sprintf("FREQ%g", freq))
}

func (f *fakeDevice) SetAmplitude(ampl float64) error {
	f.curAmpl = ampl
	return f.record(fmt.Sprintf("SLVL%g", ampl))
}

func (f *fakeDevice) SetSensitivity(sens int) error {
	return f.record(fmt.Sprintf("SENS%d", sens))
}

func (f *fakeDevice) SetHarmonic(harm int) error {
	return f.record(fmt.Sprintf("HARM%d", harm))
}

func (f *fakeDevice) Reset() error {
	return f.record("REST")
}

func (f *fakeDevice) SetCoupling(mode string) error {
	return f.record("ICPL" + mode)
}

func (f *fakeDevice) SamplePoint(meas time.Duration) (x, y []float64, err error) {
	if err := f.record("SAMPLE"); err != nil {
		return nil, nil, err
	}
	return f.samplesAt(f.curFreq, f.curAmpl)
}

func constantSamples(n int, xval, yval float64) func(freq, ampl float64) ([]float64, []float64, error) {
	return func(freq, ampl float64) ([]float64, []float64, error) {
		x := make([]float64, n)
		y := make([]float64, n)
		for i := range x {
			x[i] = xval
			y[i] = yval
		}
		return x, y, nil
	}
}

func quietEngine(dev Instrument) *Engine {
	e := New(dev)
	e.sleep = func(time.Duration) {}
	e.logf = func(string, ...any) {}
	return e
}

func testParams(freqs, ampls []float64) Params {
	return Params{
		Label:       "test",
		Freqs:       freqs,
		Ampls:       ampls,
		Sensitivity: 22,
		Harmonic:    3,
	}
}

// Scenario A: every point returns five known samples; the digest holds their
// arithmetic mean and population variance in a (3, 1) table.
func TestRunKnownSamples(t *testing.T) {
	dev := &fakeDevice{
		samplesAt: func(freq, ampl float64) ([]float64, []float64, error) {
			return []float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10}, nil
		},
	}
	e := quietEngine(dev)

	d, err := e.Run(testParams([]float64{10, 100, 1000}, []float64{3.0}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(d.MeanX) != 3 || len(d.MeanX[0]) != 1 {
		t.Fatalf("table shape = (%d, %d), want (3, 1)", len(d.MeanX), len(d.MeanX[0]))
	}
	for j := 0; j < 3; j++ {
		if got := d.MeanX[j][0]; got != 3.0 {
			t.Errorf("MeanX[%d][0] = %v, want 3.0", j, got)
		}
		if got := d.VarX[j][0]; got != 2.0 {
			t.Errorf("VarX[%d][0] = %v, want 2.0", j, got)
		}
		if got := d.MeanY[j][0]; got != 6.0 {
			t.Errorf("MeanY[%d][0] = %v, want 6.0", j, got)
		}
		if got := d.VarY[j][0]; got != 8.0 {
			t.Errorf("VarY[%d][0] = %v, want 8.0", j, got)
		}
	}
	if len(d.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", d.Warnings)
	}
}

// Scenario B: one point returns 60 samples against 50 slots; its digest cell
// derives from the first 50 only and exactly one warning names it.
func TestRunOverflowTruncation(t *testing.T) {
	dev := &fakeDevice{
		samplesAt: func(freq, ampl float64) ([]float64, []float64, error) {
			if freq == 1000 {
				x := make([]float64, 60)
				y := make([]float64, 60)
				for i := range x {
					x[i] = float64(i) // first 50 values: 0..49
					y[i] = float64(i)
				}
				return x, y, nil
			}
			return []float64{1, 1, 1}, []float64{2, 2, 2}, nil
		},
	}
	e := quietEngine(dev)

	d, err := e.Run(testParams([]float64{10, 100, 1000}, []float64{3.0}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(d.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(d.Warnings))
	}
	w := d.Warnings[0]
	if w.Freq != 1000.0 || w.Ampl != 3.0 {
		t.Errorf("warning = %+v, want freq=1000.0 ampl=3.0", w)
	}

	// mean of 0..49 is 24.5
	if got := d.MeanX[2][0]; got != 24.5 {
		t.Errorf("overflowed cell MeanX = %v, want 24.5", got)
	}
	if got := d.MeanX[0][0]; got != 1.0 {
		t.Errorf("unaffected cell MeanX = %v, want 1.0", got)
	}
}

func TestRunCommandOrder(t *testing.T) {
	dev := &fakeDevice{samplesAt: constantSamples(2, 1, 1)}
	e := quietEngine(dev)

	if _, err := e.Run(testParams([]float64{10, 100}, []float64{1.0, 2.0})); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{
		"HARM3", "SENS22",
		"SLVL1", "FREQ10", "REST", "SAMPLE", "FREQ100", "REST", "SAMPLE",
		"SLVL2", "FREQ10", "REST", "SAMPLE", "FREQ100", "REST", "SAMPLE",
	}
	if len(dev.calls) != len(want) {
		t.Fatalf("got %d calls %v, want %d", len(dev.calls), dev.calls, len(want))
	}
	for i, call := range want {
		if dev.calls[i] != call {
			t.Errorf("call[%d] = %q, want %q", i, dev.calls[i], call)
		}
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"no frequencies", func(p *Params) { p.Freqs = nil }},
		{"no amplitudes", func(p *Params) { p.Ampls = nil }},
		{"negative frequency", func(p *Params) { p.Freqs = []float64{10, -5} }},
		{"amplitude above ceiling", func(p *Params) { p.Ampls = []float64{5.5} }},
		{"sensitivity too high", func(p *Params) { p.Sensitivity = 27 }},
		{"harmonic zero", func(p *Params) { p.Harmonic = 0 }},
		{"harmonic too high", func(p *Params) { p.Harmonic = 20000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{samplesAt: constantSamples(2, 1, 1)}
			e := quietEngine(dev)

			p := testParams([]float64{10}, []float64{3.0})
			tt.mutate(&p)

			if _, err := e.Run(p); err == nil {
				t.Fatal("expected error, got nil")
			}
			if len(dev.calls) != 0 {
				t.Errorf("device received %v before validation failure", dev.calls)
			}
		})
	}
}

func TestRunAbortsOnTransportError(t *testing.T) {
	dev := &fakeDevice{
		samplesAt: func(freq, ampl float64) ([]float64, []float64, error) {
			if freq == 100 {
				return nil, nil, errors.New("malformed reply")
			}
			return []float64{1}, []float64{1}, nil
		},
	}
	e := quietEngine(dev)

	_, err := e.Run(testParams([]float64{10, 100, 1000}, []float64{3.0}))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "f = 100 Hz") {
		t.Errorf("error %v should name the offending frequency", err)
	}
	if !strings.Contains(err.Error(), "V = 3 volts") {
		t.Errorf("error %v should name the offending amplitude", err)
	}
}

func TestRunEmptyTraceYieldsNaNCell(t *testing.T) {
	dev := &fakeDevice{
		samplesAt: func(freq, ampl float64) ([]float64, []float64, error) {
			return nil, nil, nil
		},
	}
	e := quietEngine(dev)

	d, err := e.Run(testParams([]float64{10}, []float64{3.0}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !math.IsNaN(d.MeanX[0][0]) || !math.IsNaN(d.VarX[0][0]) {
		t.Errorf("empty cell = mean %v, var %v, want NaN, NaN", d.MeanX[0][0], d.VarX[0][0])
	}
}
