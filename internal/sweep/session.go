package sweep

import (
	"fmt"
	"log"
	"time"
)

// Device is the full instrument surface a measurement session needs: sweep
// execution plus input coupling control.
type Device interface {
	Instrument
	SetCoupling(mode string) error
}

// Preset carries the role-specific sweep parameter defaults. The 3-omega
// sweep detects a weaker signal, so it gets a longer stabilization wait and
// a finer sensitivity than the two fundamental sweeps.
type Preset struct {
	Harmonic      int
	Sensitivity   int
	StabilizeTime time.Duration
	MeasureTime   time.Duration
	AmplitudeTime time.Duration
}

// RolePreset returns the default sweep parameters for a role.
func RolePreset(role Role) (Preset, error) {
	switch role {
	case RoleSample1w:
		return Preset{Harmonic: 1, Sensitivity: 26, StabilizeTime: 5 * time.Second,
			MeasureTime: 1 * time.Second, AmplitudeTime: 5 * time.Second}, nil
	case RoleSample3w:
		return Preset{Harmonic: 3, Sensitivity: 22, StabilizeTime: 10 * time.Second,
			MeasureTime: 1 * time.Second, AmplitudeTime: 5 * time.Second}, nil
	case RoleShunt1w:
		return Preset{Harmonic: 1, Sensitivity: 22, StabilizeTime: 5 * time.Second,
			MeasureTime: 1 * time.Second, AmplitudeTime: 5 * time.Second}, nil
	default:
		return Preset{}, fmt.Errorf("unknown sweep role %q", role)
	}
}

// Overrides replaces selected preset fields. Nil fields keep the preset
// value; fields are merged one by one, never wholesale.
type Overrides struct {
	Sensitivity   *int
	StabilizeTime *time.Duration
	MeasureTime   *time.Duration
	AmplitudeTime *time.Duration
	LMax          *int
}

func (p Preset) apply(o Overrides) Preset {
	if o.Sensitivity != nil {
		p.Sensitivity = *o.Sensitivity
	}
	if o.StabilizeTime != nil {
		p.StabilizeTime = *o.StabilizeTime
	}
	if o.MeasureTime != nil {
		p.MeasureTime = *o.MeasureTime
	}
	if o.AmplitudeTime != nil {
		p.AmplitudeTime = *o.AmplitudeTime
	}
	return p
}

// Session runs the three sweeps of one 3-omega measurement against a single
// device and collects their digests. Sweeps are strictly sequential; the
// device must not be shared with another session while one is in progress.
type Session struct {
	Label string
	Freqs []float64
	Ampls []float64

	dev    Device
	engine *Engine
	set    *Set

	sleep func(time.Duration)
	logf  func(format string, args ...any)
}

// NewSession creates a session. A nil frequency grid defaults to ten points
// per decade between 10 Hz and 15 kHz; a nil amplitude grid defaults to a
// single 3.0 V point; an empty label defaults to a timestamped placeholder.
func NewSession(dev Device, label string, freqs, ampls []float64) *Session {
	if label == "" {
		label = "untitled_" + time.Now().Format("Jan_02_2006_15-04")
	}
	if freqs == nil {
		freqs = Freqspace(10, 15000, 10)
	}
	if ampls == nil {
		ampls = []float64{3.0}
	}
	return &Session{
		Label:  label,
		Freqs:  freqs,
		Ampls:  ampls,
		dev:    dev,
		engine: New(dev),
		set:    NewSet(),
		sleep:  time.Sleep,
		logf:   log.Printf,
	}
}

// Set returns the session's sweep set.
func (s *Session) Set() *Set {
	return s.set
}

// SweepSample1w measures the sample's fundamental response.
func (s *Session) SweepSample1w(o Overrides) (*Digest, error) {
	s.logf("sweeping sample 1-omega voltage")
	return s.runRole(RoleSample1w, o)
}

// SweepSample3w measures the sample's third-harmonic response.
func (s *Session) SweepSample3w(o Overrides) (*Digest, error) {
	s.logf("sweeping sample 3-omega voltage")
	return s.runRole(RoleSample3w, o)
}

// SweepShunt1w measures the shunt resistor's fundamental response. When
// countdown is positive, the operator first gets that many seconds to move
// the input cables from the sample to the shunt, with a reminder logged
// every ten seconds.
func (s *Session) SweepShunt1w(o Overrides, countdown int) (*Digest, error) {
	for i := 0; i < countdown; i++ {
		if i%10 == 0 {
			s.logf("switch input cables to shunt!")
			s.logf("proceeding in:")
		}
		s.logf("%d", countdown-i)
		s.sleep(time.Second)
	}
	s.logf("sweeping shunt 1-omega voltage")
	return s.runRole(RoleShunt1w, o)
}

func (s *Session) runRole(role Role, o Overrides) (*Digest, error) {
	preset, err := RolePreset(role)
	if err != nil {
		return nil, err
	}
	preset = preset.apply(o)

	if err := s.dev.SetCoupling("AC"); err != nil {
		return nil, err
	}

	params := Params{
		Label:         s.Label,
		Freqs:         s.Freqs,
		Ampls:         s.Ampls,
		Sensitivity:   preset.Sensitivity,
		Harmonic:      preset.Harmonic,
		StabilizeTime: preset.StabilizeTime,
		MeasureTime:   preset.MeasureTime,
		AmplitudeTime: preset.AmplitudeTime,
	}
	if o.LMax != nil {
		params.LMax = *o.LMax
	}

	d, err := s.engine.Run(params)
	if err != nil {
		return nil, err
	}
	if err := s.set.Assign(role, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Align merges the session's three digests at the given amplitude.
func (s *Session) Align(ampl float64) (*Aligned, error) {
	return s.set.Align(ampl)
}
