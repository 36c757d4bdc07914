package sweep

import (
	"strings"
	"testing"
	"time"
)

func quietSession(dev Device, label string, freqs, ampls []float64) *Session {
	s := NewSession(dev, label, freqs, ampls)
	s.sleep = func(time.Duration) {}
	s.logf = func(string, ...any) {}
	s.engine.sleep = func(time.Duration) {}
	s.engine.logf = func(string, ...any) {}
	return s
}

func TestRolePresets(t *testing.T) {
	tests := []struct {
		role     Role
		harm     int
		sens     int
		stb      time.Duration
	}{
		{RoleSample1w, 1, 26, 5 * time.Second},
		{RoleSample3w, 3, 22, 10 * time.Second},
		{RoleShunt1w, 1, 22, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			p, err := RolePreset(tt.role)
			if err != nil {
				t.Fatalf("RolePreset returned error: %v", err)
			}
			if p.Harmonic != tt.harm {
				t.Errorf("Harmonic = %d, want %d", p.Harmonic, tt.harm)
			}
			if p.Sensitivity != tt.sens {
				t.Errorf("Sensitivity = %d, want %d", p.Sensitivity, tt.sens)
			}
			if p.StabilizeTime != tt.stb {
				t.Errorf("StabilizeTime = %v, want %v", p.StabilizeTime, tt.stb)
			}
			if p.MeasureTime != time.Second {
				t.Errorf("MeasureTime = %v, want 1s", p.MeasureTime)
			}
		})
	}

	if _, err := RolePreset(Role("bogus")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestPresetOverridesMergeFieldByField(t *testing.T) {
	base, err := RolePreset(RoleSample3w)
	if err != nil {
		t.Fatalf("RolePreset returned error: %v", err)
	}

	sens := 20
	stb := 2 * time.Second
	merged := base.apply(Overrides{Sensitivity: &sens, StabilizeTime: &stb})

	if merged.Sensitivity != 20 {
		t.Errorf("Sensitivity = %d, want 20", merged.Sensitivity)
	}
	if merged.StabilizeTime != 2*time.Second {
		t.Errorf("StabilizeTime = %v, want 2s", merged.StabilizeTime)
	}
	// untouched fields keep the preset
	if merged.Harmonic != 3 {
		t.Errorf("Harmonic = %d, want 3", merged.Harmonic)
	}
	if merged.MeasureTime != time.Second {
		t.Errorf("MeasureTime = %v, want 1s", merged.MeasureTime)
	}
}

func TestSessionDefaults(t *testing.T) {
	dev := &fakeDevice{samplesAt: constantSamples(2, 1, 1)}
	s := NewSession(dev, "", nil, nil)

	if !strings.HasPrefix(s.Label, "untitled_") {
		t.Errorf("Label = %q, want untitled_ prefix", s.Label)
	}
	if len(s.Freqs) != 10 {
		t.Errorf("default grid has %d points, want 10", len(s.Freqs))
	}
	if len(s.Ampls) != 1 || s.Ampls[0] != 3.0 {
		t.Errorf("default amplitudes = %v, want [3]", s.Ampls)
	}
}

func TestSessionSweepAssignsRole(t *testing.T) {
	dev := &fakeDevice{samplesAt: constantSamples(3, 1, 2)}
	s := quietSession(dev, "run", []float64{10, 100}, []float64{3.0})

	d, err := s.SweepSample3w(Overrides{})
	if err != nil {
		t.Fatalf("SweepSample3w returned error: %v", err)
	}
	if d.Harmonic != 3 || d.Sensitivity != 22 {
		t.Errorf("digest harm/sens = %d/%d, want 3/22", d.Harmonic, d.Sensitivity)
	}

	stored, ok := s.Set().Digest(RoleSample3w)
	if !ok || stored != d {
		t.Error("digest not assigned to sample_3w role")
	}

	// AC coupling is applied before the sweep starts.
	if dev.calls[0] != "ICPLAC" {
		t.Errorf("first call = %q, want ICPLAC", dev.calls[0])
	}
}

func TestSessionShuntCountdown(t *testing.T) {
	dev := &fakeDevice{samplesAt: constantSamples(3, 1, 2)}
	s := quietSession(dev, "run", []float64{10}, []float64{3.0})

	var prompts []string
	s.logf = func(format string, args ...any) {
		prompts = append(prompts, format)
	}
	slept := 0
	s.sleep = func(time.Duration) { slept++ }

	if _, err := s.SweepShunt1w(Overrides{}, 30); err != nil {
		t.Fatalf("SweepShunt1w returned error: %v", err)
	}
	if slept != 30 {
		t.Errorf("countdown slept %d times, want 30", slept)
	}

	swapPrompts := 0
	for _, p := range prompts {
		if strings.Contains(p, "switch input cables") {
			swapPrompts++
		}
	}
	if swapPrompts != 3 {
		t.Errorf("cable swap reminder shown %d times, want 3", swapPrompts)
	}

	if _, ok := s.Set().Digest(RoleShunt1w); !ok {
		t.Error("digest not assigned to shunt_1w role")
	}
}

func TestSessionFullRunAligns(t *testing.T) {
	dev := &fakeDevice{samplesAt: constantSamples(4, 0.5, -0.5)}
	s := quietSession(dev, "full", []float64{10, 100, 1000}, []float64{3.0})

	if _, err := s.SweepSample1w(Overrides{}); err != nil {
		t.Fatalf("SweepSample1w returned error: %v", err)
	}
	if _, err := s.SweepSample3w(Overrides{}); err != nil {
		t.Fatalf("SweepSample3w returned error: %v", err)
	}
	if _, err := s.SweepShunt1w(Overrides{}, 0); err != nil {
		t.Fatalf("SweepShunt1w returned error: %v", err)
	}

	a, err := s.Align(3.0)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if len(a.Values) != 3 || len(a.Values[0]) != 6 {
		t.Errorf("aligned shape = (%d, %d), want (3, 6)", len(a.Values), len(a.Values[0]))
	}
}
