package lockin

import "fmt"

// RangeError reports a configuration value outside its allowed bounds. It is
// returned before any command reaches the instrument, so a rejected setting
// never leaves the device partially configured.
type RangeError struct {
	Param string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v out of range: must be between %v and %v",
		e.Param, e.Value, e.Min, e.Max)
}

// ValidateAmplitude checks a drive amplitude against the instrument's 5 V
// output ceiling.
func ValidateAmplitude(ampl float64) error {
	if ampl <= 0 || ampl > MaxAmplitude {
		return &RangeError{Param: "amplitude", Value: ampl, Min: 0, Max: MaxAmplitude}
	}
	return nil
}

// ValidateSensitivity checks a sensitivity index (0 = 2 nV ... 26 = 1 V).
func ValidateSensitivity(sens int) error {
	if sens < MinSensitivity || sens > MaxSensitivity {
		return &RangeError{Param: "sensitivity", Value: float64(sens),
			Min: MinSensitivity, Max: MaxSensitivity}
	}
	return nil
}

// ValidateHarmonic checks a detection harmonic.
func ValidateHarmonic(harm int) error {
	if harm < MinHarmonic || harm > MaxHarmonic {
		return &RangeError{Param: "harmonic", Value: float64(harm),
			Min: MinHarmonic, Max: MaxHarmonic}
	}
	return nil
}

// ValidateFrequency checks that a drive frequency is positive.
func ValidateFrequency(freq float64) error {
	if freq <= 0 {
		return fmt.Errorf("frequency %v out of range: must be positive", freq)
	}
	return nil
}
