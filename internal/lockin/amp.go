// Package lockin implements the command layer for an SR8xx-style lock-in
// amplifier: configuration verbs, capture control, and per-point sample
// retrieval over a line-oriented serial channel.
package lockin

import (
	"fmt"
	"strconv"
	"time"

	"github.com/banshee-data/lockin.report/internal/codes"
)

// Instrument limits.
const (
	MaxAmplitude   = 5.0 // volts
	MinSensitivity = 0
	MaxSensitivity = 26
	MinHarmonic    = 1
	MaxHarmonic    = 19999
)

// Command verbs consumed by this layer.
const (
	cmdFrequency   = "FREQ"
	cmdAmplitude   = "SLVL"
	cmdSensitivity = "SENS"
	cmdHarmonic    = "HARM"
	cmdReset       = "REST"
	cmdStart       = "STRT"
	cmdPause       = "PAUS"
	queryCount     = "SPTS?"
	queryTrace     = "TRCA?"
)

// Channel is the synchronous request/response transport the amplifier layer
// talks through. *serialmux.Mux satisfies it.
type Channel interface {
	Command(command string) error
	Query(command string) (string, error)
}

// Amp drives one lock-in amplifier over a Channel. All methods validate
// their parameters before any byte reaches the device.
type Amp struct {
	ch    Channel
	sleep func(time.Duration)
}

// NewAmp creates an Amp on top of the given channel.
func NewAmp(ch Channel) *Amp {
	return &Amp{ch: ch, sleep: time.Sleep}
}

// SetFrequency sets the oscillator drive frequency in hertz.
func (a *Amp) SetFrequency(freq float64) error {
	if err := ValidateFrequency(freq); err != nil {
		return err
	}
	return a.ch.Command(cmdFrequency + formatFloat(freq))
}

// SetAmplitude sets the drive voltage amplitude.
func (a *Amp) SetAmplitude(ampl float64) error {
	if err := ValidateAmplitude(ampl); err != nil {
		return err
	}
	return a.ch.Command(cmdAmplitude + formatFloat(ampl))
}

// SetSensitivity sets the gain index.
func (a *Amp) SetSensitivity(sens int) error {
	if err := ValidateSensitivity(sens); err != nil {
		return err
	}
	return a.ch.Command(cmdSensitivity + strconv.Itoa(sens))
}

// SetHarmonic sets the detection harmonic (1 = fundamental, 3 = third
// harmonic).
func (a *Amp) SetHarmonic(harm int) error {
	if err := ValidateHarmonic(harm); err != nil {
		return err
	}
	return a.ch.Command(cmdHarmonic + strconv.Itoa(harm))
}

// SetCoupling sets the input coupling mode ("AC" or "DC").
func (a *Amp) SetCoupling(mode string) error {
	return a.setMode(codes.VerbCoupling, mode)
}

// SetInput sets the input source mode (e.g. "A", "A-B").
func (a *Amp) SetInput(mode string) error {
	return a.setMode(codes.VerbInput, mode)
}

// SetGround sets the input shield grounding mode ("Float" or "Ground").
func (a *Amp) SetGround(mode string) error {
	return a.setMode(codes.VerbGrounding, mode)
}

// SetReserve sets the dynamic reserve mode (e.g. "Normal", "Low Noise").
func (a *Amp) SetReserve(mode string) error {
	return a.setMode(codes.VerbReserve, mode)
}

func (a *Amp) setMode(verb, mode string) error {
	code, err := codes.Code(verb, mode)
	if err != nil {
		return err
	}
	return a.ch.Command(verb + strconv.Itoa(code))
}

// Reset clears the instrument's sample accumulation buffer.
func (a *Amp) Reset() error {
	return a.ch.Command(cmdReset)
}

// Start begins capturing samples into the accumulation buffer.
func (a *Amp) Start() error {
	return a.ch.Command(cmdStart)
}

// Pause stops capturing samples.
func (a *Amp) Pause() error {
	return a.ch.Command(cmdPause)
}

// SampleCount queries the number of samples currently in the accumulation
// buffer.
func (a *Amp) SampleCount() (int, error) {
	reply, err := a.ch.Query(queryCount)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(trimToken(reply))
	if err != nil {
		return 0, fmt.Errorf("malformed sample count reply %q: %w", reply, err)
	}
	return n, nil
}

// Trace retrieves the first n buffered samples for channel ch (1 = in-phase,
// 2 = quadrature) as voltages.
func (a *Amp) Trace(ch, n int) ([]float64, error) {
	if ch != 1 && ch != 2 {
		return nil, &RangeError{Param: "channel", Value: float64(ch), Min: 1, Max: 2}
	}
	reply, err := a.ch.Query(fmt.Sprintf("%s%d,0,%d", queryTrace, ch, n))
	if err != nil {
		return nil, err
	}
	return parseTrace(ch, reply)
}

// parseTrace decodes a comma-separated trace reply. The instrument
// terminates the list with a trailing comma, so an empty final token is
// dropped; any other non-numeric token is a transport failure.
func parseTrace(ch int, reply string) ([]float64, error) {
	tokens := splitTrace(reply)
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(trimToken(tok), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed trace reply from channel %d: token %q: %w", ch, tok, err)
		}
		out = append(out, v)
	}
	return out, nil
}
