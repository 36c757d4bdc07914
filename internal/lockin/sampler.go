package lockin

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// SamplePoint captures one measurement point: it arms the accumulation
// buffer, passively waits meas for samples to accumulate, pauses the
// capture, then retrieves both channel traces. The returned slices are the
// same length except when the instrument reports more samples than it can
// hand back per channel, which the caller handles as overflow.
func (a *Amp) SamplePoint(meas time.Duration) (x, y []float64, err error) {
	if err := a.Start(); err != nil {
		return nil, nil, err
	}
	a.sleep(meas)
	if err := a.Pause(); err != nil {
		return nil, nil, err
	}

	n, err := a.SampleCount()
	if err != nil {
		return nil, nil, err
	}

	x, err = a.Trace(1, n)
	if err != nil {
		return nil, nil, err
	}
	y, err = a.Trace(2, n)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// Reading captures a single averaged value from channel ch over meas,
// returning the mean and population standard deviation of the buffered
// samples.
func (a *Amp) Reading(ch int, meas time.Duration) (mean, stdev float64, err error) {
	if ch != 1 && ch != 2 {
		return 0, 0, &RangeError{Param: "channel", Value: float64(ch), Min: 1, Max: 2}
	}

	if err := a.Start(); err != nil {
		return 0, 0, err
	}
	a.sleep(meas)
	if err := a.Pause(); err != nil {
		return 0, 0, err
	}

	n, err := a.SampleCount()
	if err != nil {
		return 0, 0, err
	}
	samples, err := a.Trace(ch, n)
	if err != nil {
		return 0, 0, err
	}
	return stat.Mean(samples, nil), stat.PopStdDev(samples, nil), nil
}
