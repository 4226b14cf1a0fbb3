package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// MaxWindow caps the number of samples fed to the transform.
const MaxWindow = 1 << 16

const minWindow = 16

var ErrShortWindow = errors.New("analysis: not enough samples at constant speed")

// SpectrumResult is a one-sided magnitude spectrum.
type SpectrumResult struct {
	Freqs     []float64 // Hz
	Magnitude []float64 // amplitude, same unit as the signal
	Speed     float64   // base speed of the window, rev/s
	Start     int       // first trace index of the window
}

// Spectrum returns the one-sided amplitude spectrum of data sampled every dt seconds.
func Spectrum(data []float64, dt float64) SpectrumResult {
	n := len(data)
	if n < 2 || dt <= 0 {
		return SpectrumResult{}
	}

	y := fft.FFTReal(data)
	half := n/2 + 1
	res := SpectrumResult{
		Freqs:     make([]float64, half),
		Magnitude: make([]float64, half),
	}
	for i := 0; i < half; i++ {
		res.Freqs[i] = float64(i) / (float64(n) * dt)
		mag := cmplx.Abs(y[i])
		if i == 0 {
			res.Magnitude[i] = mag / float64(n)
		} else {
			res.Magnitude[i] = 2 * mag / float64(n)
		}
	}
	return res
}

// Dominant is the frequency of the largest non-DC line, or 0.
func (s SpectrumResult) Dominant() float64 {
	best, idx := 0.0, 0
	for i := 1; i < len(s.Magnitude); i++ {
		if s.Magnitude[i] > best {
			best, idx = s.Magnitude[i], i
		}
	}
	if idx == 0 {
		return 0
	}
	return s.Freqs[idx]
}

// Resolution is the bin width in Hz.
func (s SpectrumResult) Resolution() float64 {
	if len(s.Freqs) < 2 {
		return 0
	}
	return s.Freqs[1] - s.Freqs[0]
}

// ImpulseSpectrum analyses the impulse after the last speed change of tr,
// keeping at most MaxWindow trailing samples.
func ImpulseSpectrum(tr *dynamo.Trace) (SpectrumResult, error) {
	n := tr.Len()
	if n < minWindow {
		return SpectrumResult{}, ErrShortWindow
	}

	start := n - 1
	for start > 0 && tr.Speed[start-1] == tr.Speed[n-1] {
		start--
	}
	if n-start > MaxWindow {
		start = n - MaxWindow
	}
	if n-start < minWindow || tr.Speed[n-1] == 0 {
		return SpectrumResult{}, ErrShortWindow
	}

	dt := tr.Time[1] - tr.Time[0]
	res := Spectrum(tr.Impulse[start:], dt)
	res.Speed = tr.Speed[n-1]
	res.Start = start
	return res, nil
}

// Harmonic is the frequency (Hz) at which pair k rotates at base speed.
func Harmonic(speed float64, k int) float64 {
	return speed * float64(k+1)
}
