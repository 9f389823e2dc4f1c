package spectral

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat"
)

// ErrShortWindow is returned when a window holds fewer samples than one FFT segment.
var ErrShortWindow = errors.New("spectral: window shorter than fft length")

// #region nearest-power
// NearestPowerOfTwo returns the largest power of two <= n (1 for n < 2).
func NearestPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// #endregion nearest-power

// #region extractor
// Extractor turns a raw channel window into band powers using a Welch PSD
// estimate with Blackman-Harris segments at 50% overlap.
// An Extractor reuses its FFT plan and is not safe for concurrent use.
type Extractor struct {
	samplingRate float64
	nfft         int
	taper        []float64
	taperPower   float64
	fft          *fourier.FFT
	seg          []float64
	coeffs       []complex128
}

// NewExtractor prepares an extractor for the given sampling rate and
// segment length. nfft must be a power of two no larger than samplingRate.
func NewExtractor(samplingRate, nfft int) (*Extractor, error) {
	if samplingRate < 2 {
		return nil, fmt.Errorf("sampling rate %d too low", samplingRate)
	}
	if nfft < 2 || nfft&(nfft-1) != 0 {
		return nil, fmt.Errorf("fft length %d is not a power of two >= 2", nfft)
	}
	if nfft > samplingRate {
		return nil, fmt.Errorf("fft length %d exceeds sampling rate %d", nfft, samplingRate)
	}

	taper := make([]float64, nfft)
	for i := range taper {
		taper[i] = 1
	}
	window.BlackmanHarris(taper)

	var power float64
	for _, w := range taper {
		power += w * w
	}

	return &Extractor{
		samplingRate: float64(samplingRate),
		nfft:         nfft,
		taper:        taper,
		taperPower:   power,
		fft:          fourier.NewFFT(nfft),
		seg:          make([]float64, nfft),
		coeffs:       make([]complex128, nfft/2+1),
	}, nil
}

// NFFT returns the segment length.
func (e *Extractor) NFFT() int {
	return e.nfft
}

// Extract computes alpha, beta and gamma power for one channel window.
// The input slice is not modified.
func (e *Extractor) Extract(samples []float64) (BandPowers, error) {
	freqs, psd, err := e.PSD(samples)
	if err != nil {
		return BandPowers{}, err
	}
	return BandPowers{
		Alpha: BandPower(freqs, psd, Alpha),
		Beta:  BandPower(freqs, psd, Beta),
		Gamma: BandPower(freqs, psd, Gamma),
	}, nil
}

// #endregion extractor

// #region psd
// PSD returns the one-sided Welch power spectral density of the detrended
// window, with bin frequencies in Hz.
func (e *Extractor) PSD(samples []float64) (freqs, psd []float64, err error) {
	if len(samples) < e.nfft {
		return nil, nil, fmt.Errorf("%w: %d < %d", ErrShortWindow, len(samples), e.nfft)
	}

	x := Detrend(samples)
	bins := e.nfft/2 + 1
	psd = make([]float64, bins)
	step := e.nfft / 2

	segments := 0
	for start := 0; start+e.nfft <= len(x); start += step {
		for i := 0; i < e.nfft; i++ {
			e.seg[i] = x[start+i] * e.taper[i]
		}
		e.coeffs = e.fft.Coefficients(e.coeffs, e.seg)
		for k, c := range e.coeffs {
			psd[k] += real(c)*real(c) + imag(c)*imag(c)
		}
		segments++
	}

	scale := 1 / (e.samplingRate * e.taperPower * float64(segments))
	freqs = make([]float64, bins)
	for k := range psd {
		psd[k] *= scale
		// fold negative frequencies; DC and Nyquist have no mirror
		if k > 0 && k < bins-1 {
			psd[k] *= 2
		}
		freqs[k] = float64(k) * e.samplingRate / float64(e.nfft)
	}
	return freqs, psd, nil
}

// #endregion psd

// #region band-power
// BandPower integrates psd with the trapezoidal rule from the first bin at
// or above b.Lo through the first bin at or above b.Hi. Adjacent bands share
// their boundary bin, so no spectrum between them is dropped.
func BandPower(freqs, psd []float64, b Band) float64 {
	n := min(len(freqs), len(psd))
	start, stop := bandBins(freqs[:n], b)
	var sum float64
	for k := start; k < stop; k++ {
		sum += (psd[k] + psd[k+1]) / 2 * (freqs[k+1] - freqs[k])
	}
	return sum
}

// bandBins returns the integration bounds for b. stop is clamped to the last
// bin; start == stop means the band is empty.
func bandBins(freqs []float64, b Band) (start, stop int) {
	start, stop = len(freqs), len(freqs)
	for k, f := range freqs {
		if start == len(freqs) && f >= b.Lo {
			start = k
		}
		if f >= b.Hi {
			stop = k
			break
		}
	}
	if stop >= len(freqs) {
		stop = len(freqs) - 1
	}
	if start > stop {
		start = stop
	}
	return start, stop
}

// #endregion band-power

// #region detrend
// Detrend returns samples with their least-squares line removed.
func Detrend(samples []float64) []float64 {
	out := make([]float64, len(samples))
	if len(samples) < 2 {
		return out
	}
	xs := make([]float64, len(samples))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, samples, nil, false)
	for i, v := range samples {
		out[i] = v - (intercept + slope*float64(i))
	}
	return out
}

// #endregion detrend
