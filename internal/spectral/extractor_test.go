package spectral

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

const rate = 250

func sine(freq, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return out
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(rate, NearestPowerOfTwo(rate))
	require.NoError(t, err)
	return e
}

func TestNearestPowerOfTwo(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 200: 128, 250: 128, 256: 256, 1000: 512}
	for in, want := range cases {
		require.Equal(t, want, NearestPowerOfTwo(in), "input %d", in)
	}
}

func TestNewExtractorRejectsBadLengths(t *testing.T) {
	_, err := NewExtractor(rate, 100)
	require.Error(t, err)
	_, err = NewExtractor(rate, 512)
	require.Error(t, err)
	_, err = NewExtractor(1, 1)
	require.Error(t, err)
}

func TestExtractDominantBand(t *testing.T) {
	e := newTestExtractor(t)

	alpha, err := e.Extract(sine(10, 20, 2*rate))
	require.NoError(t, err)
	require.Greater(t, alpha.Alpha, alpha.Beta)
	require.Greater(t, alpha.Alpha, alpha.Gamma)

	beta, err := e.Extract(sine(20, 20, 2*rate))
	require.NoError(t, err)
	require.Greater(t, beta.Beta, beta.Alpha)
	require.Greater(t, beta.Beta, beta.Gamma)

	gamma, err := e.Extract(sine(40, 20, 2*rate))
	require.NoError(t, err)
	require.Greater(t, gamma.Gamma, gamma.Alpha)
	require.Greater(t, gamma.Gamma, gamma.Beta)
}

func TestExtractDeterministicAndNonNegative(t *testing.T) {
	e := newTestExtractor(t)
	r := rand.New(rand.NewSource(7))
	window := make([]float64, 2*rate)
	for i := range window {
		window[i] = r.NormFloat64() * 10
	}
	orig := append([]float64(nil), window...)

	a, err := e.Extract(window)
	require.NoError(t, err)
	b, err := e.Extract(window)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Equal(t, orig, window, "input must not be modified")
	require.GreaterOrEqual(t, a.Alpha, 0.0)
	require.GreaterOrEqual(t, a.Beta, 0.0)
	require.GreaterOrEqual(t, a.Gamma, 0.0)
}

func TestExtractFlatWindowHasNoPower(t *testing.T) {
	e := newTestExtractor(t)
	p, err := e.Extract(make([]float64, rate))
	require.NoError(t, err)
	require.Zero(t, p.Total())
}

func TestExtractRemovesDrift(t *testing.T) {
	e := newTestExtractor(t)
	clean := sine(10, 5, 2*rate)
	drifting := make([]float64, len(clean))
	for i, v := range clean {
		drifting[i] = v + 300 + 0.8*float64(i)
	}

	a, err := e.Extract(clean)
	require.NoError(t, err)
	b, err := e.Extract(drifting)
	require.NoError(t, err)
	require.InDelta(t, a.Alpha, b.Alpha, 1e-6*a.Alpha+1e-9)
}

func TestExtractShortWindow(t *testing.T) {
	e := newTestExtractor(t)
	_, err := e.Extract(make([]float64, e.NFFT()-1))
	require.True(t, errors.Is(err, ErrShortWindow))
}

func TestPSDFrequencyAxis(t *testing.T) {
	e := newTestExtractor(t)
	freqs, psd, err := e.PSD(sine(10, 1, rate))
	require.NoError(t, err)
	require.Len(t, freqs, e.NFFT()/2+1)
	require.Len(t, psd, len(freqs))
	require.Zero(t, freqs[0])
	require.InDelta(t, rate/2.0, freqs[len(freqs)-1], 1e-9)
}

func TestDetrendLinearRamp(t *testing.T) {
	ramp := make([]float64, 64)
	for i := range ramp {
		ramp[i] = 3 + 0.5*float64(i)
	}
	for _, v := range Detrend(ramp) {
		require.InDelta(t, 0, v, 1e-9)
	}
	require.Equal(t, []float64{0}, Detrend([]float64{42}))
}

func TestBandPowerTrapezoid(t *testing.T) {
	freqs := []float64{8, 10, 12, 14}
	psd := []float64{1, 1, 1, 1}
	// 14 Hz is the first bin at or above 13 Hz, so [12,14] is included
	require.InDelta(t, 6.0, BandPower(freqs, psd, Alpha), 1e-12)
}

func TestBandPowerAdjacentBandsLeaveNoGap(t *testing.T) {
	e := newTestExtractor(t)
	freqs := make([]float64, e.NFFT()/2+1)
	psd := make([]float64, len(freqs))
	for k := range freqs {
		freqs[k] = float64(k) * rate / float64(e.NFFT())
		psd[k] = 1
	}
	total := BandPower(freqs, psd, Alpha) + BandPower(freqs, psd, Beta) + BandPower(freqs, psd, Gamma)
	// first bin >= 8 Hz is 9.77; first bin >= 50 Hz is 50.78
	require.InDelta(t, freqs[26]-freqs[5], total, 1e-9)
}

func TestBandPowerEmptyAboveNyquist(t *testing.T) {
	freqs := []float64{0, 10, 20}
	psd := []float64{1, 1, 1}
	require.Zero(t, BandPower(freqs, psd, Band{Lo: 30, Hi: 50}))
}

func TestUpperAlphaToneIsAlphaDominant(t *testing.T) {
	e := newTestExtractor(t)
	bp, err := e.Extract(sine(12.7, 10, rate))
	require.NoError(t, err)
	rel := Relative(bp)
	require.Greater(t, rel.Alpha, rel.Beta, "12.7 Hz must land in alpha: %+v", rel)
}

func TestRelativeSumsToOne(t *testing.T) {
	rel := Relative(BandPowers{Alpha: 2, Beta: 5, Gamma: 3})
	require.InDelta(t, 1.0, rel.Alpha+rel.Beta+rel.Gamma, 1e-12)
	require.InDelta(t, 0.2, rel.Alpha, 1e-12)
	require.InDelta(t, 0.5, rel.Beta, 1e-12)
}

func TestRelativeZeroTotal(t *testing.T) {
	require.Equal(t, RelativePowers{}, Relative(BandPowers{}))
}
