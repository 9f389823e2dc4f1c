package session

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region features
// Features reads the latest window of both channels and extracts band
// powers. The left channel is C4 and the right channel is C3.
type Features struct {
	src       acquisition.Source
	extractor *spectral.Extractor
	left      string
	right     string
}

// NewFeatures builds a reader over src. The extractor's segment length
// follows the nearest power of two at or below the source rate.
func NewFeatures(src acquisition.Source, left, right string) (*Features, error) {
	rate := src.SamplingRate()
	ext, err := spectral.NewExtractor(rate, spectral.NearestPowerOfTwo(rate))
	if err != nil {
		return nil, fmt.Errorf("extractor for %d Hz: %w", rate, err)
	}
	return &Features{src: src, extractor: ext, left: left, right: right}, nil
}

// Read returns absolute band powers for both sides. It fails with an error
// wrapping acquisition.ErrInsufficient while either window is filling.
func (f *Features) Read(ctx context.Context) (left, right spectral.BandPowers, err error) {
	left, err = f.side(ctx, f.left)
	if err != nil {
		return spectral.BandPowers{}, spectral.BandPowers{}, err
	}
	right, err = f.side(ctx, f.right)
	if err != nil {
		return spectral.BandPowers{}, spectral.BandPowers{}, err
	}
	return left, right, nil
}

// Sample returns relative powers for both sides, for calibration.
func (f *Features) Sample(ctx context.Context) (calibration.Sample, error) {
	left, right, err := f.Read(ctx)
	if err != nil {
		return calibration.Sample{}, err
	}
	return calibration.Sample{
		Left:  spectral.Relative(left),
		Right: spectral.Relative(right),
	}, nil
}

func (f *Features) side(ctx context.Context, channel string) (spectral.BandPowers, error) {
	w, err := f.src.Window(ctx, channel)
	if err != nil {
		return spectral.BandPowers{}, err
	}
	if !w.Valid() {
		return spectral.BandPowers{}, fmt.Errorf("%w: %s", acquisition.ErrInsufficient, channel)
	}
	bp, err := f.extractor.Extract(w.Samples)
	if err != nil {
		return spectral.BandPowers{}, fmt.Errorf("extract %s: %w", channel, err)
	}
	return bp, nil
}

// #endregion features
