package acquisition

import (
	"context"
	"errors"
)

// #region errors
var (
	// ErrInsufficient means the source has not yet buffered a full window.
	// It is transient: callers skip the cycle and retry.
	ErrInsufficient = errors.New("acquisition: window not yet full")
	// ErrNotStarted is returned by sources polled before Start.
	ErrNotStarted = errors.New("acquisition: source not started")
	// ErrUnknownChannel is returned for channel IDs the source does not carry.
	ErrUnknownChannel = errors.New("acquisition: unknown channel")
)

// #endregion errors

// #region window
// Window is the most recent run of samples from one channel.
type Window struct {
	Channel      string
	SamplingRate int
	Samples      []float64
}

// Valid reports whether the window holds at least one second of samples.
func (w Window) Valid() bool {
	return w.SamplingRate > 0 && len(w.Samples) >= w.SamplingRate
}

// #endregion window

// #region source
// Source is the external streaming board. Start and Close bracket the
// streaming session; Window may be called any number of times in between.
type Source interface {
	Start(ctx context.Context) error
	Window(ctx context.Context, channel string) (Window, error)
	SamplingRate() int
	Close() error
}

// WindowSeconds is how much history a Window request asks for.
const WindowSeconds = 2

// #endregion source
