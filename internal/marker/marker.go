package marker

import (
	"bufio"
	"io"
	"sync"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

// DefaultDebounce ignores presses closer together than this.
const DefaultDebounce = 300 * time.Millisecond

// #region marker
// Marker reports operator event markers.
type Marker interface {
	// Poll returns the next marker number when a press happened since the
	// previous poll.
	Poll() (int, bool)
}

// None never reports a marker.
type None struct{}

func (None) Poll() (int, bool) { return 0, false }

// #endregion marker

// #region keyboard
// Keyboard numbers debounced key presses 1, 2, 3, ... Several presses
// between polls collapse into one marker.
type Keyboard struct {
	clock    schedule.Clock
	debounce time.Duration

	mu      sync.Mutex
	last    time.Time
	pending bool
	count   int
	done    chan struct{}
}

// NewKeyboard creates a marker source. A nil clock uses schedule.Wall.
func NewKeyboard(clock schedule.Clock, debounce time.Duration) *Keyboard {
	if clock == nil {
		clock = schedule.Wall
	}
	return &Keyboard{clock: clock, debounce: debounce, done: make(chan struct{})}
}

// Press records one key press.
func (k *Keyboard) Press() {
	now := k.clock.Now()
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.last.IsZero() && now.Sub(k.last) < k.debounce {
		return
	}
	k.last = now
	k.pending = true
}

func (k *Keyboard) Poll() (int, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.pending {
		return 0, false
	}
	k.pending = false
	k.count++
	return k.count, true
}

// Listen treats every line read from r as one press. It returns when r is
// exhausted; Done is closed at that point.
func (k *Keyboard) Listen(r io.Reader) {
	defer close(k.done)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		k.Press()
	}
}

// Done is closed once Listen returns.
func (k *Keyboard) Done() <-chan struct{} {
	return k.done
}

// #endregion keyboard
