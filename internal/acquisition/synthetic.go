package acquisition

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

// #region profile
// Profile shapes one synthetic channel as a mixture of band-centred sines,
// Gaussian noise and slow drift. Amplitudes are in microvolts.
type Profile struct {
	Alpha float64 `yaml:"alpha"` // 10 Hz
	Beta  float64 `yaml:"beta"`  // 20 Hz
	Gamma float64 `yaml:"gamma"` // 40 Hz
	Noise float64 `yaml:"noise"`
	Drift float64 `yaml:"drift"` // uV per second
}

// RestProfile is a relaxed, alpha-dominant channel.
func RestProfile() Profile {
	return Profile{Alpha: 12, Beta: 4, Gamma: 1.5, Noise: 1, Drift: 2}
}

// ImageryProfile suppresses alpha and raises beta, as during motor imagery.
func ImageryProfile() Profile {
	return Profile{Alpha: 4, Beta: 10, Gamma: 1.5, Noise: 1, Drift: 2}
}

// MovementProfile is imagery plus a strong gamma component.
func MovementProfile() Profile {
	return Profile{Alpha: 4, Beta: 10, Gamma: 9, Noise: 1, Drift: 2}
}

// #endregion profile

// #region synthetic
// Synthetic is an in-process board that generates samples lazily from the
// elapsed clock time, so it needs no goroutine and runs under simulated time.
type Synthetic struct {
	mu        sync.Mutex
	rate      int
	clock     schedule.Clock
	rng       *rand.Rand
	rings     map[string]*Ring
	profiles  map[string]Profile
	started   bool
	startedAt time.Time
	generated int64
}

// NewSynthetic creates a board streaming the given channels at rate Hz.
func NewSynthetic(rate int, profiles map[string]Profile, seed int64, clock schedule.Clock) *Synthetic {
	if clock == nil {
		clock = schedule.Wall
	}
	s := &Synthetic{
		rate:     rate,
		clock:    clock,
		rng:      rand.New(rand.NewSource(seed)),
		rings:    make(map[string]*Ring, len(profiles)),
		profiles: make(map[string]Profile, len(profiles)),
	}
	for ch, p := range profiles {
		s.rings[ch] = NewRing(WindowSeconds * rate * 2)
		s.profiles[ch] = p
	}
	return s
}

func (s *Synthetic) SamplingRate() int {
	return s.rate
}

// Channels lists the channel IDs in sorted order.
func (s *Synthetic) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rings))
	for ch := range s.rings {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

func (s *Synthetic) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rate <= 0 {
		return fmt.Errorf("synthetic board: invalid sampling rate %d", s.rate)
	}
	s.started = true
	s.startedAt = s.clock.Now()
	s.generated = 0
	return nil
}

// SetProfile changes a channel's signal shape from the next generated sample.
func (s *Synthetic) SetProfile(channel string, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[channel]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	s.profiles[channel] = p
	return nil
}

func (s *Synthetic) Window(_ context.Context, channel string) (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return Window{}, ErrNotStarted
	}
	ring, ok := s.rings[channel]
	if !ok {
		return Window{}, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	s.fill()

	w := Window{
		Channel:      channel,
		SamplingRate: s.rate,
		Samples:      ring.Latest(WindowSeconds * s.rate),
	}
	if !w.Valid() {
		return Window{}, fmt.Errorf("%w: %s has %d of %d samples", ErrInsufficient, channel, len(w.Samples), s.rate)
	}
	return w, nil
}

func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

// fill generates every sample due since the last call. Channels are
// generated in sorted order so a fixed seed is reproducible.
func (s *Synthetic) fill() {
	due := int64(s.clock.Now().Sub(s.startedAt).Seconds() * float64(s.rate))
	if due <= s.generated || len(s.rings) == 0 {
		return
	}
	channels := make([]string, 0, len(s.rings))
	for ch := range s.rings {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	start := s.generated
	if limit := int64(s.rings[channels[0]].capacity); due-start > limit {
		start = due - limit
	}
	for n := start; n < due; n++ {
		t := float64(n) / float64(s.rate)
		for _, ch := range channels {
			p := s.profiles[ch]
			v := p.Alpha*math.Sin(2*math.Pi*10*t) +
				p.Beta*math.Sin(2*math.Pi*20*t) +
				p.Gamma*math.Sin(2*math.Pi*40*t) +
				p.Noise*s.rng.NormFloat64() +
				p.Drift*t
			s.rings[ch].Push(v)
		}
	}
	s.generated = due
}

// #endregion synthetic
