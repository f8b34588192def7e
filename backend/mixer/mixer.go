// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/formats/wav"
	"github.com/ik5/soundscape/spatial"
	"golang.org/x/time/rate"
)

const Name = "mixer"

// Options configures a Mixer.
type Options struct {
	SampleRate int
	// Channels is 1 or 2; panning needs 2.
	Channels int
	// NativeSpatializer gives voices a Spatializer so distance, pan and
	// Doppler are rendered here instead of by the caller.
	NativeSpatializer bool
	Logger            *slog.Logger
}

// Mixer is a software backend. Render pulls the mix; the audio clock is the
// number of frames rendered so far. All methods are safe to call while
// another goroutine renders.
type Mixer struct {
	mu sync.Mutex

	rate     int
	channels int
	caps     backend.Capabilities
	logger   *slog.Logger
	warn     *rate.Sometimes

	frames   int64
	master   float32
	listener backend.Listener
	doppler  backend.Doppler

	active  []mixable
	capture *wav.Writer
	closed  bool
	readBuf []float32
}

// mixable is a started node. mix adds n frames into dst and reports whether
// the node is finished and must leave the active list.
type mixable interface {
	mix(dst []float32, n int) (done bool)
}

func New(opts Options) *Mixer {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.Channels != 1 {
		opts.Channels = 2
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Mixer{
		rate:     opts.SampleRate,
		channels: opts.Channels,
		caps: backend.Capabilities{
			NativeSpatializer: opts.NativeSpatializer,
			Looping:           true,
		},
		logger:  opts.Logger.With("backend", Name),
		warn:    &rate.Sometimes{Interval: time.Second},
		master:  1,
		doppler: backend.Doppler{Factor: 1, Velocity: 1, SpeedOfSound: 343.3},
		listener: backend.Listener{
			Transform: spatial.Identity(),
		},
	}
}

func (m *Mixer) Name() string                       { return Name }
func (m *Mixer) SampleRate() int                    { return m.rate }
func (m *Mixer) Channels() int                      { return m.channels }
func (m *Mixer) Capabilities() backend.Capabilities { return m.caps }
func (m *Mixer) MasterGain() backend.GainStage      { return masterStage{m} }

func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return float64(m.frames) / float64(m.rate)
}

func (m *Mixer) SetListener(l backend.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listener = l
}

func (m *Mixer) SetDoppler(d backend.Doppler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doppler = d
}

type masterStage struct{ m *Mixer }

func (s masterStage) SetGain(g float32) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	s.m.master = g
}

// Render mixes len(dst)/Channels frames into dst, overwriting it, and
// advances the clock. It returns the number of frames rendered.
func (m *Mixer) Render(dst []float32) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(dst) / m.channels
	dst = dst[:n*m.channels]
	clear(dst)
	if m.closed || n == 0 {
		return 0
	}

	kept := m.active[:0]
	for _, node := range m.active {
		if !node.mix(dst, n) {
			kept = append(kept, node)
		}
	}
	clear(m.active[len(kept):])
	m.active = kept

	if m.master != 1 {
		for i := range dst {
			dst[i] *= m.master
		}
	}

	if m.capture != nil {
		if err := m.capture.Write(dst); err != nil {
			m.logger.Error("capture write failed, capture stopped", "err", err)
			m.capture = nil
		}
	}

	m.frames += int64(n)
	return n
}

// Advance renders and discards d worth of audio. Offline tools and tests
// use it to move the clock without an output device.
func (m *Mixer) Advance(d time.Duration) {
	frames := int(math.Round(d.Seconds() * float64(m.rate)))
	buf := make([]float32, 1024*m.channels)
	for frames > 0 {
		chunk := min(frames, 1024)
		frames -= max(m.Render(buf[:chunk*m.channels]), chunk)
	}
}

// Read renders float32 little-endian frames, the layout oto players pull.
// It reuses one buffer, so only a single goroutine may call it.
func (m *Mixer) Read(p []byte) (int, error) {
	frameBytes := 4 * m.channels
	n := len(p) / frameBytes
	if n == 0 {
		return 0, nil
	}

	if cap(m.readBuf) < n*m.channels {
		m.readBuf = make([]float32, n*m.channels)
	}
	buf := m.readBuf[:n*m.channels]
	m.Render(buf)

	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return n * frameBytes, nil
}

// StartCapture tees everything rendered from now on into a 16-bit WAV.
func (m *Mixer) StartCapture(ws io.WriteSeeker) error {
	w, err := wav.NewWriter(ws, m.rate, m.channels)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.capture = w
	return nil
}

// StopCapture finalises the WAV header.
func (m *Mixer) StopCapture() error {
	m.mu.Lock()
	w := m.capture
	m.capture = nil
	m.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Close()
}

func (m *Mixer) Close() error {
	m.mu.Lock()
	m.closed = true
	clear(m.active)
	m.active = nil
	m.mu.Unlock()

	return m.StopCapture()
}

func (m *Mixer) NewBuffer(buf *audio.Buffer) (backend.Buffer, error) {
	if buf.SampleRate != m.rate {
		return nil, backend.ErrUnsupportedAsset
	}
	if buf.Channels != 1 && buf.Channels != m.channels {
		return nil, backend.ErrUnsupportedAsset
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, backend.ErrClosed
	}
	return &buffer{pcm: buf}, nil
}

// activate must be called with m.mu held.
func (m *Mixer) activate(node mixable) {
	m.active = append(m.active, node)
}

// deactivate must be called with m.mu held.
func (m *Mixer) deactivate(node mixable) {
	for i, n := range m.active {
		if n == node {
			last := len(m.active) - 1
			m.active[i] = m.active[last]
			m.active[last] = nil
			m.active = m.active[:last]
			return
		}
	}
}

type buffer struct {
	pcm      *audio.Buffer
	released bool
}

func (b *buffer) Duration() float64 { return b.pcm.Duration() }
func (b *buffer) Release()          { b.released = true }
