// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic sources and in-memory files for
// tests. It does not import the audio package so audio's own tests can use
// it.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the sample for a frame index and channel.
type Waveform func(frame, channel int) float32

// MockSource generates frames from a Waveform. It satisfies audio.Source,
// audio.Lengther and audio.Seeker.
type MockSource struct {
	rate     int
	channels int
	frames   int
	pos      int
	wave     Waveform
	closed   bool
}

// NewMockSource yields frames frames of wave.
func NewMockSource(rate, channels, frames int, wave Waveform) *MockSource {
	return &MockSource{rate: rate, channels: channels, frames: frames, wave: wave}
}

func NewSilentSource(rate, channels, frames int) *MockSource {
	return NewConstantSource(rate, channels, frames, 0)
}

// NewSineSource is a full-scale sine at freq Hz on every channel.
func NewSineSource(rate, channels, frames int, freq float64) *MockSource {
	step := 2 * math.Pi * freq / float64(rate)
	return NewMockSource(rate, channels, frames, func(frame, _ int) float32 {
		return float32(math.Sin(step * float64(frame)))
	})
}

func NewConstantSource(rate, channels, frames int, value float32) *MockSource {
	return NewMockSource(rate, channels, frames, func(int, int) float32 { return value })
}

func (m *MockSource) SampleRate() int { return m.rate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Frames() int64   { return int64(m.frames) }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Position is the next frame ReadSamples will produce.
func (m *MockSource) Position() int { return m.pos }

// Reset rewinds to the first frame.
func (m *MockSource) Reset() { m.pos = 0 }

// SeekFrame clamps frame to the source length.
func (m *MockSource) SeekFrame(frame int64) error {
	m.pos = int(min(max(frame, 0), int64(m.frames)))
	return nil
}

// ReadSamples returns io.EOF together with the final frames.
func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.pos >= m.frames {
		return 0, io.EOF
	}
	n := min(len(dst)/m.channels, m.frames-m.pos)

	for f := range n {
		for c := range m.channels {
			dst[f*m.channels+c] = m.wave(m.pos+f, c)
		}
	}
	m.pos += n

	if m.pos == m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}
