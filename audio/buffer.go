// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Buffer is fully decoded interleaved PCM held in memory.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// NewBuffer validates the layout and wraps samples without copying.
// A trailing partial frame is dropped.
func NewBuffer(samples []float32, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidRate
	}

	whole := len(samples) - len(samples)%channels
	return &Buffer{
		Samples:    samples[:whole],
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int64 {
	return int64(len(b.Samples) / b.Channels)
}

// Duration in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Source returns an independent reader positioned at the first frame.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf *Buffer
	pos int
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return s.buf.Channels }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }
func (s *bufferSource) Frames() int64   { return s.buf.Frames() }

func (s *bufferSource) SeekFrame(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	s.pos = int(min(frame, s.buf.Frames())) * s.buf.Channels
	return nil
}

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.buf.Channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if s.pos >= len(s.buf.Samples) {
		return 0, io.EOF
	}

	n := copy(dst, s.buf.Samples[s.pos:])
	s.pos += n
	if s.pos >= len(s.buf.Samples) {
		return n, io.EOF
	}
	return n, nil
}

// ReadAll drains src into a Buffer. bufferSize is the read chunk in samples
// and is rounded down to whole frames.
func ReadAll(src Source, bufferSize int) (*Buffer, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	chunk := max(bufferSize-bufferSize%channels, channels)
	buf := make([]float32, chunk)

	var samples []float32
	if frames := FramesOf(src); frames > 0 {
		samples = make([]float32, 0, int(frames)*channels)
	}

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
	}

	return NewBuffer(samples, src.SampleRate(), channels)
}

// Convert builds a pipeline that delivers src at sampleRate with the given
// channel count. It returns src itself when nothing needs converting.
func Convert(src Source, sampleRate, channels int) Source {
	out := src
	if out.Channels() != channels {
		out = NewRemixer(out, channels)
	}
	if out.SampleRate() != sampleRate {
		out = NewResampler(out, sampleRate)
	}
	return out
}
