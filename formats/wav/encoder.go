// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/utils"
)

// Writer streams float32 frames into a 16-bit PCM WAV. The header sizes are
// patched on Close, which is why the destination must be seekable.
type Writer struct {
	enc      *gowav.Encoder
	format   *goaudio.Format
	channels int
	ints     []int
}

func NewWriter(ws io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	if channels <= 0 {
		return nil, audio.ErrInvalidChannels
	}
	if sampleRate <= 0 {
		return nil, audio.ErrInvalidRate
	}

	return &Writer{
		enc:      gowav.NewEncoder(ws, sampleRate, 16, channels, formatPCM),
		format:   &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		channels: channels,
	}, nil
}

// Write appends interleaved samples. len(samples) must be whole frames.
func (w *Writer) Write(samples []float32) error {
	if len(samples)%w.channels != 0 {
		return audio.ErrInvalidDstSize
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(w.ints) < len(samples) {
		w.ints = make([]int, len(samples))
	}
	w.ints = w.ints[:len(samples)]
	for i, s := range samples {
		w.ints[i] = int(utils.Float32ToInt16(s))
	}

	buf := &goaudio.IntBuffer{Data: w.ints, Format: w.format, SourceBitDepth: 16}
	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav frames: %w", err)
	}
	return nil
}

// Close finalises the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("closing wav encoder: %w", err)
	}
	return nil
}

// Encode writes buf as a complete 16-bit PCM WAV.
func Encode(ws io.WriteSeeker, buf *audio.Buffer) error {
	w, err := NewWriter(ws, buf.SampleRate, buf.Channels)
	if err != nil {
		return err
	}
	if err := w.Write(buf.Samples); err != nil {
		return err
	}
	return w.Close()
}
