// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/soundscape/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// DefaultTail is how long rendering continues after the last event so
// releases and reverb decay are not cut off.
const DefaultTail = 1.0

// renderer is the part of meltysynth.MidiFileSequencer the source drives.
type renderer interface {
	Render(left, right []float32)
}

// Decoder renders Standard MIDI Files to stereo PCM with a SoundFont.
type Decoder struct {
	SoundFont  *meltysynth.SoundFont
	SampleRate int
	// Tail in seconds; zero means DefaultTail.
	Tail float64
}

// LoadSoundFont parses an SF2 bank for use in Decoder.
func LoadSoundFont(r io.Reader) (*meltysynth.SoundFont, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, fmt.Errorf("loading soundfont: %w", err)
	}
	return sf, nil
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	if d.SoundFont == nil {
		return nil, ErrNoSoundFont
	}
	if d.SampleRate <= 0 {
		return nil, ErrSampleRate
	}

	song, err := meltysynth.NewMidiFile(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	tail := d.Tail
	if tail <= 0 {
		tail = DefaultTail
	}
	frames := int64(math.Ceil((song.GetLength().Seconds() + tail) * float64(d.SampleRate)))

	s := &source{
		sampleRate: d.SampleRate,
		frames:     frames,
	}
	s.restart = func() (renderer, error) {
		synth, err := meltysynth.NewSynthesizer(d.SoundFont, meltysynth.NewSynthesizerSettings(int32(d.SampleRate)))
		if err != nil {
			return nil, fmt.Errorf("creating synthesizer: %w", err)
		}
		seq := meltysynth.NewMidiFileSequencer(synth)
		seq.Play(song, false)
		return seq, nil
	}

	if s.seq, err = s.restart(); err != nil {
		return nil, err
	}
	return s, nil
}

type source struct {
	seq        renderer
	restart    func() (renderer, error)
	sampleRate int
	frames     int64
	pos        int64
	left       []float32
	right      []float32
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return 2 }
func (s *source) BufSize() int    { return 2 * cap(s.left) }
func (s *source) Close() error    { return nil }
func (s *source) Frames() int64   { return s.frames }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%2 != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := int(min(int64(len(dst)/2), s.frames-s.pos))
	s.render(n)
	for i := range n {
		dst[2*i] = s.left[i]
		dst[2*i+1] = s.right[i]
	}
	s.pos += int64(n)

	if s.pos >= s.frames {
		return 2 * n, io.EOF
	}
	return 2 * n, nil
}

func (s *source) render(n int) {
	if cap(s.left) < n {
		s.left = make([]float32, n)
		s.right = make([]float32, n)
	}
	s.left, s.right = s.left[:n], s.right[:n]
	s.seq.Render(s.left, s.right)
}

// SeekFrame restarts the sequencer and renders up to frame, since synthesis
// state cannot be recreated at an arbitrary point.
func (s *source) SeekFrame(frame int64) error {
	seq, err := s.restart()
	if err != nil {
		return err
	}
	s.seq = seq
	s.pos = 0

	target := max(0, min(frame, s.frames))
	for s.pos < target {
		n := int(min(target-s.pos, 4096))
		s.render(n)
		s.pos += int64(n)
	}
	return nil
}
