// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/soundscape/utils"
)

// lowpassAlpha is the one-pole coefficient applied to input before
// downsampling, roughly at the output Nyquist.
const lowpassAlpha = 0.5

// Resampler converts src to another sample rate with Catmull-Rom
// interpolation, keeping the channel count. Downsampling passes the input
// through a one-pole low-pass first. Length and seeking are forwarded to
// src when it supports them.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // input frames per output frame
	channels int

	// win holds four consecutive input frames; output is interpolated
	// between win[1] and win[2] at phase. ok marks which slots hold data.
	win    [4][]float32
	ok     [4]bool
	phase  float64
	primed bool

	in     []float32
	inPos  int
	inLen  int
	srcEOF bool
	// padded is set once the last input frame has been repeated so the
	// final interval is covered.
	padded bool
	last   []float32

	lowpass bool
	lpInit  bool
	lpState []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	ch := src.Channels()
	chunk := max(src.BufSize(), 256*ch)

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		ratio:    float64(src.SampleRate()) / float64(dstRate),
		channels: ch,
		in:       make([]float32, chunk-chunk%ch),
		last:     make([]float32, ch),
		lpState:  make([]float32, ch),
	}
	r.lowpass = r.ratio > 1
	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

// Frames scales the source length to the output rate, or returns -1.
func (r *Resampler) Frames() int64 {
	frames := FramesOf(r.src)
	if frames < 0 {
		return -1
	}
	return int64(math.Round(float64(frames) / r.ratio))
}

// SeekFrame moves src to the input frame matching the output frame and
// drops the interpolation history.
func (r *Resampler) SeekFrame(frame int64) error {
	if err := SeekFrame(r.src, int64(math.Round(float64(frame)*r.ratio))); err != nil {
		return err
	}
	r.reset()
	return nil
}

func (r *Resampler) reset() {
	r.ok = [4]bool{}
	r.phase = 0
	r.primed = false
	r.inPos, r.inLen = 0, 0
	r.srcEOF = false
	r.padded = false
	r.lpInit = false
}

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampled source: %w", err)
	}
	return nil
}

// next copies the next input frame into dst. After the source ends it
// repeats the final frame once and then reports false.
func (r *Resampler) next(dst []float32) (bool, error) {
	for r.inPos >= r.inLen {
		if r.srcEOF {
			if r.padded || !r.lpInit {
				return false, nil
			}
			r.padded = true
			copy(dst, r.last)
			return true, nil
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels
		switch {
		case errors.Is(err, io.EOF):
			r.srcEOF = true
		case err != nil:
			return false, fmt.Errorf("resampling: %w", err)
		case n == 0:
			return false, io.ErrNoProgress
		}
	}

	frame := r.in[r.inPos : r.inPos+r.channels]
	r.inPos += r.channels

	if !r.lpInit {
		copy(r.lpState, frame)
		r.lpInit = true
	}
	if r.lowpass {
		for c, v := range frame {
			r.lpState[c] = lowpassAlpha*v + (1-lowpassAlpha)*r.lpState[c]
			frame[c] = r.lpState[c]
		}
	}

	copy(dst, frame)
	copy(r.last, frame)
	return true, nil
}

// shift slides the window one input frame forward.
func (r *Resampler) shift() error {
	w := r.win
	r.win = [4][]float32{w[1], w[2], w[3], w[0]}
	r.ok = [4]bool{r.ok[1], r.ok[2], r.ok[3], false}

	ok, err := r.next(r.win[3])
	r.ok[3] = ok
	return err
}

func (r *Resampler) prime() error {
	r.primed = true
	for i := 1; i < 4; i++ {
		ok, err := r.next(r.win[i])
		if err != nil {
			return err
		}
		r.ok[i] = ok
	}
	return nil
}

// ReadSamples fills dst with interleaved output frames. len(dst) must be
// a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	for written < len(dst) {
		for r.phase >= 1 {
			r.phase--
			if err := r.shift(); err != nil {
				return written, err
			}
		}
		if !r.ok[1] || !r.ok[2] {
			return written, io.EOF
		}

		y0, y3 := r.win[0], r.win[3]
		if !r.ok[0] {
			y0 = r.win[1]
		}
		if !r.ok[3] {
			y3 = r.win[2]
		}
		x := float32(r.phase)
		for c := range r.channels {
			dst[written+c] = utils.CubicInterpolate(y0[c], r.win[1][c], r.win[2][c], y3[c], x)
		}

		written += r.channels
		r.phase += r.ratio
	}
	return written, nil
}
