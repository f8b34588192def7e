// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Remixer converts the channel layout of a Source. Downmixing averages the
// input channels folded onto each output channel; upmixing repeats them.
type Remixer struct {
	src      Source
	channels int
	tmp      []float32
}

func NewRemixer(src Source, channels int) *Remixer {
	return &Remixer{
		src:      src,
		channels: max(channels, 1),
		tmp:      make([]float32, 4096),
	}
}

func (m *Remixer) SampleRate() int { return m.src.SampleRate() }
func (m *Remixer) Channels() int   { return m.channels }
func (m *Remixer) BufSize() int    { return m.src.BufSize() }
func (m *Remixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// Frames passes through the source length, or -1.
func (m *Remixer) Frames() int64 { return FramesOf(m.src) }

func (m *Remixer) SeekFrame(frame int64) error { return SeekFrame(m.src, frame) }

func (m *Remixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	in := m.src.Channels()
	if in == m.channels {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / m.channels
	samplesNeeded := frames * in

	// Grow but never shrink.
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	got := n / in

	switch {
	case m.channels == 1 && in == 2:
		for f := range got {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case in == 1:
		for f := range got {
			v := m.tmp[f]
			base := f * m.channels
			for c := range m.channels {
				dst[base+c] = v
			}
		}
	case in > m.channels:
		m.fold(dst, got, in)
	default:
		for f := range got {
			src := m.tmp[f*in : f*in+in]
			base := f * m.channels
			for c := range m.channels {
				dst[base+c] = src[c%in]
			}
		}
	}

	return got * m.channels, err
}

// fold averages input channel c, c+out, c+2*out... into output channel c.
func (m *Remixer) fold(dst []float32, frames, in int) {
	out := m.channels
	for f := range frames {
		src := m.tmp[f*in : f*in+in]
		base := f * out
		for c := range out {
			var sum float32
			var k int
			for i := c; i < in; i += out {
				sum += src[i]
				k++
			}
			dst[base+c] = sum / float32(k)
		}
	}
}
