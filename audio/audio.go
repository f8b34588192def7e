// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"io"
	"slices"
	"sync"
)

// Source is a pull-based stream of interleaved float32 PCM.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Lengther is implemented by sources that know their total length in frames
// up front. A negative value means the length is unknown.
type Lengther interface {
	Frames() int64
}

// Seeker is implemented by sources that can reposition to a frame offset.
type Seeker interface {
	SeekFrame(frame int64) error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc func(r io.Reader) (Source, error)

func (f DecoderFunc) Decode(r io.Reader) (Source, error) { return f(r) }

// Registry for decoders by format key (see the Format* constants).
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.RWMutex{},
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered format keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// Decode sniffs the format of data and runs the matching decoder.
// hint, when not empty, overrides sniffing.
func (r *Registry) Decode(data []byte, hint string) (Source, string, error) {
	format := hint
	if format == "" {
		format = DetectFormat(data)
	}

	d, ok := r.Get(format)
	if !ok {
		return nil, format, ErrUnknownFormat
	}

	src, err := d.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, err
	}

	return src, format, nil
}

// FramesOf reports the length of src in frames, or -1 when src cannot tell.
func FramesOf(src Source) int64 {
	if l, ok := src.(Lengther); ok {
		return l.Frames()
	}
	return -1
}

// SeekFrame repositions src when it implements Seeker.
func SeekFrame(src Source, frame int64) error {
	s, ok := src.(Seeker)
	if !ok {
		return ErrNotSeekable
	}
	return s.SeekFrame(frame)
}
