// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ik5/soundscape/audio"
)

// pcmReader stands in for gomp3.Decoder over a fixed PCM payload.
type pcmReader struct {
	*bytes.Reader
	rate     int
	length   int64
	seekErr  error
}

func (p *pcmReader) SampleRate() int { return p.rate }
func (p *pcmReader) Length() int64   { return p.length }
func (p *pcmReader) Seek(offset int64, whence int) (int64, error) {
	if p.seekErr != nil {
		return 0, p.seekErr
	}
	return p.Reader.Seek(offset, whence)
}

func newPCMReader(frames []int16) *pcmReader {
	var b bytes.Buffer
	for _, v := range frames {
		_ = binary.Write(&b, binary.LittleEndian, v)
	}
	return &pcmReader{Reader: bytes.NewReader(b.Bytes()), rate: 44100, length: int64(b.Len())}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("not an mp3 stream"))); err == nil {
		t.Error("Decode() error = nil, want error for invalid input")
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := &source{dec: newPCMReader([]int16{16384, -16384, 0, 32767}), sampleRate: 44100}

	if src.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", src.Channels())
	}
	if got := src.Frames(); got != 2 {
		t.Errorf("Frames() = %d, want 2", got)
	}

	dst := make([]float32, 8)
	n, err := src.ReadSamples(dst)
	if n != 4 || err != nil {
		t.Fatalf("ReadSamples() = %d, %v, want 4, nil", n, err)
	}
	want := []float32{0.5, -0.5, 0}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], w)
		}
	}

	n, err = src.ReadSamples(dst)
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() at end = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestSource_SeekFrame(t *testing.T) {
	t.Parallel()

	src := &source{dec: newPCMReader([]int16{1, 1, 2, 2, 16384, 16384}), sampleRate: 44100}
	if err := src.SeekFrame(2); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}

	dst := make([]float32, 2)
	if _, err := src.ReadSamples(dst); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 0.5 {
		t.Errorf("sample after SeekFrame(2) = %v, want 0.5", dst[0])
	}
}

func TestSource_SeekUnsupported(t *testing.T) {
	t.Parallel()

	r := newPCMReader([]int16{0, 0})
	r.seekErr = errors.New("mp3: source must be io.Seeker")
	r.length = -1
	src := &source{dec: r, sampleRate: 44100}

	if err := src.SeekFrame(1); !errors.Is(err, audio.ErrNotSeekable) {
		t.Errorf("SeekFrame() error = %v, want ErrNotSeekable", err)
	}
	if got := src.Frames(); got != -1 {
		t.Errorf("Frames() = %d, want -1", got)
	}
}
