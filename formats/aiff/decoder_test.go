// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/internal/audiotest"
)

// fakeReader simulates the aiff.Decoder for testing
type fakeReader struct {
	samples []int
	offset  int
	err     error
}

func (m *fakeReader) Format() *goaudio.Format {
	return &goaudio.Format{SampleRate: 22050, NumChannels: 1}
}

func (m *fakeReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func encodeAIFF(t *testing.T, frames int) []byte {
	t.Helper()

	data := make([]int, frames)
	for i := range data {
		data[i] = i * 16
	}

	out := audiotest.NewMemFile()
	enc := aiff.NewEncoder(out, 22050, 16, 1)
	buf := &goaudio.IntBuffer{Data: data, Format: &goaudio.Format{SampleRate: 22050, NumChannels: 1}, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encoder Write() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoder Close() error = %v", err)
	}
	return out.Bytes()
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("This is not AIFF data")))
	if !errors.Is(err, ErrNotAiffFile) {
		t.Errorf("Decode() error = %v, want ErrNotAiffFile", err)
	}
}

func TestDecoder_RoundTrip(t *testing.T) {
	t.Parallel()

	src, err := Decoder{}.Decode(bytes.NewReader(encodeAIFF(t, 1000)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if src.SampleRate() != 22050 || src.Channels() != 1 {
		t.Errorf("layout = %d ch @ %d, want 1 ch @ 22050", src.Channels(), src.SampleRate())
	}
	if got := audio.FramesOf(src); got != 1000 {
		t.Errorf("Frames() = %d, want 1000", got)
	}

	if err := audio.SeekFrame(src, 500); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	dst := make([]float32, 1)
	if _, err := src.ReadSamples(dst); err != nil {
		t.Fatal(err)
	}
	want := float32(500*16) / 32768
	if math.Abs(float64(dst[0]-want)) > 1e-6 {
		t.Errorf("sample after SeekFrame(500) = %v, want %v", dst[0], want)
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := &source{dec: &fakeReader{samples: []int{16384, -32768, 0}}, sampleRate: 22050, channels: 1, bitDepth: 16}

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if n != 3 || err != io.EOF {
		t.Fatalf("ReadSamples() = %d, %v, want 3, io.EOF", n, err)
	}
	if dst[0] != 0.5 || dst[1] != -1 || dst[2] != 0 {
		t.Errorf("ReadSamples() values = %v", dst[:3])
	}

	if n, err := src.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() at end = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	src := &source{dec: &fakeReader{err: io.ErrUnexpectedEOF}, channels: 1, bitDepth: 16}
	if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestSource_BitDepthNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bitDepth int
		raw      int
	}{
		{8, -128},
		{16, -32768},
		{24, -8388608},
		{32, -2147483648},
	}

	for _, tt := range tests {
		src := &source{dec: &fakeReader{samples: []int{tt.raw}}, channels: 1, bitDepth: tt.bitDepth}
		dst := make([]float32, 1)
		if _, err := src.ReadSamples(dst); err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
		if dst[0] != -1 {
			t.Errorf("%d-bit min sample = %v, want -1", tt.bitDepth, dst[0])
		}
	}
}

func TestSource_SeekWithoutReader(t *testing.T) {
	t.Parallel()

	src := &source{dec: &fakeReader{}, channels: 1}
	if err := src.SeekFrame(3); !errors.Is(err, audio.ErrNotSeekable) {
		t.Errorf("SeekFrame() error = %v, want ErrNotSeekable", err)
	}
}
