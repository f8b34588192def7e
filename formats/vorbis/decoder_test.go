// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/soundscape/audio"
)

// fakeOgg returns at most chunk values per Read, like the real decoder
// does at packet boundaries.
type fakeOgg struct {
	values   []float32
	pos      int
	chunk    int
	channels int
	seekable bool
}

func (f *fakeOgg) SampleRate() int { return 48000 }
func (f *fakeOgg) Channels() int   { return f.channels }
func (f *fakeOgg) Length() int64   { return int64(len(f.values) / f.channels) }

func (f *fakeOgg) Read(p []float32) (int, error) {
	if f.pos >= len(f.values) {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), f.chunk)], f.values[f.pos:])
	f.pos += n
	return n, nil
}

func (f *fakeOgg) SetPosition(pos int64) error {
	if !f.seekable {
		return errors.New("oggvorbis: not seekable")
	}
	f.pos = int(pos) * f.channels
	return nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("definitely not ogg"))); err == nil {
		t.Error("Decode() error = nil, want error for invalid input")
	}
}

func TestSource_ReadSamples_FillsAcrossPackets(t *testing.T) {
	t.Parallel()

	dec := &fakeOgg{values: []float32{1, 2, 3, 4, 5, 6, 7, 8}, chunk: 2, channels: 2}
	src := &source{dec: dec, sampleRate: 48000, channels: 2}

	dst := make([]float32, 6)
	n, err := src.ReadSamples(dst)
	if n != 6 || err != nil {
		t.Fatalf("ReadSamples() = %d, %v, want 6, nil", n, err)
	}
	if dst[5] != 6 {
		t.Errorf("dst[5] = %v, want 6", dst[5])
	}

	n, err = src.ReadSamples(dst)
	if n != 2 || err != io.EOF {
		t.Errorf("ReadSamples() = %d, %v, want 2, io.EOF", n, err)
	}
}

func TestSource_InvalidDstSize(t *testing.T) {
	t.Parallel()

	src := &source{dec: &fakeOgg{channels: 2, chunk: 2}, sampleRate: 48000, channels: 2}
	if _, err := src.ReadSamples(make([]float32, 3)); !errors.Is(err, audio.ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestSource_SeekFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seekable bool
		wantErr  error
	}{
		{"seekable", true, nil},
		{"not seekable", false, audio.ErrNotSeekable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dec := &fakeOgg{values: []float32{0, 0, 1, 1, 2, 2}, chunk: 8, channels: 2, seekable: tt.seekable}
			src := &source{dec: dec, sampleRate: 48000, channels: 2}

			if got := src.Frames(); got != 3 {
				t.Errorf("Frames() = %d, want 3", got)
			}
			err := src.SeekFrame(2)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SeekFrame() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && dec.pos != 4 {
				t.Errorf("decoder position = %d, want 4", dec.pos)
			}
		})
	}
}
