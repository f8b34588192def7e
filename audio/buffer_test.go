// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/soundscape/internal/audiotest"
)

func TestNewBuffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		samples    int
		rate       int
		channels   int
		wantFrames int64
		wantErr    error
	}{
		{"stereo", 8, 8000, 2, 4, nil},
		{"drops partial frame", 9, 8000, 2, 4, nil},
		{"zero channels", 8, 8000, 0, 0, ErrInvalidChannels},
		{"zero rate", 8, 0, 1, 0, ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf, err := NewBuffer(make([]float32, tt.samples), tt.rate, tt.channels)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewBuffer() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := buf.Frames(); got != tt.wantFrames {
				t.Errorf("Frames() = %d, want %d", got, tt.wantFrames)
			}
		})
	}
}

func TestBuffer_Duration(t *testing.T) {
	t.Parallel()

	buf, err := NewBuffer(make([]float32, 44100*2), 44100, 2)
	if err != nil {
		t.Fatal(err)
	}

	if got := buf.Duration(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Duration() = %v, want 1.0", got)
	}
}

func TestBufferSource_ReadAndSeek(t *testing.T) {
	t.Parallel()

	buf, _ := NewBuffer([]float32{0, 1, 2, 3, 4, 5}, 8000, 1)
	src := buf.Source()

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if n != 4 || err != nil {
		t.Fatalf("ReadSamples() = %d, %v, want 4, nil", n, err)
	}

	n, err = src.ReadSamples(dst)
	if n != 2 || err != io.EOF {
		t.Fatalf("ReadSamples() = %d, %v, want 2, io.EOF", n, err)
	}

	if err := SeekFrame(src, 3); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	n, _ = src.ReadSamples(dst[:1])
	if n != 1 || dst[0] != 3 {
		t.Errorf("after SeekFrame(3) read %v, want 3", dst[0])
	}
}

func TestReadAll(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 2, 1000, 0.25)
	buf, err := ReadAll(src, 333)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if buf.Frames() != 1000 {
		t.Errorf("Frames() = %d, want 1000", buf.Frames())
	}
	if buf.Channels != 2 || buf.SampleRate != 8000 {
		t.Errorf("layout = %d ch @ %d, want 2 ch @ 8000", buf.Channels, buf.SampleRate)
	}
	for i, s := range buf.Samples {
		if s != 0.25 {
			t.Fatalf("Samples[%d] = %v, want 0.25", i, s)
		}
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(22050, 1, 22050)

	if got := Convert(src, 22050, 1); got != Source(src) {
		t.Error("Convert() wrapped a source that needed no conversion")
	}

	out := Convert(src, 44100, 2)
	if out.SampleRate() != 44100 || out.Channels() != 2 {
		t.Errorf("Convert() = %d ch @ %d, want 2 ch @ 44100", out.Channels(), out.SampleRate())
	}
	if frames := FramesOf(out); frames != 44100 {
		t.Errorf("FramesOf(Convert()) = %d, want 44100", frames)
	}
}

func BenchmarkReadAll(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(44100, 2, 44100, 440)
		if _, err := ReadAll(src, 4096); err != nil {
			b.Fatal(err)
		}
	}
}
