// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/soundscape/internal/audiotest"
)

func drain(t *testing.T, src Source) []float32 {
	t.Helper()

	buf := make([]float32, 1024)
	var samples []float32
	for {
		n, err := src.ReadSamples(buf)
		samples = append(samples, buf[:n]...)
		if err == io.EOF {
			return samples
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(audiotest.NewSilentSource(44100, 2, 1000), 8000)

	if resampler.SampleRate() != 8000 {
		t.Errorf("Resampler.SampleRate() = %d, want 8000", resampler.SampleRate())
	}
	if resampler.Channels() != 2 {
		t.Errorf("Resampler.Channels() = %d, want 2", resampler.Channels())
	}
}

func TestResampler_Rates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		from, to  int
		tolerance int
	}{
		{"downsample 44.1k to 8k", 44100, 8000, 100},
		{"upsample 8k to 44.1k", 8000, 44100, 500},
		{"upsample 22.05k to 48k", 22050, 48000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSineSource(tt.from, 1, tt.from, 440.0)
			samples := drain(t, NewResampler(src, tt.to))

			if len(samples) < tt.to-tt.tolerance || len(samples) > tt.to+tt.tolerance {
				t.Errorf("Resampled %d samples, want ≈%d (±%d)", len(samples), tt.to, tt.tolerance)
			}
			for i, s := range samples {
				if s < -1.5 || s > 1.5 {
					t.Fatalf("samples[%d] = %v, outside reasonable range [-1.5, 1.5]", i, s)
				}
			}
		})
	}
}

func TestResampler_ConstantPreserved(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 1, 100, 0.5)
	samples := drain(t, NewResampler(src, 8000))

	if len(samples) == 0 {
		t.Fatal("ReadSamples() returned 0 samples")
	}
	for i, s := range samples {
		if math.Abs(float64(s-0.5)) > 0.1 {
			t.Errorf("samples[%d] = %v, want ≈0.5", i, s)
		}
	}
}

func TestResampler_EOF(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(audiotest.NewSilentSource(44100, 1, 100), 8000)
	if len(drain(t, resampler)) == 0 {
		t.Error("No samples read before EOF")
	}

	n, err := resampler.ReadSamples(make([]float32, 64))
	if n != 0 || err != io.EOF {
		t.Errorf("After EOF, ReadSamples() = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(audiotest.NewSilentSource(44100, 2, 1000), 8000)

	if _, err := resampler.ReadSamples(make([]float32, 7)); !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("ReadSamples() with invalid size error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_FramesAndSeek(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(22050, 1, 22050)
	resampler := NewResampler(src, 44100)

	if got := resampler.Frames(); got != 44100 {
		t.Errorf("Frames() = %d, want 44100", got)
	}

	drain(t, resampler)
	if err := resampler.SeekFrame(22050); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	if got := src.Position(); got != 11025 {
		t.Errorf("source position after SeekFrame(22050) = %d, want 11025", got)
	}

	samples := drain(t, resampler)
	if len(samples) < 21000 || len(samples) > 23000 {
		t.Errorf("read %d samples after seek, want ≈22050", len(samples))
	}
}

func TestResampler_SeekUnsupported(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(onlySource{}, 44100)
	if err := resampler.SeekFrame(10); !errors.Is(err, ErrNotSeekable) {
		t.Errorf("SeekFrame() error = %v, want ErrNotSeekable", err)
	}
	if got := resampler.Frames(); got != -1 {
		t.Errorf("Frames() = %d, want -1", got)
	}
}

func BenchmarkResampler_Downsample(b *testing.B) {
	src := audiotest.NewSineSource(44100, 2, 100000, 440.0)
	resampler := NewResampler(src, 8000)
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		_, err := resampler.ReadSamples(buf)
		if err == io.EOF {
			src.Reset()
			resampler.reset()
		}
	}
}
