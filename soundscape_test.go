// SPDX-License-Identifier: EPL-2.0

package soundscape

import (
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/backend/mixer"
	"github.com/ik5/soundscape/config"
	"github.com/ik5/soundscape/formats/wav"
	"github.com/ik5/soundscape/internal/audiotest"
	"github.com/ik5/soundscape/sound"
)

var quiet = sound.WithLogger(slog.New(slog.DiscardHandler))

func TestOpen_Mixer(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultDevice()
	cfg.Frequency = 22050

	eng, err := Open(cfg, quiet)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if got := eng.Renderer(); got != mixer.Name {
		t.Errorf("Renderer() = %q, want %q", got, mixer.Name)
	}
	if got := eng.Frequency(); got != 22050 {
		t.Errorf("Frequency() = %d, want 22050", got)
	}
	if eng.IsSupported("FILEFORMAT_MID") {
		t.Error("MIDI supported without a SoundFont")
	}

	a, err := eng.CreateAssetFromPCM("click", make([]float32, 2205), 22050, 1)
	if err != nil {
		t.Fatalf("CreateAssetFromPCM() error = %v", err)
	}
	src, err := eng.CreateSource(config.DefaultSource())
	if err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}
	src.Play(a, 0)

	eng.Mixer.Advance(200 * time.Millisecond)
	eng.Update()
	if src.Playing() {
		t.Error("source still playing after its end")
	}

	if err := eng.Suspend(); err != nil {
		t.Errorf("Suspend() error = %v", err)
	}
	if err := eng.Resume(); err != nil {
		t.Errorf("Resume() error = %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultDevice()
	cfg.Channels = 6
	cfg.Backend = "alsa"

	if _, err := Open(cfg, quiet); err == nil {
		t.Error("Open() error = nil, want validation error")
	}
}

func TestOpen_MissingSoundFont(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultDevice()
	cfg.SoundFont = filepath.Join(t.TempDir(), "none.sf2")

	if _, err := Open(cfg, quiet); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open() error = %v, want fs.ErrNotExist", err)
	}
}

func writeWAV(t *testing.T, name string, rate, channels, frames int) string {
	t.Helper()

	samples := make([]float32, frames*channels)
	for i := range samples {
		samples[i] = 0.25
	}
	buf, err := audio.NewBuffer(samples, rate, channels)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}

	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	if err := wav.Encode(f, buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return p
}

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rate, ch   int
		dstRate    int
		dstCh      int
		wantFrames int
	}{
		{"stereo down to mono 8k", 44100, 2, 8000, 1, 8000},
		{"mono up to stereo", 8000, 1, 16000, 2, 16000},
		{"unchanged", 22050, 2, 22050, 2, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := writeWAV(t, "in.wav", tt.rate, tt.ch, tt.rate)
			buf, err := DecodeFile(p, tt.dstRate, tt.dstCh)
			if err != nil {
				t.Fatalf("DecodeFile() error = %v", err)
			}

			if buf.SampleRate != tt.dstRate || buf.Channels != tt.dstCh {
				t.Errorf("layout = %dHz %dch, want %dHz %dch", buf.SampleRate, buf.Channels, tt.dstRate, tt.dstCh)
			}
			if got := int(buf.Frames()); math.Abs(float64(got-tt.wantFrames)) > 50 {
				t.Errorf("Frames() = %d, want about %d", got, tt.wantFrames)
			}
		})
	}
}

func TestDecodeFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("definitely not audio"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeFile(filepath.Join(dir, "missing.wav"), 8000, 1); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("DecodeFile(missing) error = %v, want fs.ErrNotExist", err)
	}
	if _, err := DecodeFile(junk, 8000, 1); err == nil {
		t.Error("DecodeFile(junk) error = nil")
	}
}

func TestToPCM16(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 1, 4, 0.5)
	buf, err := audio.ReadAll(src, 16)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	buf.Samples = append(buf.Samples, 2, -2)

	want := []int16{16383, 16383, 16383, 16383, math.MaxInt16, -math.MaxInt16}
	got := ToPCM16(buf)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToPCM16()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
