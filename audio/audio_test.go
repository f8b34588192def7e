// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/ik5/soundscape/internal/audiotest"
)

type stubDecoder struct {
	calls int
}

func (d *stubDecoder) Decode(r io.Reader) (Source, error) {
	d.calls++
	return audiotest.NewSilentSource(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &stubDecoder{}
	registry.Register(FormatWAV, decoder)

	got, ok := registry.Get(FormatWAV)
	if !ok {
		t.Fatal("Registry.Get() failed to retrieve registered decoder")
	}
	if got != decoder {
		t.Error("Registry.Get() returned different decoder instance")
	}

	if _, ok := registry.Get("flac"); ok {
		t.Error("Registry.Get() returned ok=true for non-existent format")
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(FormatWAV, &stubDecoder{})
	registry.Register(FormatOgg, &stubDecoder{})
	registry.Register(FormatMP3, &stubDecoder{})

	want := []string{FormatMP3, FormatOgg, FormatWAV}
	if got := registry.Formats(); !slices.Equal(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_Decode(t *testing.T) {
	t.Parallel()

	ogg := &stubDecoder{}
	wav := &stubDecoder{}
	registry := NewRegistry()
	registry.Register(FormatOgg, ogg)
	registry.Register(FormatWAV, wav)

	tests := []struct {
		name       string
		data       []byte
		hint       string
		wantFormat string
		wantErr    error
	}{
		{"sniff ogg", []byte("OggS\x00\x02"), "", FormatOgg, nil},
		{"sniff wav", []byte("RIFF\x24\x00\x00\x00WAVE"), "", FormatWAV, nil},
		{"hint wins", []byte("OggS"), FormatWAV, FormatWAV, nil},
		{"fallback mp3 unregistered", []byte{0xff, 0xfb, 0x90}, "", FormatMP3, ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, format, err := registry.Decode(tt.data, tt.hint)
			if format != tt.wantFormat {
				t.Errorf("Decode() format = %q, want %q", format, tt.wantFormat)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && src == nil {
				t.Error("Decode() returned nil source")
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header []byte
		want   string
	}{
		{[]byte("OggS"), FormatOgg},
		{[]byte("RIFFxxxxWAVE"), FormatWAV},
		{[]byte("FORMxxxxAIFF"), FormatAIFF},
		{[]byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{[]byte("ID3\x04"), FormatMP3},
		{nil, FormatMP3},
	}

	for _, tt := range tests {
		if got := DetectFormat(tt.header); got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"sfx/boom.ogg", FormatOgg, true},
		{"music/theme.MP3", FormatMP3, true},
		{"a.wav", FormatWAV, true},
		{"b.aif", FormatAIFF, true},
		{"c.mid", FormatMIDI, true},
		{"d.flac", "", false},
		{"noext", "", false},
	}

	for _, tt := range tests {
		got, ok := FormatForPath(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FormatForPath(%q) = %q, %v, want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSeekFrame_NotSeekable(t *testing.T) {
	t.Parallel()

	var src Source = onlySource{}
	if err := SeekFrame(src, 10); !errors.Is(err, ErrNotSeekable) {
		t.Errorf("SeekFrame() error = %v, want ErrNotSeekable", err)
	}
	if got := FramesOf(src); got != -1 {
		t.Errorf("FramesOf() = %d, want -1", got)
	}
}

// onlySource implements Source and nothing else.
type onlySource struct{}

func (onlySource) SampleRate() int                   { return 8000 }
func (onlySource) Channels() int                     { return 1 }
func (onlySource) ReadSamples([]float32) (int, error) { return 0, io.EOF }
func (onlySource) BufSize() int                      { return 0 }
func (onlySource) Close() error                      { return nil }
