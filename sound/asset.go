// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"bytes"
	"fmt"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/backend"
	"github.com/ik5/soundscape/utils"
)

// FormatPCM is the format of assets made from raw samples.
const FormatPCM = "pcm"

// Asset is decoded sound metadata plus what a source needs to play it:
// a backend buffer for uncompressed assets, or the encoded bytes and a
// decoder for compressed ones. Its metadata never changes.
type Asset struct {
	name       string
	format     string
	frequency  int
	channels   int
	bitrate    int
	duration   float64
	compressed bool

	buffer  backend.Buffer
	data    []byte
	decoder audio.Decoder

	destroyed bool
}

func (a *Asset) Name() string   { return a.name }
func (a *Asset) Format() string { return a.format }

// Frequency is the sample rate of the playable data in Hz.
func (a *Asset) Frequency() int { return a.frequency }
func (a *Asset) Channels() int  { return a.channels }

// Bitrate in bits per second: PCM16 rate for uncompressed assets, average
// encoded rate for compressed ones.
func (a *Asset) Bitrate() int { return a.bitrate }

// Duration in seconds.
func (a *Asset) Duration() float64 { return a.duration }
func (a *Asset) Compressed() bool  { return a.compressed }

// Destroyed reports whether Destroy was called.
func (a *Asset) Destroyed() bool { return a.destroyed }

// Destroy releases the backend buffer or the held encoded bytes. Sources
// already playing the asset keep going; new plays fail. It is safe to call
// more than once.
func (a *Asset) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	if a.buffer != nil {
		a.buffer.Release()
	}
	a.data = nil
}

// open starts a fresh decoder over the encoded bytes.
func (a *Asset) open() (audio.Source, error) {
	if a.decoder == nil {
		return nil, fmt.Errorf("asset %q: %w", a.name, backend.ErrUnsupportedAsset)
	}
	src, err := a.decoder.Decode(bytes.NewReader(a.data))
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", a.name, err)
	}
	return src, nil
}

// pcmAsset describes a decoded asset before its backend buffer exists.
// Buffers are created on the frame thread.
func pcmAsset(name, format string, pcm *audio.Buffer) *Asset {
	return &Asset{
		name:      name,
		format:    format,
		frequency: pcm.SampleRate,
		channels:  pcm.Channels,
		bitrate:   pcm.SampleRate * pcm.Channels * 16,
		duration:  pcm.Duration(),
	}
}

// streamAsset builds a compressed asset. It opens the data once to read
// the layout and length; when the decoder cannot report a length the
// stream is drained to count frames.
func streamAsset(name, format string, data []byte, dec audio.Decoder) (*Asset, error) {
	src, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer src.Close()

	frames := audio.FramesOf(src)
	if frames < 0 {
		if frames, err = countFrames(src); err != nil {
			return nil, err
		}
	}

	a := &Asset{
		name:       name,
		format:     format,
		frequency:  src.SampleRate(),
		channels:   src.Channels(),
		compressed: true,
		data:       data,
		decoder:    dec,
	}
	if a.frequency > 0 {
		a.duration = float64(frames) / float64(a.frequency)
	}
	if a.duration > 0 {
		a.bitrate = int(float64(len(data)*8) / a.duration)
	}
	return a, nil
}

func countFrames(src audio.Source) (int64, error) {
	ch := src.Channels()
	if ch <= 0 {
		return 0, audio.ErrInvalidChannels
	}
	buf := make([]float32, 4096-4096%ch)

	var frames int64
	for {
		n, err := src.ReadSamples(buf)
		frames += int64(n / ch)
		if err != nil {
			if isEOF(err) {
				return frames, nil
			}
			return 0, err
		}
		if n == 0 {
			return frames, nil
		}
	}
}

// CreateAssetFromPCM makes an uncompressed asset from interleaved float
// samples at frequency Hz, resampled to the device rate.
func (d *Device) CreateAssetFromPCM(name string, samples []float32, frequency, channels int) (*Asset, error) {
	if d.destroyed {
		return nil, ErrDestroyed
	}

	in, err := audio.NewBuffer(samples, frequency, channels)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}
	pcm, err := d.convert(in.Source())
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}
	buf, err := d.backend.NewBuffer(pcm)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}

	a := pcmAsset(name, FormatPCM, pcm)
	a.buffer = buf
	return a, nil
}

// CreateAssetFromPCM16 is CreateAssetFromPCM for signed 16-bit samples.
func (d *Device) CreateAssetFromPCM16(name string, samples []int16, frequency, channels int) (*Asset, error) {
	f := make([]float32, len(samples))
	for i, v := range samples {
		f[i] = utils.Int16ToFloat32(v)
	}
	return d.CreateAssetFromPCM(name, f, frequency, channels)
}
