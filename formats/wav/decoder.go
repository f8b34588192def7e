// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/utils"
)

const formatPCM = 1

// Decoder reads RIFF/WAVE data. Seekable input goes through go-audio/wav and
// accepts any chunk layout and 8/16/24/32-bit integer PCM, with length and
// seeking. Plain readers are streamed with a canonical 44-byte header parser
// limited to PCM16.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return decodeSeekable(rs)
	}
	return decodeStream(r)
}

// seekableSource wraps go-audio/wav.
type seekableSource struct {
	rs         io.ReadSeeker
	dec        *gowav.Decoder
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	intBuf     *goaudio.IntBuffer
}

func decodeSeekable(rs io.ReadSeeker) (*seekableSource, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec, err := openPCM(rs)
	if err != nil {
		return nil, err
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	s := &seekableSource{
		rs:         &offsetSeeker{rs: rs, base: start},
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
	}
	if blockAlign := channels * bitDepth / 8; blockAlign > 0 {
		s.frames = int64(dec.PCMSize / blockAlign)
	}

	return s, nil
}

func openPCM(rs io.ReadSeeker) (*gowav.Decoder, error) {
	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, ErrOnlyPCMSupported
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, ErrUnsupportedWavLayout
	}
	return dec, nil
}

func (s *seekableSource) SampleRate() int { return s.sampleRate }
func (s *seekableSource) Channels() int   { return s.channels }
func (s *seekableSource) Close() error    { return nil }
func (s *seekableSource) Frames() int64   { return s.frames }
func (s *seekableSource) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *seekableSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	n -= n % s.channels

	normalize(dst[:n], s.intBuf.Data[:n], s.bitDepth)

	return n, nil
}

// SeekFrame reopens the PCM chunk and skips forward; go-audio/wav has no
// frame-addressed seek.
func (s *seekableSource) SeekFrame(frame int64) error {
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	dec, err := openPCM(s.rs)
	if err != nil {
		return err
	}
	s.dec = dec

	skip := max(0, min(frame, s.frames)) * int64(s.channels)
	scratch := &goaudio.IntBuffer{Data: make([]int, min(skip, 8192)), Format: dec.Format()}
	for skip > 0 {
		scratch.Data = scratch.Data[:min(skip, int64(cap(scratch.Data)))]
		n, err := dec.PCMBuffer(scratch)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w", err)
		}
		if n == 0 {
			break
		}
		skip -= int64(n)
	}
	return nil
}

func normalize(dst []float32, src []int, bitDepth int) {
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		for i, v := range src {
			dst[i] = float32(v-128) / 128.0
		}
	case 24:
		for i, v := range src {
			dst[i] = float32(v) / 8388608.0
		}
	case 32:
		for i, v := range src {
			dst[i] = float32(v) / 2147483648.0
		}
	default:
		for i, v := range src {
			dst[i] = utils.Int16ToFloat32(int16(v))
		}
	}
}

// offsetSeeker makes offset 0 the position the decoder was handed.
type offsetSeeker struct {
	rs   io.ReadSeeker
	base int64
}

func (o *offsetSeeker) Read(p []byte) (int, error) { return o.rs.Read(p) }

func (o *offsetSeeker) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart {
		offset += o.base
	}
	abs, err := o.rs.Seek(offset, whence)
	return abs - o.base, err
}

// streamSource is the canonical-header path for non-seekable readers.
type streamSource struct {
	r          io.Reader
	sampleRate int
	channels   int
	frames     int64
	buf        []byte
}

func (s *streamSource) SampleRate() int { return s.sampleRate }
func (s *streamSource) Channels() int   { return s.channels }
func (s *streamSource) Close() error    { return nil }
func (s *streamSource) BufSize() int    { return cap(s.buf) / 2 }
func (s *streamSource) Frames() int64   { return s.frames }

func (s *streamSource) ReadSamples(dst []float32) (int, error) {
	if len(s.buf) < len(dst)*2 {
		s.buf = make([]byte, len(dst)*2)
	}
	n, err := io.ReadFull(s.r, s.buf[:len(dst)*2])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("%w", err)
	}

	samples := n / 2
	for i := range samples {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[2*i:])))
	}

	if samples == 0 && err != nil {
		return 0, io.EOF
	}
	return samples, nil
}

func decodeStream(r io.Reader) (*streamSource, error) {
	header := make([]byte, 44)

	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if !bytes.HasPrefix(header[:4], []byte("RIFF")) || !bytes.HasPrefix(header[8:12], []byte("WAVE")) {
		return nil, ErrNotWavFile
	}

	// Canonical layout only: fmt at 12, data at 36.
	if !bytes.HasPrefix(header[12:16], []byte("fmt ")) {
		return nil, ErrUnsupportedWavLayout
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	channels := int(binary.LittleEndian.Uint16(header[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(header[24:28]))
	bitsPerSample := int(binary.LittleEndian.Uint16(header[34:36]))

	if audioFormat != formatPCM || bitsPerSample != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}
	if channels == 0 || sampleRate == 0 {
		return nil, ErrUnsupportedWavLayout
	}
	if !bytes.HasPrefix(header[36:40], []byte("data")) {
		return nil, ErrUnsupportedWavChunks
	}
	dataSize := int64(binary.LittleEndian.Uint32(header[40:44]))

	return &streamSource{
		r:          r,
		sampleRate: sampleRate,
		channels:   channels,
		frames:     dataSize / int64(2*channels),
		buf:        make([]byte, 4096),
	}, nil
}
