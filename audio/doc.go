// SPDX-License-Identifier: EPL-2.0

// Package audio holds the sample pipeline the sound engine is built on:
// decoded sources, converters and in-memory buffers.
//
// # Source Interface
//
// Every decoder and converter implements Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Sources that know their length also implement Lengther, and sources
// that can reposition implement Seeker. Use FramesOf and SeekFrame rather
// than asserting those directly; converters forward both.
//
// # Conversion
//
// Convert chains a Remixer and a Resampler as needed to deliver a source
// at a given rate and channel count:
//
//	src := audio.Convert(decoded, 44100, 2)
//	pcm, err := audio.ReadAll(src, 4096)
//
// The Remixer averages input channels when downmixing and repeats them when
// upmixing. The Resampler uses Catmull-Rom interpolation.
//
// # Format Registry
//
// Registry maps format keys such as FormatOgg to decoders. DetectFormat
// sniffs container magic and FormatForPath maps file extensions; MP3 is
// the fallback for both since it has no reliable magic.
//
// # Sample Format
//
// Samples are interleaved float32 in [-1, 1]. ReadSamples returns io.EOF
// once the source is exhausted, possibly together with a final n > 0:
//
//	for {
//	    n, err := src.ReadSamples(buf)
//	    consume(buf[:n])
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
