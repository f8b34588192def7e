// SPDX-License-Identifier: EPL-2.0

package soundscape

import (
	"fmt"
	"os"

	"github.com/ik5/soundscape/audio"
	"github.com/ik5/soundscape/sound"
	"github.com/ik5/soundscape/utils"
)

// DecodeFile reads a sound file whole and converts it to sampleRate Hz with
// the given channel count. The format comes from the file's magic, falling
// back to its extension.
func DecodeFile(path string, sampleRate, channels int) (*audio.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format := audio.DetectFormat(data)
	if format == audio.FormatMP3 {
		if f, ok := audio.FormatForPath(path); ok {
			format = f
		}
	}

	src, _, err := sound.DefaultFormats().Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	defer src.Close()

	buf, err := audio.ReadAll(audio.Convert(src, sampleRate, channels), 4096)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return buf, nil
}

// ToPCM16 converts buf's samples to signed 16-bit PCM, clamping anything
// outside [-1, 1].
func ToPCM16(buf *audio.Buffer) []int16 {
	out := make([]int16, len(buf.Samples))
	for i, s := range buf.Samples {
		out[i] = utils.Float32ToInt16(s)
	}
	return out
}
