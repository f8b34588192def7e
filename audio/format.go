// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"path"
	"strings"
)

// Format keys used by the decoder Registry.
const (
	FormatOgg  = "ogg"
	FormatMP3  = "mp3"
	FormatWAV  = "wav"
	FormatAIFF = "aiff"
	FormatMIDI = "midi"
)

var magics = []struct {
	prefix []byte
	format string
}{
	{[]byte("OggS"), FormatOgg},
	{[]byte("RIFF"), FormatWAV},
	{[]byte("FORM"), FormatAIFF},
	{[]byte("MThd"), FormatMIDI},
}

// DetectFormat sniffs the container magic at the start of header.
// Anything unrecognised is assumed to be MP3, which has no reliable magic
// once ID3 tags are stripped.
func DetectFormat(header []byte) string {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.prefix) {
			return m.format
		}
	}
	return FormatMP3
}

// FormatForPath maps a file extension to a format key. The second return is
// false for extensions no decoder is known for.
func FormatForPath(p string) (string, bool) {
	switch strings.ToLower(path.Ext(p)) {
	case ".ogg", ".oga":
		return FormatOgg, true
	case ".mp3":
		return FormatMP3, true
	case ".wav":
		return FormatWAV, true
	case ".aif", ".aiff":
		return FormatAIFF, true
	case ".mid", ".midi":
		return FormatMIDI, true
	}
	return "", false
}
