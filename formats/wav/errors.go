// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile            = errors.New("not a WAV file")
	ErrUnsupportedWavLayout  = errors.New("unsupported WAV layout")
	ErrOnlyPCMSupported      = errors.New("only integer PCM WAV is supported")
	ErrOnlyPCM16bitSupported = errors.New("only PCM 16-bit supported for non-seekable input")
	ErrUnsupportedWavChunks  = errors.New("unsupported WAV chunks")
)
