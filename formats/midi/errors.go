// SPDX-License-Identifier: EPL-2.0

package midi

import "errors"

var (
	ErrNoSoundFont = errors.New("midi decoding needs a SoundFont")
	ErrSampleRate  = errors.New("midi sample rate must be positive")
)
