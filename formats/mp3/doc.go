// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
//
// Output is always stereo float32. Length and frame seeking are available
// when the input reader is an io.Seeker; otherwise Frames reports -1 and
// SeekFrame fails with audio.ErrNotSeekable.
package mp3
