// SPDX-License-Identifier: EPL-2.0

// Package midi turns Standard MIDI Files into PCM by rendering them with
// github.com/sinshu/go-meltysynth. A SoundFont must be supplied; the sound
// device only registers this decoder when one is configured.
package midi
