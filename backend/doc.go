// SPDX-License-Identifier: EPL-2.0

// Package backend defines the capability surface the sound device needs from
// an audio renderer: a clock, a master gain, per-source voices with an
// optional native spatializer, uploaded buffers and playback nodes.
//
// The mixer subpackage implements it in software; the oto subpackage sends a
// mixer to the sound card.
package backend
