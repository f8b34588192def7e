// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis through github.com/jfreymuth/oggvorbis,
// exposing the stream length and frame seeking for seekable input.
package vorbis
