// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes RIFF/WAVE PCM.
//
// Seekable input (files, bytes.Reader) is handled by github.com/go-audio/wav:
// any chunk order, 8/16/24/32-bit integer PCM, a known frame count and
// frame seeking. Non-seekable input falls back to a streaming parser that
// only understands the canonical 44-byte header with 16-bit samples.
//
// Writer and Encode produce 16-bit PCM through the go-audio encoder:
//
//	w, _ := wav.NewWriter(file, 44100, 2)
//	_ = w.Write(frames)
//	_ = w.Close()
package wav
