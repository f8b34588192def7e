// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF PCM (8, 16, 24 and 32-bit) through
// github.com/go-audio/aiff. Non-seekable input is buffered in memory first.
package aiff
