// SPDX-License-Identifier: EPL-2.0

// Package spatial holds the geometry used for positional audio: vectors,
// the listener transform, distance attenuation, stereo panning and Doppler.
// Everything here is a pure function of its inputs.
package spatial
