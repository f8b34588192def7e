// SPDX-License-Identifier: EPL-2.0

package utils

// Lerp is the straight line from a at x=0 to b at x=1. The mixer uses it
// for pitch-shifted playback where a two-tap read is cheap enough per voice.
func Lerp(a, b, x float32) float32 {
	return a + (b-a)*x
}

// CubicInterpolate is a Catmull-Rom spline through y1 at x=0 and y2 at x=1,
// shaped by the outer neighbours y0 and y3. The resampler uses it for
// offline conversion.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2

	return ((a0*x+a1)*x+a2)*x + y1
}
