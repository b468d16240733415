// SPDX-License-Identifier: EPL-2.0

// Package utils holds small sample-level helpers shared by the decoders,
// the resampler and the audio backends.
package utils

// CubicInterpolate evaluates the Catmull-Rom spline through y0..y3 at x, the
// fractional position between y1 (x=0) and y2 (x=1).
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a := 0.5 * (3*(y1-y2) + y3 - y0)
	b := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c := 0.5 * (y2 - y0)

	// Horner form.
	return ((a*x+b)*x+c)*x + y1
}
