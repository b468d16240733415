// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"encoding/binary"
	"math"
)

// Float32ToInt16 scales x from [-1, 1] to 16-bit PCM, clamping out of range
// values.
func Float32ToInt16(x float32) int16 {
	switch {
	case x >= 1:
		return math.MaxInt16
	case x <= -1:
		return math.MinInt16
	case x < 0:
		return int16(math.Round(float64(x) * 32768))
	default:
		return int16(math.Round(float64(x) * 32767))
	}
}

// Int16ToFloat32 is the inverse of Float32ToInt16 up to rounding.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768
}

// IntToFloat32 normalizes a signed PCM integer of the given bit depth.
// Unknown depths are treated as 16-bit.
func IntToFloat32(v, bitDepth int) float32 {
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		bitDepth = 16
	}
	return float32(float64(v) / float64(int64(1)<<(bitDepth-1)))
}

// Float32sToInt16s converts src into dst and returns the number converted.
func Float32sToInt16s(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = Float32ToInt16(src[i])
	}
	return n
}

// DecodeFloat32LE fills dst from little-endian IEEE 754 samples in src and
// returns the number of samples decoded.
func DecodeFloat32LE(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/4)
	for i := range n {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return n
}

// EncodeFloat32LE writes src as little-endian IEEE 754 samples into dst and
// returns the number of samples encoded.
func EncodeFloat32LE(dst []byte, src []float32) int {
	n := min(len(dst)/4, len(src))
	for i := range n {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(src[i]))
	}
	return n
}
