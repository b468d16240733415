// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestCubicInterpolate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		y0, y1, y2, y3 float32
		x              float32
		want           float32
		tolerance      float32
	}{
		{name: "start returns y1", y0: 0, y1: 1, y2: 2, y3: 3, x: 0, want: 1},
		{name: "end returns y2", y0: 0, y1: 1, y2: 2, y3: 3, x: 1, want: 2, tolerance: 1e-6},
		{name: "linear data stays linear", y0: 1, y1: 2, y2: 3, y3: 4, x: 0.25, want: 2.25, tolerance: 1e-6},
		{name: "constant", y0: 0.3, y1: 0.3, y2: 0.3, y3: 0.3, x: 0.7, want: 0.3, tolerance: 1e-6},
		{name: "symmetric crossing", y0: -1, y1: -0.5, y2: 0.5, y3: 1, x: 0.5, want: 0, tolerance: 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CubicInterpolate(tt.y0, tt.y1, tt.y2, tt.y3, tt.x)
			if diff := math.Abs(float64(got - tt.want)); diff > float64(tt.tolerance) {
				t.Errorf("CubicInterpolate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, math.MaxInt16},
		{-1, math.MinInt16},
		{0.5, 16384},
		{-0.5, -16384},
		{1.5, math.MaxInt16},
		{-100, math.MinInt16},
	}

	for _, tt := range tests {
		if got := Float32ToInt16(tt.in); got != tt.want {
			t.Errorf("Float32ToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFloat32ToInt16_Monotonic(t *testing.T) {
	t.Parallel()

	prev := Float32ToInt16(-1)
	for f := -0.999; f <= 1; f += 0.001 {
		cur := Float32ToInt16(float32(f))
		if cur < prev {
			t.Fatalf("Float32ToInt16(%v) = %d after %d", f, cur, prev)
		}
		prev = cur
	}
}

func TestIntToFloat32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v, depth int
		want     float32
	}{
		{-128, 8, -1},
		{64, 8, 0.5},
		{-32768, 16, -1},
		{16384, 16, 0.5},
		{1 << 22, 24, 0.5},
		{-(1 << 31), 32, -1},
		{16384, 12, 0.5},
	}

	for _, tt := range tests {
		if got := IntToFloat32(tt.v, tt.depth); got != tt.want {
			t.Errorf("IntToFloat32(%d, %d) = %v, want %v", tt.v, tt.depth, got, tt.want)
		}
	}
}

func TestInt16RoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []int16{math.MinInt16, -1000, -1, 0, 1, 1000} {
		if got := Float32ToInt16(Int16ToFloat32(v)); got != v {
			t.Errorf("round trip of %d = %d", v, got)
		}
	}
}

func TestFloat32LE(t *testing.T) {
	t.Parallel()

	src := []float32{0, 1, -1, 0.25, float32(math.Pi)}
	raw := make([]byte, 4*len(src))
	if n := EncodeFloat32LE(raw, src); n != len(src) {
		t.Fatalf("EncodeFloat32LE() = %d, want %d", n, len(src))
	}

	// 1.0 is 0x3f800000.
	if raw[4] != 0x00 || raw[5] != 0x00 || raw[6] != 0x80 || raw[7] != 0x3f {
		t.Errorf("1.0 encoded as % x", raw[4:8])
	}

	dst := make([]float32, len(src))
	if n := DecodeFloat32LE(dst, raw[:len(raw)-1]); n != len(src)-1 {
		t.Errorf("DecodeFloat32LE() of truncated input = %d, want %d", n, len(src)-1)
	}
	if n := DecodeFloat32LE(dst, raw); n != len(src) {
		t.Fatalf("DecodeFloat32LE() = %d, want %d", n, len(src))
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("sample %d = %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestFloat32sToInt16s(t *testing.T) {
	t.Parallel()

	dst := make([]int16, 2)
	if n := Float32sToInt16s(dst, []float32{1, -1, 0}); n != 2 {
		t.Fatalf("Float32sToInt16s() = %d, want 2", n)
	}
	if dst[0] != math.MaxInt16 || dst[1] != math.MinInt16 {
		t.Errorf("dst = %v", dst)
	}
}

func TestConversions_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	f := make([]float32, 1024)
	b := make([]byte, 4096)
	i := make([]int16, 1024)

	allocs := testing.AllocsPerRun(100, func() {
		EncodeFloat32LE(b, f)
		DecodeFloat32LE(f, b)
		Float32sToInt16s(i, f)
	})
	if allocs > 0 {
		t.Errorf("conversions allocated %v times, want 0", allocs)
	}
}

func BenchmarkCubicInterpolate(b *testing.B) {
	out := make([]float32, 8000)

	b.ReportAllocs()
	for range b.N {
		for j := range out {
			out[j] = CubicInterpolate(0.1, 0.5, 0.3, -0.2, float32(j%100)/100)
		}
	}
}

func BenchmarkDecodeFloat32LE(b *testing.B) {
	raw := make([]byte, 4*2048)
	dst := make([]float32, 2048)

	b.SetBytes(int64(len(raw)))
	b.ReportAllocs()
	for range b.N {
		DecodeFloat32LE(dst, raw)
	}
}
