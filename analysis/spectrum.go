// SPDX-License-Identifier: EPL-2.0

package analysis

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum computes the Hann-windowed magnitude spectrum of each window and
// publishes the average over a frame.
//
// Magnitudes are scaled so a full-scale sine centred on a bin reads 1.0.
type Spectrum struct {
	size       int
	sampleRate int

	fft    *fourier.FFT
	window []float64
	scale  float64

	mu sync.RWMutex

	// scratch, only touched under mu
	seq    []float64
	coeffs []complex128

	sum   []float64
	count int

	mags []float64
}

var _ Analyzer = (*Spectrum)(nil)

// NewSpectrum returns a Spectrum for windows of size samples taken at
// sampleRate Hz.
func NewSpectrum(size, sampleRate int) (*Spectrum, error) {
	if size <= 0 || sampleRate <= 0 {
		return nil, ErrInvalidSize
	}

	window := hann(size)
	var gain float64
	for _, v := range window {
		gain += v
	}

	bins := size/2 + 1
	return &Spectrum{
		size:       size,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(size),
		window:     window,
		scale:      2 / gain,
		seq:        make([]float64, size),
		coeffs:     make([]complex128, bins),
		sum:        make([]float64, bins),
		mags:       make([]float64, bins),
	}, nil
}

// hann is the periodic Hann window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Add windows and transforms one window. Short windows are zero padded;
// extra samples are ignored.
func (s *Spectrum) Add(window []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.seq {
		if i < len(window) {
			s.seq[i] = float64(window[i]) * s.window[i]
		} else {
			s.seq[i] = 0
		}
	}

	s.coeffs = s.fft.Coefficients(s.coeffs, s.seq)
	for i, c := range s.coeffs {
		s.sum[i] += cmplx.Abs(c) * s.scale
	}
	s.count++
}

// Update publishes the average of the frame's spectra. A frame without
// windows keeps the previous spectrum.
func (s *Spectrum) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return
	}

	n := float64(s.count)
	for i, v := range s.sum {
		s.mags[i] = v / n
	}
	clear(s.sum)
	s.count = 0
}

// Size is the FFT length.
func (s *Spectrum) Size() int { return s.size }

// SampleRate of the analysed signal.
func (s *Spectrum) SampleRate() int { return s.sampleRate }

// BinCount is the number of magnitude bins, Size/2+1.
func (s *Spectrum) BinCount() int { return len(s.mags) }

// FrequencyForBin is the centre frequency of bin i in Hz.
func (s *Spectrum) FrequencyForBin(i int) float64 {
	return float64(i) * float64(s.sampleRate) / float64(s.size)
}

// Magnitudes returns a copy of the published spectrum.
func (s *Spectrum) Magnitudes() []float64 {
	out := make([]float64, s.BinCount())
	_ = s.MagnitudesInto(out)
	return out
}

// MagnitudesInto copies the published spectrum into dst.
func (s *Spectrum) MagnitudesInto(dst []float64) error {
	if len(dst) < len(s.mags) {
		return ErrShortBuffer
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	copy(dst, s.mags)
	return nil
}

// Bands folds the published spectrum into len(dst) logarithmically spaced
// bands, each holding the largest magnitude it covers. The DC bin is
// skipped.
func (s *Spectrum) Bands(dst []float64) {
	if len(dst) == 0 {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	top := float64(len(s.mags) - 1)
	lo := 1
	for b := range dst {
		hi := int(math.Pow(top, float64(b+1)/float64(len(dst))))
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(s.mags) {
			hi = len(s.mags)
		}

		var peak float64
		for _, v := range s.mags[min(lo, hi):hi] {
			peak = max(peak, v)
		}
		dst[b] = peak
		lo = hi
	}
}

// Decibels converts a magnitude to dBFS, floored at floor.
func Decibels(mag, floor float64) float64 {
	if mag <= 0 {
		return floor
	}
	return max(20*math.Log10(mag), floor)
}
