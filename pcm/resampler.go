// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/audstream/utils"
)

// Resampler converts a Stream to another sample rate with Catmull-Rom
// interpolation, keeping its channel layout. When downsampling, input frames
// go through a one-pole low-pass filter first. Equal rates pass through
// untouched.
type Resampler struct {
	src      Stream
	rate     int
	channels int
	step     float64 // source frames per output frame
	through  bool

	// hist[1] and hist[2] bracket the output position; hist[0] and hist[3]
	// are the outer points of the spline.
	hist [4][]float32
	have [4]bool
	pos  float64

	primed  bool
	srcDone bool
	in      []float32
	inPos   int
	inLen   int

	alpha   float32
	lowpass []float32
	seeded  bool
}

// NewResampler returns a Resampler producing rate Hz. A non-positive rate
// keeps the source rate, and a source without a valid rate passes through.
func NewResampler(src Stream, rate int) *Resampler {
	srcRate := src.SampleRate()
	if rate <= 0 {
		rate = srcRate
	}

	channels := max(src.Channels(), 1)
	r := &Resampler{
		src:      src,
		rate:     rate,
		channels: channels,
		step:     float64(srcRate) / float64(rate),
		through:  srcRate == rate || srcRate <= 0,
		in:       make([]float32, 1024*channels),
		lowpass:  make([]float32, channels),
	}

	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}

	if rate < srcRate {
		// Cutoff at the destination Nyquist frequency.
		cutoff := float64(rate) / 2
		r.alpha = float32(1 - math.Exp(-2*math.Pi*cutoff/float64(srcRate)))
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampler source: %w", err)
	}
	return nil
}

// pull reads the next source frame into frame.
func (r *Resampler) pull(frame []float32) (bool, error) {
	for stalls := 0; r.inPos >= r.inLen; stalls++ {
		if r.srcDone {
			return false, nil
		}
		if stalls >= maxStalls {
			return false, io.ErrNoProgress
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels

		if err == io.EOF {
			r.srcDone = true
		} else if err != nil {
			return false, fmt.Errorf("resampler read: %w", err)
		}
	}

	copy(frame, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels

	if r.alpha > 0 {
		if !r.seeded {
			copy(r.lowpass, frame)
			r.seeded = true
		}
		for c, v := range frame {
			r.lowpass[c] += r.alpha * (v - r.lowpass[c])
			frame[c] = r.lowpass[c]
		}
	}

	return true, nil
}

func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.pull(r.hist[1])
	if err != nil || !ok {
		return err
	}
	r.have[1] = true
	copy(r.hist[0], r.hist[1])
	r.have[0] = true

	for i := 2; i < 4; i++ {
		ok, err := r.pull(r.hist[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.hist[i], r.hist[i-1])
		}
		r.have[i] = ok
	}

	return nil
}

// advance shifts the spline window one source frame forward.
func (r *Resampler) advance() error {
	first := r.hist[0]
	copy(r.hist[:], r.hist[1:])
	copy(r.have[:], r.have[1:])
	r.hist[3] = first

	ok, err := r.pull(r.hist[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.hist[3], r.hist[2])
	}
	r.have[3] = ok

	return nil
}

// ReadSamples fills dst with frames at the target rate. len(dst) must be a
// multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.through {
		return r.src.ReadSamples(dst)
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	for written < len(dst) {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written, err
			}
		}

		if !r.have[1] || !r.have[2] {
			return written, io.EOF
		}

		x := float32(r.pos)
		for c := range r.channels {
			dst[written+c] = utils.CubicInterpolate(
				r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], x)
		}

		written += r.channels
		r.pos += r.step
	}

	return written, nil
}

// Conform returns src as a mono stream at rate Hz.
func Conform(src Stream, rate int) (Stream, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if src.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: source reports %d", ErrInvalidRate, src.SampleRate())
	}

	return NewMonoMixer(NewResampler(src, rate)), nil
}
