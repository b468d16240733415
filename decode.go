// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/audstream/formats/aiff"
	"github.com/ik5/audstream/formats/mp3"
	"github.com/ik5/audstream/formats/vorbis"
	"github.com/ik5/audstream/formats/wav"
	"github.com/ik5/audstream/pcm"
)

// DecodeBufferSize is the read size, in samples, used by DecodeFile.
const DecodeBufferSize = 4096

// DefaultRegistry returns a registry with every bundled decoder, keyed by
// file extension.
func DefaultRegistry() *pcm.Registry {
	r := pcm.NewRegistry()
	r.Register(wav.Decoder{}, "wav", "wave")
	r.Register(mp3.Decoder{}, "mp3")
	r.Register(vorbis.Decoder{}, "ogg", "oga")
	r.Register(aiff.Decoder{}, "aiff", "aif")
	return r
}

var defaultRegistry = DefaultRegistry()

// DecodeFile decodes the file at path with the default registry.
func DecodeFile(path string, sampleRate int) ([]float32, error) {
	return DecodeFileWith(defaultRegistry, path, sampleRate)
}

// DecodeFileWith decodes the file at path, picking a decoder by extension,
// and returns its samples mixed to mono at sampleRate.
func DecodeFileWith(reg *pcm.Registry, path string, sampleRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	s, err := reg.Decode(filepath.Ext(path), f)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	mono, err := pcm.Conform(s, sampleRate)
	if err != nil {
		return nil, err
	}

	samples, err := pcm.ReadAll(mono, DecodeBufferSize)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	return samples, nil
}
