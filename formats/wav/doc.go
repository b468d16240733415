// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes RIFF/WAVE files through go-audio/wav.
//
// Decoder accepts integer PCM at 8, 16, 24 and 32 bits, including
// WAVE_FORMAT_EXTENSIBLE headers, and walks unknown chunks to find the data.
// Input that cannot seek is buffered in memory first.
//
// Writer records mono float32 samples as 16-bit PCM:
//
//	f, err := os.Create("capture.wav")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	w := wav.NewWriter(f, 44100)
//	if err := w.Write(samples); err != nil {
//	    return err
//	}
//	return w.Close()
package wav
