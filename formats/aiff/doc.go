// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes Audio Interchange File Format files through
// go-audio/aiff. Samples are big-endian integers; the decoder normalizes
// them to float32 by bit depth. AIFF-C compressed variants are rejected.
package aiff
