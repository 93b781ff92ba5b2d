// Package pcm provides the raw audio representation used across mofel:
// 16-bit signed little-endian mono PCM.
//
// Frames handed to embedding models are []int16 at 16 kHz ([L16Mono16K]).
// Byte streams from capture devices are decoded with [Int16s]; level
// helpers ([Peak], [RMS]) back the frame guard and utterance endpointing.
//
// Example usage:
//
//	format := pcm.L16Mono16K
//
//	// Read one second of audio from a capture stream
//	frame, err := format.ReadSamples(r, time.Second)
package pcm
