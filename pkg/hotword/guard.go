package hotword

import "github.com/Souzou03/mofel/pkg/audio/pcm"

// SampleRate is the frame sample rate expected by embedding models.
const SampleRate = 16000

const (
	// onsetSamples is the leading slice examined by the guard: 100 ms, a
	// tenth of a one-second frame.
	onsetSamples = SampleRate / 10

	// onsetLimit is the highest peak-normalized level the leading slice may
	// reach. Louder openings look like a plosive or a bump on the mic.
	onsetLimit = 0.2
)

// admitFrame reports whether frame should be scored.
//
// Silent frames (zero peak) are never scored. Unless unsafe is set, frames
// whose first 100 ms already reach more than onsetLimit of the frame's
// peak are rejected as an abrupt onset.
func admitFrame(frame []int16, unsafe bool) bool {
	peak := pcm.Peak(frame)
	if peak == 0 {
		return false
	}
	if unsafe {
		return true
	}
	lead := frame[:min(onsetSamples, len(frame))]
	return float64(pcm.Peak(lead))/float64(peak) <= onsetLimit
}
