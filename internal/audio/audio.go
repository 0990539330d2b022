// Package audio decodes library tracks and mixes the decks that play them
// into one real-time PCM stream.
package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // interleaved samples per frame
)

// Source is something the mixer pulls frames from. AddTo adds one frame of
// samples to acc and reports whether it contributed anything.
type Source interface {
	AddTo(acc []int32) bool
}
