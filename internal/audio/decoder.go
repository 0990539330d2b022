package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
)

// Decoder turns an audio file into interleaved 48kHz stereo samples.
type Decoder func(ctx context.Context, path string) ([]int16, error)

// DecodeFile runs ffmpeg to decode path to raw PCM.
func DecodeFile(ctx context.Context, path string) ([]int16, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	samples := BytesToSamples(out)
	if len(samples) == 0 {
		return nil, fmt.Errorf("ffmpeg decode %s: no audio", path)
	}
	return samples, nil
}

// BytesToSamples reads little-endian int16 samples. A trailing odd byte is
// dropped.
func BytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
