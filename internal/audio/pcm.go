package audio

import (
	"encoding/binary"
	"math"
)

// SlinToFloat32 converts 16-bit signed little-endian PCM to float32 samples.
func SlinToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(v) / 32768
	}
	return samples
}

// Float32ToSlin converts float32 samples to 16-bit signed little-endian PCM,
// clipping values outside [-1, 1].
func Float32ToSlin(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(ToInt16(s)))
	}
	return out
}

// ToInt16 scales one float32 sample to int16 with clipping.
func ToInt16(s float32) int16 {
	v := math.Round(float64(s) * 32767)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Upsample2x doubles the sample rate by linear interpolation (8 kHz
// AudioSocket audio to the 16 kHz the recognizers expect).
func Upsample2x(samples []float32) []float32 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]float32, len(samples)*2)
	for i := 0; i < len(samples)-1; i++ {
		out[i*2] = samples[i]
		out[i*2+1] = (samples[i] + samples[i+1]) / 2
	}
	last := samples[len(samples)-1]
	out[len(out)-2] = last
	out[len(out)-1] = last
	return out
}

// Seconds returns the duration of n samples at sampleRate.
func Seconds(n, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(n) / float64(sampleRate)
}
