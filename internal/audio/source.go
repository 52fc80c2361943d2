package audio

import "context"

// Source produces chunks of mono float32 samples in [-1, 1] at the pipeline
// sample rate.
type Source interface {
	// Start begins capture. The returned channel is closed when the source
	// is exhausted, stopped, or ctx is done.
	Start(ctx context.Context) (<-chan []float32, error)
	// Stop releases the underlying device or connection. It is safe to call
	// more than once and before Start.
	Stop() error
}

const (
	// DefaultSampleRate is the rate the transcriber expects.
	DefaultSampleRate = 16000
	// DefaultChunkSize is the number of samples per chunk for file sources.
	DefaultChunkSize = 1024
)
