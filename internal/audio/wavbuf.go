package audio

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// memFile is an in-memory io.WriteSeeker; the WAV encoder seeks back on
// Close to patch the chunk sizes.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative seek position")
	}
	m.pos = int(abs)
	return abs, nil
}

// fillIntBuffer converts samples into buf as 16-bit values, reusing buf.Data.
func fillIntBuffer(buf *goaudio.IntBuffer, samples []float32) {
	buf.Data = buf.Data[:0]
	for _, s := range samples {
		buf.Data = append(buf.Data, int(ToInt16(s)))
	}
}

func newIntBuffer(sampleRate int) *goaudio.IntBuffer {
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
}

// EncodeWAV renders samples as a 16-bit mono WAV file in memory.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	f := &memFile{}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	buf := newIntBuffer(sampleRate)
	fillIntBuffer(buf, samples)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}
	return f.buf, nil
}
