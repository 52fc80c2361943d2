package audio

import (
	"bytes"
	"context"
	"math"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CyCoreSystems/audiosocket"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// sliceSource replays fixed chunks.
type sliceSource struct {
	chunks  [][]float32
	stopped int
}

func (s *sliceSource) Start(ctx context.Context) (<-chan []float32, error) {
	out := make(chan []float32)
	go func() {
		defer close(out)
		for _, c := range s.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *sliceSource) Stop() error {
	s.stopped++
	return nil
}

func writeTestWAV(t *testing.T, path string, sampleRate, samples int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, samples),
	}
	for i := range buf.Data {
		buf.Data[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, ch <-chan []float32) [][]float32 {
	t.Helper()
	var chunks [][]float32
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return chunks
			}
			chunks = append(chunks, c)
		case <-timeout:
			t.Fatal("timed out collecting chunks")
			return nil
		}
	}
}

func totalSamples(chunks [][]float32) int {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	return n
}

func TestSlinRoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 0.999, -1}
	out := SlinToFloat32(Float32ToSlin(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1.0/16384 {
			t.Errorf("sample %d = %v, want ~%v", i, out[i], in[i])
		}
	}
}

func TestToInt16Clips(t *testing.T) {
	if got := ToInt16(2); got != math.MaxInt16 {
		t.Errorf("ToInt16(2) = %d", got)
	}
	if got := ToInt16(-2); got != math.MinInt16 {
		t.Errorf("ToInt16(-2) = %d", got)
	}
}

func TestUpsample2x(t *testing.T) {
	got := Upsample2x([]float32{0, 1, 0})
	want := []float32{0, 0.5, 1, 0.5, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if Upsample2x(nil) != nil {
		t.Error("Upsample2x(nil) should be nil")
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(8000, 16000); got != 0.5 {
		t.Errorf("Seconds = %v, want 0.5", got)
	}
	if got := Seconds(100, 0); got != 0 {
		t.Errorf("Seconds with zero rate = %v", got)
	}
}

func TestAudioSocketSourceReceivesCall(t *testing.T) {
	src := NewAudioSocketSource(AudioSocketConfig{Listen: "127.0.0.1:0", InputRate: 8000, OutputRate: 16000})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chunks, err := src.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	conn, err := net.Dial("tcp", src.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	callID := uuid.New()
	frame := make([]byte, 320)
	go func() {
		conn.Write(audiosocket.IDMessage(callID))
		conn.Write(audiosocket.SlinMessage(frame))
		conn.Write(audiosocket.SlinMessage(frame))
		conn.Write(audiosocket.HangupMessage())
	}()

	got := collect(t, chunks)
	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got))
	}
	for i, c := range got {
		if len(c) != 320 {
			t.Errorf("chunk %d has %d samples, want 320", i, len(c))
		}
	}
	if src.CallID() != callID {
		t.Errorf("call id = %s, want %s", src.CallID(), callID)
	}
}

func TestAudioSocketSourceStopUnblocksAccept(t *testing.T) {
	src := NewAudioSocketSource(AudioSocketConfig{Listen: "127.0.0.1:0"})
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}

	chunks, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.Stop()
	src.Stop()

	if got := collect(t, chunks); len(got) != 0 {
		t.Errorf("chunks = %d, want 0", len(got))
	}
}

func TestAudioSocketSourceContextCancel(t *testing.T) {
	src := NewAudioSocketSource(AudioSocketConfig{Listen: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	chunks, err := src.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	if got := collect(t, chunks); len(got) != 0 {
		t.Errorf("chunks = %d, want 0", len(got))
	}
}

func TestFileSourceSameRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.wav")
	writeTestWAV(t, path, 16000, 16000)

	src := NewFileSource(FileConfig{Path: path, SampleRate: 16000, ChunkSize: 1024})
	chunks, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	got := collect(t, chunks)
	if n := totalSamples(got); n != 16000 {
		t.Errorf("total samples = %d, want 16000", n)
	}
	if len(got[0]) != 1024 {
		t.Errorf("first chunk = %d samples, want 1024", len(got[0]))
	}
}

func TestFileSourceResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.wav")
	writeTestWAV(t, path, 8000, 8000)

	src := NewFileSource(FileConfig{Path: path, SampleRate: 16000, ChunkSize: 512})
	chunks, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	n := totalSamples(collect(t, chunks))
	if n < 15000 || n > 16100 {
		t.Errorf("total samples = %d, want about 16000", n)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(FileConfig{Path: filepath.Join(t.TempDir(), "missing.wav")})
	if _, err := src.Start(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if err := src.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestRecorderWritesWAV(t *testing.T) {
	inner := &sliceSource{chunks: [][]float32{
		make([]float32, 1600),
		make([]float32, 1600),
		make([]float32, 800),
	}}
	path := filepath.Join(t.TempDir(), "audio.wav")
	rec := NewRecorder(inner, path, 16000)

	chunks, err := rec.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := totalSamples(collect(t, chunks)); n != 4000 {
		t.Errorf("forwarded samples = %d, want 4000", n)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if inner.stopped != 1 {
		t.Errorf("inner source stopped %d times, want 1", inner.stopped)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode recording: %v", err)
	}
	if len(buf.Data) != 4000 {
		t.Errorf("recorded samples = %d, want 4000", len(buf.Data))
	}
	if dec.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", dec.SampleRate)
	}
}

func TestEncodeWAV(t *testing.T) {
	samples := make([]float32, 800)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 10))
	}
	data, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if got := len(data); got != 44+1600 {
		t.Errorf("encoded length = %d, want %d", got, 44+1600)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(buf.Data) != len(samples) {
		t.Errorf("decoded samples = %d, want %d", len(buf.Data), len(samples))
	}
	if dec.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", dec.SampleRate)
	}
	if got, want := buf.Data[100], int(ToInt16(samples[100])); got != want {
		t.Errorf("sample[100] = %d, want %d", got, want)
	}
}
