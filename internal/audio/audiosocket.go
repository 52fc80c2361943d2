package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/CyCoreSystems/audiosocket"
	"github.com/google/uuid"
)

// AudioSocketConfig configures an AudioSocket listener.
type AudioSocketConfig struct {
	// Listen is the TCP address Asterisk connects to.
	Listen string
	// InputRate is the slin rate sent by Asterisk (8000 for slin, 16000 for slin16).
	InputRate int
	// OutputRate is the pipeline sample rate.
	OutputRate int
}

// AudioSocketSource captures one call from Asterisk's AudioSocket
// application. The first connection is accepted; its slin frames become
// chunks until hangup, EOF or Stop.
type AudioSocketSource struct {
	config AudioSocketConfig

	mu       sync.Mutex
	listener net.Listener
	conn     net.Conn
	callID   uuid.UUID
	stopped  chan struct{}
}

// NewAudioSocketSource creates an AudioSocket source.
func NewAudioSocketSource(config AudioSocketConfig) *AudioSocketSource {
	if config.InputRate == 0 {
		config.InputRate = 8000
	}
	if config.OutputRate == 0 {
		config.OutputRate = DefaultSampleRate
	}
	return &AudioSocketSource{config: config}
}

// Addr returns the listening address once Start has succeeded.
func (s *AudioSocketSource) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// CallID returns the AudioSocket call id of the accepted connection.
func (s *AudioSocketSource) CallID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callID
}

func (s *AudioSocketSource) Start(ctx context.Context) (<-chan []float32, error) {
	if s.config.InputRate != s.config.OutputRate && s.config.InputRate*2 != s.config.OutputRate {
		return nil, fmt.Errorf("unsupported audiosocket rate conversion %d -> %d", s.config.InputRate, s.config.OutputRate)
	}

	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	stopped := make(chan struct{})
	s.mu.Lock()
	s.listener = listener
	s.conn = nil
	s.stopped = stopped
	s.mu.Unlock()

	slog.Info("AudioSocket listening", "addr", listener.Addr().String())

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopped:
		}
	}()

	chunks := make(chan []float32)
	go s.serve(ctx, listener, stopped, chunks)
	return chunks, nil
}

func (s *AudioSocketSource) serve(ctx context.Context, listener net.Listener, stopped <-chan struct{}, chunks chan<- []float32) {
	defer close(chunks)

	conn, err := listener.Accept()
	if err != nil {
		select {
		case <-stopped:
		default:
			slog.Error("AudioSocket accept failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	select {
	case <-stopped:
		s.mu.Unlock()
		conn.Close()
		return
	default:
	}
	s.conn = conn
	s.mu.Unlock()

	// One call per session; later connections are refused.
	listener.Close()

	slog.Info("AudioSocket connection", "remote", conn.RemoteAddr().String())

	id, err := audiosocket.GetID(conn)
	if err != nil {
		slog.Error("AudioSocket failed to get call id", "error", err)
		return
	}
	s.mu.Lock()
	s.callID = id
	s.mu.Unlock()
	slog.Info("AudioSocket call started", "call", id.String())

	for {
		msg, err := audiosocket.NextMessage(conn)
		if err != nil {
			select {
			case <-stopped:
			default:
				if !errors.Is(err, io.EOF) {
					slog.Error("AudioSocket failed to read message", "call", id.String(), "error", err)
				}
			}
			return
		}

		switch msg.Kind() {
		case audiosocket.KindSlin:
			payload := msg.Payload()
			if len(payload) == 0 {
				continue
			}
			chunk := SlinToFloat32(payload)
			if s.config.InputRate*2 == s.config.OutputRate {
				chunk = Upsample2x(chunk)
			}
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			case <-stopped:
				return
			}

		case audiosocket.KindDTMF:
			if len(msg.Payload()) > 0 {
				slog.Info("AudioSocket DTMF digit", "call", id.String(), "digit", string(msg.Payload()[0]))
			}

		case audiosocket.KindSilence:
			slog.Debug("AudioSocket silence detected", "call", id.String())

		case audiosocket.KindHangup:
			slog.Info("AudioSocket received hangup", "call", id.String())
			return

		case audiosocket.KindError:
			slog.Error("AudioSocket received error code", "call", id.String(), "code", msg.ErrorCode())
			return
		}
	}
}

// Stop closes the listener and the active call connection.
func (s *AudioSocketSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped == nil {
		return nil
	}
	select {
	case <-s.stopped:
		return nil
	default:
		close(s.stopped)
	}
	if s.listener != nil {
		s.listener.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
