package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

const redisTimeout = 800 * time.Millisecond

// Redis publishes segments on a channel and keeps per-session state:
// <prefix><session> is a hash with status and artifact paths, and
// <prefix><session>:segments is a list of segment JSON.
type Redis struct {
	client  *redis.Client
	prefix  string
	channel string

	mu        sync.Mutex
	sessionID string
}

type redisEvent struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	Segment   *transcript.Segment `json:"segment,omitempty"`
	Outcome   *Outcome            `json:"outcome,omitempty"`
}

func NewRedis(client *redis.Client, prefix, channel string) *Redis {
	return &Redis{client: client, prefix: prefix, channel: channel}
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *Redis) currentSession() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

func (r *Redis) publish(ctx context.Context, pipe redis.Pipeliner, ev redisEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if r.channel != "" {
		pipe.Publish(ctx, r.channel, data)
	}
	return nil
}

func (r *Redis) SessionStarted(info Info) error {
	r.mu.Lock()
	r.sessionID = info.SessionID
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(info.SessionID),
		"status", "recording",
		"started_at", info.StartedAt.Format(time.RFC3339),
	)
	if err := r.publish(ctx, pipe, redisEvent{Type: "session_started", SessionID: info.SessionID}); err != nil {
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis session start %s: %w", info.SessionID, err)
	}
	return nil
}

func (r *Redis) Notify(seg transcript.Segment) error {
	sessionID := r.currentSession()

	data, err := json.Marshal(seg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.key(sessionID)+":segments", data)
	if err := r.publish(ctx, pipe, redisEvent{Type: "segment", SessionID: sessionID, Segment: &seg}); err != nil {
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis segment %s: %w", sessionID, err)
	}
	return nil
}

func (r *Redis) SessionEnded(info Info, outcome Outcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(info.SessionID),
		"status", "completed",
		"summary", outcome.Summary,
		"summary_path", outcome.SummaryPath,
		"transcript_path", outcome.TranscriptPath,
		"segments", outcome.Segments,
	)
	if err := r.publish(ctx, pipe, redisEvent{Type: "session_ended", SessionID: info.SessionID, Outcome: &outcome}); err != nil {
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis session end %s: %w", info.SessionID, err)
	}
	return nil
}
