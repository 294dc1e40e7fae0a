// Package events publishes domain events (follows, likes, new posts) to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"socialfeed/internal/featureflags"
	"socialfeed/internal/middleware"
	"socialfeed/internal/observability"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Type names a domain event.
type Type string

const (
	UserFollowed   Type = "user.followed"
	UserUnfollowed Type = "user.unfollowed"
	PostLiked      Type = "post.liked"
	PostUnliked    Type = "post.unliked"
	CommentLiked   Type = "comment.liked"
	CommentUnliked Type = "comment.unliked"
	PostCreated    Type = "post.created"
)

// Event is the JSON document written to the topic. ActorID is the user who acted;
// SubjectID is the user, post or comment acted upon.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	ActorID    uint           `json:"actor_id"`
	SubjectID  uint           `json:"subject_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, actorID, subjectID uint, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		ActorID:    actorID,
		SubjectID:  subjectID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by actor id, so one user's
// events stay ordered within a partition.
type KafkaPublisher struct {
	w MessageWriter
}

// emitTimeout bounds how long Emit waits on a publisher.
var emitTimeout = 2 * time.Second

// NewKafkaPublisher creates a publisher writing to topic on brokers. The
// writer is asynchronous: WriteMessages only enqueues, and delivery failures
// surface through recordDelivery.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             recordDelivery,
	})
}

// recordDelivery is the async writer's completion callback.
func recordDelivery(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range msgs {
		evType := headerValue(msg, "event_type")
		observability.EventPublishFailures.WithLabelValues(evType).Inc()
		middleware.Logger.Warn("domain event delivery failed",
			slog.String("event_type", evType),
			slog.String("key", string(msg.Key)),
			slog.String("error", err.Error()),
		)
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.ActorID), 10)),
		Value: body,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		observability.EventPublishFailures.WithLabelValues(string(ev.Type)).Inc()
		return fmt.Errorf("publish event %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Nop discards every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Gated drops events whose actor is outside the domain_events rollout. When the
// flag is not configured every event passes through.
type Gated struct {
	Publisher
	flags *featureflags.Manager
}

// WithFlags gates pub behind the domain_events feature flag.
func WithFlags(pub Publisher, flags *featureflags.Manager) *Gated {
	return &Gated{Publisher: pub, flags: flags}
}

func (g *Gated) Publish(ctx context.Context, ev Event) error {
	if g.flags.Configured(featureflags.DomainEvents) && !g.flags.Enabled(featureflags.DomainEvents, ev.ActorID) {
		return nil
	}
	return g.Publisher.Publish(ctx, ev)
}

// Emit publishes ev and logs a failure instead of returning it. Event delivery
// never fails the request that produced it, and never holds it longer than
// emitTimeout.
func Emit(ctx context.Context, pub Publisher, ev Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, emitTimeout)
	defer cancel()
	if err := pub.Publish(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "domain event dropped",
			slog.String("event_type", string(ev.Type)),
			slog.String("event_id", ev.ID),
			slog.String("error", err.Error()),
		)
	}
}
