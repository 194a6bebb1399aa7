// Package broadcast bridges the queue engine to connected displays. Events
// always go to the local websocket hub; when Redis is configured they are
// additionally published to a channel so every server instance can relay
// them to its own clients.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/queue"
	"github.com/clinicore/clinicore/internal/platform/websocket"
)

// Event types carried on the queue topics.
const (
	EventWaitingQueueUpdate = "waiting_queue_update"
	EventCalledQueueUpdate  = "called_queue_update"
)

// redisChannel is the pub/sub channel shared by all server instances.
const redisChannel = "clinicore.queue.events"

// relayEnvelope is the cross-instance wire form of a hub event. Origin
// identifies the publishing instance so relays can skip their own events.
type relayEnvelope struct {
	Origin string          `json:"origin"`
	Topic  string          `json:"topic"`
	Event  websocket.Event `json:"event"`
}

// CalledNotice announces a ticket called into consultation.
type CalledNotice struct {
	SessionID   int64  `json:"session_id"`
	QueueNumber string `json:"queue_number"`
}

// Publisher implements the queue engine's broadcaster: it fans events out
// to the local hub and, when a Redis client is attached, to the shared
// channel for other instances.
type Publisher struct {
	hub        *websocket.Hub
	redis      *redis.Client
	log        zerolog.Logger
	now        func() time.Time
	instanceID string
}

// NewPublisher builds a hub-only publisher. Pass the result of WithRedis
// to enable cross-instance fan-out.
func NewPublisher(hub *websocket.Hub, log zerolog.Logger) *Publisher {
	return &Publisher{
		hub:        hub,
		log:        log,
		now:        time.Now,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this publisher in cross-instance envelopes.
func (p *Publisher) InstanceID() string { return p.instanceID }

// WithRedis attaches a Redis client for cross-instance publishing.
func (p *Publisher) WithRedis(client *redis.Client) *Publisher {
	p.redis = client
	return p
}

var _ queue.Broadcaster = (*Publisher)(nil)

// PublishWaitingQueue pushes the full waiting snapshot. Consumers replace
// any previously held state with it.
func (p *Publisher) PublishWaitingQueue(ctx context.Context, entries []queue.QueueEntry) error {
	if entries == nil {
		entries = []queue.QueueEntry{}
	}
	return p.publish(ctx, websocket.TopicWaitingQueue, EventWaitingQueueUpdate, entries)
}

// PublishCalled announces the ticket just called into consultation.
func (p *Publisher) PublishCalled(ctx context.Context, sessionID int64, queueNumber string) error {
	return p.publish(ctx, websocket.TopicCalledQueue, EventCalledQueueUpdate, CalledNotice{
		SessionID:   sessionID,
		QueueNumber: queueNumber,
	})
}

func (p *Publisher) publish(ctx context.Context, topic, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	event := websocket.Event{
		Type:      eventType,
		Topic:     topic,
		Timestamp: p.now().UTC(),
		Data:      data,
	}
	p.hub.Broadcast(topic, event)

	if p.redis == nil {
		return nil
	}
	envelope, err := json.Marshal(relayEnvelope{Origin: p.instanceID, Topic: topic, Event: event})
	if err != nil {
		return fmt.Errorf("marshal relay envelope: %w", err)
	}
	if err := p.redis.Publish(ctx, redisChannel, envelope).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// RunRelay subscribes to the shared Redis channel and replays events from
// other instances into the local hub. Events originated by selfID are
// skipped; the local hub already delivered them. Blocks until ctx is
// cancelled.
func RunRelay(ctx context.Context, client *redis.Client, hub *websocket.Hub, selfID string, log zerolog.Logger) error {
	sub := client.Subscribe(ctx, redisChannel)
	defer sub.Close()

	ch := sub.Channel()
	log.Info().Str("channel", redisChannel).Msg("queue event relay started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription closed")
			}
			var envelope relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				log.Warn().Err(err).Msg("drop malformed relay message")
				continue
			}
			if envelope.Origin == selfID {
				continue
			}
			hub.Broadcast(envelope.Topic, envelope.Event)
		}
	}
}
