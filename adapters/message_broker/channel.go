package message_broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

// TranscriptsTopic carries domain.TranscriptEvent payloads.
const TranscriptsTopic = "transcripts"

const topicBuffer = 100

var ErrBrokerClosed = fmt.Errorf("message broker is closed")

// ChannelMessageBroker implements MessageBroker using Go channels. Each
// topic/routing key pair owns one buffered channel shared by its subscribers.
type ChannelMessageBroker struct {
	topics map[string]chan domain.Message
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]chan domain.Message),
		now:    time.Now,
	}
}

func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channel returns the channel for key, creating it under the write lock.
func (b *ChannelMessageBroker) channel(key string) (chan domain.Message, error) {
	b.mu.RLock()
	ch, ok := b.topics[key]
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, ErrBrokerClosed
	}
	if ok {
		return ch, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	if ch, ok = b.topics[key]; !ok {
		ch = make(chan domain.Message, topicBuffer)
		b.topics[key] = ch
	}
	return ch, nil
}

// Publish never blocks: a full topic channel is reported as an error.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	key := makeKey(topic, routingKey)
	if _, err := b.channel(key); err != nil {
		return err
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  b.now(),
	}

	// Hold the read lock while sending so Close cannot close the channel
	// underneath us.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBrokerClosed
	}
	channel := b.topics[key]

	select {
	case channel <- msg:
		log.WithCtx(ctx).Debug("📤 Message published to topic",
			zap.String("topic", topic),
			zap.String("routingKey", routingKey),
			zap.Int("payload_size", len(message)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("topic channel is full: %s:%s", topic, routingKey)
	}
}

func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	channel, err := b.channel(makeKey(topic, routingKey))
	if err != nil {
		return nil, err
	}
	log.WithCtx(ctx).Info("📡 Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return channel, nil
}

// Close closes every topic channel, ending all subscriber loops.
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for key, channel := range b.topics {
		close(channel)
		log.WithCtx(context.Background()).Debug("🔒 Closed topic channel", zap.String("key", key))
	}
	b.topics = make(map[string]chan domain.Message)

	log.WithCtx(context.Background()).Info("🔒 Message broker closed")
	return nil
}

func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// PublishTranscript encodes event and publishes it on TranscriptsTopic.
func PublishTranscript(ctx context.Context, broker domain.MessageBroker, event domain.TranscriptEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding transcript event: %w", err)
	}
	return broker.Publish(ctx, TranscriptsTopic, "", payload)
}

// DecodeTranscript is the inverse of PublishTranscript.
func DecodeTranscript(msg domain.Message) (domain.TranscriptEvent, error) {
	var event domain.TranscriptEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return domain.TranscriptEvent{}, fmt.Errorf("decoding transcript event: %w", err)
	}
	return event, nil
}
