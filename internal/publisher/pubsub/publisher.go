// Package pubsub publishes notifications to Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
)

// Config names the project and topic.
type Config struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// topic is the slice of *pubsub.Topic the publisher needs.
type topic interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
	Stop()
}

// Publisher wraps a Pub/Sub topic handle.
type Publisher struct {
	client *pubsub.Client
	topic  topic
}

// New dials Pub/Sub and verifies the topic exists.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.ProjectID == "" || cfg.TopicName == "" {
		return nil, fmt.Errorf("pubsub project_id and topic_name are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	t := client.Topic(cfg.TopicName)
	exists, err := t.Exists(ctx)
	if err != nil || !exists {
		_ = client.Close()
		if err != nil {
			return nil, fmt.Errorf("check topic %q: %w", cfg.TopicName, err)
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", cfg.TopicName, cfg.ProjectID)
	}
	return &Publisher{client: client, topic: t}, nil
}

// NewWithTopic wraps an existing topic handle (primarily for testing).
func NewWithTopic(t topic) *Publisher {
	return &Publisher{topic: t}
}

// Publish marshals the payload to JSON, injects the trace context into the
// message attributes, and waits for the server-assigned id. The topic
// argument is informational; messages always go to the configured topic.
func (p *Publisher) Publish(ctx context.Context, topicName string, payload any) (string, error) {
	if p == nil || p.topic == nil {
		return "", fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	msg := &pubsub.Message{Data: data, Attributes: map[string]string{}}
	if topicName != "" {
		msg.Attributes["topic"] = topicName
	}
	otel.GetTextMapPropagator().Inject(ctx, &attributeCarrier{attrs: msg.Attributes})

	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("close pubsub client: %w", err)
		}
	}
	return nil
}

// attributeCarrier implements propagation.TextMapCarrier over message attributes.
type attributeCarrier struct {
	attrs map[string]string
}

func (c *attributeCarrier) Get(key string) string {
	return c.attrs[key]
}

func (c *attributeCarrier) Set(key, value string) {
	c.attrs[key] = value
}

func (c *attributeCarrier) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	return keys
}
