// Package publisher defines the outbound notification interface and a
// log-only implementation. Concrete brokers live in subpackages.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Publisher pushes a payload to a topic and returns a message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Log writes every payload to a zap logger instead of a broker.
type Log struct {
	logger *zap.Logger
	seq    atomic.Int64
}

// NewLog returns a Log publisher.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Publish logs the JSON-encoded payload.
func (l *Log) Publish(_ context.Context, topic string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	id := fmt.Sprintf("log-%d", l.seq.Add(1))
	l.logger.Info("notification published",
		zap.String("topic", topic),
		zap.String("message_id", id),
		zap.ByteString("payload", data))
	return id, nil
}
