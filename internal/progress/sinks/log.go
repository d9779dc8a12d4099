package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/progress"
)

// LogSink writes one structured log line per event.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch. Persist errors log at Warn.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("event_id", evt.EventUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("lang", evt.Lang),
			zap.Time("ts", evt.TS),
		}
		if evt.SupplicationID != "" {
			fields = append(fields, zap.String("supplication_id", evt.SupplicationID))
		}
		if evt.Scope != "" {
			fields = append(fields, zap.String("scope", evt.Scope))
		}
		fields = append(fields, zap.Int("count", evt.Count))
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		if evt.Stage == progress.StagePersistError {
			s.logger.Warn("progress event", fields...)
			continue
		}
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
