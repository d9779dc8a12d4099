package sinks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/progress"
	"github.com/JakeFAU/daily-supplications/internal/publisher"
)

// Digest summarizes one batch of events for a single language.
type Digest struct {
	Lang          string    `json:"lang"`
	Completed     int       `json:"completed"`
	Resets        int       `json:"resets"`
	CustomAdded   int       `json:"customAdded"`
	CustomRemoved int       `json:"customRemoved"`
	PersistErrors int       `json:"persistErrors"`
	Completions   int       `json:"completions"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
}

// PublishSink collapses each batch into per-language digests and hands them
// to a publisher, so downstream consumers see one message per language per
// flush instead of one per tap.
type PublishSink struct {
	pub    publisher.Publisher
	topic  string
	logger *zap.Logger
}

// NewPublishSink constructs a PublishSink for the provided publisher.
func NewPublishSink(pub publisher.Publisher, topic string, logger *zap.Logger) *PublishSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishSink{pub: pub, topic: topic, logger: logger}
}

// Consume publishes one Digest per language present in batch. It respects
// ctx deadlines and returns the first publisher error.
func (s *PublishSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.pub == nil {
		return nil
	}
	digests := make(map[string]*Digest)
	for _, evt := range batch {
		d := digests[evt.Lang]
		if d == nil {
			d = &Digest{Lang: evt.Lang, From: evt.TS, To: evt.TS}
			digests[evt.Lang] = d
		}
		record(d, evt)
	}

	langs := make([]string, 0, len(digests))
	for lang := range digests {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		d := digests[lang]
		id, err := s.pub.Publish(ctx, s.topic, *d)
		if err != nil {
			return fmt.Errorf("publish %s digest: %w", lang, err)
		}
		s.logger.Debug("progress digest published", zap.String("lang", lang), zap.String("message_id", id))
	}
	return nil
}

func record(d *Digest, evt progress.Event) {
	switch evt.Stage {
	case progress.StageCompleted:
		d.Completed++
	case progress.StageReset:
		d.Resets++
	case progress.StageCustomAdded:
		d.CustomAdded++
	case progress.StageCustomRemoved:
		d.CustomRemoved++
	case progress.StagePersistError:
		d.PersistErrors++
		return
	case progress.StagePartitionLoaded:
	}
	d.Completions = evt.Count
	if evt.TS.Before(d.From) {
		d.From = evt.TS
	}
	if evt.TS.After(d.To) {
		d.To = evt.TS
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PublishSink) Close(context.Context) error {
	return nil
}
