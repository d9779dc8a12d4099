package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/daily-supplications/internal/progress"
)

func TestLogSinkWritesStructuredFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLogSink(zap.New(core))

	completed := progress.NewEvent(time.Now(), progress.StageCompleted, "ar")
	completed.SupplicationID = "e2"
	failed := progress.NewEvent(time.Now(), progress.StagePersistError, "ar")
	failed.Note = "disk full"

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{completed, failed}))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "e2", entries[0].ContextMap()["supplication_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "disk full", entries[1].ContextMap()["note"])
}

func TestNewLogSinkNilLogger(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(nil)
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		progress.NewEvent(time.Now(), progress.StagePartitionLoaded, "en"),
	}))
	require.NoError(t, sink.Close(context.Background()))
}
