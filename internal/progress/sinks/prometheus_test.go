package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/daily-supplications/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	now := time.Now()
	completed := progress.NewEvent(now, progress.StageCompleted, "en")
	completed.SupplicationID = "m1"
	completed.Count = 3
	reset := progress.NewEvent(now, progress.StageReset, "en")
	reset.Scope = "morning"
	reset.Count = 1
	added := progress.NewEvent(now, progress.StageCustomAdded, "tr")
	added.SupplicationID = "custom_1"
	removed := progress.NewEvent(now, progress.StageCustomRemoved, "tr")
	removed.SupplicationID = "custom_1"

	batch := []progress.Event{
		progress.NewEvent(now, progress.StagePartitionLoaded, "en"),
		completed,
		reset,
		added,
		removed,
		progress.NewEvent(now, progress.StagePersistError, "ar"),
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.loads.WithLabelValues("en")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.completed.WithLabelValues("en")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.resets.WithLabelValues("en", "morning")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.custom.WithLabelValues("tr", "added")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.custom.WithLabelValues("tr", "removed")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.persistErrors.WithLabelValues("ar")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.completions.WithLabelValues("en")))
	require.NoError(t, sink.Close(context.Background()))
}

func TestPrometheusSinkDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
