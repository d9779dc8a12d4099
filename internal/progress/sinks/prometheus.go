package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/daily-supplications/internal/progress"
)

// PrometheusSink exports progress mutations as counters partitioned by language.
type PrometheusSink struct {
	loads         *prometheus.CounterVec
	completed     *prometheus.CounterVec
	resets        *prometheus.CounterVec
	custom        *prometheus.CounterVec
	persistErrors *prometheus.CounterVec
	completions   *prometheus.GaugeVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplications_partition_loads_total",
			Help: "Language partitions loaded from storage.",
		}, []string{"lang"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplications_completed_total",
			Help: "Supplications marked completed.",
		}, []string{"lang"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplications_resets_total",
			Help: "Completion resets partitioned by scope.",
		}, []string{"lang", "scope"}),
		custom: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplications_custom_total",
			Help: "Custom supplications added or removed.",
		}, []string{"lang", "action"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplications_persist_errors_total",
			Help: "Failed writes to the key-value store.",
		}, []string{"lang"}),
		completions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "supplications_completions",
			Help: "Completed ids currently recorded per language.",
		}, []string{"lang"}),
	}
	for _, collector := range []prometheus.Collector{
		s.loads,
		s.completed,
		s.resets,
		s.custom,
		s.persistErrors,
		s.completions,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StagePartitionLoaded:
			s.loads.WithLabelValues(evt.Lang).Inc()
		case progress.StageCompleted:
			s.completed.WithLabelValues(evt.Lang).Inc()
			s.completions.WithLabelValues(evt.Lang).Set(float64(evt.Count))
		case progress.StageReset:
			s.resets.WithLabelValues(evt.Lang, evt.Scope).Inc()
			s.completions.WithLabelValues(evt.Lang).Set(float64(evt.Count))
		case progress.StageCustomAdded:
			s.custom.WithLabelValues(evt.Lang, "added").Inc()
		case progress.StageCustomRemoved:
			s.custom.WithLabelValues(evt.Lang, "removed").Inc()
		case progress.StagePersistError:
			s.persistErrors.WithLabelValues(evt.Lang).Inc()
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
