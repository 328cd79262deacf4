package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the shared tracer for the analysis phases.
var Tracer trace.Tracer = otel.Tracer("classlink")

// Metrics definitions
var (
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classlink_phase_seconds",
		Help:    "Time spent in one analysis phase (ingest, complete, resolve).",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	RegistryClasses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classlink_registry_classes_total",
		Help: "Total number of class descriptors currently registered.",
	})

	LazyLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classlink_lazy_loads_total",
		Help: "Total number of lazy introspective class loads by outcome.",
	}, []string{"outcome"})

	HierarchyStubsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classlink_hierarchy_stubs_total",
		Help: "Total number of ancestor descriptors added during hierarchy completion.",
	})

	HierarchyMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classlink_hierarchy_missing_total",
		Help: "Total number of hierarchy edges dropped due to missing dependencies.",
	})

	RecordsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classlink_records_resolved_total",
		Help: "Total number of raw access records resolved against the registry.",
	}, []string{"kind"})

	RecordsFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classlink_records_fallback_total",
		Help: "Total number of records bound via fallback member synthesis.",
	}, []string{"kind"})

	RecordsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classlink_records_dropped_total",
		Help: "Total number of records dropped due to missing dependencies.",
	}, []string{"kind"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classlink_watcher_events_total",
		Help: "Total number of filesystem events seen in watch mode.",
	})
)
