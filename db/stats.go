package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats collects build statistics in a private Prometheus registry.
// All methods accept a nil *Stats, so callers that don't care about
// statistics can leave the field unset.
type Stats struct {
	reg      *prometheus.Registry
	loaded   *prometheus.CounterVec
	rejected prometheus.Counter
	dropped  prometheus.Counter
	blocks   prometheus.Counter
	internal prometheus.Counter
	entries  prometheus.Histogram
	duration prometheus.Gauge
	start    time.Time
}

// NewStats returns a Stats with its clock started.
func NewStats() *Stats {
	s := &Stats{
		reg: prometheus.NewRegistry(),
		loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aircraftdb_records_loaded_total",
			Help: "CSV rows that contributed at least one attribute, by source",
		}, []string{"source"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aircraftdb_records_rejected_total",
			Help: "CSV rows skipped because of a malformed address",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aircraftdb_records_dropped_total",
			Help: "Records removed because only placeholder values remained",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aircraftdb_blocks_written_total",
			Help: "Block files written",
		}),
		internal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aircraftdb_blocks_split_total",
			Help: "Written blocks that list children",
		}),
		entries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aircraftdb_block_entries",
			Help:    "Records stored directly in each written block",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aircraftdb_build_duration_seconds",
			Help: "Wall time of the last build",
		}),
		start: time.Now(),
	}
	s.reg.MustRegister(s.loaded, s.rejected, s.dropped, s.blocks, s.internal, s.entries, s.duration)
	return s
}

func (s *Stats) recordsLoaded(source string, n int) {
	if s == nil {
		return
	}
	s.loaded.WithLabelValues(source).Add(float64(n))
}

func (s *Stats) recordsRejected(n int) {
	if s == nil {
		return
	}
	s.rejected.Add(float64(n))
}

func (s *Stats) recordsDropped(n int) {
	if s == nil {
		return
	}
	s.dropped.Add(float64(n))
}

func (s *Stats) blockWritten(b *Block) {
	if s == nil {
		return
	}
	s.blocks.Inc()
	if !b.IsLeaf() {
		s.internal.Inc()
	}
	s.entries.Observe(float64(b.Len()))
}

// Finish records the elapsed build time.
func (s *Stats) Finish() {
	if s == nil {
		return
	}
	s.duration.Set(time.Since(s.start).Seconds())
}

// Registry exposes the underlying registry, e.g. for tests or for a
// caller that wants to push the metrics elsewhere.
func (s *Stats) Registry() *prometheus.Registry {
	return s.reg
}

// WriteTextfile writes the metrics to path in the text format read by
// the node exporter's textfile collector.
func (s *Stats) WriteTextfile(path string) error {
	if s == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, s.reg)
}
