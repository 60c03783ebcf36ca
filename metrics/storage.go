package metrics

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/apollo-music/songvault"
	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics holds Prometheus collectors for object store instrumentation.
type StorageMetrics struct {
	bytes   *prometheus.CounterVec
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewStorageMetrics registers storage metrics on the provided registry.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "bytes_total",
		Help:      "Total bytes processed by storage operations.",
	}, []string{"op"})
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "ops_total",
		Help:      "Total number of storage operations by result.",
	}, []string{"op", "result"}) // result = "ok" | "not_found" | "error"
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "op_duration_seconds",
		Help:      "Histogram of storage operation durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	reg.MustRegister(bytes, ops, latency)

	return &StorageMetrics{
		bytes:   bytes,
		ops:     ops,
		latency: latency,
	}
}

// Observe records a storage operation with optional bytes and error.
// dur must be the total time spent in the operation.
func (m *StorageMetrics) Observe(op string, bytes int64, err error, dur time.Duration) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, songvault.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	if bytes > 0 {
		m.bytes.WithLabelValues(op).Add(float64(bytes))
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.latency.WithLabelValues(op).Observe(dur.Seconds())
}

// InstrumentedStore wraps an ObjectStore and observes every call.
type InstrumentedStore struct {
	next    songvault.ObjectStore
	metrics *StorageMetrics
}

// InstrumentStore returns store wrapped with m.
func InstrumentStore(store songvault.ObjectStore, m *StorageMetrics) *InstrumentedStore {
	return &InstrumentedStore{next: store, metrics: m}
}

func (s *InstrumentedStore) Put(ctx context.Context, name songvault.StorageName, r io.Reader, size int64, contentType string) (songvault.PutResult, error) {
	start := time.Now()
	result, err := s.next.Put(ctx, name, r, size, contentType)
	s.metrics.Observe("put", result.Size, err, time.Since(start))
	return result, err
}

// Get observes the time to open the blob; bytes are counted by size, not by
// how much the caller ends up reading.
func (s *InstrumentedStore) Get(ctx context.Context, name songvault.StorageName) (songvault.Blob, error) {
	start := time.Now()
	blob, err := s.next.Get(ctx, name)
	s.metrics.Observe("get", blob.Size, err, time.Since(start))
	return blob, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, name songvault.StorageName) error {
	start := time.Now()
	err := s.next.Delete(ctx, name)
	s.metrics.Observe("delete", 0, err, time.Since(start))
	return err
}

func (s *InstrumentedStore) Resolve(location string) (songvault.StorageName, error) {
	return s.next.Resolve(location)
}

func (s *InstrumentedStore) List(ctx context.Context) ([]songvault.StoredObject, error) {
	start := time.Now()
	objects, err := s.next.List(ctx)
	s.metrics.Observe("list", 0, err, time.Since(start))
	return objects, err
}
