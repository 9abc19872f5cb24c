package core

import (
	"context"
	"time"
)

// Logger interface
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

// Cache interface
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, duration time.Duration)
	Delete(key string) bool
	Stop()
}

// StorageInterface storage interface
type StorageInterface interface {
	SaveStats(stats *FetchStats) error
	LoadStats() (*FetchStats, error)
	Close() error
}

// StorageLocator is implemented by storages that can say where stats live.
type StorageLocator interface {
	Location() string
}

// ModelsFetcher loads the vehicle model list from the inventory service.
type ModelsFetcher interface {
	FetchModels(ctx context.Context) Result
}

// MetricsCollector interface
type MetricsCollector interface {
	RecordFetch(success bool, responseTime time.Duration, rows int, endpoint string)
	RecordHTTPRequest(duration time.Duration)
	GetQPS() float64
}

// NopLogger empty logger implementation
type NopLogger struct{}

func (*NopLogger) Debug(format string, args ...any) {}
func (*NopLogger) Info(format string, args ...any)  {}
func (*NopLogger) Warn(format string, args ...any)  {}
func (*NopLogger) Error(format string, args ...any) {}
func (*NopLogger) Fatal(format string, args ...any) {}

// NopMetrics empty metrics collector implementation
type NopMetrics struct{}

func (*NopMetrics) RecordFetch(success bool, responseTime time.Duration, rows int, endpoint string) {
}
func (*NopMetrics) RecordHTTPRequest(duration time.Duration) {}
func (*NopMetrics) GetQPS() float64                          { return 0 }
