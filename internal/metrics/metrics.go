package metrics

import (
	"embed"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"vehiclemodels/internal/core"

	"github.com/gin-gonic/gin"
)

// StatsPageHTML holds the embedded monitoring dashboard HTML.
//
//go:embed static/stats.html
var StatsPageHTML embed.FS

// AtomicFetchStats thread-safe fetch counters
type AtomicFetchStats struct {
	TotalFetches      atomic.Int64
	SuccessfulFetches atomic.Int64
	FailedFetches     atomic.Int64
	TotalResponseTime atomic.Int64
	TotalRows         atomic.Int64
	HTTPRequests      atomic.Int64
	TotalHTTPTime     atomic.Int64
}

// MetricsConfig configuration for MetricsService
type MetricsConfig struct {
	SaveInterval time.Duration
	HistorySize  int
	Storage      core.StorageInterface
	Logger       core.Logger
}

// MetricsService collects inventory fetch outcomes and persists them.
type MetricsService struct {
	atomicStats      AtomicFetchStats
	fetchHistory     []core.FetchRecord
	historyMu        sync.RWMutex
	lastFetchTime    time.Time
	maxHistorySize   int
	storage          core.StorageInterface
	logger           core.Logger
	lastSaveTime     time.Time
	minSaveInterval  time.Duration
	done             chan struct{}
	closeOnce        sync.Once
	historyBuffer    []core.FetchRecord
	bufferMu         sync.Mutex
	bufferFlushTimer *time.Ticker
	recentFetches    []time.Time
	recentMu         sync.Mutex
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(config MetricsConfig) *MetricsService {
	if config.HistorySize <= 0 {
		config.HistorySize = core.HistoryBufferSize
	}
	if config.Logger == nil {
		config.Logger = &core.NopLogger{}
	}
	ms := &MetricsService{
		maxHistorySize:  config.HistorySize,
		storage:         config.Storage,
		logger:          config.Logger,
		minSaveInterval: config.SaveInterval,
		done:            make(chan struct{}),
		historyBuffer:   make([]core.FetchRecord, 0, core.HistoryBatchSize),
	}

	ms.bufferFlushTimer = time.NewTicker(core.HistoryFlushInterval)
	go ms.flushLoop()

	return ms
}

func (ms *MetricsService) flushLoop() {
	for {
		select {
		case <-ms.bufferFlushTimer.C:
			ms.flushBuffer()
		case <-ms.done:
			return
		}
	}
}

func (ms *MetricsService) flushBuffer() {
	ms.bufferMu.Lock()
	if len(ms.historyBuffer) == 0 {
		ms.bufferMu.Unlock()
		return
	}
	batch := ms.historyBuffer
	ms.historyBuffer = make([]core.FetchRecord, 0, core.HistoryBatchSize)
	ms.bufferMu.Unlock()

	ms.historyMu.Lock()
	ms.fetchHistory = append(ms.fetchHistory, batch...)
	if len(ms.fetchHistory) > ms.maxHistorySize {
		ms.fetchHistory = ms.fetchHistory[len(ms.fetchHistory)-ms.maxHistorySize:]
	}
	ms.historyMu.Unlock()
}

// RecordFetch records the outcome of one inventory fetch.
func (ms *MetricsService) RecordFetch(success bool, responseTime time.Duration, rows int, endpoint string) {
	now := time.Now()
	ms.historyMu.Lock()
	ms.lastFetchTime = now
	ms.historyMu.Unlock()

	ms.atomicStats.TotalFetches.Add(1)
	ms.atomicStats.TotalResponseTime.Add(responseTime.Milliseconds())
	ms.atomicStats.TotalRows.Add(int64(rows))
	if success {
		ms.atomicStats.SuccessfulFetches.Add(1)
	} else {
		ms.atomicStats.FailedFetches.Add(1)
	}

	ms.recentMu.Lock()
	ms.recentFetches = append(ms.recentFetches, now)
	ms.pruneRecent(now)
	ms.recentMu.Unlock()

	record := core.FetchRecord{
		Timestamp:    now,
		Success:      success,
		ResponseTime: responseTime.Milliseconds(),
		Rows:         rows,
		Endpoint:     endpoint,
	}

	ms.bufferMu.Lock()
	ms.historyBuffer = append(ms.historyBuffer, record)
	shouldFlush := len(ms.historyBuffer) >= core.HistoryBatchSize
	ms.bufferMu.Unlock()

	if shouldFlush {
		ms.flushBuffer()
	}

	ms.SaveStatsDebounced()
}

// RecordHTTPRequest records the duration of one upstream HTTP round trip.
func (ms *MetricsService) RecordHTTPRequest(duration time.Duration) {
	ms.atomicStats.HTTPRequests.Add(1)
	ms.atomicStats.TotalHTTPTime.Add(duration.Milliseconds())
}

// recentMu must be held.
func (ms *MetricsService) pruneRecent(now time.Time) {
	cutoff := now.Add(-1 * time.Minute)
	startIdx := 0
	for startIdx < len(ms.recentFetches) && ms.recentFetches[startIdx].Before(cutoff) {
		startIdx++
	}
	if startIdx > 0 {
		newRecent := make([]time.Time, len(ms.recentFetches)-startIdx)
		copy(newRecent, ms.recentFetches[startIdx:])
		ms.recentFetches = newRecent
	}
}

// GetQPS returns fetches per second over the last minute.
func (ms *MetricsService) GetQPS() float64 {
	ms.recentMu.Lock()
	defer ms.recentMu.Unlock()

	ms.pruneRecent(time.Now())
	if len(ms.recentFetches) == 0 {
		return 0
	}
	return math.Round(float64(len(ms.recentFetches))/60.0*1000) / 1000
}

// GetFetchStats returns current stats snapshot
func (ms *MetricsService) GetFetchStats() core.FetchStats {
	ms.flushBuffer()
	ms.historyMu.RLock()
	defer ms.historyMu.RUnlock()

	historyCopy := make([]core.FetchRecord, len(ms.fetchHistory))
	copy(historyCopy, ms.fetchHistory)

	return core.FetchStats{
		TotalFetches:      ms.atomicStats.TotalFetches.Load(),
		SuccessfulFetches: ms.atomicStats.SuccessfulFetches.Load(),
		FailedFetches:     ms.atomicStats.FailedFetches.Load(),
		TotalResponseTime: ms.atomicStats.TotalResponseTime.Load(),
		TotalRows:         ms.atomicStats.TotalRows.Load(),
		HTTPRequests:      ms.atomicStats.HTTPRequests.Load(),
		TotalHTTPTime:     ms.atomicStats.TotalHTTPTime.Load(),
		LastFetchTime:     ms.lastFetchTime,
		FetchHistory:      historyCopy,
	}
}

// GetPeriodStats computes period statistics for multiple hour windows in a single pass.
func GetPeriodStats(history []core.FetchRecord, hourPeriods ...int) map[int]core.PeriodStats {
	if len(hourPeriods) == 0 {
		return nil
	}

	now := time.Now()
	cutoffs := make([]time.Time, len(hourPeriods))
	fetches := make([]int64, len(hourPeriods))
	successful := make([]int64, len(hourPeriods))
	responseTime := make([]int64, len(hourPeriods))
	rows := make([]int64, len(hourPeriods))

	for i, hours := range hourPeriods {
		cutoffs[i] = now.Add(-time.Duration(hours) * time.Hour)
	}

	for _, record := range history {
		for i, cutoff := range cutoffs {
			if record.Timestamp.After(cutoff) {
				fetches[i]++
				responseTime[i] += record.ResponseTime
				rows[i] += int64(record.Rows)
				if record.Success {
					successful[i]++
				}
			}
		}
	}

	result := make(map[int]core.PeriodStats, len(hourPeriods))
	for i, hours := range hourPeriods {
		stats := core.PeriodStats{
			Fetches: fetches[i],
			QPS:     float64(fetches[i]) / (float64(hours) * 3600.0),
		}
		if fetches[i] > 0 {
			stats.SuccessRate = float64(successful[i]) / float64(fetches[i]) * 100
			stats.AvgResponseTime = responseTime[i] / fetches[i]
			stats.AvgRows = float64(rows[i]) / float64(fetches[i])
		}
		result[hours] = stats
	}
	return result
}

// LoadStats loads stats from storage
func (ms *MetricsService) LoadStats() error {
	if ms.storage == nil {
		return nil
	}
	stats, err := ms.storage.LoadStats()
	if err != nil {
		return err
	}

	ms.atomicStats.TotalFetches.Store(stats.TotalFetches)
	ms.atomicStats.SuccessfulFetches.Store(stats.SuccessfulFetches)
	ms.atomicStats.FailedFetches.Store(stats.FailedFetches)
	ms.atomicStats.TotalResponseTime.Store(stats.TotalResponseTime)
	ms.atomicStats.TotalRows.Store(stats.TotalRows)
	ms.atomicStats.HTTPRequests.Store(stats.HTTPRequests)
	ms.atomicStats.TotalHTTPTime.Store(stats.TotalHTTPTime)

	history := stats.FetchHistory
	if len(history) > ms.maxHistorySize {
		history = history[len(history)-ms.maxHistorySize:]
	}

	ms.historyMu.Lock()
	ms.lastFetchTime = stats.LastFetchTime
	ms.fetchHistory = history
	ms.historyMu.Unlock()

	return nil
}

// SaveStatsDebounced saves stats with debounce
func (ms *MetricsService) SaveStatsDebounced() {
	now := time.Now()
	ms.historyMu.Lock()
	if now.Sub(ms.lastSaveTime) < ms.minSaveInterval {
		ms.historyMu.Unlock()
		return
	}
	ms.lastSaveTime = now
	ms.historyMu.Unlock()

	if ms.storage == nil {
		return
	}

	stats := ms.GetFetchStats()
	if err := ms.storage.SaveStats(&stats); err != nil {
		ms.logger.Warn("Failed to save stats: %v", err)
	}
}

// Close saves final stats and stops the flush loop. Calling it again is a no-op.
func (ms *MetricsService) Close() error {
	var err error
	ms.closeOnce.Do(func() {
		close(ms.done)
		ms.bufferFlushTimer.Stop()
		ms.flushBuffer()

		if ms.storage != nil {
			stats := ms.GetFetchStats()
			err = ms.storage.SaveStats(&stats)
		}
	})
	return err
}

// ShowStatsPage serves the stats HTML page
func ShowStatsPage(c *gin.Context) {
	data, err := StatsPageHTML.ReadFile("static/stats.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to load stats page")
		return
	}
	c.Data(http.StatusOK, core.ContentTypeHTML, data)
}
