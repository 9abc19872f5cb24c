package core

import "time"

// FetchStats holds aggregated inventory fetch statistics for monitoring.
type FetchStats struct {
	TotalFetches      int64         `json:"total_fetches"`
	SuccessfulFetches int64         `json:"successful_fetches"`
	FailedFetches     int64         `json:"failed_fetches"`
	TotalResponseTime int64         `json:"total_response_time"`
	TotalRows         int64         `json:"total_rows"`
	HTTPRequests      int64         `json:"http_requests"`
	TotalHTTPTime     int64         `json:"total_http_time"`
	LastFetchTime     time.Time     `json:"last_fetch_time"`
	FetchHistory      []FetchRecord `json:"fetch_history"`
}

// FetchRecord represents a single fetch's metadata for history tracking.
type FetchRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	ResponseTime int64     `json:"response_time"`
	Rows         int       `json:"rows"`
	Endpoint     string    `json:"endpoint"`
}

// PeriodStats holds computed statistics for a time period.
type PeriodStats struct {
	Fetches         int64   `json:"fetches"`
	SuccessRate     float64 `json:"successRate"`
	AvgResponseTime int64   `json:"avgResponseTime"`
	AvgRows         float64 `json:"avgRows"`
	QPS             float64 `json:"qps"`
}
