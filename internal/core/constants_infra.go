package core

import "time"

// HTTP client config constants
const (
	HTTPMaxIdleConns          = 100
	HTTPMaxIdleConnsPerHost   = 20
	HTTPMaxConnsPerHost       = 50
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 10 * time.Second
	HTTPResponseHeaderTimeout = 30 * time.Second
	HTTPExpectContinueTimeout = 1 * time.Second
	HTTPRequestTimeout        = 30 * time.Second
)

// Cache config constants
const (
	CacheDefaultCapacity = 1000
	CacheCleanupInterval = 1 * time.Minute
)

// Mounted view constants
const (
	DefaultViewTTL           = 10 * time.Minute
	ViewRefreshSeconds       = 2
	DefaultRenderWaitTimeout = 45 * time.Second
)

// Service database constants
const (
	ServiceDBModeInMemory      = "in-memory"
	ServiceDBModeDisk          = "disk"
	ServiceDBModeExternal      = "external"
	DefaultServiceDBPath       = "service.db"
	DBMaxOpenConns             = 25
	DBMaxIdleConns             = 5
	DBConnMaxLifetime          = 5 * time.Minute
	ServiceDBOpenTimeout       = 10 * time.Second
	TechnicianNameMaxLength    = 30
	AppointmentOwnerMaxLength  = 30
	AppointmentDateTimeLayout  = "2006-01-02T15:04"
	AppointmentHistoryVINParam = "vin"
)

// Stats and monitoring constants
const (
	StatsFilePath        = "stats.json"
	StatsRedisKey        = "vehiclemodels:stats"
	MinSaveInterval      = 5 * time.Second
	HistoryBufferSize    = 1000
	HistoryBatchSize     = 100
	HistoryFlushInterval = 100 * time.Millisecond
)

// Response body size limits
const (
	MaxResponseBodySize = 10 * 1024 * 1024
)

// Rate limit and CORS constants
const (
	DefaultRateLimit = 120
	CORSMaxAge       = 24 * time.Hour
)

// Logging config constants
const (
	MaxDebugFilePathLength = 260
)

// File permission constants
const (
	FilePermissionReadWrite = 0644
)

// Time format constants
const (
	TimeFormatDateTime = "2006-01-02 15:04:05"
)
