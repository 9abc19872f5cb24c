package core

// Default config constants
const (
	DefaultPort             = "8080"
	DefaultGinMode          = "release"
	DefaultModelsAPIBaseURL = "http://localhost:8100"
)

// Inventory API constants
const (
	ModelsEndpointPath = "/api/models"
)

// Content type and header constants
const (
	ContentTypeJSON     = "application/json"
	ContentTypeHTML     = "text/html; charset=utf-8"
	CacheControlNoCache = "no-cache"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderCacheControl  = "Cache-Control"
	HeaderUserAgent     = "User-Agent"
	UserAgent           = "vehiclemodels/1.0"
)
