package server

import (
	"net/http"

	"vehiclemodels/internal/core"
	"vehiclemodels/internal/view"

	"github.com/gin-gonic/gin"
)

const recentFetchLimit = 20

// respondWithError returns a JSON error body
func respondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// renderPage writes the full HTML page for state.
func renderPage(c *gin.Context, code int, state view.State, autoRefresh bool) {
	c.Header(core.HeaderCacheControl, core.CacheControlNoCache)
	c.HTML(code, view.PageTemplate, view.NewPageData(state, autoRefresh))
}

// pageStatus maps a settled view state to the HTTP status of the page.
func pageStatus(state view.State) int {
	switch state.Status {
	case view.StatusLoaded:
		return http.StatusOK
	case view.StatusFailed:
		return http.StatusBadGateway
	default:
		return http.StatusGatewayTimeout
	}
}

// recentFetches returns up to limit records, newest first.
func recentFetches(history []core.FetchRecord, limit int) []core.FetchRecord {
	n := min(limit, len(history))
	out := make([]core.FetchRecord, 0, n)
	for i := len(history) - 1; i >= len(history)-n; i-- {
		out = append(out, history[i])
	}
	return out
}
