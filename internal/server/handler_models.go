package server

import (
	"context"
	"errors"
	"net/http"

	"vehiclemodels/internal/view"

	"github.com/gin-gonic/gin"
)

// showModels mounts a view for this request only, waits for it to settle and
// renders the page. The view is unmounted when the request ends.
func (s *Server) showModels(c *gin.Context) {
	v := view.New(s.fetcher, s.config.Logger)
	if err := v.Mount(c.Request.Context()); err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer v.Unmount()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RenderTimeout)
	defer cancel()

	state, err := v.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.config.Logger.Warn("Vehicle models not loaded within %v", s.config.RenderTimeout)
		} else {
			s.config.Logger.Debug("Render of vehicle models abandoned: %v", err)
			return
		}
	}

	renderPage(c, pageStatus(state), state, false)
}
