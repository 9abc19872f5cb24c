package server

import (
	"errors"
	"net/http"

	"vehiclemodels/internal/core"
	"vehiclemodels/internal/view"

	"github.com/gin-gonic/gin"
)

// viewStateResponse is the JSON form of a mounted view's state.
type viewStateResponse struct {
	ID     string              `json:"id"`
	Status string              `json:"status"`
	Models []core.VehicleModel `json:"models"`
	Error  string              `json:"error,omitempty"`
}

func newViewStateResponse(id string, state view.State) viewStateResponse {
	resp := viewStateResponse{
		ID:     id,
		Status: state.Status.String(),
		Models: state.Models,
	}
	if resp.Models == nil {
		resp.Models = []core.VehicleModel{}
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	return resp
}

// createView mounts a view that outlives the request. Its fetch is bound to
// the server lifetime, not the request.
func (s *Server) createView(c *gin.Context) {
	id, v, err := s.views.mount(s.shutdownCtx, s.fetcher)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	s.config.Logger.Debug("Mounted view %s", id)

	c.Header("Location", "/views/"+id)
	c.JSON(http.StatusCreated, gin.H{"id": id, "status": v.Snapshot().Status.String()})
}

func (s *Server) lookupView(c *gin.Context) (string, *view.ModelListView, bool) {
	id := c.Param("id")
	v, err := s.views.get(id)
	if err != nil {
		respondWithError(c, http.StatusNotFound, err.Error())
		return id, nil, false
	}
	return id, v, true
}

// showView renders the current state of a mounted view. The page refreshes
// itself while the view is loading.
func (s *Server) showView(c *gin.Context) {
	_, v, ok := s.lookupView(c)
	if !ok {
		return
	}
	renderPage(c, http.StatusOK, v.Snapshot(), true)
}

func (s *Server) viewState(c *gin.Context) {
	id, v, ok := s.lookupView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newViewStateResponse(id, v.Snapshot()))
}

func (s *Server) deleteView(c *gin.Context) {
	id := c.Param("id")
	if err := s.views.remove(id); err != nil {
		if errors.Is(err, core.ErrViewNotFound) {
			respondWithError(c, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	s.config.Logger.Debug("Deleted view %s", id)
	c.Status(http.StatusNoContent)
}

type viewSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// listViews reports the live views, most recently used first. Entries that
// expired but were not yet swept are skipped.
func (s *Server) listViews(c *gin.Context) {
	ids := s.views.list()
	views := make([]viewSummary, 0, len(ids))
	for _, id := range ids {
		v, err := s.views.get(id)
		if err != nil {
			continue
		}
		views = append(views, viewSummary{ID: id, Status: v.Snapshot().Status.String()})
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}
