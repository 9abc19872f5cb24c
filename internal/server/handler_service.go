package server

import (
	"errors"
	"net/http"
	"strconv"

	"vehiclemodels/internal/core"
	"vehiclemodels/internal/service"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps store errors to HTTP statuses. Unexpected errors
// are logged and reported without detail.
func (s *Server) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTechnicianNotFound), errors.Is(err, service.ErrAppointmentNotFound):
		respondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTechnicianInUse):
		respondWithError(c, http.StatusConflict, err.Error())
	default:
		s.config.Logger.Error("Service request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		respondWithError(c, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(c, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// bindBody decodes the JSON request body into dst.
func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) listTechnicians(c *gin.Context) {
	technicians, err := s.serviceStore.ListTechnicians(c.Request.Context())
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technicians": technicians})
}

func (s *Server) createTechnician(c *gin.Context) {
	var in service.TechnicianInput
	if !bindBody(c, &in) {
		return
	}
	technician, err := s.serviceStore.CreateTechnician(c.Request.Context(), in)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, technician)
}

func (s *Server) deleteTechnician(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	technician, err := s.serviceStore.DeleteTechnician(c.Request.Context(), id)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, technician)
}

func (s *Server) listAppointments(c *gin.Context) {
	appointments, err := s.serviceStore.ListAppointments(c.Request.Context())
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service_appointments": appointments})
}

// serviceHistory lists finished appointments, narrowed by ?vin= when given.
func (s *Server) serviceHistory(c *gin.Context) {
	appointments, err := s.serviceStore.ListHistory(c.Request.Context(), c.Query(core.AppointmentHistoryVINParam))
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service_appointments": appointments})
}

func (s *Server) createAppointment(c *gin.Context) {
	var in service.AppointmentInput
	if !bindBody(c, &in) {
		return
	}
	appointment, err := s.serviceStore.CreateAppointment(c.Request.Context(), in)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (s *Server) updateAppointment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch service.AppointmentPatch
	if !bindBody(c, &patch) {
		return
	}
	appointment, err := s.serviceStore.UpdateAppointment(c.Request.Context(), id, patch)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (s *Server) deleteAppointment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	appointment, err := s.serviceStore.DeleteAppointment(c.Request.Context(), id)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (s *Server) listAutomobiles(c *gin.Context) {
	autos, err := s.serviceStore.ListAutomobiles(c.Request.Context())
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"autos": autos})
}

// addAutomobile records a VIN sold from the inventory so its appointments
// are flagged VIP.
func (s *Server) addAutomobile(c *gin.Context) {
	var in struct {
		VIN string `json:"VIN"`
	}
	if !bindBody(c, &in) {
		return
	}
	auto, err := s.serviceStore.AddAutomobile(c.Request.Context(), in.VIN)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, auto)
}
