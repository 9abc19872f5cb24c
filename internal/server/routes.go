package server

import (
	"vehiclemodels/internal/metrics"

	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() error {
	gin.SetMode(s.ginMode)
	s.router = gin.New()
	s.router.SetHTMLTemplate(s.templates)

	corsHandler, err := s.corsMiddleware()
	if err != nil {
		return err
	}

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsHandler)
	s.router.Use(s.maxBodySizeMiddleware())
	s.router.Use(s.rateLimitMiddleware())

	s.router.GET("/", s.showModels)
	s.router.GET("/models", s.showModels)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/stats", metrics.ShowStatsPage)
	s.router.GET("/api/stats", s.getStatsData)

	views := s.router.Group("/views")
	{
		views.GET("", s.listViews)
		views.POST("", s.createView)
		views.GET("/:id", s.showView)
		views.GET("/:id/state", s.viewState)
		views.DELETE("/:id", s.deleteView)
	}

	api := s.router.Group("/api")
	{
		api.GET("/technicians", s.listTechnicians)
		api.POST("/technicians", s.createTechnician)
		api.DELETE("/technicians/:id", s.deleteTechnician)

		api.GET("/appointments", s.listAppointments)
		api.POST("/appointments", s.createAppointment)
		api.GET("/appointments/history", s.serviceHistory)
		api.PUT("/appointments/:id", s.updateAppointment)
		api.DELETE("/appointments/:id", s.deleteAppointment)

		api.GET("/automobiles", s.listAutomobiles)
		api.POST("/automobiles", s.addAutomobile)
	}
	return nil
}
