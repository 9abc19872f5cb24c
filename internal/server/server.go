package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"vehiclemodels/internal/catalog"
	"vehiclemodels/internal/config"
	"vehiclemodels/internal/core"
	"vehiclemodels/internal/metrics"
	"vehiclemodels/internal/service"
	"vehiclemodels/internal/view"

	"github.com/gin-gonic/gin"
)

// Server application server
type Server struct {
	port    string
	ginMode string

	httpClient *http.Client
	router     *gin.Engine
	templates  *template.Template

	fetcher        core.ModelsFetcher
	views          *viewRegistry
	metricsService *metrics.MetricsService

	serviceStore     service.Store
	ownsServiceStore bool

	config config.ServerConfig

	rateLimiter *rateLimiter

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	closeOnce      sync.Once
	closeErr       error
}

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required in ServerConfig")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required in ServerConfig")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	templates, err := view.ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse view templates: %w", err)
	}

	httpClient := createOptimizedHTTPClient(cfg.HTTPClientSettings)

	metricsService := metrics.NewMetricsService(metrics.MetricsConfig{
		SaveInterval: core.MinSaveInterval,
		HistorySize:  core.HistoryBufferSize,
		Storage:      cfg.Storage,
		Logger:       cfg.Logger,
	})

	if err := metricsService.LoadStats(); err != nil {
		cfg.Logger.Warn("Failed to load historical stats: %v", err)
	}

	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL:    cfg.ModelsAPIBaseURL,
		HTTPClient: httpClient,
		Logger:     cfg.Logger,
		Metrics:    metricsService,
	})
	if err != nil {
		_ = metricsService.Close()
		return nil, fmt.Errorf("failed to create inventory client: %w", err)
	}
	cfg.Logger.Info("Serving vehicle models from %s", client.Endpoint())

	serviceStore, ownsServiceStore := cfg.ServiceStore, false
	if serviceStore == nil {
		openCtx, cancel := context.WithTimeout(context.Background(), core.ServiceDBOpenTimeout)
		serviceStore, err = service.NewSQLiteStore(openCtx, cfg.Logger, "")
		cancel()
		if err != nil {
			_ = metricsService.Close()
			return nil, fmt.Errorf("failed to open service database: %w", err)
		}
		ownsServiceStore = true
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	server := &Server{
		port:           cfg.Port,
		ginMode:        cfg.GinMode,
		httpClient:     httpClient,
		templates:      templates,
		fetcher:        client,
		views:          newViewRegistry(cfg.ViewTTL, cfg.Logger),
		metricsService: metricsService,
		serviceStore:   serviceStore,
		config:         cfg,
		rateLimiter:    newRateLimiter(cfg.RateLimit),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,

		ownsServiceStore: ownsServiceStore,
	}

	if err := server.setupRoutes(); err != nil {
		_ = server.Close()
		return nil, err
	}

	return server, nil
}

func createOptimizedHTTPClient(settings config.HTTPClientSettings) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          settings.MaxIdleConns,
		MaxIdleConnsPerHost:   settings.MaxIdleConnsPerHost,
		MaxConnsPerHost:       settings.MaxConnsPerHost,
		IdleConnTimeout:       settings.IdleConnTimeout,
		TLSHandshakeTimeout:   settings.TLSHandshakeTimeout,
		ExpectContinueTimeout: core.HTTPExpectContinueTimeout,
		DisableKeepAlives:     false,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: core.HTTPResponseHeaderTimeout,
		DisableCompression:    false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   settings.RequestTimeout,
	}
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until a shutdown signal arrives or Close is called.
func (s *Server) Run() error {
	s.setupGracefulShutdown()

	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.RenderTimeout + 15*time.Second,
	}

	go func() {
		<-s.shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.config.Logger.Error("Server shutdown error: %v", err)
		}
	}()

	s.config.Logger.Info("Server starting on port %s", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) setupGracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			s.config.Logger.Info("Shutdown signal received, shutting down gracefully...")
			s.shutdownCancel()
		case <-s.shutdownCtx.Done():
		}
		signal.Stop(quit)
	}()
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "mountedViews": s.views.len()})
}

func (s *Server) getStatsData(c *gin.Context) {
	stats := s.metricsService.GetFetchStats()
	periodStats := metrics.GetPeriodStats(stats.FetchHistory, 24, 24*7, 24*30)

	var successRate float64
	var avgResponse int64
	if stats.TotalFetches > 0 {
		successRate = float64(stats.SuccessfulFetches) / float64(stats.TotalFetches) * 100
		avgResponse = stats.TotalResponseTime / stats.TotalFetches
	}

	storageLocation := ""
	if locator, ok := s.config.Storage.(core.StorageLocator); ok {
		storageLocation = locator.Location()
	}

	c.JSON(http.StatusOK, gin.H{
		"currentTime":     time.Now().Format(core.TimeFormatDateTime),
		"statsStorage":    storageLocation,
		"totalFetches":    stats.TotalFetches,
		"successful":      stats.SuccessfulFetches,
		"failed":          stats.FailedFetches,
		"successRate":     successRate,
		"avgResponseTime": avgResponse,
		"totalRows":       stats.TotalRows,
		"qps":             s.metricsService.GetQPS(),
		"mountedViews":    s.views.len(),
		"totalRecords":    len(stats.FetchHistory),
		"last24h":         periodStats[24],
		"last7d":          periodStats[24*7],
		"last30d":         periodStats[24*30],
		"recentFetches":   recentFetches(stats.FetchHistory, recentFetchLimit),
	})
}

// Close stops accepting work, unmounts every registered view and persists the
// final stats. A service database passed in through the config is left open
// for its owner. Only the first call does anything.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		if s.shutdownCancel != nil {
			s.shutdownCancel()
		}

		if s.views != nil {
			s.views.close()
		}

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		if s.metricsService != nil {
			if err := s.metricsService.Close(); err != nil {
				s.closeErr = errors.Join(s.closeErr, fmt.Errorf("close metrics service: %w", err))
			}
		}

		if s.ownsServiceStore && s.serviceStore != nil {
			if err := s.serviceStore.Close(); err != nil {
				s.closeErr = errors.Join(s.closeErr, fmt.Errorf("close service database: %w", err))
			}
		}

		if s.httpClient != nil {
			s.httpClient.CloseIdleConnections()
		}
	})
	return s.closeErr
}
