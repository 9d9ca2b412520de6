// Package http is the HTTP adapter over the application services. It
// translates requests to service calls and domain faults to status
// codes; no business rules live here.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/freightline/bookkeeper/internal/application/service"
)

// Logger interface for logging operations.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter.
type Server struct {
	config          ServerConfig
	httpServer      *http.Server
	router          *gin.Engine
	documentService service.DocumentService
	confirmService  service.ConfirmService
	bookingService  service.BookingService
	invoiceService  service.InvoiceService
	reportService   service.ReportService
	logger          Logger
}

// NewServer creates an HTTP server wired to the given services.
func NewServer(
	config ServerConfig,
	documentService service.DocumentService,
	confirmService service.ConfirmService,
	bookingService service.BookingService,
	invoiceService service.InvoiceService,
	reportService service.ReportService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:          config,
		router:          gin.New(),
		documentService: documentService,
		confirmService:  confirmService,
		bookingService:  bookingService,
		invoiceService:  invoiceService,
		reportService:   reportService,
		logger:          logger,
	}
	server.setupMiddleware()
	server.setupRoutes()
	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(
		s.documentService, s.confirmService, s.bookingService,
		s.invoiceService, s.reportService, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/documents", handlers.ImportDocument)
		api.GET("/documents", handlers.ListDocuments)
		api.GET("/documents/:id", handlers.GetDocument)
		api.POST("/documents/:id/process", handlers.ProcessDocument)
		api.POST("/documents/:id/confirm", handlers.ConfirmDocument)

		api.GET("/bookings", handlers.ListBookings)
		api.GET("/bookings/:bl", handlers.GetBooking)
		api.PUT("/bookings/:bl", handlers.EditBooking)
		api.POST("/bookings/:bl/complete", handlers.CompleteBooking)
		api.POST("/bookings/:bl/reopen", handlers.ReopenBooking)

		api.GET("/invoices", handlers.ListInvoices)
		api.GET("/invoices/:id/tax-allocation", handlers.InvoiceTaxAllocation)

		api.GET("/reports/commission", handlers.CommissionReport)
		api.POST("/reports/commission/export", handlers.ExportCommissionReport)
	}
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}
