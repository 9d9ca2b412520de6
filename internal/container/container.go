// Package container wires configuration, infrastructure and services
// together. Construction order follows dependencies: database first,
// then repositories, adapters, services, and finally the HTTP server.
package container

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/application/service"
	"github.com/freightline/bookkeeper/internal/config"
	domainservice "github.com/freightline/bookkeeper/internal/domain/service"
	"github.com/freightline/bookkeeper/internal/export"
	"github.com/freightline/bookkeeper/internal/extraction"
	"github.com/freightline/bookkeeper/internal/infrastructure/persistence/repository"
	"github.com/freightline/bookkeeper/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/freightline/bookkeeper/internal/interfaces/http"
	"github.com/freightline/bookkeeper/pkg/database"
)

// RepositoryBundle groups all repositories.
type RepositoryBundle struct {
	Document port.DocumentRepository
	Booking  port.BookingRepository
	Invoice  port.InvoiceRepository
	Client   port.ClientRepository
	Provider port.ProviderRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Document service.DocumentService
	Confirm  service.ConfirmService
	Booking  service.BookingService
	Invoice  service.InvoiceService
	Report   service.ReportService
}

// Container holds every constructed component.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	SQLDB        *sql.DB
	DB           *sqlite.DB
	Repositories *RepositoryBundle
	Services     *ServiceBundle
	Server       *httpiface.Server
}

// Build constructs the full dependency graph. The database is opened
// and migrated; everything else is pure wiring.
func Build(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db := sqlite.NewDB(sqlDB, logger)

	repos := &RepositoryBundle{
		Document: repository.NewDocumentRepository(sqlDB, logger),
		Booking:  repository.NewBookingRepository(sqlDB, logger),
		Invoice:  repository.NewInvoiceRepository(sqlDB, logger),
		Client:   repository.NewClientRepository(sqlDB, logger),
		Provider: repository.NewProviderRepository(sqlDB, logger),
	}

	classifier, err := domainservice.NewInvoiceClassifier(cfg.Company.NIF)
	if err != nil {
		return nil, fmt.Errorf("failed to build invoice classifier: %w", err)
	}

	extractor := extraction.NewExtractor(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.Timeout,
		logger,
	)
	exporter := export.NewExcelExporter(cfg.Storage.ReportsDir, logger)

	serviceLogger := &zapLoggerAdapter{logger: logger}
	commissionRate := decimal.NewFromFloat(cfg.Company.CommissionRate)

	services := &ServiceBundle{
		Document: service.NewDocumentService(
			repos.Document, extractor, classifier, cfg.Storage.DocumentsDir, serviceLogger),
		Confirm: service.NewConfirmService(
			repos.Document, repos.Booking, repos.Invoice,
			repos.Client, repos.Provider, db, serviceLogger),
		Booking: service.NewBookingService(repos.Booking, commissionRate, serviceLogger),
		Invoice: service.NewInvoiceService(repos.Invoice, serviceLogger),
		Report:  service.NewReportService(repos.Booking, exporter, commissionRate, serviceLogger),
	}

	server := httpiface.NewServer(
		httpiface.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		services.Document, services.Confirm, services.Booking,
		services.Invoice, services.Report,
		serviceLogger,
	)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		SQLDB:        sqlDB,
		DB:           db,
		Repositories: repos,
		Services:     services,
		Server:       server,
	}, nil
}

// Close releases held resources.
func (c *Container) Close() error {
	c.Logger.Info("Closing database connection")
	return c.SQLDB.Close()
}

// zapLoggerAdapter adapts zap.Logger to the keysAndValues logger
// interfaces used by the service and http layers.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
