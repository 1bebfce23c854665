package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/traitedesk/backend/internal/application/document"
	"github.com/traitedesk/backend/internal/application/report"
	tierapp "github.com/traitedesk/backend/internal/application/tier"
	traiteapp "github.com/traitedesk/backend/internal/application/traite"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/auth"
	"github.com/traitedesk/backend/internal/infrastructure/cache"
	"github.com/traitedesk/backend/internal/infrastructure/config"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"github.com/traitedesk/backend/internal/infrastructure/persistence"
	"github.com/traitedesk/backend/internal/infrastructure/printing"
	"github.com/traitedesk/backend/internal/infrastructure/storage"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"github.com/traitedesk/backend/internal/interfaces/http/handler"
	"github.com/traitedesk/backend/internal/interfaces/http/middleware"
	"github.com/traitedesk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Traite Desk API
//	@version		1.0
//	@description	Traites, tier accounts and client approval workflow
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Traite Desk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormLevel), cfg.Log.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.Driver == "sqlite" {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if cfg.Database.Driver == "sqlite" {
		dbTracing.DBSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	metrics := telemetry.NewMetrics(telemetry.DefaultNamespace)

	// Repositories
	traiteRepo := persistence.NewGormTraiteRepository(db.DB)
	openings := persistence.NewGormOpeningRequestStore(db.DB,
		persistence.NewSchemaProbe(persistence.OpeningRequestTable, cfg.Workflow.SchemaProbeTTL))
	transactor := persistence.NewGormTransactor(db.DB,
		persistence.NewGormTierRepository(db.DB),
		persistence.NewGormPendingClientRepository(db.DB),
		persistence.NewGormApprovalRepository(db.DB),
		persistence.NewGormActivityRepository(db.DB),
		openings,
	)
	statsRepo := persistence.NewGormStatsRepository(db.DB, openings)

	sequence, redisClient := cache.NewSequenceFactory(cfg.Redis, persistence.NewGormSequence(db.DB), cache.WithLogger(log)).Create(ctx)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		seedSequence(ctx, sequence, traiteRepo, log)
	}

	// Application services
	traiteService := traiteapp.NewService(traiteRepo, sequence,
		traiteapp.WithLogger(log),
		traiteapp.WithMetrics(metrics),
	)
	approvalService := tierapp.NewApprovalService(transactor, transactor.Repositories(), cfg.Workflow.ArchiveOnReject,
		tierapp.WithLogger(log),
		tierapp.WithMetrics(metrics),
	)
	tierService := tierapp.NewTierService(transactor, transactor.Repositories(),
		tierapp.WithLogger(log),
		tierapp.WithMetrics(metrics),
	)
	statsService := report.NewService(statsRepo, log)

	documentService, closeRenderers := newDocumentService(ctx, cfg, traiteService, metrics, log)
	defer closeRenderers()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	authConfig := middleware.DefaultAuthConfig(nil)
	if cfg.JWT.Enabled {
		authConfig.JWTService = auth.NewJWTService(cfg.JWT)
	}
	authConfig.Logger = log

	checks := map[string]handler.Pinger{"database": handler.PingerFunc(db.Ping)}
	if redisClient != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine := router.New(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         log,
		HTTP:           cfg.HTTP,
		Auth:           authConfig,
		Metrics:        metrics,
		TracingEnabled: tp.IsEnabled(),
	}, router.Handlers{
		Traites: handler.NewTraiteHandler(traiteService, documentService),
		Clients: handler.NewClientHandler(approvalService),
		Tiers:   handler.NewTierHandler(tierService),
		Stats:   handler.NewStatsHandler(statsService),
		Health:  handler.NewHealthHandler(version, checks),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// seedSequence makes a fresh Redis counter continue after the highest stored id
func seedSequence(ctx context.Context, sequence traite.SequenceGenerator, repo traite.TraiteRepository, log *zap.Logger) {
	rs, ok := sequence.(*cache.RedisSequence)
	if !ok {
		return
	}
	last, err := repo.LastID(ctx)
	if err != nil {
		log.Warn("Failed to read last traite id, Redis sequence not seeded", zap.Error(err))
		return
	}
	seeded, err := rs.Seed(ctx, traite.SequenceName, last)
	if err != nil {
		log.Warn("Failed to seed Redis sequence", zap.Error(err))
		return
	}
	if seeded {
		log.Info("Seeded Redis sequence", zap.Int64("value", last))
	}
}

// newDocumentService assembles the renderer chain: chromedp first, then
// wkhtmltopdf when the binary is installed. Documents are archived to S3
// when storage is enabled.
func newDocumentService(ctx context.Context, cfg *config.Config, traites document.TraiteFinder, metrics *telemetry.Metrics, log *zap.Logger) (*document.Service, func()) {
	templates, err := printing.NewTemplateEngine()
	if err != nil {
		log.Fatal("Failed to load document templates", zap.Error(err))
	}

	opts := []document.Option{document.WithLogger(log), document.WithMetrics(metrics)}
	var closers []func() error

	if cfg.Renderer.ChromeEnabled {
		chrome := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Renderer.PDFTimeout,
			RemoteURL:      cfg.Renderer.ChromeRemoteURL,
			NoSandbox:      cfg.Renderer.ChromeNoSandbox,
			DeviceScale:    cfg.Renderer.DeviceScale,
			Logger:         log,
		})
		opts = append(opts, document.WithBrowser(chrome, chrome))
		closers = append(closers, chrome.Close)
	}

	wk, err := printing.NewWkhtmltopdfRenderer(&printing.WkhtmltopdfConfig{
		BinaryPath:     cfg.Renderer.WkhtmltopdfPath,
		DefaultTimeout: cfg.Renderer.PDFTimeout,
		TempDir:        cfg.Renderer.TempDir,
		Logger:         log,
	})
	if err != nil {
		log.Warn("wkhtmltopdf unavailable, PDF fallback disabled", zap.Error(err))
	} else {
		opts = append(opts, document.WithFallback(wk))
		closers = append(closers, wk.Close)
	}

	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Warn("Document archive disabled", zap.Error(err))
		} else {
			if err := s3.EnsureBucket(ctx); err != nil {
				log.Warn("Failed to ensure archive bucket", zap.String("bucket", s3.GetBucket()), zap.Error(err))
			}
			opts = append(opts, document.WithArchive(s3))
		}
	}

	svc := document.NewService(traites, templates, document.Config{
		CompanyName: cfg.Renderer.CompanyName,
		CompanyCity: cfg.Renderer.CompanyCity,
		Timeouts: document.Timeouts{
			PDF:        cfg.Renderer.PDFTimeout,
			Screenshot: cfg.Renderer.ScreenshotTimeout,
			Composite:  cfg.Renderer.CompositeTimeout,
		},
	}, opts...)

	return svc, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("Error closing renderer", zap.Error(err))
			}
		}
	}
}
