package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sathvik-zluri/moneytrack/internal/archive"
	"github.com/sathvik-zluri/moneytrack/internal/config"
	"github.com/sathvik-zluri/moneytrack/internal/download"
	handler "github.com/sathvik-zluri/moneytrack/internal/handlers"
	"github.com/sathvik-zluri/moneytrack/internal/logger"
	"github.com/sathvik-zluri/moneytrack/internal/middleware"
	"github.com/sathvik-zluri/moneytrack/internal/notify"
	"github.com/sathvik-zluri/moneytrack/internal/repository"
	"github.com/sathvik-zluri/moneytrack/internal/routes"
	"github.com/sathvik-zluri/moneytrack/internal/services/transactions"
	"github.com/sathvik-zluri/moneytrack/internal/txnapi"
	"github.com/sathvik-zluri/moneytrack/internal/web"
)

const sessionIdle = 12 * time.Hour

func main() {
	// Load .env
	envLoaded := config.LoadEnv()

	cfg, err := config.Load(os.Getenv("MONEYTRACK_CONFIG"))
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel)
	if !envLoaded {
		log.Info().Msg("No .env file found, relying on system env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *gorm.DB
	var history transactions.History
	if cfg.DatabaseURL != "" {
		db, err = config.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open upload history database")
		}
		history = repository.NewUploadBatchRepository(db)
	} else {
		log.Info().Msg("No database configured, upload history disabled")
	}

	var reports archive.Archiver = archive.Nop{}
	if cfg.ReportBucket != "" {
		gcs, err := archive.NewGCSArchiver(ctx, cfg.ReportBucket, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report archive")
		}
		defer gcs.Close()
		reports = gcs
	}

	client := txnapi.New(cfg.BackendURL, cfg.BackendTimeout, log)
	registry := download.NewRegistry(cfg.DownloadTTL)
	sessions := handler.NewSessionStore(registry, func(out *notify.Outbox, sink download.Sink) *transactions.Page {
		return transactions.NewPage(transactions.Deps{
			API:       client,
			Notifier:  out,
			Sink:      sink,
			Archive:   reports,
			History:   history,
			Log:       log,
			Limit:     cfg.PageLimit,
			Frequency: cfg.Frequency,
		})
	})

	tmpl, err := web.Templates()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse templates")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID(log), middleware.Logger(log), middleware.Recovery(log))
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.SetHTMLTemplate(tmpl)

	routes.RegisterRoutes(r, db, sessions, registry)

	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := sessions.Expire(sessionIdle); n > 0 {
					log.Debug().Int("sessions", n).Msg("Expired idle sessions")
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("backend", cfg.BackendURL).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	shutdown(srv, log)
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Info().Msg("Shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
