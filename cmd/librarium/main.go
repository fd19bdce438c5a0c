// cmd/librarium/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"librarium/internal/api"
	"librarium/internal/borrowing"
	"librarium/internal/catalog"
	"librarium/internal/config"
	"librarium/internal/notify"
	"librarium/internal/postgres"
	"librarium/internal/users"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := setupTracing(ctx, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	var notifier notify.Notifier
	if cfg.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Sender:   cfg.SMTPSender,
			Password: cfg.SMTPPass,
		}, logger)
	} else {
		logger.Info("no SMTP server configured, logging notifications instead")
		notifier = &notify.LogNotifier{Logger: logger}
	}

	repo := borrowing.NewPostgresRepository(db, borrowing.Policy{
		LoanPeriodDays: cfg.LoanPeriodDays,
		FinePerDay:     cfg.FinePerDay,
	})
	borrowingSvc := borrowing.NewService(repo, notifier, borrowing.Limits{
		MaxActiveLoans:     cfg.MaxActiveLoans,
		MaxOutstandingFine: cfg.MaxOutstandingFine,
		FinePerDay:         cfg.FinePerDay,
	}, logger)
	catalogSvc := catalog.NewService(db, logger)
	usersSvc := users.NewService(db, logger)

	sweeper := borrowing.NewSweeper(borrowingSvc, notifier, cfg.SweepInterval, cfg.FinePerDay, logger)
	go sweeper.Run(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		r.Mount("/", catalog.NewHandler(catalogSvc).Routes())
		r.Mount("/users", users.NewHandler(usersSvc).Routes())
		r.Mount("/borrowing", borrowing.NewHandler(borrowingSvc).Routes())
		r.Post("/admin/sweep", func(w http.ResponseWriter, req *http.Request) {
			sweeper.RunOnce(req.Context())
			api.WriteSuccess(w, http.StatusOK, "Sweep completed", nil)
		})
	})
	router.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			api.WriteError(w, api.Internal("database unreachable", err))
			return
		}
		api.WriteSuccess(w, http.StatusOK, "ok", nil)
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("librarium listening", "port", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("librarium"),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
