package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	handlers "github.com/fuzzie-io/flow-engine/pkg/handlers/flows"
	enginemiddleware "github.com/fuzzie-io/flow-engine/pkg/server/middleware"

	"github.com/fuzzie-io/flow-engine/pkg/metrics"
	"github.com/fuzzie-io/flow-engine/pkg/services/engine"
	"github.com/fuzzie-io/flow-engine/pkg/services/trigger"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb/workflow"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server
}

type Dependencies struct {
	Ingestor  trigger.Ingestor
	Sequencer engine.Sequencer
	Workflows workflow.Store
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	flowHandler := handlers.NewHandler(
		config.Dependencies.Ingestor,
		config.Dependencies.Sequencer,
		config.Dependencies.Workflows,
	)

	router := chi.NewRouter()

	router.Use(enginemiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		r.Post("/drive-activity/notification", flowHandler.HandleNotification)
		// cron-job.org fires plain GETs; accept both.
		r.Get("/flows/resume", flowHandler.HandleResume)
		r.Post("/flows/resume", flowHandler.HandleResume)
	})
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/workflows/{account}", flowHandler.ListWorkflows)
	})
	router.Handle("/metrics", metrics.Handler())

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

// Router exposes the configured mux for tests.
func (w *WebAPI) Router() http.Handler {
	return w.router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
