// Package api exposes the task store over a REST API.
//
// All task and attachment routes live under /api/v1 and require the
// X-API-Key header. Prometheus metrics are served unprotected on
// /metrics for scraping.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskvault/taskvault/pkg/logger"
)

// Router builds the chi router with all routes configured.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.apiKeyMiddleware)

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))

		// Task operations
		r.Put("/tasks/{key}", s.metrics.InstrumentHandler("PUT", "/api/v1/tasks/{key}", s.handlePutTask))
		r.Get("/tasks/{key}", s.metrics.InstrumentHandler("GET", "/api/v1/tasks/{key}", s.handleGetTask))
		r.Delete("/tasks/{key}", s.metrics.InstrumentHandler("DELETE", "/api/v1/tasks/{key}", s.handleDeleteTask))
		r.Get("/tasks", s.metrics.InstrumentHandler("GET", "/api/v1/tasks", s.handleListTasks))
		r.Get("/query", s.metrics.InstrumentHandler("GET", "/api/v1/query", s.handleQueryTasks))

		// Attachments
		r.Post("/attachments", s.metrics.InstrumentHandler("POST", "/api/v1/attachments", s.handleCreateAttachment))
		r.Get("/attachments/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/attachments/{id}", s.handleGetAttachment))
		r.Delete("/attachments/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/attachments/{id}", s.handleDeleteAttachment))
	})

	return r
}

// StartServer starts the HTTP server and blocks until it exits. A
// background goroutine keeps the store gauges fresh between scrapes.
func StartServer(config *ServerConfig, tasks ITaskStore, attachments IAttachmentStore, index ITaskIndex, log logger.Logger) error {
	server := NewServer(config, tasks, attachments, index, NewMetrics(nil), log)

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := tasks.Stats()
			server.metrics.UpdateStoreStats(stats.Tasks, stats.DataSize)
		}
	}()

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	server.log.Info("API server listening on", addr)
	return http.ListenAndServe(addr, server.Router())
}
