package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/point-ledger/internal/api/handlers"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/middleware"
)

func NewRouter(ph *handlers.PointHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/point/{id}", func(r chi.Router) {
		r.Get("/", ph.Get)
		r.Get("/histories", ph.Histories)
		r.Patch("/charge", ph.Charge)
		r.Patch("/use", ph.Use)
		r.Get("/verify", ph.Verify)
	})

	return r
}
