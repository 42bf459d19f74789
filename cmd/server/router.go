package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/laundrypay/backend/internal/handlers"
	mW "github.com/laundrypay/backend/internal/middleware"
	"github.com/laundrypay/backend/internal/models"
	httpSwagger "github.com/swaggo/http-swagger"
)

type routes struct {
	wadiah     *handlers.WadiahHandler
	checkout   *handlers.CheckoutHandler
	gateway    *handlers.GatewayHandler
	swaggerURL string
}

func newRouter(h routes) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(h.swaggerURL),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Midtrans authenticates with the signature key, not a bearer token
		r.Post("/payments/midtrans/notification", h.gateway.Notification)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/students/{studentId}/balance", h.wadiah.GetBalance)
			r.Get("/students/{studentId}/transactions", h.wadiah.ListTransactions)

			r.Post("/checkout/preview", h.checkout.Preview)
			r.Post("/payments/online", h.gateway.CreatePayment)

			// Counter operations
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole(models.RoleAdmin, models.RoleCashier, models.RoleStaff))

				r.Post("/students/{studentId}/transactions", h.wadiah.CreateTransaction)
				r.Post("/checkout", h.checkout.Checkout)
			})

			r.With(mW.RequireRole(models.RoleAdmin, models.RoleCashier)).
				Get("/reconciliation", h.checkout.ListReconciliation)
		})
	})

	return r
}
