package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, attendanceHandler AttendanceHandler, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireCompany)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", attendanceHandler.CheckIn)
				r.Post("/check-out", attendanceHandler.CheckOut)
				r.Post("/break/start", attendanceHandler.BreakStart)
				r.Post("/break/end", attendanceHandler.BreakEnd)
				r.Get("/state", attendanceHandler.GetState)
				r.Get("/classification", attendanceHandler.GetClassification)

				r.Route("/config", func(r chi.Router) {
					r.Get("/", attendanceHandler.GetConfig)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.AdminOnly)
						r.Put("/", attendanceHandler.UpdateConfig)
					})
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/aggregate", payrollHandler.GetAggregate)
				r.Get("/preview", payrollHandler.Preview)

				r.Route("/slips", func(r chi.Router) {
					r.Get("/", payrollHandler.ListSlips)
					r.Get("/{id}", payrollHandler.GetSlip)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.AdminOnly)
						r.Post("/", payrollHandler.SendSlip)
						r.Delete("/{id}", payrollHandler.DeleteSlip)
					})
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/preview/batch", payrollHandler.PreviewBatch)
					r.Get("/rule", payrollHandler.GetRule)
					r.Put("/rule", payrollHandler.UpdateRule)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	return r
}
