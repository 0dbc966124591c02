package router

import (
	"net/http"

	"github.com/carsound-ops/api/internal/config"
	"github.com/carsound-ops/api/internal/database"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/carsound-ops/api/internal/export"
	"github.com/carsound-ops/api/internal/handler"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/carsound-ops/api/internal/lock"
	mw "github.com/carsound-ops/api/internal/middleware"
	"github.com/carsound-ops/api/internal/notify"
	"github.com/carsound-ops/api/internal/service"
	"github.com/carsound-ops/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, role and confirmation middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, locker lock.Locker, notifier notify.Notifier) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Confirm", "X-Confirm-Pin"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, ws.Config{JWTSecret: cfg.JWTSecret, AllowedOrigins: cfg.CORSOrigins}, w, r)
	})

	rates := incentive.Rates{
		FlatRate:           cfg.FlatRate,
		PerCarRate:         cfg.PerCarRate,
		DefaultSupervisors: cfg.DefaultSupervisors,
	}
	exportOpt := export.Options{RightToLeft: cfg.ExportRTL}

	salesService := service.NewSalesService(queries, hub)
	assignmentService := service.NewAssignmentService(
		pool,
		func(db database.DBTX) service.AssignmentStore {
			return database.New(db)
		},
		locker,
		hub,
		rates,
		cfg.BusinessTZ,
	)
	reportService := service.NewReportService(queries, cfg.BusinessTZ)
	payoutService := service.NewPayoutService(reportService, queries, rates)
	closingService := service.NewClosingService(
		pool,
		func(db database.DBTX) service.ClosingStore {
			return database.New(db)
		},
		locker,
		notifier,
		hub,
		cfg.BusinessTZ,
	)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		salesHandler := handler.NewSalesHandler(salesService, cfg.ConfirmPinHash)
		r.Route("/sales", salesHandler.RegisterRoutes)

		technicianHandler := handler.NewTechnicianHandler(queries)
		r.Route("/technicians", technicianHandler.RegisterRoutes)

		// Ledger, reporting and payout (ADMIN only)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			incentiveHandler := handler.NewIncentiveHandler(assignmentService, reportService, cfg.ConfirmPinHash)
			r.Route("/incentives", incentiveHandler.RegisterRoutes)

			reportsHandler := handler.NewReportsHandler(reportService, exportOpt)
			r.Route("/reports", reportsHandler.RegisterRoutes)

			payoutHandler := handler.NewPayoutHandler(payoutService, exportOpt)
			r.Route("/payouts", payoutHandler.RegisterRoutes)

			closingHandler := handler.NewClosingHandler(closingService, cfg.ConfirmPinHash)
			r.Route("/closings", closingHandler.RegisterRoutes)
		})
	})

	log.Info("router initialized with all handlers")
	return r
}
