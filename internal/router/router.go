package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benthanh-pos/api/internal/config"
	"github.com/benthanh-pos/api/internal/enum"
	"github.com/benthanh-pos/api/internal/handler"
	"github.com/benthanh-pos/api/internal/ledger"
	mw "github.com/benthanh-pos/api/internal/middleware"
	"github.com/benthanh-pos/api/internal/notify"
	"github.com/benthanh-pos/api/internal/printer"
	"github.com/benthanh-pos/api/internal/service"
	"github.com/benthanh-pos/api/internal/storage"
	"github.com/benthanh-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and auth-level middleware as needed.
func New(cfg *config.Config, pool *pgxpool.Pool, hub *ws.Hub, center *notify.Center, led *ledger.Ledger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Stores
	staffStore := storage.NewStaffStore(pool)
	menuStore := storage.NewMenuStore(pool)
	tableStore := storage.NewTableStore(pool)
	settingsStore := storage.NewSettingsStore(pool)
	historyStore := storage.NewHistoryStore(pool)

	// Services
	orderService := service.NewOrderService(led)
	settlementService := service.NewSettlementService(
		led,
		orderService,
		printer.NewClient(cfg.PrintAgentURL),
		handler.NewSettingsLoader(settingsStore),
		historyStore,
		center,
	)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(staffStore, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/floor", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		handler.NewMenuHandler(menuStore).RegisterRoutes(r)
		handler.NewTablesHandler(tableStore, led).RegisterRoutes(r)
		handler.NewNotificationsHandler(center).RegisterRoutes(r)

		orderHandler := handler.NewOrderHandler(orderService, led, menuStore, tableStore, hub, center)
		settleHandler := handler.NewSettleHandler(settlementService, tableStore, hub, center)
		r.Route("/tables/{tid}", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			settleHandler.RegisterRoutes(r)
		})

		// Management routes (business and admin only)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuthLevel(enum.AuthLevelBusiness, enum.AuthLevelAdmin))

			handler.NewReportsHandler(historyStore).RegisterRoutes(r)
			handler.NewExpensesHandler(historyStore).RegisterRoutes(r)
			handler.NewSettingsHandler(settingsStore).RegisterRoutes(r)
		})
	})

	return r
}
