package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/menuboard/api/internal/config"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/enum"
	"github.com/menuboard/api/internal/handler"
	mw "github.com/menuboard/api/internal/middleware"
	"github.com/menuboard/api/internal/service"
	"github.com/menuboard/api/internal/ws"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, restaurant scoping, role checks and subscription
// gating as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, subs *service.SubscriptionService) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	restaurantService := service.NewRestaurantService(pool, func(db database.DBTX) service.RestaurantStore {
		return database.New(db)
	})
	templateService := service.NewTemplateService(pool, func(db database.DBTX) service.TemplateStore {
		return database.New(db)
	})

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	handler.NewAuthHandler(queries, restaurantService, cfg.JWTSecret).RegisterRoutes(r)
	handler.NewPlanHandler(queries).RegisterRoutes(r)
	handler.NewWebhookHandler(subs, cfg.Billing.StripeWebhookSecret).RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	restaurantHandler := handler.NewRestaurantHandler(queries, hub)
	templateHandler := handler.NewTemplateHandler(queries, templateService)

	ownerOnly := mw.RequireRole(enum.UserRoleOwner, enum.UserRoleAdmin)
	managers := mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager, enum.UserRoleAdmin)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Platform admin routes (not restaurant-scoped)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			restaurantHandler.RegisterAdminRoutes(r)
		})

		templateHandler.RegisterGlobalRoutes(r, mw.RequireRole(enum.UserRoleAdmin))

		// Restaurant-scoped routes
		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Use(mw.RequireRestaurant)

			restaurantHandler.RegisterRoutes(r, ownerOnly)

			r.Route("/locations", func(r chi.Router) {
				r.Use(managers)
				handler.NewLocationHandler(queries, restaurantService).RegisterRoutes(r)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(managers)
				handler.NewUserHandler(queries).RegisterRoutes(r)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				handler.NewSubscriptionHandler(subs).RegisterRoutes(r, ownerOnly)
			})

			// Menu editor: reads are open to members, writes need an
			// editor subscription.
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireEditorAccess(subs))

				r.Route("/templates", func(r chi.Router) {
					templateHandler.RegisterRoutes(r)
					r.Route("/{tid}/pages", handler.NewPageHandler(queries).RegisterRoutes)
				})
				r.Route("/archives", handler.NewArchiveHandler(queries, templateService).RegisterRoutes)
				r.Route("/pages/{pid}/sections", handler.NewSectionHandler(queries).RegisterRoutes)
				r.Route("/pages/{pid}/components", handler.NewComponentHandler(queries).RegisterRoutes)
				r.Route("/sections/{sid}/dishes", handler.NewDishHandler(queries).RegisterRoutes)
			})
		})
	})

	zap.L().Info("router initialized")
	return r
}
