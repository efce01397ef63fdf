package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/config"
	adminsvc "github.com/sickboy81/saphira/internal/services/admin"
	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	dashboardsvc "github.com/sickboy81/saphira/internal/services/dashboard"
	listingsvc "github.com/sickboy81/saphira/internal/services/listing"
	"github.com/sickboy81/saphira/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService      *authsvc.Service
	ListingService   *listingsvc.Service
	AdminService     *adminsvc.Service
	DashboardService *dashboardsvc.Service
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	sessionHandler := handlers.NewSessionHandler(deps.AuthService)
	filtersHandler := handlers.NewFiltersHandler(deps.Config.Filters.Bounds())
	profilesHandler := handlers.NewProfilesHandler(deps.ListingService)
	dashboardHandler := handlers.NewDashboardHandler(deps.DashboardService, deps.Config.S3.MaxUpload)
	adminHandler := handlers.NewAdminHandler(deps.AdminService)

	sessionMW := SessionMiddleware(deps.AuthService, deps.Config.Auth.RoleLookupTTL, deps.Logger)
	guardMW := GuardMiddleware(deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Use(sessionMW)
		r.Use(guardMW)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(RequireSession).Post("/logout", authHandler.Logout)
			r.With(RequireSession).Post("/totp/setup", authHandler.TOTPSetup)
			r.With(RequireSession).Post("/totp/enable", authHandler.TOTPEnable)
		})

		r.Get("/session", sessionHandler.Get)
		r.With(RequireSession).Get("/users/{id}/role", sessionHandler.Role)
		r.Get("/filters/options", filtersHandler.Options)

		r.Get("/profiles", profilesHandler.List)
		r.Post("/profiles/lookup", profilesHandler.Lookup)
		r.Get("/profiles/{id}", profilesHandler.Get)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/overview", dashboardHandler.Overview)
			r.Put("/profile", dashboardHandler.UpdateProfile)
			r.Post("/media", dashboardHandler.UploadMedia)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", adminHandler.Users)
			r.Post("/users/{id}/ban", adminHandler.Ban)
			r.Post("/users/{id}/unban", adminHandler.Unban)
		})
	})
}
