package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aerosense/aerosense-api/internal/application/auth"
	"github.com/aerosense/aerosense-api/internal/application/passwordreset"
	profileapp "github.com/aerosense/aerosense-api/internal/application/profile"
	"github.com/aerosense/aerosense-api/internal/application/user"
	"github.com/aerosense/aerosense-api/internal/config"
	"github.com/aerosense/aerosense-api/internal/transport/http/handler"
	appmiddleware "github.com/aerosense/aerosense-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		ProfileRepo: deps.ProfileRepo,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		ProfileRepo: deps.ProfileRepo,
		JWTProvider: deps.JWTProvider,
	})
	profileSvc := profileapp.NewService(profileapp.ServiceDeps{
		ProfileRepo: deps.ProfileRepo,
		ObjectStore: deps.ObjectStore,
	})
	resetSvc := passwordreset.NewService(passwordreset.ServiceDeps{
		UserRepo:       deps.UserRepo,
		ResetTokenRepo: deps.ResetTokenRepo,
		Mailer:         deps.Mailer,
		OTPTTL:         deps.OTPTTL,
	})

	healthH := handler.NewHealthHandler(deps.DB)
	authH := handler.NewAuthHandler(authSvc, userSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	resetH := handler.NewPasswordResetHandler(resetSvc)

	r.Get("/health", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Post("/auth/signup", authH.Signup)
		r.Post("/auth/login", authH.Login)
		r.Post("/password-reset/forgot", resetH.Forgot)
		r.Post("/password-reset/verify", resetH.Verify)
		r.Post("/password-reset/reset", resetH.Reset)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/auth/profile", authH.Profile)
			r.Put("/auth/password", authH.UpdatePassword)

			r.Get("/profiles", profileH.Get)
			r.Put("/profiles", profileH.Update)
			r.Post("/profiles/image", profileH.UploadImage)
		})
	})

	return r
}
