package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/videotube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by the HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Access        middleware.AccessVerifier
	Videos        VideoStore
	Subscriptions SubscriptionStore
	Media         MediaUploader
	Limiter       RateLimiter

	TempDir        string
	MaxUploadBytes int64
	// PublicDir is served under /public, mirroring the media host layout
	// when the local store is in use.
	PublicDir string
}

// NewRouter wires all HTTP endpoints into a chi router.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{}
	authHandler := AuthHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Limiter:        deps.Limiter,
		TempDir:        deps.TempDir,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	profile := ProfileHandler{
		Users:          deps.Users,
		Media:          deps.Media,
		TempDir:        deps.TempDir,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Media:          deps.Media,
		TempDir:        deps.TempDir,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	subscriptions := SubscriptionHandler{
		Subscriptions: deps.Subscriptions,
		Users:         deps.Users,
	}

	requireAuth := middleware.RequireAuth(deps.Access, deps.Users)

	r := chi.NewRouter()
	r.Get("/healthz", health.Handle)

	if deps.PublicDir != "" {
		fileServer := http.StripPrefix("/public/", http.FileServer(http.Dir(deps.PublicDir)))
		r.Get("/public/*", fileServer.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Post("/change-password", profile.ChangePassword)
				r.Get("/current", profile.Current)
				r.Patch("/update-account", profile.UpdateAccount)
				r.Patch("/avatar", profile.UpdateAvatar)
				r.Patch("/cover-image", profile.UpdateCoverImage)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videos.Feed)
			r.Get("/{videoID}", videos.Watch)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", videos.Publish)
			})
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", subscriptions.List)
			r.Post("/{channelID}", subscriptions.Subscribe)
			r.Delete("/{channelID}", subscriptions.Unsubscribe)
		})
	})

	return r
}
