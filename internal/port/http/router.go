package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/platform/metrics"
	"github.com/pawmates/adoption-service/internal/port/http/handler"
	"github.com/pawmates/adoption-service/internal/port/http/middleware"
	"github.com/pawmates/adoption-service/internal/service"
)

type RouterDeps struct {
	Auth       service.AuthService
	Listings   service.ListingService
	Adoptions  service.AdoptionService
	Posts      service.PostService
	Chat       service.ChatService
	Engagement service.EngagementService
	Metrics    *metrics.Manager
	Log        logger.Logger
}

// NewRouter builds the full API surface. Listing reads are public so the
// marketplace can be browsed without an account; everything that writes or
// exposes private data sits behind the authenticator.
func NewRouter(deps RouterDeps) chi.Router {
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Log)
	listingHandler := handler.NewListingHandler(deps.Listings, deps.Log)
	adoptionHandler := handler.NewAdoptionHandler(deps.Adoptions, deps.Log)
	postHandler := handler.NewPostHandler(deps.Posts, deps.Log)
	chatHandler := handler.NewChatHandler(deps.Chat, deps.Log)
	engagementHandler := handler.NewEngagementHandler(deps.Engagement, deps.Log)

	authenticate := middleware.Authenticator(deps.Auth.VerifyAccessToken)
	maybeAuthenticate := middleware.OptionalAuthenticator(deps.Auth.VerifyAccessToken)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(deps.Log, deps.Metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		r.Route("/listings", func(r chi.Router) {
			// Reads stay public, but a logged-in owner still needs their
			// identity resolved so their own listings include the embedded
			// adoption requests.
			r.Group(func(r chi.Router) {
				r.Use(maybeAuthenticate)
				r.Get("/", listingHandler.List)
				r.Get("/species", listingHandler.Species)
				r.Get("/{listingID}", listingHandler.GetByID)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", listingHandler.Create)
				r.Post("/photos", listingHandler.UploadPhoto)
				r.Patch("/{listingID}", listingHandler.Update)
				r.Delete("/{listingID}", listingHandler.Delete)

				r.Post("/{listingID}/requests", adoptionHandler.Submit)
				r.Delete("/{listingID}/requests", adoptionHandler.Cancel)
				r.Patch("/{listingID}/requests/{requestID}", adoptionHandler.Resolve)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.Get("/{postID}", postHandler.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", postHandler.Create)
				r.Get("/my", postHandler.ListMine)
				r.Get("/loved", postHandler.ListLoved)
				r.Patch("/{postID}", postHandler.Update)
				r.Delete("/{postID}", postHandler.Delete)
				r.Post("/{postID}/comments", postHandler.AddComment)
				r.Post("/{postID}/love", postHandler.ToggleLove)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/users/me", authHandler.GetProfile)
			r.Patch("/users/me", authHandler.UpdateProfile)
			r.Get("/users/{userID}/adoptions", adoptionHandler.ListAdoptions)
			r.Post("/chat/token", chatHandler.IssueToken)
			r.Post("/engagement", engagementHandler.Track)
		})
	})

	return r
}
