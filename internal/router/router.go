package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/opticshop/backend/internal/handlers"
	appMiddleware "github.com/opticshop/backend/internal/middleware"
	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/services"
)

// Deps are the services the API is built from.
type Deps struct {
	Frames          services.FrameService
	References      services.ReferenceService
	Lenses          services.LensService
	Images          services.ImageStore
	Admins          *services.AdminService
	Verifiers       []appMiddleware.TokenVerifier
	JWTSecret       string
	JWTExpiration   time.Duration
	MaxUploadSizeMB int64
	UploadDir       string
	AllowedOrigins  []string
}

func NewRouter(d Deps) http.Handler {
	catalog := services.NewCatalogService(d.Frames, d.References, d.Images)

	frameHandler := handlers.NewFrameHandler(d.Frames, catalog, d.MaxUploadSizeMB)
	lensHandler := handlers.NewLensHandler(d.Lenses)
	authHandler := handlers.NewAuthHandler(d.Admins, d.JWTSecret, d.JWTExpiration)

	requireAdmin := appMiddleware.RequireAuth(append([]appMiddleware.TokenVerifier{appMiddleware.NewJWTVerifier(d.JWTSecret)}, d.Verifiers...)...)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Storefront
		r.Get("/produit/all", frameHandler.ListPublic)
		r.Get("/produit/{id}", frameHandler.GetFrame)

		r.With(requireAdmin).Get("/produit/all/admin", frameHandler.ListAdmin)
		r.With(requireAdmin).Post("/produit/add", frameHandler.CreateFrame)
		r.With(requireAdmin).Put("/produit/update", frameHandler.UpdateFrame)
		r.With(requireAdmin).Delete("/produit/delete/{id}", frameHandler.DeleteFrame)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Route("/verre", func(r chi.Router) {
				r.Get("/all/admin", lensHandler.List)
				r.Post("/add", lensHandler.Create)
				r.Delete("/delete/{id}", lensHandler.Delete)
			})

			for _, kind := range models.ReferenceKinds {
				h := handlers.NewReferenceHandler(d.References, kind)
				r.Route("/"+kind.Path(), func(r chi.Router) {
					r.Get("/admin", h.List)
					r.Post("/add", h.Create)
					r.Delete("/delete/{id}", h.Delete)
				})
			}
		})
	})

	if d.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))
	}

	return r
}
