package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/filevault/filevault/internal/audit"
	"github.com/filevault/filevault/internal/auth"
	"github.com/filevault/filevault/internal/storage"
	"github.com/filevault/filevault/internal/transport/middleware"
	"github.com/filevault/filevault/internal/transport/swagger"
	"github.com/filevault/filevault/internal/user"
	"github.com/filevault/filevault/internal/vault"
)

// RegisterAllRoutes wires the public auth surface, the authenticated file
// routes and the admin-only administration routes onto one router. Role
// gates are declared here once; handlers below them can rely on the actor
// being present and, for admin groups, being an ADMIN.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	blobs storage.BlobStore,
	authHandler *auth.Handler,
	vaultHandler *vault.Handler,
	userHandler *user.Handler,
	auditHandler *audit.Handler,
	allowedOrigins string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db, blobs)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", authHandler.Register)
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/users/me", authHandler.Me)

			pr.Route("/files", func(fr chi.Router) {
				fr.Get("/", vaultHandler.List)
				fr.Get("/{fileID}/download", vaultHandler.Download)
				fr.Post("/{fileID}/share", vaultHandler.Share)
				fr.Delete("/{fileID}", vaultHandler.Delete)

				fr.Group(func(ur chi.Router) {
					ur.Use(middleware.RequireRoles(auth.RoleAdmin, auth.RoleManager))
					ur.Post("/", vaultHandler.Upload)
				})
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(middleware.RequireRoles(auth.RoleAdmin))

				ar.Get("/files", vaultHandler.ListAll)
				ar.Get("/logs", auditHandler.List)

				ar.Route("/users", func(ur chi.Router) {
					ur.Get("/", userHandler.List)
					ur.Patch("/{userID}/role", userHandler.SetRole)
					ur.Patch("/{userID}/status", userHandler.SetStatus)
					ur.Delete("/{userID}", userHandler.Delete)
				})
			})
		})
	})
}
