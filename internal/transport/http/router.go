// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services behind small interfaces so transport concerns remain isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
)

// Deps bundles everything the router needs.
type Deps struct {
	Identity      IdentityService
	Users         UserService
	Contracts     ContractService
	Attachments   AttachmentService
	Archive       ArchiveService
	Resolver      middleware.CallerResolver
	Logger        *slog.Logger
	AllowedOrigin string
}

// NewRouter wires all endpoints. /auth and the operational endpoints are
// public; everything under /api requires a bearer token.
func NewRouter(deps Deps) http.Handler {
	auth := NewAuthHandler(deps.Identity)
	users := NewUserHandler(deps.Users)
	contractsH := NewContractHandler(deps.Contracts, deps.Archive)
	files := NewFileHandler(deps.Attachments)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.CORS(deps.AllowedOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", auth.HandleRegister)
	r.Post("/auth/login", auth.HandleLogin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Resolver, deps.Logger))

		r.Post("/users", users.HandleCreateUser)

		r.Post("/files/upload", files.HandleUpload)
		r.Post("/files/delete", files.HandleDelete)

		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", contractsH.HandleList)
			r.Post("/", contractsH.HandleCreate)
			r.Post("/delete", contractsH.HandleDelete)
			r.Get("/{id}", contractsH.HandleGet)
			r.Put("/{id}", contractsH.HandleUpdate)
			r.Get("/{id}/attachments", contractsH.HandleListAttachments)
			r.Get("/{id}/audit", contractsH.HandleListAudit)
		})
	})

	return r
}
