// Package server собирает HTTP роутер из handlers и middleware
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/notesync/internal/server/handlers"
	"github.com/iudanet/notesync/internal/server/jwt"
	"github.com/iudanet/notesync/internal/server/middleware"
	"github.com/iudanet/notesync/internal/server/storage"
)

// Deps зависимости роутера
type Deps struct {
	Logger     *slog.Logger
	Users      storage.UserStorage
	Tokens     storage.TokenStorage
	Documents  storage.DocumentStorage
	Workspaces storage.WorkspaceStorage
	DB         handlers.Pinger
	JWT        *jwt.Service
	Version    string
}

// Лимиты запросов: auth эндпоинты жестче, остальное просторнее
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
	apiRateLimit   = 300
	apiRateWindow  = time.Minute
)

// NewRouter собирает роутер со всеми эндпоинтами
func NewRouter(deps Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Logger, deps.Users, deps.Tokens, deps.JWT)
	docHandler := handlers.NewDocumentHandler(deps.Logger, deps.Documents)
	batchHandler := handlers.NewBatchHandler(deps.Logger, deps.Documents)
	wsHandler := handlers.NewWorkspaceHandler(deps.Logger, deps.Workspaces)
	collabHandler := handlers.NewCollabHandler(deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.Logger, deps.DB, deps.Version)

	requireAuth := middleware.Auth(deps.Logger, deps.JWT)
	authLimit := middleware.RateLimit(authRateLimit, authRateWindow, deps.Logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler.Health)

	mux.Handle("POST /api/v1/auth/register", authLimit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", authLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/refresh", authLimit(http.HandlerFunc(authHandler.Refresh)))
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux.Handle("POST /api/v1/documents", protected(docHandler.Create))
	mux.Handle("GET /api/v1/documents", protected(docHandler.List))
	mux.Handle("POST /api/v1/documents/batch", protected(batchHandler.Batch))
	mux.Handle("GET /api/v1/documents/{id}", protected(docHandler.Get))
	mux.Handle("PUT /api/v1/documents/{id}", protected(docHandler.Update))
	mux.Handle("DELETE /api/v1/documents/{id}", protected(docHandler.Delete))

	mux.Handle("POST /api/v1/workspaces", protected(wsHandler.CreateWorkspace))
	mux.Handle("GET /api/v1/workspaces", protected(wsHandler.ListWorkspaces))
	mux.Handle("PUT /api/v1/workspaces/{id}", protected(wsHandler.UpdateWorkspace))

	mux.Handle("POST /api/v1/folders", protected(wsHandler.CreateFolder))
	mux.Handle("GET /api/v1/folders", protected(wsHandler.ListFolders))
	mux.Handle("PUT /api/v1/folders/{id}", protected(wsHandler.UpdateFolder))
	mux.Handle("DELETE /api/v1/folders/{id}", protected(wsHandler.DeleteFolder))

	mux.Handle("GET /api/v1/ws/documents/{id}", protected(collabHandler.Serve))

	var handler http.Handler = mux
	handler = middleware.RateLimit(apiRateLimit, apiRateWindow, deps.Logger)(handler)
	handler = middleware.LoggingWithSkip(deps.Logger, []string{"/healthz"})(handler)
	handler = middleware.Recovery(deps.Logger)(handler)

	return handler
}
