// handler.go — основной обработчик API StorageApp.
// Объединяет файловые, учётные и health обработчики и собирает
// маршруты chi. Владелец для файловых операций берётся только из
// контекста запроса (JWT middleware).
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/storageapp/internal/service"
)

// APIHandler — основной обработчик API StorageApp.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	files  *service.FileService
	auth   *service.AuthService
	ping   *service.HealthService
	health *HealthHandler
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	files *service.FileService,
	auth *service.AuthService,
	ping *service.HealthService,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		files:  files,
		auth:   auth,
		ping:   ping,
		health: health,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует маршруты API на роутере chi.
func (h *APIHandler) Routes(r chi.Router) {
	r.Route("/api/files", func(r chi.Router) {
		r.Post("/upload", h.handleUpload)
		r.Get("/download", h.handleDownload)
		r.Get("/list", h.handleList)
		r.Get("/search", h.handleSearch)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/auth", h.handleAuth)
	})

	r.Get("/info/ping", h.handlePing)
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
