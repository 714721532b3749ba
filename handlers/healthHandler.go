package handlers

import (
	"net/http"

	"disha/config"
	"disha/models"

	"github.com/gorilla/mux"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Root).Methods("GET")
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/api/health", h.Health).Methods("GET")
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"service": config.ServiceName,
		"version": config.ServiceVersion,
		"status":  "running",
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: config.ServiceName,
		Version: config.ServiceVersion,
	})
}
