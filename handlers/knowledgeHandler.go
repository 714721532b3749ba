package handlers

import (
	"net/http"
	"strings"

	"disha/models"

	"github.com/gorilla/mux"
)

// Searcher returns matching knowledge-base lines for a query.
type Searcher interface {
	Search(query string) []string
}

type KnowledgeHandler struct {
	kb Searcher
}

func NewKnowledgeHandler(kb Searcher) *KnowledgeHandler {
	return &KnowledgeHandler{kb: kb}
}

func (h *KnowledgeHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/knowledge/search", h.Search).Methods("GET")
}

func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErrorResponse(w, http.StatusBadRequest, "q is required")
		return
	}

	matches := h.kb.Search(query)
	if matches == nil {
		matches = []string{}
	}

	writeJSONResponse(w, http.StatusOK, models.KnowledgeSearchResponse{
		Success: true,
		Query:   query,
		Matches: matches,
	})
}
