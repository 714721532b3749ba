package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	APIKey    string
	Profiles  ProfileGetter
	Chat      ChatService
	Reports   ReportGenerator
	Archive   ReportArchive
	Knowledge Searcher
}

// NewRouter wires every handler. Health routes are public; everything else
// sits behind the API key check.
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()

	router.Use(CORSMiddleware)
	router.Use(JSONMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	NewHealthHandler().RegisterRoutes(router)

	protected := router.NewRoute().Subrouter()
	protected.Use(APIKeyMiddleware(cfg.APIKey))

	NewProfileHandler(cfg.Profiles).RegisterRoutes(protected)
	NewChatHandler(cfg.Chat).RegisterRoutes(protected)
	NewReportHandler(cfg.Reports, cfg.Archive).RegisterRoutes(protected)
	NewKnowledgeHandler(cfg.Knowledge).RegisterRoutes(protected)

	return router
}
