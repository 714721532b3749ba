package handlers

import (
	"context"
	"errors"
	"net/http"

	"disha/db"
	"disha/models"

	"github.com/gorilla/mux"
)

// ProfileGetter returns a normalized student profile.
type ProfileGetter interface {
	GetProfile(ctx context.Context, studentID string) (models.Profile, error)
}

type ProfileHandler struct {
	profiles ProfileGetter
}

func NewProfileHandler(profiles ProfileGetter) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/user/{user_id}", h.GetUser).Methods("GET")
}

func (h *ProfileHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrProfileNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "User not found")
		} else {
			writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, models.UserResponse{Success: true, UserData: profile})
}
