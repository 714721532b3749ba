package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"disha/db"
	"disha/models"
	"disha/services/counselor"

	"github.com/gorilla/mux"
)

type ChatService interface {
	Chat(ctx context.Context, studentID, message string) (*counselor.Reply, error)
	ChatStateless(ctx context.Context, studentID, message string, history []models.Message) (*counselor.Reply, error)
	Reset(studentID string) bool
}

type ChatHandler struct {
	service ChatService
}

func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/chat", h.Chat).Methods("POST")
	router.HandleFunc("/api/chat/{user_id}", h.ResetChat).Methods("DELETE")
}

// Chat answers with the caller's conversation_history when one is sent and
// with the server-side session otherwise.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeRequest(r, &req); err != nil {
		if errors.Is(err, errInvalidJSON) {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		} else {
			writeErrorResponse(w, http.StatusBadRequest, "user_id and message are required")
		}
		return
	}

	var (
		reply *counselor.Reply
		err   error
	)
	if len(req.ConversationHistory) > 0 {
		reply, err = h.service.ChatStateless(r.Context(), req.UserID, req.Message, req.ConversationHistory)
	} else {
		reply, err = h.service.Chat(r.Context(), req.UserID, req.Message)
	}
	if err != nil {
		if errors.Is(err, db.ErrProfileNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[ERROR] Chat failed for user %s: %v", req.UserID, err)
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, models.ChatResponse{
		Success:  true,
		Response: reply.Content,
		UserName: reply.StudentName,
	})
}

func (h *ChatHandler) ResetChat(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if h.service.Reset(userID) {
		log.Printf("[INFO] Reset chat session for user %s", userID)
	}
	w.WriteHeader(http.StatusNoContent)
}
