package handler

import (
	"log/slog"
	"net/http"

	"anan/internal/domain/services"
	"anan/internal/httputil"
)

// ChatHandler handles the conversation HTTP surface.
// Handlers only talk to the tutor service, never to repositories.
type ChatHandler struct {
	tutorService services.TutorService
	logger       *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(tutorService services.TutorService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		tutorService: tutorService,
		logger:       logger,
	}
}

// SubmitMessage processes one user message and returns the updated history
// POST /api/messages
func (h *ChatHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := httputil.GetConversationID(r)

	var req struct {
		Message string `json:"message"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	turns, err := h.tutorService.SubmitMessage(r.Context(), conversationID, req.Message)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, turns)
}

// GetHistory returns the conversation, seeding the greeting on first visit
// GET /api/history
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := httputil.GetConversationID(r)

	turns, err := h.tutorService.History(r.Context(), conversationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, turns)
}

// ClearConversation resets the conversation to the fixed cleared message
// POST /api/clear
func (h *ChatHandler) ClearConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := httputil.GetConversationID(r)

	turns, err := h.tutorService.ResetConversation(r.Context(), conversationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, turns)
}

// TrimConversation keeps only the most recent turns
// POST /api/trim
func (h *ChatHandler) TrimConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := httputil.GetConversationID(r)

	var req struct {
		KeepCount int `json:"keep_count"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	turns, err := h.tutorService.TrimConversation(r.Context(), conversationID, req.KeepCount)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, turns)
}
