package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/service"
	"github.com/ripplechat/ripple/internal/transport/http/middleware"
	"github.com/ripplechat/ripple/pkg/validator"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) CreateOneOnOne(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		ReceiverID uuid.UUID `json:"receiver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	chat, err := h.chatService.CreateOneOnOne(r.Context(), userID, input.ReceiverID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfChat):
			writeError(w, http.StatusBadRequest, "SELF_CHAT", "Cannot start a chat with yourself")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, service.ErrChatExists):
			writeError(w, http.StatusConflict, "CHAT_EXISTS", "A chat with this user already exists")
		default:
			log.Printf("ERROR create chat: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateGroup(input.Name, len(input.MemberIDs)); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	chat, err := h.chatService.CreateGroup(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupTooSmall):
			writeError(w, http.StatusBadRequest, "GROUP_TOO_SMALL", "A group chat needs at least two other members")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "One of the members does not exist")
		default:
			log.Printf("ERROR create group: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	chats, err := h.chatService.ListMine(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list chats: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.chatService.AddMember(r.Context(), userID, chatID, input.UserID); err != nil {
		writeChatError(w, "add member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}
	memberID, err := uuid.Parse(r.PathValue("uid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid member ID")
		return
	}

	if err := h.chatService.RemoveMember(r.Context(), userID, chatID, memberID); err != nil {
		writeChatError(w, "remove member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) MarkActive(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	if err := h.chatService.MarkActive(r.Context(), userID, chatID); err != nil {
		log.Printf("ERROR mark chat active: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeChatError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Chat not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrNotGroupChat):
		writeError(w, http.StatusBadRequest, "NOT_GROUP", "Not a group chat")
	case errors.Is(err, service.ErrNotGroupAdmin):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the group admin can do this")
	case errors.Is(err, service.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "ALREADY_MEMBER", "User is already a participant")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User is not a participant")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
