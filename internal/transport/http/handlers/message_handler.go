package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/service"
	"github.com/ripplechat/ripple/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input.ChatID = chatID

	msg, err := h.messageService.Send(r.Context(), user, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", "Message needs content or attachments")
		case errors.Is(err, service.ErrChatNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Chat not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this chat")
		default:
			log.Printf("ERROR send message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	var before *uuid.UUID
	if beforeStr := r.URL.Query().Get("before"); beforeStr != "" {
		id, err := uuid.Parse(beforeStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid before cursor")
			return
		}
		before = &id
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	messages, err := h.messageService.History(r.Context(), userID, chatID, before, limit)
	if err != nil {
		writeMessageError(w, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

type deleteMessagesInput struct {
	MessageIDs []uuid.UUID `json:"message_ids"`
	ForAll     bool        `json:"for_all"`
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	var input deleteMessagesInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if len(input.MessageIDs) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_IDS", "No message IDs given")
		return
	}

	if input.ForAll {
		err = h.messageService.DeleteForEveryone(r.Context(), userID, chatID, input.MessageIDs)
	} else {
		err = h.messageService.DeleteForSelf(r.Context(), userID, chatID, input.MessageIDs)
	}
	if err != nil {
		writeMessageError(w, "delete messages", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid chat ID")
		return
	}

	if err := h.messageService.ClearChat(r.Context(), userID, chatID); err != nil {
		writeMessageError(w, "clear chat", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeMessageError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Chat not found")
	case errors.Is(err, service.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this chat")
	case errors.Is(err, service.ErrNotMessageSender):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only delete your own messages for everyone")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
