package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/service"
	"github.com/ripplechat/ripple/internal/transport/http/middleware"
)

type FriendHandler struct {
	friendService *service.FriendService
}

func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	req, err := h.friendService.Send(r.Context(), user, input.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFriendRequest):
			writeError(w, http.StatusBadRequest, "SELF_REQUEST", "Cannot send a friend request to yourself")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, service.ErrRequestExists):
			writeError(w, http.StatusConflict, "REQUEST_EXISTS", "A pending request already exists")
		default:
			log.Printf("ERROR send friend request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid request ID")
		return
	}

	chat, err := h.friendService.Accept(r.Context(), user, requestID)
	if err != nil {
		writeFriendError(w, "accept friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, chat)
}

func (h *FriendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid request ID")
		return
	}

	if err := h.friendService.Reject(r.Context(), user, requestID); err != nil {
		writeFriendError(w, "reject friend request", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reqs, err := h.friendService.ListIncoming(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list friend requests: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list friends: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

func writeFriendError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Friend request not found")
	case errors.Is(err, service.ErrNotRequestRecipient):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the request recipient can do this")
	case errors.Is(err, service.ErrRequestSettled):
		writeError(w, http.StatusConflict, "REQUEST_SETTLED", "Friend request already accepted or rejected")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
