package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/listkeep/listkeep/internal/friendship"
	"github.com/listkeep/listkeep/internal/middleware"
	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/storage"
)

// FriendService implements the friend-relationship endpoints.
type FriendService struct {
	store storage.Store
}

// NewFriendService creates a new FriendService with the given storage backend.
func NewFriendService(store storage.Store) *FriendService {
	return &FriendService{store: store}
}

type friendActionRequest struct {
	Action    string `json:"action"`
	RequestID string `json:"requestId"`
	Username  string `json:"username"`
}

// HandleFriends returns every relationship where the caller is either
// party, annotated with the counterpart's display identity.
func (s *FriendService) HandleFriends(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	views, err := s.store.FriendsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if views == nil {
		views = []*models.FriendView{}
	}

	slog.Info("Friends fetched", "user_id", userID, "count", len(views))
	writeJSON(w, http.StatusOK, views)
}

// HandleAction dispatches the tagged friend action body. "request" creates
// a new pending relationship; approve, deny and cancel respond to an
// existing one. Each action is a mutually exclusive branch.
func (s *FriendService) HandleAction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req friendActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Action == "request" {
		s.handleRequest(w, r, userID, req.Username)
		return
	}

	action, err := friendship.ParseAction(req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.RequestID == "" {
		writeError(w, r, fmt.Errorf("%w: requestId is required", ErrBadRequest))
		return
	}
	s.handleRespond(w, r, userID, req.RequestID, action)
}

// handleRequest creates a pending relationship toward the named user.
// Re-requesting an existing pending or approved relationship returns the
// record unchanged; a denied record blocks new requests until cancelled.
func (s *FriendService) handleRequest(w http.ResponseWriter, r *http.Request, userID, username string) {
	if username == "" {
		writeError(w, r, fmt.Errorf("%w: username is required", ErrBadRequest))
		return
	}

	target, err := s.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if target == nil {
		writeError(w, r, fmt.Errorf("%w: user %q", storage.ErrNotFound, username))
		return
	}
	if target.ID == userID {
		writeError(w, r, fmt.Errorf("%w: cannot friend yourself", ErrBadRequest))
		return
	}

	existing, err := s.store.GetFriendRequestByPair(r.Context(), userID, target.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		if existing.Status == models.FriendDenied {
			writeError(w, r, fmt.Errorf("%w: a denied request exists between these users", friendship.ErrNotAllowed))
			return
		}
		// Idempotent re-request.
		writeJSON(w, http.StatusOK, existing)
		return
	}

	rel := &models.FriendRelationship{
		RequesterID: userID,
		AddresseeID: target.ID,
		Status:      models.FriendPending,
	}
	if err := s.store.CreateFriendRequest(r.Context(), rel); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Friend request created", "request_id", rel.ID, "requester_id", userID, "addressee_id", target.ID)
	writeJSON(w, http.StatusOK, rel)
}

// handleRespond applies approve, deny or cancel to an existing record.
func (s *FriendService) handleRespond(w http.ResponseWriter, r *http.Request, userID, requestID string, action friendship.Action) {
	rel, err := s.store.GetFriendRequest(r.Context(), requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := friendship.Transition(rel, action, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if outcome.Remove {
		if err := s.store.DeleteFriendRequest(r.Context(), rel.ID); err != nil {
			writeError(w, r, err)
			return
		}
		slog.Info("Friend relationship removed", "request_id", rel.ID, "user_id", userID)
		writeJSON(w, http.StatusOK, map[string]string{"id": rel.ID, "status": "removed"})
		return
	}

	if err := s.store.UpdateFriendStatus(r.Context(), rel.ID, outcome.Status); err != nil {
		writeError(w, r, err)
		return
	}
	rel.Status = outcome.Status

	slog.Info("Friend relationship updated", "request_id", rel.ID, "status", rel.Status, "user_id", userID)
	writeJSON(w, http.StatusOK, rel)
}
