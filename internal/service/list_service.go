package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/listkeep/listkeep/internal/middleware"
	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/reconcile"
	"github.com/listkeep/listkeep/internal/storage"
)

// ListService implements the list endpoints, including reconciliation.
type ListService struct {
	store storage.Store
}

// NewListService creates a new ListService with the given storage backend.
func NewListService(store storage.Store) *ListService {
	return &ListService{store: store}
}

// HandleLists returns every list the caller owns or contributes to.
func (s *ListService) HandleLists(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	lists, err := s.store.ListsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lists == nil {
		lists = []*models.List{}
	}

	slog.Info("Lists fetched", "user_id", userID, "count", len(lists))
	writeJSON(w, http.StatusOK, lists)
}

// HandleGetList returns a single list with its items. Absent lists are 404;
// lists the caller has no access to are 403.
func (s *ListService) HandleGetList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID := r.PathValue("listId")

	list, err := s.store.GetList(r.Context(), listID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !list.HasAccess(userID) {
		writeError(w, r, fmt.Errorf("%w: list %s", ErrForbidden, listID))
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// HandleCreate creates a new list owned by the caller.
func (s *ListService) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var submitted models.List
	if err := decodeBody(r, &submitted); err != nil {
		writeError(w, r, err)
		return
	}
	if submitted.Title == "" {
		writeError(w, r, fmt.Errorf("%w: title is required", ErrBadRequest))
		return
	}

	owner, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if owner == nil {
		writeError(w, r, fmt.Errorf("%w: user %s", storage.ErrNotFound, userID))
		return
	}

	contributors, err := s.resolveContributors(r, submitted.ContributorIDs(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list := &models.List{
		Title:        submitted.Title,
		Description:  submitted.Description,
		Items:        submitted.Items,
		Owner:        owner.Ref(),
		Contributors: contributors,
	}
	if err := s.store.CreateList(r.Context(), list); err != nil {
		writeError(w, r, err)
		return
	}

	// Re-read so contributors carry their joined display identities.
	created, err := s.store.GetList(r.Context(), list.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("List created", "list_id", created.ID, "owner_id", userID, "items", len(created.Items))
	writeJSON(w, http.StatusCreated, created)
}

// HandleReconcile accepts a full client-submitted list representation and
// applies the minimal write set against storage. The whole call is
// all-or-nothing: a consistency violation or version conflict leaves the
// stored list untouched.
func (s *ListService) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var submitted models.List
	if err := decodeBody(r, &submitted); err != nil {
		writeError(w, r, err)
		return
	}
	if submitted.ID == "" {
		writeError(w, r, fmt.Errorf("%w: list id is required", ErrBadRequest))
		return
	}

	stored, err := s.store.GetList(r.Context(), submitted.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !stored.HasAccess(userID) {
		writeError(w, r, fmt.Errorf("%w: list %s", ErrForbidden, submitted.ID))
		return
	}

	// New items may arrive without ids; assign them before diffing so the
	// plan inserts carry their permanent identifiers.
	for i := range submitted.Items {
		if submitted.Items[i].ID == "" {
			submitted.Items[i].ID = uuid.New().String()
		}
	}

	plan, err := reconcile.Diff(stored, &submitted)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if plan.Empty() {
		slog.Info("Reconcile is a no-op", "list_id", stored.ID, "user_id", userID)
		writeJSON(w, http.StatusOK, stored)
		return
	}

	if plan.Header != nil {
		// Only the owner may change the contributor set.
		if !sameContributors(stored.ContributorIDs(), plan.Header.ContributorIDs) {
			if stored.Owner.UserID != userID {
				writeError(w, r, fmt.Errorf("%w: only the owner may change contributors", ErrForbidden))
				return
			}
			if _, err := s.resolveContributors(r, plan.Header.ContributorIDs, stored.Owner.UserID); err != nil {
				writeError(w, r, err)
				return
			}
		}
	}

	if err := s.store.ApplyReconcile(r.Context(), stored.ID, submitted.Version, userID, plan); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.store.GetList(r.Context(), stored.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("List reconciled",
		"list_id", updated.ID,
		"user_id", userID,
		"inserts", len(plan.Inserts),
		"updates", len(plan.Updates),
		"header", plan.Header != nil,
		"version", updated.Version,
	)
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteList removes a list and all of its items. Only the owner may
// delete; deleting an already-absent list is a no-op success.
func (s *ListService) HandleDeleteList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID := r.PathValue("listId")

	list, err := s.store.GetList(r.Context(), listID)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeJSON(w, http.StatusOK, map[string]string{"id": listID})
			return
		}
		writeError(w, r, err)
		return
	}
	if list.Owner.UserID != userID {
		writeError(w, r, fmt.Errorf("%w: only the owner may delete a list", ErrForbidden))
		return
	}

	if err := s.store.DeleteList(r.Context(), listID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("List deleted", "list_id", listID, "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"id": listID})
}

// HandleDeleteItem removes a single item. Owner and contributors may delete
// items; deleting an already-absent item is a no-op success.
func (s *ListService) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listID := r.PathValue("listId")
	itemID := r.PathValue("itemId")

	list, err := s.store.GetList(r.Context(), listID)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeJSON(w, http.StatusOK, map[string]string{"id": itemID, "listId": listID})
			return
		}
		writeError(w, r, err)
		return
	}
	if !list.HasAccess(userID) {
		writeError(w, r, fmt.Errorf("%w: list %s", ErrForbidden, listID))
		return
	}

	if err := s.store.DeleteItem(r.Context(), listID, itemID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Item deleted", "list_id", listID, "item_id", itemID, "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"id": itemID, "listId": listID})
}

// resolveContributors verifies each contributor id names a real user and
// returns their refs. The owner is silently excluded; owning already grants
// full access.
func (s *ListService) resolveContributors(r *http.Request, ids []string, ownerID string) ([]models.UserRef, error) {
	refs := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		if id == ownerID {
			continue
		}
		user, err := s.store.GetUserByID(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("%w: contributor %s is not a registered user", ErrBadRequest, id)
		}
		refs = append(refs, user.Ref())
	}
	return refs, nil
}

// sameContributors compares contributor id sets ignoring order.
func sameContributors(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
