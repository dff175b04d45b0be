package models

import "time"

// List represents a to-do list owned by one user and optionally shared
// with contributors. Items form an unordered collection owned exclusively
// by the list.
type List struct {
	// ID is the unique identifier for the list (UUID format).
	ID string `json:"id"`

	// Title is the human-readable name for the list.
	Title string `json:"title"`

	// Description is an optional longer description.
	Description string `json:"description"`

	// Items are the entries on the list.
	Items []ListItem `json:"items"`

	// Owner is the identity of the user who created the list.
	// Only the owner may delete the list or change its contributors.
	Owner UserRef `json:"owner"`

	// Contributors are users granted read and reconcile access.
	// The JSON name keeps the spelling the frontend has always used.
	Contributors []UserRef `json:"contributers"`

	// Created and Modified are server-assigned timestamps.
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// ModifiedBy identifies the user whose write last changed the list.
	ModifiedBy UserRef `json:"modifiedBy"`

	// Version is the optimistic concurrency token. It advances by one on
	// every applied reconciliation; submissions carry the version they
	// read and conflict if the stored version has moved on.
	Version int64 `json:"version"`
}

// ContributorIDs returns the user IDs of the contributor set.
func (l *List) ContributorIDs() []string {
	ids := make([]string, len(l.Contributors))
	for i, c := range l.Contributors {
		ids[i] = c.UserID
	}
	return ids
}

// HasAccess reports whether userID is the owner or a contributor.
func (l *List) HasAccess(userID string) bool {
	if l.Owner.UserID == userID {
		return true
	}
	for _, c := range l.Contributors {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// ListItem represents a single entry on a list.
// The ID is unique within the owning list and stable across edits; it is
// never reused for semantically different content.
type ListItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
