package models

// FriendStatus represents the approval state of a friend relationship.
type FriendStatus string

const (
	// FriendPending indicates a request awaiting the addressee's response.
	FriendPending FriendStatus = "pending"
	// FriendApproved indicates an accepted relationship.
	FriendApproved FriendStatus = "approved"
	// FriendDenied indicates the addressee declined the request.
	FriendDenied FriendStatus = "denied"
)

// FriendRelationship is the single shared record connecting two users,
// regardless of who initiated it. Cancellation deletes the record from
// any state; there is no per-direction duplication.
type FriendRelationship struct {
	// ID is the unique identifier for the relationship (UUID format).
	ID string `json:"id"`

	// RequesterID is the user who sent the request.
	RequesterID string `json:"requesterId"`

	// AddresseeID is the user the request was sent to. Only this user
	// may approve or deny.
	AddresseeID string `json:"addresseeId"`

	// Status is the current approval state.
	Status FriendStatus `json:"status"`

	// CreatedAt is the Unix timestamp when the request was made.
	CreatedAt int64 `json:"-"`
}

// Involves reports whether userID is either party of the relationship.
func (r *FriendRelationship) Involves(userID string) bool {
	return r.RequesterID == userID || r.AddresseeID == userID
}

// CounterpartID returns the other party's user ID relative to userID.
func (r *FriendRelationship) CounterpartID(userID string) string {
	if r.RequesterID == userID {
		return r.AddresseeID
	}
	return r.RequesterID
}

// FriendView is a relationship annotated with the counterpart's display
// identity, joined at query time for the listing endpoint.
type FriendView struct {
	FriendRelationship
	Counterpart UserRef `json:"counterpart"`
}
