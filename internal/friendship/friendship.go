// Package friendship implements the relationship state machine: pending,
// approved and denied states plus a terminal removed state reached by
// cancellation. Actions are dispatched as mutually exclusive branches;
// cancel never runs approve or deny logic.
package friendship

import (
	"errors"
	"fmt"

	"github.com/listkeep/listkeep/internal/models"
)

var (
	// ErrUnknownAction is returned for action strings outside the enum.
	ErrUnknownAction = errors.New("unknown friend action")

	// ErrNotAllowed is returned when the caller is not permitted to take
	// the action on this relationship.
	ErrNotAllowed = errors.New("not allowed to act on this relationship")

	// ErrInvalidTransition is returned when the action does not apply to
	// the relationship's current state.
	ErrInvalidTransition = errors.New("invalid relationship transition")
)

// Action is a response to an existing friend request.
type Action string

const (
	// Approve moves a pending relationship to approved. Addressee only.
	Approve Action = "approve"
	// Deny moves a pending relationship to denied. Addressee only.
	Deny Action = "deny"
	// Cancel deletes the relationship record from any state. Either
	// party may cancel.
	Cancel Action = "cancel"
)

// ParseAction converts a wire string into an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Approve, Deny, Cancel:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Outcome describes the persistence effect of a transition: either the
// record moves to Status, or Remove is set and the record is deleted.
type Outcome struct {
	Status models.FriendStatus
	Remove bool
}

// Transition applies action to rel on behalf of callerID and returns the
// resulting outcome. It enforces both the state machine and the per-party
// authorization rules; it never mutates rel.
func Transition(rel *models.FriendRelationship, action Action, callerID string) (Outcome, error) {
	switch action {
	case Approve:
		if rel.AddresseeID != callerID {
			return Outcome{}, fmt.Errorf("%w: only the requested user may approve", ErrNotAllowed)
		}
		if rel.Status != models.FriendPending {
			return Outcome{}, fmt.Errorf("%w: cannot approve a %s relationship", ErrInvalidTransition, rel.Status)
		}
		return Outcome{Status: models.FriendApproved}, nil

	case Deny:
		if rel.AddresseeID != callerID {
			return Outcome{}, fmt.Errorf("%w: only the requested user may deny", ErrNotAllowed)
		}
		if rel.Status != models.FriendPending {
			return Outcome{}, fmt.Errorf("%w: cannot deny a %s relationship", ErrInvalidTransition, rel.Status)
		}
		return Outcome{Status: models.FriendDenied}, nil

	case Cancel:
		if !rel.Involves(callerID) {
			return Outcome{}, fmt.Errorf("%w: only a party to the relationship may cancel", ErrNotAllowed)
		}
		return Outcome{Remove: true}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}
