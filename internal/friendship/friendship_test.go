package friendship

import (
	"errors"
	"testing"

	"github.com/listkeep/listkeep/internal/models"
)

func rel(status models.FriendStatus) *models.FriendRelationship {
	return &models.FriendRelationship{
		ID:          "r1",
		RequesterID: "bob",
		AddresseeID: "alice",
		Status:      status,
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name       string
		status     models.FriendStatus
		action     Action
		caller     string
		wantErr    error
		wantStatus models.FriendStatus
		wantRemove bool
	}{
		{
			name:       "addressee approves pending",
			status:     models.FriendPending,
			action:     Approve,
			caller:     "alice",
			wantStatus: models.FriendApproved,
		},
		{
			name:    "requester cannot approve own request",
			status:  models.FriendPending,
			action:  Approve,
			caller:  "bob",
			wantErr: ErrNotAllowed,
		},
		{
			name:    "third party cannot approve",
			status:  models.FriendPending,
			action:  Approve,
			caller:  "mallory",
			wantErr: ErrNotAllowed,
		},
		{
			name:    "cannot approve twice",
			status:  models.FriendApproved,
			action:  Approve,
			caller:  "alice",
			wantErr: ErrInvalidTransition,
		},
		{
			name:       "addressee denies pending",
			status:     models.FriendPending,
			action:     Deny,
			caller:     "alice",
			wantStatus: models.FriendDenied,
		},
		{
			name:    "requester cannot deny",
			status:  models.FriendPending,
			action:  Deny,
			caller:  "bob",
			wantErr: ErrNotAllowed,
		},
		{
			name:    "cannot deny an approved relationship",
			status:  models.FriendApproved,
			action:  Deny,
			caller:  "alice",
			wantErr: ErrInvalidTransition,
		},
		{
			name:       "requester cancels pending",
			status:     models.FriendPending,
			action:     Cancel,
			caller:     "bob",
			wantRemove: true,
		},
		{
			name:       "addressee cancels approved",
			status:     models.FriendApproved,
			action:     Cancel,
			caller:     "alice",
			wantRemove: true,
		},
		{
			name:       "cancel works from denied too",
			status:     models.FriendDenied,
			action:     Cancel,
			caller:     "bob",
			wantRemove: true,
		},
		{
			name:    "third party cannot cancel",
			status:  models.FriendPending,
			action:  Cancel,
			caller:  "mallory",
			wantErr: ErrNotAllowed,
		},
		{
			name:    "unknown action rejected",
			status:  models.FriendPending,
			action:  Action("poke"),
			caller:  "alice",
			wantErr: ErrUnknownAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rel(tt.status)
			out, err := Transition(r, tt.action, tt.caller)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Transition error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition failed: %v", err)
			}
			if out.Remove != tt.wantRemove {
				t.Errorf("remove = %v, want %v", out.Remove, tt.wantRemove)
			}
			if !tt.wantRemove && out.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", out.Status, tt.wantStatus)
			}
			// The input record is never mutated in place.
			if r.Status != tt.status {
				t.Errorf("input status mutated to %s", r.Status)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"approve", "deny", "cancel"} {
		if _, err := ParseAction(valid); err != nil {
			t.Errorf("ParseAction(%q) failed: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Approve", "remove", "request"} {
		if _, err := ParseAction(invalid); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseAction(%q) = %v, want ErrUnknownAction", invalid, err)
		}
	}
}
