package reconcile

import (
	"errors"
	"testing"

	"github.com/listkeep/listkeep/internal/models"
)

func storedList() *models.List {
	return &models.List{
		ID:          "l1",
		Title:       "Groceries",
		Description: "Weekly shop",
		Items: []models.ListItem{
			{ID: "i1", Title: "Milk", Description: "Two liters"},
			{ID: "i2", Title: "Bread", Description: "Sourdough"},
		},
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name         string
		submitted    *models.List
		wantErr      error
		validateFunc func(t *testing.T, plan *Plan)
	}{
		{
			name:      "unchanged submission yields empty plan",
			submitted: storedList(),
			validateFunc: func(t *testing.T, plan *Plan) {
				if !plan.Empty() {
					t.Errorf("expected empty plan, got header=%v inserts=%d updates=%d",
						plan.Header, len(plan.Inserts), len(plan.Updates))
				}
			},
		},
		{
			name: "header change only",
			submitted: &models.List{
				ID:          "l1",
				Title:       "Groceries v2",
				Description: "Weekly shop",
				Items:       storedList().Items,
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				if plan.Header == nil {
					t.Fatal("expected header write")
				}
				if plan.Header.Title != "Groceries v2" {
					t.Errorf("header title = %q, want 'Groceries v2'", plan.Header.Title)
				}
				if len(plan.Inserts) != 0 || len(plan.Updates) != 0 {
					t.Errorf("expected no item writes, got inserts=%d updates=%d",
						len(plan.Inserts), len(plan.Updates))
				}
			},
		},
		{
			name: "contributor set change triggers header write",
			submitted: func() *models.List {
				l := storedList()
				l.Contributors = []models.UserRef{{UserID: "u2", UserName: "car"}}
				return l
			}(),
			validateFunc: func(t *testing.T, plan *Plan) {
				if plan.Header == nil {
					t.Fatal("expected header write")
				}
				if len(plan.Header.ContributorIDs) != 1 || plan.Header.ContributorIDs[0] != "u2" {
					t.Errorf("contributor ids = %v, want [u2]", plan.Header.ContributorIDs)
				}
			},
		},
		{
			name: "edited item updated in place, id preserved",
			submitted: &models.List{
				ID:          "l1",
				Title:       "Groceries",
				Description: "Weekly shop",
				Items: []models.ListItem{
					{ID: "i1", Title: "Oat milk", Description: "Two liters"},
					{ID: "i2", Title: "Bread", Description: "Sourdough"},
				},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				if len(plan.Updates) != 1 {
					t.Fatalf("updates = %d, want 1", len(plan.Updates))
				}
				if plan.Updates[0].ID != "i1" {
					t.Errorf("updated id = %q, want i1", plan.Updates[0].ID)
				}
				if plan.Updates[0].Title != "Oat milk" {
					t.Errorf("updated title = %q, want 'Oat milk'", plan.Updates[0].Title)
				}
				if len(plan.Inserts) != 0 || plan.Header != nil {
					t.Error("expected only the single update")
				}
			},
		},
		{
			name: "multiple new items are all inserts",
			submitted: &models.List{
				ID:          "l1",
				Title:       "Groceries",
				Description: "Weekly shop",
				Items: []models.ListItem{
					{ID: "i1", Title: "Milk", Description: "Two liters"},
					{ID: "i2", Title: "Bread", Description: "Sourdough"},
					{ID: "i3", Title: "Eggs"},
					{ID: "i4", Title: "Butter"},
				},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				if len(plan.Inserts) != 2 {
					t.Fatalf("inserts = %d, want 2", len(plan.Inserts))
				}
				// Submission order is preserved.
				if plan.Inserts[0].ID != "i3" || plan.Inserts[1].ID != "i4" {
					t.Errorf("insert ids = [%s %s], want [i3 i4]",
						plan.Inserts[0].ID, plan.Inserts[1].ID)
				}
				if len(plan.Updates) != 0 {
					t.Errorf("updates = %d, want 0", len(plan.Updates))
				}
			},
		},
		{
			name: "edit and insert in one call",
			submitted: &models.List{
				ID:          "l1",
				Title:       "Groceries",
				Description: "Weekly shop",
				Items: []models.ListItem{
					{ID: "i1", Title: "Milk", Description: "Four liters"},
					{ID: "i2", Title: "Bread", Description: "Sourdough"},
					{ID: "i3", Title: "Eggs"},
				},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				if len(plan.Updates) != 1 || plan.Updates[0].ID != "i1" {
					t.Errorf("expected single update of i1, got %v", plan.Updates)
				}
				if len(plan.Inserts) != 1 || plan.Inserts[0].ID != "i3" {
					t.Errorf("expected single insert of i3, got %v", plan.Inserts)
				}
			},
		},
		{
			name: "missing stored item rejected",
			submitted: &models.List{
				ID:          "l1",
				Title:       "Groceries",
				Description: "Weekly shop",
				Items: []models.ListItem{
					{ID: "i1", Title: "Milk", Description: "Two liters"},
					// i2 omitted: consistency violation, not a delete.
				},
			},
			wantErr: ErrMissingItem,
		},
		{
			name: "missing item rejected even when new items are added",
			submitted: &models.List{
				ID:          "l1",
				Title:       "Groceries",
				Description: "Weekly shop",
				Items: []models.ListItem{
					{ID: "i1", Title: "Milk", Description: "Two liters"},
					{ID: "i9", Title: "Replacement"},
				},
			},
			wantErr: ErrMissingItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Diff(storedList(), tt.submitted)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Diff error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Diff failed: %v", err)
			}
			tt.validateFunc(t, plan)
		})
	}
}

func TestDiffIdempotence(t *testing.T) {
	// Applying a plan and diffing again must produce no further writes.
	stored := storedList()
	submitted := &models.List{
		ID:          "l1",
		Title:       "Renamed",
		Description: "Weekly shop",
		Items: []models.ListItem{
			{ID: "i1", Title: "Oat milk", Description: "Two liters"},
			{ID: "i2", Title: "Bread", Description: "Sourdough"},
			{ID: "i3", Title: "Eggs"},
		},
	}

	plan, err := Diff(stored, submitted)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if plan.Empty() {
		t.Fatal("expected a non-empty first plan")
	}

	// Simulate the store applying the plan.
	after := &models.List{
		ID:          stored.ID,
		Title:       plan.Header.Title,
		Description: plan.Header.Description,
		Items:       submitted.Items,
	}

	second, err := Diff(after, submitted)
	if err != nil {
		t.Fatalf("second Diff failed: %v", err)
	}
	if !second.Empty() {
		t.Errorf("second plan not empty: header=%v inserts=%d updates=%d",
			second.Header, len(second.Inserts), len(second.Updates))
	}
}
