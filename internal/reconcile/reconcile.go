// Package reconcile computes the minimal write set needed to bring a
// stored list in line with a client-submitted full representation.
//
// The planner is pure: it never touches storage. The storage layer applies
// a Plan inside a single transaction so a reconciliation is all-or-nothing.
package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/listkeep/listkeep/internal/models"
)

// ErrMissingItem reports a consistency violation: the submission omits an
// item id that exists in storage. Deletions go through the explicit delete
// operation, so the submitted state must be a superset of stored state by
// id; anything less would silently drop data.
var ErrMissingItem = errors.New("submitted list is missing a stored item")

// HeaderWrite describes an update to the list's header row.
type HeaderWrite struct {
	Title       string
	Description string

	// ContributorIDs is the full replacement contributor set.
	ContributorIDs []string
}

// Plan is the write set for one reconciliation. An empty plan means the
// submission matches stored state and no transaction is needed.
type Plan struct {
	// Header is non-nil when title, description or the contributor set
	// changed.
	Header *HeaderWrite

	// Inserts are submitted items whose ids are not in storage.
	Inserts []models.ListItem

	// Updates are stored items whose title or description changed.
	Updates []models.ListItem
}

// Empty reports whether the plan contains no writes.
func (p *Plan) Empty() bool {
	return p.Header == nil && len(p.Inserts) == 0 && len(p.Updates) == 0
}

// Diff compares a stored list against a submitted full representation and
// returns the minimal plan to make storage match the submission.
//
// Every stored item id must appear in the submission; a missing id fails
// the whole reconciliation with ErrMissingItem. Submitted items with ids
// unknown to storage are inserts, however many there are. Matched items
// are updated only when their content actually differs, so resubmitting
// an unchanged list yields an empty plan.
func Diff(stored, submitted *models.List) (*Plan, error) {
	plan := &Plan{}

	if headerChanged(stored, submitted) {
		plan.Header = &HeaderWrite{
			Title:          submitted.Title,
			Description:    submitted.Description,
			ContributorIDs: submitted.ContributorIDs(),
		}
	}

	byID := make(map[string]models.ListItem, len(submitted.Items))
	for _, item := range submitted.Items {
		byID[item.ID] = item
	}

	for _, prev := range stored.Items {
		next, ok := byID[prev.ID]
		if !ok {
			return nil, fmt.Errorf("%w: item %q", ErrMissingItem, prev.ID)
		}
		if next.Title != prev.Title || next.Description != prev.Description {
			plan.Updates = append(plan.Updates, next)
		}
		delete(byID, prev.ID)
	}

	// Whatever ids remain were not in storage: insert them, preserving
	// submission order for deterministic writes.
	for _, item := range submitted.Items {
		if _, ok := byID[item.ID]; ok {
			plan.Inserts = append(plan.Inserts, item)
		}
	}

	return plan, nil
}

func headerChanged(stored, submitted *models.List) bool {
	if stored.Title != submitted.Title || stored.Description != submitted.Description {
		return true
	}
	return !sameIDSet(stored.ContributorIDs(), submitted.ContributorIDs())
}

// sameIDSet compares two id slices as sets; contributor order carries no
// meaning.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
