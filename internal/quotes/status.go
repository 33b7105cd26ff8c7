package quotes

import (
	"fmt"
	"time"

	"github.com/cotizo-erp/cotizo/internal/shared"
)

// Status is the quotation lifecycle state, lowercase on the wire.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// transitions is the single source of truth for allowed status changes.
// A pair absent from this table is rejected, including same-state
// re-application: a transition must be a genuine state change.
var transitions = map[Status]map[Status]bool{
	StatusDraft: {
		StatusSent:     true,
		StatusRejected: true,
	},
	StatusSent: {
		StatusAccepted: true,
		StatusRejected: true,
		StatusExpired:  true,
	},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves this state.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid() && s != StatusDraft
}

// Editable reports whether line items may still be mutated. Entering
// sent freezes the item set.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// CanTransition consults the transition table.
func (s Status) CanTransition(target Status) bool {
	return transitions[s][target]
}

// Transition applies a status change to the quotation, stamping the
// decision timestamp on accepted/rejected. Any pair outside the table
// fails naming both statuses.
func Transition(q *Quotation, target Status, now time.Time) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrValidation, target)
	}
	if !q.Status.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, q.Status, target)
	}
	q.Status = target
	if target == StatusAccepted || target == StatusRejected {
		t := now
		q.DecidedAt = &t
	}
	return nil
}

// ExpireIfDue flips a sent quotation past its validity window to
// expired. Expiry is applied lazily on read; there is no sweeper.
func ExpireIfDue(q *Quotation, now time.Time) bool {
	if q.Status != StatusSent || q.ValidUntil.IsZero() || !now.After(q.ValidUntil) {
		return false
	}
	return Transition(q, StatusExpired, now) == nil
}
