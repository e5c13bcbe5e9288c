// Package appeals holds the appeal status transition graph. Statuses move
// pending -> under_review -> {approved, denied, escalated}; decision states
// are terminal and escalated hands the appeal to higher-tier staff outside
// this service.
package appeals

import (
	"fmt"

	"github.com/modsentry/moderation-api/models"
)

// InvalidTransitionError rejects a transition whose target is not reachable
// from the current status. Nothing is written when it is returned.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move appeal from %q to %q", e.From, e.To)
}

var transitions = map[string][]string{
	models.AppealPending:     {models.AppealUnderReview, models.AppealApproved, models.AppealDenied, models.AppealEscalated},
	models.AppealUnderReview: {models.AppealApproved, models.AppealDenied, models.AppealEscalated},
	models.AppealApproved:    {},
	models.AppealDenied:      {},
	models.AppealEscalated:   {},
}

// ValidStatus reports whether s names a known appeal status
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func IsTerminal(s string) bool {
	return len(transitions[s]) == 0 && ValidStatus(s)
}

// IsDecision reports whether s is reached by a decision actor, which must set
// reviewedBy and reviewedAt on the appeal
func IsDecision(s string) bool {
	switch s {
	case models.AppealApproved, models.AppealDenied, models.AppealEscalated:
		return true
	}
	return false
}

// Validate checks that from -> to is on the transition graph
func Validate(from, to string) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}
