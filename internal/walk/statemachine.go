package walk

import (
	"fmt"

	"github.com/petmily/walk-service/internal/model"
)

// transitions is the legal booking transition graph.  Statuses absent from
// the map are terminal.  WALKER_APPLIED belongs to the open-request flow:
// each applying walker gets a booking shell in that state, and the owner's
// acceptance of one must reject the rest.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingPending: {
		model.BookingConfirmed,
		model.BookingWalkerApplied,
		model.BookingRejected,
		model.BookingCancelled,
	},
	model.BookingWalkerApplied: {
		model.BookingConfirmed,
		model.BookingRejected,
		model.BookingCancelled,
	},
	model.BookingConfirmed: {
		model.BookingInProgress,
		model.BookingCancelled,
	},
	model.BookingInProgress: {
		model.BookingCompleted,
		model.BookingCancelled,
	},
}

// CanTransition reports whether moving a booking from one status to another
// is legal.
func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidState (wrapped with both statuses) when
// the move is illegal, nil otherwise.
func CheckTransition(from, to model.BookingStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: cannot move booking from %s to %s", ErrInvalidState, from, to)
	}
	return nil
}
