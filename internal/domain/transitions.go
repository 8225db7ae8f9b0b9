package domain

var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

var visitTransitions = map[string][]string{
	VisitStatusPending:   {VisitStatusConfirmed, VisitStatusCancelled},
	VisitStatusConfirmed: {VisitStatusCompleted, VisitStatusCancelled},
}

// CanTransitionBooking reports whether a booking may move from -> to.
// pending -> confirmed is additionally gated on a successful payment by the caller.
func CanTransitionBooking(from, to string) bool {
	return allowed(bookingTransitions, from, to)
}

func CanTransitionVisit(from, to string) bool {
	return allowed(visitTransitions, from, to)
}

func allowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}
