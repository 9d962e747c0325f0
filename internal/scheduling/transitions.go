package scheduling

// Status transition table. Terminal states (cancelled, no_show, completed)
// have no outgoing edges; anything not listed here is an invalid transition.
var statusTransitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	StatusScheduled: {
		StatusConfirmed: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to AppointmentStatus) bool {
	return statusTransitions[from][to]
}

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted:
		return true
	}
	return false
}
