package models

// BookingState names a temporal or status view over an actor's bookings.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var bookingStates = map[string]BookingState{
	string(StateAll):      StateAll,
	string(StateCurrent):  StateCurrent,
	string(StatePast):     StatePast,
	string(StateFuture):   StateFuture,
	string(StateWaiting):  StateWaiting,
	string(StateRejected): StateRejected,
}

// ParseBookingState matches name case-sensitively against the known views.
func ParseBookingState(name string) (BookingState, bool) {
	s, ok := bookingStates[name]
	return s, ok
}
