package booking

import "errors"

var (
	// ErrEventNotFound means the referenced event does not exist. A client
	// input error, not worth retrying.
	ErrEventNotFound = errors.New("event not found")

	// ErrAlreadyBooked means the user already holds a booking for this event.
	ErrAlreadyBooked = errors.New("user already booked this event")

	// ErrEventFull means the event had no free seats at the moment of the
	// capacity check.
	ErrEventFull = errors.New("no seats available for this event")
)
