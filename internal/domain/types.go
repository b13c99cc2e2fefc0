package domain

import "time"

type Event struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TotalSeats int    `json:"total_seats"`
}

type Booking struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingWithEvent struct {
	Booking
	Event Event `json:"event"`
}

// EventAvailability holds the seat counters for a single event. Booked is the
// committed booking count at read time; readers outside a reservation
// transaction may observe it change immediately after.
type EventAvailability struct {
	EventID    int64 `json:"event_id"`
	TotalSeats int   `json:"total_seats"`
	Booked     int64 `json:"booked"`
	Available  int64 `json:"available"`
}

type TopBooker struct {
	UserID       string `json:"user_id"`
	Place        int    `json:"place"`
	BookingCount int64  `json:"booking_count"`
}
