package redis

import "fmt"

const ns = "bookgo:v1"

func KeyEventSummary(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyEventAvailability(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:availability", ns, eventID)
}

func KeyTopBookers(limit int) string {
	return fmt.Sprintf("%s:bookings:top:%d", ns, limit)
}

func KeyRateLimitPrefix() string {
	return ns + ":rl"
}

func KeyIdemReserve(eventID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:reserve:%d:%s", ns, eventID, idemKey)
}

func ChannelBookingsChanged() string {
	return ns + ":bookings:changed"
}
