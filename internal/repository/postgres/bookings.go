package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okseniuk/book-go/internal/domain"
)

type BookingRepo struct {
	pool *pgxpool.Pool
}

func (r *BookingRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

// FindByEventAndUser looks up the booking for a (event, user) pair. When db
// is a transaction handle the lookup observes that transaction's writes and
// locks; it never opens a transaction of its own.
//
// Returns:
//   - *domain.Booking: the booking when found.
//   - error: repository.ErrNotFound if no booking exists for the pair.
func (r *BookingRepo) FindByEventAndUser(
	ctx context.Context,
	db DB,
	eventID int64,
	userID string,
) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.FindByEventAndUser"

	var b domain.Booking
	err := r.handle(db).QueryRow(ctx,
		`SELECT id, event_id, user_id, created_at
       	 FROM bookings
      	 WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&b.ID, &b.EventID, &b.UserID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// CountByEvent returns the number of bookings for an event, honoring the
// same optional execution context as FindByEventAndUser.
func (r *BookingRepo) CountByEvent(ctx context.Context, db DB, eventID int64) (int64, error) {
	const op = "postgres.BookingRepo.CountByEvent"

	var count int64
	err := r.handle(db).QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return count, nil
}

// Insert creates a booking row and returns it with the generated ID and
// server-assigned creation timestamp.
//
// Returns:
//   - *domain.Booking: the created booking.
//   - error: repository.ErrConflict if the (event_id, user_id) uniqueness
//     constraint is violated.
func (r *BookingRepo) Insert(
	ctx context.Context,
	db DB,
	eventID int64,
	userID string,
) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Insert"

	b := domain.Booking{EventID: eventID, UserID: userID}
	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO bookings(event_id, user_id)
       	 VALUES ($1, $2)
     	 RETURNING id, created_at`,
		eventID, userID,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// ListAll lists every booking joined with its event.
func (r *BookingRepo) ListAll(ctx context.Context, db DB) ([]domain.BookingWithEvent, error) {
	const op = "postgres.BookingRepo.ListAll"

	return r.list(ctx, db, op,
		`SELECT b.id, b.event_id, b.user_id, b.created_at, e.id, e.name, e.total_seats
       	 FROM bookings b
      	 JOIN events e ON e.id = b.event_id
      	 ORDER BY b.created_at`,
	)
}

// ListByEvent lists the bookings for one event joined with its event.
func (r *BookingRepo) ListByEvent(ctx context.Context, db DB, eventID int64) ([]domain.BookingWithEvent, error) {
	const op = "postgres.BookingRepo.ListByEvent"

	return r.list(ctx, db, op,
		`SELECT b.id, b.event_id, b.user_id, b.created_at, e.id, e.name, e.total_seats
       	 FROM bookings b
      	 JOIN events e ON e.id = b.event_id
      	 WHERE b.event_id = $1
      	 ORDER BY b.created_at`,
		eventID,
	)
}

// ListByUser lists the bookings one user holds across all events.
func (r *BookingRepo) ListByUser(ctx context.Context, db DB, userID string) ([]domain.BookingWithEvent, error) {
	const op = "postgres.BookingRepo.ListByUser"

	return r.list(ctx, db, op,
		`SELECT b.id, b.event_id, b.user_id, b.created_at, e.id, e.name, e.total_seats
       	 FROM bookings b
      	 JOIN events e ON e.id = b.event_id
      	 WHERE b.user_id = $1
      	 ORDER BY b.created_at`,
		userID,
	)
}

func (r *BookingRepo) list(
	ctx context.Context,
	db DB,
	op string,
	sql string,
	args ...any,
) ([]domain.BookingWithEvent, error) {
	rows, err := r.handle(db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BookingWithEvent
	for rows.Next() {
		var bw domain.BookingWithEvent
		if err := rows.Scan(
			&bw.ID,
			&bw.EventID,
			&bw.UserID,
			&bw.CreatedAt,
			&bw.Event.ID,
			&bw.Event.Name,
			&bw.Event.TotalSeats,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, bw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// TopBookers returns the top-N users ranked by booking count.
func (r *BookingRepo) TopBookers(ctx context.Context, db DB, limit int) ([]domain.TopBooker, error) {
	const op = "postgres.BookingRepo.TopBookers"

	rows, err := r.handle(db).Query(ctx,
		`SELECT user_id,
				ROW_NUMBER() OVER (ORDER BY COUNT(*) DESC, user_id) AS place,
				COUNT(*) AS booking_count
       	 FROM bookings
      	 GROUP BY user_id
      	 ORDER BY place
      	 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.TopBooker
	for rows.Next() {
		var t domain.TopBooker
		if err := rows.Scan(&t.UserID, &t.Place, &t.BookingCount); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
