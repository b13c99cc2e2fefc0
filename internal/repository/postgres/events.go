package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okseniuk/book-go/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func (r *EventRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

// Create inserts an event and returns its generated ID.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - db: optional execution context; nil runs against the pool.
//   - name: event name.
//   - totalSeats: fixed seat capacity, never mutated afterwards.
func (r *EventRepo) Create(ctx context.Context, db DB, name string, totalSeats int) (int64, error) {
	const op = "postgres.EventRepo.Create"

	var id int64
	if err := r.handle(db).QueryRow(ctx,
		`INSERT INTO events(name, total_seats)
       	 VALUES ($1, $2)
     	 RETURNING id`,
		name, totalSeats,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// Get retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Get(ctx context.Context, db DB, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	var e domain.Event
	err := r.handle(db).QueryRow(ctx,
		`SELECT id, name, total_seats
       	 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.TotalSeats)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

// GetForUpdate retrieves an event by its ID under an exclusive row lock
// (SELECT ... FOR UPDATE). It must run inside a transaction: the lock
// serializes every concurrent reservation attempt against the same event
// until that transaction commits or rolls back.
//
// Returns:
//   - *domain.Event: the locked event row.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) GetForUpdate(ctx context.Context, db DB, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetForUpdate"

	var e domain.Event
	err := r.handle(db).QueryRow(ctx,
		`SELECT id, name, total_seats
       	 FROM events WHERE id = $1
     	 FOR UPDATE`,
		id,
	).Scan(&e.ID, &e.Name, &e.TotalSeats)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

// List lists all events ordered by ID.
func (r *EventRepo) List(ctx context.Context, db DB) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	rows, err := r.handle(db).Query(ctx,
		`SELECT id, name, total_seats
		 FROM events
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.TotalSeats); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
