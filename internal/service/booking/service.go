package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okseniuk/book-go/internal/domain"
	"github.com/okseniuk/book-go/internal/pkg/metrics"
	"github.com/okseniuk/book-go/internal/repository"
	postgresrepo "github.com/okseniuk/book-go/internal/repository/postgres"
	redisrepo "github.com/okseniuk/book-go/internal/repository/redis"
	"github.com/okseniuk/book-go/internal/uow"
)

// EventStore is the slice of the event repository the coordinator needs: the
// locked read that serializes reservation attempts per event.
type EventStore interface {
	GetForUpdate(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Event, error)
}

// BookingStore is the capacity/uniqueness query component plus the insert.
// Every method takes an optional execution context; when a transaction handle
// is supplied the queries run under its isolation and locks.
type BookingStore interface {
	FindByEventAndUser(ctx context.Context, db postgresrepo.DB, eventID int64, userID string) (*domain.Booking, error)
	CountByEvent(ctx context.Context, db postgresrepo.DB, eventID int64) (int64, error)
	Insert(ctx context.Context, db postgresrepo.DB, eventID int64, userID string) (*domain.Booking, error)
	ListAll(ctx context.Context, db postgresrepo.DB) ([]domain.BookingWithEvent, error)
	ListByEvent(ctx context.Context, db postgresrepo.DB, eventID int64) ([]domain.BookingWithEvent, error)
	ListByUser(ctx context.Context, db postgresrepo.DB, userID string) ([]domain.BookingWithEvent, error)
	TopBookers(ctx context.Context, db postgresrepo.DB, limit int) ([]domain.TopBooker, error)
}

// TxRunner runs a function as one atomic unit of work.
type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

type Config struct {
	TopBookersTTL   time.Duration
	DefaultTopLimit int
	MaxTopLimit     int
}

type Service struct {
	events   EventStore
	bookings BookingStore
	tx       TxRunner
	cache    *redisrepo.Cache
	pubsub   *redisrepo.BookingsPubSub
	metrics  *metrics.Metrics
	cfg      Config
}

func New(
	events EventStore,
	bookings BookingStore,
	tx TxRunner,
	cache *redisrepo.Cache,
	pubsub *redisrepo.BookingsPubSub,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	if cfg.TopBookersTTL <= 0 {
		cfg.TopBookersTTL = 15 * time.Second
	}

	if cfg.DefaultTopLimit <= 0 {
		cfg.DefaultTopLimit = 10
	}

	if cfg.MaxTopLimit <= 0 || cfg.MaxTopLimit < cfg.DefaultTopLimit {
		cfg.MaxTopLimit = 100
	}

	return &Service{
		events:   events,
		bookings: bookings,
		tx:       tx,
		cache:    cache,
		pubsub:   pubsub,
		metrics:  m,
		cfg:      cfg,
	}
}

// Reserve books one seat on an event for a user. The whole check-then-insert
// sequence runs inside a single transaction that holds an exclusive lock on
// the event row, so concurrent attempts against the same event are serialized
// and the seat count can never overshoot capacity.
//
// Returns:
//   - *domain.Booking: the committed booking with its generated ID and timestamp.
//   - error: booking.ErrEventNotFound if the event does not exist.
//   - error: booking.ErrAlreadyBooked if the user already booked this event.
//   - error: booking.ErrEventFull if the event is at capacity.
//
// Any other error is a storage failure; in every failure case the transaction
// is rolled back in full and no booking row persists.
func (s *Service) Reserve(ctx context.Context, eventID int64, userID string) (*domain.Booking, error) {
	const op = "service.booking.Reserve"

	if userID == "" {
		return nil, fmt.Errorf("%s: empty user id", op)
	}

	var booked *domain.Booking

	err := s.tx.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		ev, err := s.events.GetForUpdate(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEventNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if _, err := s.bookings.FindByEventAndUser(ctx, tx, eventID, userID); err == nil {
			return fmt.Errorf("%s:%w", op, ErrAlreadyBooked)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, err)
		}

		count, err := s.bookings.CountByEvent(ctx, tx, eventID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if count >= int64(ev.TotalSeats) {
			return fmt.Errorf("%s:%w", op, ErrEventFull)
		}

		b, err := s.bookings.Insert(ctx, tx, eventID, userID)
		if err != nil {
			// The unique constraint is the backstop behind the pre-check.
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrAlreadyBooked)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		booked = b

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateEvent(ctx, eventID)
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishBookingCreated(ctx, eventID)
			}
		})

		return nil
	})

	s.observeReserve(err)

	if err != nil {
		return nil, err
	}

	return booked, nil
}

// ListAll returns every booking with its event details.
func (s *Service) ListAll(ctx context.Context) ([]domain.BookingWithEvent, error) {
	const op = "service.booking.ListAll"

	out, err := s.bookings.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListByEvent returns the bookings for one event. An unknown event yields an
// empty list, not an error.
func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]domain.BookingWithEvent, error) {
	const op = "service.booking.ListByEvent"

	out, err := s.bookings.ListByEvent(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListByUser returns the bookings one user holds across all events.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.BookingWithEvent, error) {
	const op = "service.booking.ListByUser"

	out, err := s.bookings.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// TopBookers returns the top-N users by booking count. Results are cached for
// a short TTL rather than invalidated on every commit.
func (s *Service) TopBookers(ctx context.Context, limit int) ([]domain.TopBooker, error) {
	const op = "service.booking.TopBookers"

	if limit <= 0 {
		limit = s.cfg.DefaultTopLimit
	}

	if limit > s.cfg.MaxTopLimit {
		limit = s.cfg.MaxTopLimit
	}

	if s.cache == nil {
		out, err := s.bookings.TopBookers(ctx, nil, limit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	}

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyTopBookers(limit),
		s.cfg.TopBookersTTL,
		func(ctx context.Context) ([]domain.TopBooker, error) {
			return s.bookings.TopBookers(ctx, nil, limit)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) observeReserve(err error) {
	if s.metrics == nil {
		return
	}

	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrEventNotFound):
		outcome = metrics.OutcomeNotFound
	case errors.Is(err, ErrAlreadyBooked):
		outcome = metrics.OutcomeDuplicate
	case errors.Is(err, ErrEventFull):
		outcome = metrics.OutcomeEventFull
	default:
		outcome = metrics.OutcomeError
	}

	s.metrics.ReservationsTotal.WithLabelValues(outcome).Inc()
}
