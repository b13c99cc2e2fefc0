package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okseniuk/book-go/internal/domain"
	"github.com/okseniuk/book-go/internal/repository"
	postgresrepo "github.com/okseniuk/book-go/internal/repository/postgres"
	redisrepo "github.com/okseniuk/book-go/internal/repository/redis"
)

// EventStore is the event catalog's slice of the repositories. The catalog is
// the sole writer of event rows; capacity is fixed at creation.
type EventStore interface {
	Create(ctx context.Context, db postgresrepo.DB, name string, totalSeats int) (int64, error)
	Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Event, error)
	List(ctx context.Context, db postgresrepo.DB) ([]domain.Event, error)
}

type BookingCounter interface {
	CountByEvent(ctx context.Context, db postgresrepo.DB, eventID int64) (int64, error)
}

type Config struct {
	EventSummaryTTL time.Duration
	AvailabilityTTL time.Duration
}

type Service struct {
	events   EventStore
	bookings BookingCounter
	cache    *redisrepo.Cache
	cfg      Config
}

func New(events EventStore, bookings BookingCounter, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	return &Service{
		events:   events,
		bookings: bookings,
		cache:    cache,
		cfg:      cfg,
	}
}

// CreateEvent creates an event with a fixed seat capacity and returns it.
//
// Returns:
//   - error: catalog.ErrInvalidCapacity if totalSeats is negative.
func (s *Service) CreateEvent(ctx context.Context, name string, totalSeats int) (*domain.Event, error) {
	const op = "service.catalog.CreateEvent"

	if totalSeats < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCapacity)
	}

	id, err := s.events.Create(ctx, nil, name, totalSeats)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.Event{ID: id, Name: name, TotalSeats: totalSeats}, nil
}

// GetEvent retrieves an event by ID through the cache.
//
// Returns:
//   - error: catalog.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.catalog.GetEvent"

	load := func(ctx context.Context) (domain.Event, error) {
		e, err := s.events.Get(ctx, nil, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Event{}, ErrEventNotFound
			}

			return domain.Event{}, err
		}

		return *e, nil
	}

	if s.cache == nil {
		e, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &e, nil
	}

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventSummary(id),
		s.cfg.EventSummaryTTL,
		load,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListEvents lists all events.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const op = "service.catalog.ListEvents"

	out, err := s.events.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Availability returns the seat counters for an event. It is a plain read
// with no transactional coupling to reservations: the committed count may
// change right after it is observed.
//
// Returns:
//   - error: catalog.ErrEventNotFound if the event is not found.
func (s *Service) Availability(ctx context.Context, eventID int64) (*domain.EventAvailability, error) {
	const op = "service.catalog.Availability"

	load := func(ctx context.Context) (domain.EventAvailability, error) {
		e, err := s.events.Get(ctx, nil, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.EventAvailability{}, ErrEventNotFound
			}

			return domain.EventAvailability{}, err
		}

		booked, err := s.bookings.CountByEvent(ctx, nil, eventID)
		if err != nil {
			return domain.EventAvailability{}, err
		}

		avail := int64(e.TotalSeats) - booked
		if avail < 0 {
			avail = 0
		}

		return domain.EventAvailability{
			EventID:    e.ID,
			TotalSeats: e.TotalSeats,
			Booked:     booked,
			Available:  avail,
		}, nil
	}

	if s.cache == nil {
		a, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &a, nil
	}

	a, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventAvailability(eventID),
		s.cfg.AvailabilityTTL,
		load,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &a, nil
}
