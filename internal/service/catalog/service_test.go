package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okseniuk/book-go/internal/domain"
	"github.com/okseniuk/book-go/internal/repository"
	postgresrepo "github.com/okseniuk/book-go/internal/repository/postgres"
)

type fakeEvents struct {
	nextID int64
	events map[int64]domain.Event
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[int64]domain.Event)}
}

func (f *fakeEvents) Create(ctx context.Context, db postgresrepo.DB, name string, totalSeats int) (int64, error) {
	f.nextID++
	f.events[f.nextID] = domain.Event{ID: f.nextID, Name: name, TotalSeats: totalSeats}
	return f.nextID, nil
}

func (f *fakeEvents) Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (f *fakeEvents) List(ctx context.Context, db postgresrepo.DB) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

type fakeCounter struct {
	counts map[int64]int64
}

func (f *fakeCounter) CountByEvent(ctx context.Context, db postgresrepo.DB, eventID int64) (int64, error) {
	return f.counts[eventID], nil
}

func TestCreateEvent(t *testing.T) {
	events := newFakeEvents()
	svc := New(events, &fakeCounter{}, nil, Config{})

	e, err := svc.CreateEvent(context.Background(), "concert", 100)
	require.NoError(t, err)

	assert.NotZero(t, e.ID)
	assert.Equal(t, "concert", e.Name)
	assert.Equal(t, 100, e.TotalSeats)
}

func TestCreateEvent_NegativeCapacity(t *testing.T) {
	svc := New(newFakeEvents(), &fakeCounter{}, nil, Config{})

	_, err := svc.CreateEvent(context.Background(), "broken", -1)
	require.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestCreateEvent_ZeroCapacityAllowed(t *testing.T) {
	svc := New(newFakeEvents(), &fakeCounter{}, nil, Config{})

	e, err := svc.CreateEvent(context.Background(), "waitlist only", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, e.TotalSeats)
}

func TestGetEvent(t *testing.T) {
	events := newFakeEvents()
	events.events[7] = domain.Event{ID: 7, Name: "gig", TotalSeats: 5}
	svc := New(events, &fakeCounter{}, nil, Config{})

	e, err := svc.GetEvent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "gig", e.Name)

	_, err = svc.GetEvent(context.Background(), 8)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestAvailability(t *testing.T) {
	events := newFakeEvents()
	events.events[1] = domain.Event{ID: 1, Name: "gig", TotalSeats: 10}
	counter := &fakeCounter{counts: map[int64]int64{1: 4}}
	svc := New(events, counter, nil, Config{})

	a, err := svc.Availability(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.EventID)
	assert.Equal(t, 10, a.TotalSeats)
	assert.Equal(t, int64(4), a.Booked)
	assert.Equal(t, int64(6), a.Available)
}

func TestAvailability_NeverNegative(t *testing.T) {
	events := newFakeEvents()
	events.events[1] = domain.Event{ID: 1, Name: "gig", TotalSeats: 3}
	counter := &fakeCounter{counts: map[int64]int64{1: 5}}
	svc := New(events, counter, nil, Config{})

	a, err := svc.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.Available)
}

func TestAvailability_EventNotFound(t *testing.T) {
	svc := New(newFakeEvents(), &fakeCounter{}, nil, Config{})

	_, err := svc.Availability(context.Background(), 99)
	require.ErrorIs(t, err, ErrEventNotFound)
}
