package httpgin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okseniuk/book-go/internal/domain"
	"github.com/okseniuk/book-go/internal/repository"
	postgresrepo "github.com/okseniuk/book-go/internal/repository/postgres"
	"github.com/okseniuk/book-go/internal/service"
	"github.com/okseniuk/book-go/internal/service/booking"
	"github.com/okseniuk/book-go/internal/service/catalog"
	"github.com/okseniuk/book-go/internal/uow"
)

// fakeStore backs the handlers with in-memory state. It satisfies every
// repository interface the two services consume.
type fakeStore struct {
	mu          sync.Mutex
	events      map[int64]domain.Event
	bookings    []domain.Booking
	nextEventID int64
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[int64]domain.Event)}
}

func (s *fakeStore) addEvent(name string, totalSeats int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	s.events[s.nextEventID] = domain.Event{ID: s.nextEventID, Name: name, TotalSeats: totalSeats}
	return s.nextEventID
}

func (s *fakeStore) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error,
) error {
	var hooks []uow.AfterCommit
	if err := fn(ctx, nil, func(h uow.AfterCommit) { hooks = append(hooks, h) }); err != nil {
		return err
	}
	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

func (s *fakeStore) Create(ctx context.Context, db postgresrepo.DB, name string, totalSeats int) (int64, error) {
	return s.addEvent(name, totalSeats), nil
}

func (s *fakeStore) Get(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s *fakeStore) GetForUpdate(ctx context.Context, db postgresrepo.DB, id int64) (*domain.Event, error) {
	return s.Get(ctx, db, id)
}

func (s *fakeStore) List(ctx context.Context, db postgresrepo.DB) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) FindByEventAndUser(ctx context.Context, db postgresrepo.DB, eventID int64, userID string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.EventID == eventID && b.UserID == userID {
			found := b
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) CountByEvent(ctx context.Context, db postgresrepo.DB, eventID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bookings {
		if b.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Insert(ctx context.Context, db postgresrepo.DB, eventID int64, userID string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.EventID == eventID && b.UserID == userID {
			return nil, repository.ErrConflict
		}
	}
	s.nextID++
	b := domain.Booking{ID: s.nextID, EventID: eventID, UserID: userID, CreatedAt: time.Now()}
	s.bookings = append(s.bookings, b)
	return &b, nil
}

func (s *fakeStore) withEvent(b domain.Booking) domain.BookingWithEvent {
	out := domain.BookingWithEvent{Booking: b}
	if e, ok := s.events[b.EventID]; ok {
		out.Event = e
	}
	return out
}

func (s *fakeStore) ListAll(ctx context.Context, db postgresrepo.DB) ([]domain.BookingWithEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BookingWithEvent, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, s.withEvent(b))
	}
	return out, nil
}

func (s *fakeStore) ListByEvent(ctx context.Context, db postgresrepo.DB, eventID int64) ([]domain.BookingWithEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BookingWithEvent
	for _, b := range s.bookings {
		if b.EventID == eventID {
			out = append(out, s.withEvent(b))
		}
	}
	return out, nil
}

func (s *fakeStore) ListByUser(ctx context.Context, db postgresrepo.DB, userID string) ([]domain.BookingWithEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BookingWithEvent
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, s.withEvent(b))
		}
	}
	return out, nil
}

func (s *fakeStore) TopBookers(ctx context.Context, db postgresrepo.DB, limit int) ([]domain.TopBooker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range s.bookings {
		counts[b.UserID]++
	}
	out := make([]domain.TopBooker, 0, len(counts))
	for userID, n := range counts {
		out = append(out, domain.TopBooker{UserID: userID, BookingCount: n})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Place = i + 1
	}
	return out, nil
}

func newTestRouter(store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svcs := &service.Services{
		Booking: booking.New(store, store, store, nil, nil, nil, booking.Config{}),
		Catalog: catalog.New(store, store, nil, catalog.Config{}),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(svcs, nil, nil, nil, logger)
}

func doRequest(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := doRequest(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReserve_Created(t *testing.T) {
	store := newFakeStore()
	eventID := store.addEvent("concert", 10)
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":1,"user_id":"alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var b domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, eventID, b.EventID)
	assert.Equal(t, "alice", b.UserID)
	assert.NotZero(t, b.ID)
}

func TestReserve_BadRequests(t *testing.T) {
	r := newTestRouter(newFakeStore())

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing user", `{"event_id":1}`},
		{"missing event", `{"user_id":"alice"}`},
		{"zero event id", `{"event_id":0,"user_id":"alice"}`},
		{"negative event id", `{"event_id":-1,"user_id":"alice"}`},
		{"not json", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/bookings/reserve", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestReserve_EventNotFound(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":42,"user_id":"alice"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"event not found"}`, w.Body.String())
}

func TestReserve_Duplicate(t *testing.T) {
	store := newFakeStore()
	store.addEvent("concert", 10)
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":1,"user_id":"alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":1,"user_id":"alice"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"user already booked this event"}`, w.Body.String())
}

func TestReserve_EventFull(t *testing.T) {
	store := newFakeStore()
	store.addEvent("tiny", 1)
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":1,"user_id":"alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":1,"user_id":"bob"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"no seats available for this event"}`, w.Body.String())
}

func TestGetEvent(t *testing.T) {
	store := newFakeStore()
	store.addEvent("concert", 10)
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/events/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var e domain.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "concert", e.Name)
	assert.Equal(t, 10, e.TotalSeats)

	w = doRequest(r, http.MethodGet, "/api/events/99", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/api/events/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAvailability(t *testing.T) {
	store := newFakeStore()
	store.addEvent("concert", 10)
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":1,"user_id":"alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/api/events/1/availability", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var a domain.EventAvailability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, int64(1), a.Booked)
	assert.Equal(t, int64(9), a.Available)
}

func TestCreateEvent(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := doRequest(r, http.MethodPost, "/admin/events",
		`{"name":"concert","total_seats":100}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.EventID)
}

func TestCreateEvent_NegativeSeats(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := doRequest(r, http.MethodPost, "/admin/events",
		`{"name":"broken","total_seats":-1}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBookingsByUser(t *testing.T) {
	store := newFakeStore()
	store.addEvent("one", 10)
	store.addEvent("two", 10)
	r := newTestRouter(store)

	for _, body := range []string{
		`{"event_id":1,"user_id":"alice"}`,
		`{"event_id":2,"user_id":"alice"}`,
		`{"event_id":1,"user_id":"bob"}`,
	} {
		w := doRequest(r, http.MethodPost, "/api/bookings/reserve", body, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(r, http.MethodGet, "/api/bookings/user/alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out []domain.BookingWithEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 2)
}

func TestListBookingsByEvent_Unknown(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := doRequest(r, http.MethodGet, "/api/bookings/event/99", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestTopBookersEndpoint(t *testing.T) {
	store := newFakeStore()
	store.addEvent("one", 10)
	r := newTestRouter(store)

	w := doRequest(r, http.MethodPost, "/api/bookings/reserve",
		`{"event_id":1,"user_id":"alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/api/bookings/top?limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out []domain.TopBooker
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "alice", out[0].UserID)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := doRequest(r, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = doRequest(r, http.MethodGet, "/healthz", "", map[string]string{
		"X-Request-ID": "req-123",
	})
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestETagNotModified(t *testing.T) {
	store := newFakeStore()
	store.addEvent("concert", 10)
	r := newTestRouter(store)

	w := doRequest(r, http.MethodGet, "/api/events/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age")

	w = doRequest(r, http.MethodGet, "/api/events/1", "", map[string]string{
		"If-None-Match": tag,
	})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 10, parseIntDefault("", 10))
	assert.Equal(t, 5, parseIntDefault("5", 10))
	assert.Equal(t, 10, parseIntDefault("junk", 10))
}
