package service

import (
	"github.com/okseniuk/book-go/internal/pkg/metrics"
	postgres "github.com/okseniuk/book-go/internal/repository/postgres"
	redis "github.com/okseniuk/book-go/internal/repository/redis"
	"github.com/okseniuk/book-go/internal/service/booking"
	"github.com/okseniuk/book-go/internal/service/catalog"
	"github.com/okseniuk/book-go/internal/uow"
)

type Services struct {
	Booking *booking.Service
	Catalog *catalog.Service
}

type Config struct {
	Booking booking.Config
	Catalog catalog.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.BookingsPubSub,
	m *metrics.Metrics,
	cfg Config,
) *Services {
	return &Services{
		Booking: booking.New(
			store.Events(),
			store.Bookings(),
			uow.NewUoW(store),
			cache,
			pubsub,
			m,
			cfg.Booking,
		),
		Catalog: catalog.New(store.Events(), store.Bookings(), cache, cfg.Catalog),
	}
}
