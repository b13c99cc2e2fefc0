package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/events", "200").Inc()
	m.HTTPRequestDuration.WithLabelValues("GET", "/api/events").Observe(0.01)
	m.ReservationsTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.ReservationsTotal.WithLabelValues(OutcomeEventFull).Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/events", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReservationsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ReservationsTotal.WithLabelValues(OutcomeEventFull)))
}

func TestNewWithRegistry_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWithRegistry(reg)

	require.Panics(t, func() {
		NewWithRegistry(reg)
	})
}
