package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("healthmate", reg)

	m.Bookings.WithLabelValues(BookingBooked).Inc()
	m.Bookings.WithLabelValues(BookingConflict).Add(2)
	m.StatusTransitions.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Bookings.WithLabelValues(BookingBooked)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Bookings.WithLabelValues(BookingConflict)))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["healthmate_bookings_total"])
	assert.True(t, names["healthmate_status_transitions_total"])
}

func TestNewNoopIsIsolated(t *testing.T) {
	a := NewNoop()
	b := NewNoop()
	a.StatusTransitions.Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.StatusTransitions))
}
