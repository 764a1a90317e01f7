package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking flow.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	slotQueriesTotal prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"status"}),
		slotQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_queries_total",
			Help:      "Total slot-availability queries",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotQueriesTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveSlotQuery() {
	if m == nil {
		return
	}
	m.slotQueriesTotal.Inc()
}

// NotificationMetrics exposes counters for the notification fan-out and the
// WhatsApp delivery worker.
type NotificationMetrics struct {
	fanoutTotal           *prometheus.CounterVec
	channelTotal          *prometheus.CounterVec
	deliveryAttemptsTotal *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	m := &NotificationMetrics{
		fanoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "notify",
			Name:      "fanout_total",
			Help:      "Total domain events fanned out",
		}, []string{"event_type"}),
		channelTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "notify",
			Name:      "channel_total",
			Help:      "Per-channel delivery outcomes",
		}, []string{"channel", "status"}),
		deliveryAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "notify",
			Name:      "delivery_attempts_total",
			Help:      "WhatsApp delivery worker attempts",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fanoutTotal, m.channelTotal, m.deliveryAttemptsTotal)
	return m
}

func (m *NotificationMetrics) ObserveFanout(eventType string) {
	if m == nil {
		return
	}
	m.fanoutTotal.WithLabelValues(eventType).Inc()
}

func (m *NotificationMetrics) ObserveChannel(channel, status string) {
	if m == nil {
		return
	}
	m.channelTotal.WithLabelValues(channel, status).Inc()
}

func (m *NotificationMetrics) ObserveDeliveryAttempt(outcome string) {
	if m == nil {
		return
	}
	m.deliveryAttemptsTotal.WithLabelValues(outcome).Inc()
}
