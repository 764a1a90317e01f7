package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveBooking("created")
	m.ObserveBooking("conflict")
	m.ObserveSlotQuery()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if got := counterValue(families, "clinic_booking_slot_queries_total"); got != 1 {
		t.Fatalf("expected one slot query, got %v", got)
	}
}

func TestNotificationMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewNotificationMetrics(reg)
	m.ObserveFanout("appointment.created.v1")
	m.ObserveChannel("email", "failed")
	m.ObserveChannel("whatsapp", "queued")
	m.ObserveDeliveryAttempt("sent")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if got := counterValue(families, "clinic_notify_fanout_total"); got != 1 {
		t.Fatalf("expected one fanout observation, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var b *BookingMetrics
	b.ObserveBooking("created")
	b.ObserveSlotQuery()

	var n *NotificationMetrics
	n.ObserveFanout("event")
	n.ObserveChannel("email", "delivered")
	n.ObserveDeliveryAttempt("dead")
}

func counterValue(families []*dto.MetricFamily, name string) float64 {
	var total float64
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
