package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tabibah/clinic-platform/internal/whatsapp"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// Job is the payload carried on the queue for one WhatsApp send.
type Job struct {
	DeliveryID   uuid.UUID `json:"delivery_id"`
	PhoneNumber  string    `json:"phone_number"`
	PhoneNumber2 string    `json:"phone_number2,omitempty"`
	Body         string    `json:"body"`
	Attempts     int       `json:"attempts"`
}

// journalWriter is the slice of Journal the publisher needs.
type journalWriter interface {
	Insert(ctx context.Context, d *Delivery) error
}

// Publisher normalizes recipients, journals the delivery, and enqueues the
// send job. The journal row is written before the queue send so a crashed
// enqueue is still visible.
type Publisher struct {
	queue       Queue
	journal     journalWriter
	countryCode string
	logger      *logging.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(queue Queue, journal journalWriter, countryCode string, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:       queue,
		journal:     journal,
		countryCode: countryCode,
		logger:      logger,
	}
}

// Publish queues one WhatsApp message for delivery.
func (p *Publisher) Publish(ctx context.Context, clinicID, phone, phone2, body string) error {
	if p.queue == nil {
		return fmt.Errorf("delivery: no queue configured")
	}

	d := &Delivery{
		ClinicID:     clinicID,
		PhoneNumber:  whatsapp.Normalize(phone, p.countryCode),
		PhoneNumber2: phone2,
		Body:         body,
	}
	if d.PhoneNumber2 != "" {
		d.PhoneNumber2 = whatsapp.Normalize(phone2, p.countryCode)
	}
	if p.journal != nil {
		if err := p.journal.Insert(ctx, d); err != nil {
			return err
		}
	} else {
		d.ID = uuid.New()
	}

	payload, err := json.Marshal(Job{
		DeliveryID:   d.ID,
		PhoneNumber:  d.PhoneNumber,
		PhoneNumber2: d.PhoneNumber2,
		Body:         d.Body,
	})
	if err != nil {
		return fmt.Errorf("delivery: marshal job: %w", err)
	}
	if err := p.queue.Send(ctx, string(payload)); err != nil {
		return err
	}
	p.logger.Debug("whatsapp delivery queued", "delivery_id", d.ID, "clinic_id", clinicID)
	return nil
}
