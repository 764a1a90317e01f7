package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tabibah/clinic-platform/internal/clinics"
	"github.com/tabibah/clinic-platform/internal/doctors"
	"github.com/tabibah/clinic-platform/internal/events"
	"github.com/tabibah/clinic-platform/internal/observability/metrics"
	"github.com/tabibah/clinic-platform/internal/patients"
	"github.com/tabibah/clinic-platform/internal/users"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// PatientDirectory resolves patients for recipient lookup.
type PatientDirectory interface {
	GetByID(ctx context.Context, id string) (*patients.Patient, error)
}

// DoctorDirectory resolves doctors for recipient lookup.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (*doctors.Doctor, error)
}

// AdminDirectory lists clinic admins for operational alerts.
type AdminDirectory interface {
	ListAdminsByClinic(ctx context.Context, clinicID string) ([]*users.User, error)
}

// WhatsAppPublisher queues a WhatsApp message for delivery.
type WhatsAppPublisher interface {
	Publish(ctx context.Context, clinicID, phone, phone2, body string) error
}

// NotificationStore persists notification rows.
type NotificationStore interface {
	Insert(ctx context.Context, n *Notification) error
}

// SettingsSource exposes per-clinic channel toggles and operational email
// recipients.
type SettingsSource interface {
	Get(ctx context.Context, clinicID string) (*clinics.Settings, error)
}

// Service fans one domain event out to its channels. The in-app notification
// row is the mandatory channel: if it cannot be written the event is left in
// the outbox for redelivery. Email and WhatsApp are best-effort; their
// failures are recorded in the fan-out report and logged, never escalated.
type Service struct {
	store    NotificationStore
	catalog  *Catalog
	email    EmailSender
	whatsapp WhatsAppPublisher
	patients PatientDirectory
	doctors  DoctorDirectory
	admins   AdminDirectory
	settings SettingsSource
	metrics  *metrics.NotificationMetrics
	logger   *logging.Logger
}

// WithSettings attaches a per-clinic settings source. Without one, every
// channel stays enabled.
func (s *Service) WithSettings(src SettingsSource) *Service {
	s.settings = src
	return s
}

// NewService creates a notification fan-out service.
func NewService(
	store NotificationStore,
	catalog *Catalog,
	email EmailSender,
	whatsapp WhatsAppPublisher,
	pd PatientDirectory,
	dd DoctorDirectory,
	ad AdminDirectory,
	m *metrics.NotificationMetrics,
	logger *logging.Logger,
) *Service {
	if store == nil {
		panic("notify: notification store required")
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		catalog:  catalog,
		email:    email,
		whatsapp: whatsapp,
		patients: pd,
		doctors:  dd,
		admins:   ad,
		metrics:  m,
		logger:   logger,
	}
}

var _ events.DeliveryHandler = (*Service)(nil)

// Handle dispatches one outbox entry to the matching fan-out. Unknown event
// types are acknowledged so they do not wedge the outbox.
func (s *Service) Handle(ctx context.Context, entry events.OutboxEntry) error {
	s.metrics.ObserveFanout(entry.Type)

	var (
		report FanoutReport
		err    error
	)
	switch entry.Type {
	case events.TypeAppointmentCreated:
		var evt events.AppointmentCreatedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		report, err = s.appointmentCreated(ctx, evt)
	case events.TypeAppointmentStatusChanged:
		var evt events.AppointmentStatusChangedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		report, err = s.appointmentStatusChanged(ctx, evt)
	case events.TypeInvoiceCreated:
		var evt events.InvoiceCreatedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		report, err = s.invoiceCreated(ctx, evt)
	case events.TypePaymentReceived:
		var evt events.PaymentReceivedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		report, err = s.paymentReceived(ctx, evt)
	case events.TypeLowStockAlert:
		var evt events.LowStockAlertV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		report, err = s.lowStock(ctx, evt)
	default:
		s.logger.Warn("unknown event type acknowledged", "type", entry.Type, "event_id", entry.ID)
		return nil
	}
	if err != nil {
		return err
	}

	for _, failure := range report.Failures() {
		s.logger.Warn("best-effort channel failed",
			"event_id", entry.ID,
			"type", entry.Type,
			"channel", failure.Channel,
			"target", failure.Target,
			"error", failure.Err,
		)
	}
	return nil
}

func (s *Service) appointmentCreated(ctx context.Context, evt events.AppointmentCreatedV1) (FanoutReport, error) {
	patient, err := s.patients.GetByID(ctx, evt.PatientID)
	if err != nil {
		return nil, fmt.Errorf("notify: resolve patient %s: %w", evt.PatientID, err)
	}
	doctor, err := s.doctors.GetByID(ctx, evt.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("notify: resolve doctor %s: %w", evt.DoctorID, err)
	}

	var report FanoutReport

	title, body := s.catalog.Render(patient.Locale, MsgAppointmentCreatedPatient, doctor.Name, evt.Date, evt.StartTime)
	if err := s.insertRow(ctx, evt.ClinicID, patient.ID, RecipientPatient, events.TypeAppointmentCreated, title, body); err != nil {
		return nil, err
	}
	report = append(report, DeliveryResult{Channel: ChannelDatabase, Target: patient.ID})

	doctorTitle, doctorBody := s.catalog.Render(DefaultLocale, MsgAppointmentCreatedDoctor, patient.Name, evt.Date, evt.StartTime)
	if err := s.insertRow(ctx, evt.ClinicID, doctor.UserID, RecipientDoctor, events.TypeAppointmentCreated, doctorTitle, doctorBody); err != nil {
		return nil, err
	}
	report = append(report, DeliveryResult{Channel: ChannelDatabase, Target: doctor.UserID})

	cfg := s.clinicSettings(ctx, evt.ClinicID)
	if cfg.EmailEnabled {
		report = append(report, s.sendEmail(ctx, patient.Email, patient.Name, title, body))
	}
	if cfg.WhatsAppEnabled {
		report = append(report, s.sendWhatsApp(ctx, evt.ClinicID, patient.Phone, body))
	}
	return report, nil
}

func (s *Service) appointmentStatusChanged(ctx context.Context, evt events.AppointmentStatusChangedV1) (FanoutReport, error) {
	patient, err := s.patients.GetByID(ctx, evt.PatientID)
	if err != nil {
		return nil, fmt.Errorf("notify: resolve patient %s: %w", evt.PatientID, err)
	}

	var report FanoutReport
	title, body := s.catalog.Render(patient.Locale, MsgAppointmentStatusChanged, evt.Date, evt.StartTime, evt.NewStatus)
	if err := s.insertRow(ctx, evt.ClinicID, patient.ID, RecipientPatient, events.TypeAppointmentStatusChanged, title, body); err != nil {
		return nil, err
	}
	report = append(report, DeliveryResult{Channel: ChannelDatabase, Target: patient.ID})
	if s.clinicSettings(ctx, evt.ClinicID).WhatsAppEnabled {
		report = append(report, s.sendWhatsApp(ctx, evt.ClinicID, patient.Phone, body))
	}
	return report, nil
}

func (s *Service) invoiceCreated(ctx context.Context, evt events.InvoiceCreatedV1) (FanoutReport, error) {
	patient, err := s.patients.GetByID(ctx, evt.PatientID)
	if err != nil {
		return nil, fmt.Errorf("notify: resolve patient %s: %w", evt.PatientID, err)
	}

	title, body := s.catalog.Render(patient.Locale, MsgInvoiceCreated, formatEGP(evt.TotalCents))
	if err := s.insertRow(ctx, evt.ClinicID, patient.ID, RecipientPatient, events.TypeInvoiceCreated, title, body); err != nil {
		return nil, err
	}
	return FanoutReport{{Channel: ChannelDatabase, Target: patient.ID}}, nil
}

func (s *Service) paymentReceived(ctx context.Context, evt events.PaymentReceivedV1) (FanoutReport, error) {
	patient, err := s.patients.GetByID(ctx, evt.PatientID)
	if err != nil {
		return nil, fmt.Errorf("notify: resolve patient %s: %w", evt.PatientID, err)
	}

	title, body := s.catalog.Render(patient.Locale, MsgPaymentReceived, formatEGP(evt.AmountCents), formatEGP(evt.RemainingCents))
	if err := s.insertRow(ctx, evt.ClinicID, patient.ID, RecipientPatient, events.TypePaymentReceived, title, body); err != nil {
		return nil, err
	}
	return FanoutReport{{Channel: ChannelDatabase, Target: patient.ID}}, nil
}

func (s *Service) lowStock(ctx context.Context, evt events.LowStockAlertV1) (FanoutReport, error) {
	if s.admins == nil {
		return nil, nil
	}
	admins, err := s.admins.ListAdminsByClinic(ctx, evt.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("notify: list admins for %s: %w", evt.ClinicID, err)
	}

	var report FanoutReport
	for _, admin := range admins {
		title, body := s.catalog.Render(admin.Locale, MsgLowStock, evt.ItemName, evt.Quantity, evt.ReorderLevel)
		if err := s.insertRow(ctx, evt.ClinicID, admin.ID, RecipientAdmin, events.TypeLowStockAlert, title, body); err != nil {
			return nil, err
		}
		report = append(report, DeliveryResult{Channel: ChannelDatabase, Target: admin.ID})
	}

	// Clinics can list operational mailboxes that get stock alerts on top of
	// the in-app rows.
	cfg := s.clinicSettings(ctx, evt.ClinicID)
	if cfg.EmailEnabled && len(cfg.NotifyEmails) > 0 {
		title, body := s.catalog.Render(DefaultLocale, MsgLowStock, evt.ItemName, evt.Quantity, evt.ReorderLevel)
		for _, to := range cfg.NotifyEmails {
			report = append(report, s.sendEmail(ctx, to, "", title, body))
		}
	}
	return report, nil
}

func (s *Service) clinicSettings(ctx context.Context, clinicID string) *clinics.Settings {
	if s.settings == nil {
		return clinics.DefaultSettings(clinicID)
	}
	cfg, err := s.settings.Get(ctx, clinicID)
	if err != nil || cfg == nil {
		return clinics.DefaultSettings(clinicID)
	}
	return cfg
}

func (s *Service) insertRow(ctx context.Context, clinicID, recipientID, recipientType, eventType, title, body string) error {
	n := &Notification{
		ClinicID:      clinicID,
		RecipientID:   recipientID,
		RecipientType: recipientType,
		EventType:     eventType,
		Title:         title,
		Body:          body,
	}
	if err := s.store.Insert(ctx, n); err != nil {
		s.metrics.ObserveChannel(ChannelDatabase, "error")
		return err
	}
	s.metrics.ObserveChannel(ChannelDatabase, "ok")
	return nil
}

func (s *Service) sendEmail(ctx context.Context, to, toName, subject, body string) DeliveryResult {
	if s.email == nil || to == "" {
		return DeliveryResult{Channel: ChannelEmail, Target: to}
	}
	err := s.email.Send(ctx, EmailMessage{To: to, ToName: toName, Subject: subject, Body: body})
	if err != nil {
		s.metrics.ObserveChannel(ChannelEmail, "error")
	} else {
		s.metrics.ObserveChannel(ChannelEmail, "ok")
	}
	return DeliveryResult{Channel: ChannelEmail, Target: to, Err: err}
}

func (s *Service) sendWhatsApp(ctx context.Context, clinicID, phone, body string) DeliveryResult {
	if s.whatsapp == nil || phone == "" {
		return DeliveryResult{Channel: ChannelWhatsApp, Target: phone}
	}
	err := s.whatsapp.Publish(ctx, clinicID, phone, "", body)
	if err != nil {
		s.metrics.ObserveChannel(ChannelWhatsApp, "error")
	} else {
		s.metrics.ObserveChannel(ChannelWhatsApp, "ok")
	}
	return DeliveryResult{Channel: ChannelWhatsApp, Target: phone, Err: err}
}

func formatEGP(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
