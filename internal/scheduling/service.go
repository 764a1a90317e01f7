package scheduling

import (
	"context"
	"time"

	"github.com/tabibah/clinic-platform/internal/clinics"
	"github.com/tabibah/clinic-platform/internal/doctors"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// DoctorDirectory looks up doctors.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (*doctors.Doctor, error)
}

// BookedTimesSource lists appointment start times that block a slot.
type BookedTimesSource interface {
	ListBookedTimes(ctx context.Context, doctorID, date string) ([]string, error)
}

// SettingsSource retrieves per-clinic scheduling settings.
type SettingsSource interface {
	Get(ctx context.Context, clinicID string) (*clinics.Settings, error)
}

var nowFunc = time.Now

// Service answers slot-availability queries.
type Service struct {
	calc          *Calculator
	doctors       DoctorDirectory
	booked        BookedTimesSource
	settings      SettingsSource
	defaultWindow Window
	logger        *logging.Logger
}

// NewService constructs a slot-availability service. settings may be nil, in
// which case the default window covers doctors without explicit hours.
func NewService(calc *Calculator, dir DoctorDirectory, booked BookedTimesSource, settings SettingsSource, defaultWindow Window, logger *logging.Logger) *Service {
	if calc == nil {
		calc = NewCalculator(30)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		calc:          calc,
		doctors:       dir,
		booked:        booked,
		settings:      settings,
		defaultWindow: defaultWindow,
		logger:        logger,
	}
}

// AvailableSlots returns the bookable slot start times for a doctor on a date.
// Only appointments in a blocking status (pending, confirmed) occupy slots.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, ErrBadDate
	}
	// ISO dates compare lexically; comparing formatted strings keeps "today"
	// anchored to the server clock's own calendar day.
	if date < nowFunc().Format("2006-01-02") {
		return nil, ErrPastDate
	}

	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	window := Window{From: doc.AvailableFrom, To: doc.AvailableTo}
	calc := s.calc
	if cfg := s.clinicSettings(ctx, doc.ClinicID); cfg != nil {
		if cfg.SlotIntervalMinutes > 0 {
			calc = NewCalculator(cfg.SlotIntervalMinutes)
		}
		if (window.From == "" || window.To == "") && cfg.DayStart != "" && cfg.DayEnd != "" {
			window = Window{From: cfg.DayStart, To: cfg.DayEnd}
		}
	}
	if window.From == "" || window.To == "" {
		window = s.defaultWindow
	}

	times, err := s.booked.ListBookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	slots, err := calc.Slots(window, BookedSet(times))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("computed available slots",
		"doctor_id", doctorID,
		"date", date,
		"booked", len(times),
		"available", len(slots),
	)
	return slots, nil
}

func (s *Service) clinicSettings(ctx context.Context, clinicID string) *clinics.Settings {
	if s.settings == nil {
		return nil
	}
	cfg, err := s.settings.Get(ctx, clinicID)
	if err != nil {
		s.logger.Debug("clinic settings unavailable", "clinic_id", clinicID, "error", err)
		return nil
	}
	return cfg
}
