// Package router assembles the HTTP surface of the clinic platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tabibah/clinic-platform/internal/appointments"
	"github.com/tabibah/clinic-platform/internal/devices"
	httpmiddleware "github.com/tabibah/clinic-platform/internal/http/middleware"
	"github.com/tabibah/clinic-platform/internal/inventory"
	"github.com/tabibah/clinic-platform/internal/invoices"
	"github.com/tabibah/clinic-platform/internal/notify"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	NotifyHandler       *notify.Handler
	DevicesHandler      *devices.Handler
	InvoicesHandler     *invoices.Handler
	InventoryHandler    *inventory.Handler
	MetricsHandler      http.Handler
	AuthJWTSecret       string
	CORSAllowedOrigins  []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, website booking widget.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AppointmentsHandler != nil {
			public.Get("/api/website/available-slots", cfg.AppointmentsHandler.AvailableSlots)
			public.Post("/api/website/booking", cfg.AppointmentsHandler.CreateWebsiteBooking)
		}
	})

	// Bearer-authenticated mobile and back-office endpoints.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.BearerAuth(cfg.AuthJWTSecret))

		if cfg.AppointmentsHandler != nil {
			private.Route("/api/mobile/patient/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.CreatePatientAppointment)
				r.Get("/", cfg.AppointmentsHandler.ListPatientAppointments)
				r.Put("/{id}/cancel", cfg.AppointmentsHandler.CancelAppointment)
			})
			private.Route("/api/mobile/doctor/appointments", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.ListDoctorAppointments)
				r.Put("/{id}/status", cfg.AppointmentsHandler.UpdateAppointmentStatus)
			})
		}

		if cfg.NotifyHandler != nil {
			private.Route("/api/notifications", func(r chi.Router) {
				r.Get("/", cfg.NotifyHandler.List)
				r.Get("/unread-count", cfg.NotifyHandler.UnreadCount)
				r.Put("/read-all", cfg.NotifyHandler.MarkAllRead)
				r.Put("/{id}/read", cfg.NotifyHandler.MarkRead)
				r.Delete("/{id}", cfg.NotifyHandler.Delete)
			})
		}

		if cfg.DevicesHandler != nil {
			private.Route("/api/mobile/devices", func(r chi.Router) {
				r.Get("/", cfg.DevicesHandler.List)
				r.Post("/", cfg.DevicesHandler.Register)
				r.Delete("/", cfg.DevicesHandler.Unregister)
			})
		}

		if cfg.InvoicesHandler != nil {
			private.Route("/api/invoices", func(r chi.Router) {
				r.Post("/", cfg.InvoicesHandler.Create)
				r.Get("/", cfg.InvoicesHandler.ListByPatient)
				r.Get("/{id}", cfg.InvoicesHandler.Get)
				r.Post("/{id}/payments", cfg.InvoicesHandler.Pay)
			})
		}

		if cfg.InventoryHandler != nil {
			private.Route("/api/inventory", func(r chi.Router) {
				r.Get("/", cfg.InventoryHandler.List)
				r.Post("/", cfg.InventoryHandler.Create)
				r.Post("/{id}/consume", cfg.InventoryHandler.Consume)
				r.Post("/{id}/restock", cfg.InventoryHandler.Restock)
			})
		}
	})

	return r
}
