package notify

import "fmt"

// Catalog message keys.
const (
	MsgAppointmentCreatedPatient = "appointment_created_patient"
	MsgAppointmentCreatedDoctor  = "appointment_created_doctor"
	MsgAppointmentStatusChanged  = "appointment_status_changed"
	MsgInvoiceCreated            = "invoice_created"
	MsgPaymentReceived           = "payment_received"
	MsgLowStock                  = "low_stock"
)

// DefaultLocale is the fallback for unknown or empty locales.
const DefaultLocale = "en"

type message struct {
	title string
	body  string
}

// Catalog maps (locale, key) to a notification template. Arguments are
// positional fmt verbs; each key takes the same arguments in every locale.
type Catalog struct {
	messages map[string]map[string]message
}

// NewCatalog returns the built-in English/Arabic catalog.
func NewCatalog() *Catalog {
	return &Catalog{messages: map[string]map[string]message{
		"en": {
			MsgAppointmentCreatedPatient: {
				title: "Appointment booked",
				body:  "Your appointment with Dr. %s on %s at %s has been received.",
			},
			MsgAppointmentCreatedDoctor: {
				title: "New appointment",
				body:  "%s booked an appointment on %s at %s.",
			},
			MsgAppointmentStatusChanged: {
				title: "Appointment update",
				body:  "Your appointment on %s at %s is now %s.",
			},
			MsgInvoiceCreated: {
				title: "New invoice",
				body:  "An invoice of %s EGP has been issued for you.",
			},
			MsgPaymentReceived: {
				title: "Payment received",
				body:  "We received your payment of %s EGP. Remaining balance: %s EGP.",
			},
			MsgLowStock: {
				title: "Low stock alert",
				body:  "Item %s is down to %d units (reorder at %d).",
			},
		},
		"ar": {
			MsgAppointmentCreatedPatient: {
				title: "تم حجز الموعد",
				body:  "تم استلام حجزك مع د. %s يوم %s الساعة %s.",
			},
			MsgAppointmentCreatedDoctor: {
				title: "موعد جديد",
				body:  "قام %s بحجز موعد يوم %s الساعة %s.",
			},
			MsgAppointmentStatusChanged: {
				title: "تحديث الموعد",
				body:  "موعدك يوم %s الساعة %s أصبح %s.",
			},
			MsgInvoiceCreated: {
				title: "فاتورة جديدة",
				body:  "تم إصدار فاتورة بقيمة %s جنيه.",
			},
			MsgPaymentReceived: {
				title: "تم استلام الدفعة",
				body:  "استلمنا دفعتك بقيمة %s جنيه. المتبقي: %s جنيه.",
			},
			MsgLowStock: {
				title: "تنبيه انخفاض المخزون",
				body:  "الصنف %s انخفض إلى %d وحدة (حد إعادة الطلب %d).",
			},
		},
	}}
}

// Render returns the localized title and body for a message key. Unknown
// locales fall back to English; an unknown key falls back to the key itself
// so a catalog gap never drops a notification.
func (c *Catalog) Render(locale, key string, args ...any) (title, body string) {
	msgs, ok := c.messages[locale]
	if !ok {
		msgs = c.messages[DefaultLocale]
	}
	msg, ok := msgs[key]
	if !ok {
		if msg, ok = c.messages[DefaultLocale][key]; !ok {
			return key, key
		}
	}
	return msg.title, fmt.Sprintf(msg.body, args...)
}
