package notify

// Delivery channels.
const (
	ChannelDatabase = "database"
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// DeliveryResult records the outcome of one channel attempt. The database
// channel is mandatory; email and WhatsApp are best-effort and their failures
// are reported here instead of failing the fan-out.
type DeliveryResult struct {
	Channel string
	Target  string
	Err     error
}

// Delivered reports whether the channel attempt succeeded.
func (r DeliveryResult) Delivered() bool {
	return r.Err == nil
}

// FanoutReport collects per-channel outcomes for one handled event.
type FanoutReport []DeliveryResult

// Failures returns the channel attempts that did not go through.
func (rep FanoutReport) Failures() []DeliveryResult {
	var out []DeliveryResult
	for _, r := range rep {
		if !r.Delivered() {
			out = append(out, r)
		}
	}
	return out
}
