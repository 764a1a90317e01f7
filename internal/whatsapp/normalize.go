package whatsapp

import "strings"

// Normalize prefixes a local phone number with the country code so the
// gateway receives an E.164-like string. Numbers already at 12 or more
// characters pass through unchanged; a leading zero is the local trunk
// prefix and is folded into the country code.
func Normalize(raw, countryCode string) string {
	if len(raw) >= 12 {
		return raw
	}
	if strings.HasPrefix(raw, "0") {
		return strings.TrimSuffix(countryCode, "0") + raw[1:]
	}
	return countryCode + raw
}
