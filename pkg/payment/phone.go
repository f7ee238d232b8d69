package payment

import (
	"regexp"
	"strings"
)

var bareMobile = regexp.MustCompile(`^7\d{8}$`)

// NormalizePhone converts user-supplied phone numbers to the 2547XXXXXXXX
// form M-Pesa expects: "+2547...", "07..." and bare "7..." all map to the
// same canonical number. Unrecognized input passes through unchanged so
// the gateway gets to reject it.
func NormalizePhone(phone string) string {
	s := strings.Join(strings.Fields(phone), "")
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "0") {
		return "254" + s[1:]
	}
	if !strings.HasPrefix(s, "254") && bareMobile.MatchString(s) {
		return "254" + s
	}
	return s
}
