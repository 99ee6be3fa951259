package leads

import (
	"strings"
	"unicode"
)

// MinPhoneDigits is the fewest digit characters an acceptable phone may contain
const MinPhoneDigits = 6

// Fields holds the free-text values of a lead form. The client and the
// server both validate through it so their rules cannot drift apart.
type Fields struct {
	Name     string
	Phone    string
	Telegram string
	WhatsApp string
	Website  string
	Course   string
	Budget   string
	Source   string
}

// Normalize trims every field and folds the legacy course field into website.
func (f *Fields) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Telegram = strings.TrimSpace(f.Telegram)
	f.WhatsApp = strings.TrimSpace(f.WhatsApp)
	f.Website = strings.TrimSpace(f.Website)
	f.Course = strings.TrimSpace(f.Course)
	f.Budget = strings.TrimSpace(f.Budget)
	f.Source = strings.TrimSpace(f.Source)
	if f.Website == "" {
		f.Website = f.Course
	}
	f.Course = ""
}

// Policy selects which optional requirements are enforced.
type Policy struct {
	RequireName           bool
	RequireContactChannel bool
}

// StrictPolicy is what the intake endpoint enforces.
var StrictPolicy = Policy{RequireName: true, RequireContactChannel: true}

// Validate checks normalized fields against the policy and returns the first
// failing rule.
func (f Fields) Validate(p Policy, consent bool) error {
	if p.RequireName && f.Name == "" {
		return ErrNameRequired
	}
	if len(PhoneDigits(f.Phone)) < MinPhoneDigits {
		return ErrPhoneRequired
	}
	if p.RequireContactChannel && f.Telegram == "" && f.WhatsApp == "" {
		return ErrContactRequired
	}
	if !consent {
		return ErrConsentRequired
	}
	return nil
}

// PhoneDigits strips everything but ASCII digits. It is only used to measure
// the phone; the raw value is what gets stored.
func PhoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// IsTruthy reports whether a checkbox value means "checked".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimFunc(v, unicode.IsSpace)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}
