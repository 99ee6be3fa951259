package leads

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultSource is stored when the submission does not name one
const DefaultSource = "site"

// Lead represents a persisted lead record
type Lead struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Telegram  *string         `json:"telegram"`
	WhatsApp  *string         `json:"whatsapp"`
	Website   *string         `json:"website"`
	Budget    *string         `json:"budget"`
	Source    string          `json:"source"`
	UTM       json.RawMessage `json:"utm"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// Submission is the JSON body posted by the lead form
type Submission struct {
	Name     Text            `json:"name"`
	Phone    Text            `json:"phone"`
	Telegram Text            `json:"telegram"`
	WhatsApp Text            `json:"whatsapp"`
	Website  Text            `json:"website"`
	Course   Text            `json:"course"` // legacy alias of website
	Budget   Text            `json:"budget"`
	Source   Text            `json:"source"`
	UTM      json.RawMessage `json:"utm"`
	Consent  Consent         `json:"consent"`
	Honeypot Text            `json:"hp"`
	TS       Timestamp       `json:"ts"`
}

// Fields returns the trimmed text fields with legacy aliases folded in.
func (s *Submission) Fields() Fields {
	f := Fields{
		Name:     string(s.Name),
		Phone:    string(s.Phone),
		Telegram: string(s.Telegram),
		WhatsApp: string(s.WhatsApp),
		Website:  string(s.Website),
		Course:   string(s.Course),
		Budget:   string(s.Budget),
		Source:   string(s.Source),
	}
	f.Normalize()
	return f
}

// ToLead builds the record to insert. Consent, honeypot and timestamp are
// request-only and never reach the store.
func (s *Submission) ToLead() *Lead {
	f := s.Fields()
	source := f.Source
	if source == "" {
		source = DefaultSource
	}
	return &Lead{
		Name:     f.Name,
		Phone:    f.Phone,
		Telegram: optional(f.Telegram),
		WhatsApp: optional(f.WhatsApp),
		Website:  optional(f.Website),
		Budget:   optional(f.Budget),
		Source:   source,
		UTM:      utmOrNil(s.UTM),
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func utmOrNil(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return append(json.RawMessage(nil), trimmed...)
}

// Text decodes any JSON scalar into its string form; null becomes empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		// Objects have no sensible string form; keep the raw JSON so a
		// non-empty honeypot still trips.
		*t = Text(data)
	case 'f':
		// false is falsy, so it reads as empty
		*t = ""
	default:
		if f, err := strconv.ParseFloat(string(data), 64); err == nil && f == 0 {
			*t = ""
			return nil
		}
		*t = Text(data)
	}
	return nil
}

// Consent normalizes the checkbox value from any of its common encodings.
type Consent bool

func (c *Consent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = false
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Consent(IsTruthy(s))
	case '{', '[':
		*c = false
	default:
		*c = Consent(IsTruthy(string(data)))
	}
	return nil
}

// Timestamp is an epoch-millisecond value sent as a number or numeric string.
// Zero means it was not supplied.
type Timestamp int64

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ts = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*ts = 0
			return nil
		}
	}
	if data[0] == '{' || data[0] == '[' || data[0] == 't' || data[0] == 'f' {
		*ts = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		// Anything that is not a finite number reads as missing.
		*ts = 0
		return nil
	}
	// Clamp before converting; out-of-range float to int64 is undefined.
	switch {
	case f >= math.MaxInt64:
		*ts = Timestamp(math.MaxInt64)
	case f <= math.MinInt64:
		*ts = Timestamp(math.MinInt64)
	default:
		*ts = Timestamp(int64(f))
	}
	return nil
}

// Time converts the timestamp to a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// IsZero reports whether the timestamp was not supplied.
func (ts Timestamp) IsZero() bool {
	return ts == 0
}
