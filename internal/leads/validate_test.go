package leads

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneDigits(t *testing.T) {
	assert.Equal(t, "15551234567", PhoneDigits("+1 (555) 123-4567"))
	assert.Equal(t, "", PhoneDigits("call me"))
	assert.Equal(t, "123", PhoneDigits("١٢٣123"), "non-ASCII digits are not counted")
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "on", " On ", "1", "yes", "Yes\n"} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "off", "no", "y", "2"} {
		assert.False(t, IsTruthy(v), v)
	}
}

func TestFieldsValidateOrder(t *testing.T) {
	var empty Fields
	assert.ErrorIs(t, empty.Validate(StrictPolicy, false), ErrNameRequired)

	f := Fields{Name: "Ann"}
	assert.ErrorIs(t, f.Validate(StrictPolicy, false), ErrPhoneRequired)

	f.Phone = "123456"
	assert.ErrorIs(t, f.Validate(StrictPolicy, false), ErrContactRequired)

	f.WhatsApp = "+100"
	assert.ErrorIs(t, f.Validate(StrictPolicy, false), ErrConsentRequired)
	assert.NoError(t, f.Validate(StrictPolicy, true))
}

func TestFieldsValidateLoosePolicy(t *testing.T) {
	f := Fields{Phone: "8 (999) 000-11-22"}
	assert.NoError(t, f.Validate(Policy{}, true))
	assert.ErrorIs(t, f.Validate(Policy{}, false), ErrConsentRequired)
}

func TestFieldsNormalize(t *testing.T) {
	f := Fields{Name: "  Ann ", Course: " design ", Website: "  "}
	f.Normalize()
	assert.Equal(t, "Ann", f.Name)
	assert.Equal(t, "design", f.Website)
	assert.Empty(t, f.Course)

	g := Fields{Website: "https://ann.dev", Course: "design"}
	g.Normalize()
	assert.Equal(t, "https://ann.dev", g.Website)
}

func TestSubmissionLenientDecoding(t *testing.T) {
	raw := `{"name": 42, "phone": 79990001122, "telegram": true, "whatsapp": false,
		"consent": "on", "hp": null, "ts": "1700000000000", "utm": null}`

	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))

	assert.Equal(t, Text("42"), sub.Name)
	assert.Equal(t, Text("79990001122"), sub.Phone)
	assert.Equal(t, Text("true"), sub.Telegram)
	assert.Equal(t, Text(""), sub.WhatsApp)
	assert.True(t, bool(sub.Consent))
	assert.Equal(t, Text(""), sub.Honeypot)
	assert.Equal(t, time.UnixMilli(1700000000000), sub.TS.Time())
	assert.Nil(t, sub.ToLead().UTM)
}

func TestSubmissionObjectHoneypotStillTrips(t *testing.T) {
	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(`{"hp": {"a": 1}, "ts": 1}`), &sub))

	verdict, _ := BotFilter{Now: func() time.Time { return fixedNow }}.Check(&sub)
	assert.Equal(t, BotHoneypot, verdict)
}

func TestToLeadKeepsUTMVerbatim(t *testing.T) {
	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(`{"utm": {"utm_campaign": "spring", "nested": {"x": [1, 2]}}}`), &sub))

	lead := sub.ToLead()

	assert.JSONEq(t, `{"utm_campaign": "spring", "nested": {"x": [1, 2]}}`, string(lead.UTM))
	assert.Equal(t, DefaultSource, lead.Source)
}

func TestBotFilterDefaults(t *testing.T) {
	sub := Submission{TS: Timestamp(fixedNow.Add(-time.Second).UnixMilli())}

	verdict, elapsed := BotFilter{Now: func() time.Time { return fixedNow }}.Check(&sub)
	assert.Equal(t, BotTooFast, verdict)
	assert.Equal(t, time.Second, elapsed)

	sub.TS = Timestamp(fixedNow.Add(-DefaultMinElapsed).UnixMilli())
	verdict, _ = BotFilter{Now: func() time.Time { return fixedNow }}.Check(&sub)
	assert.Equal(t, BotPass, verdict)
	assert.Equal(t, "pass", verdict.String())
}

func TestTimestampClampsOutOfRange(t *testing.T) {
	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(`{"ts": 1e300}`), &sub))
	assert.Equal(t, Timestamp(math.MaxInt64), sub.TS)

	require.NoError(t, json.Unmarshal([]byte(`{"ts": "-1e300"}`), &sub))
	assert.Equal(t, Timestamp(math.MinInt64), sub.TS)

	verdict, _ := BotFilter{Now: func() time.Time { return fixedNow }}.Check(&Submission{TS: Timestamp(math.MaxInt64)})
	assert.Equal(t, BotTooFast, verdict)
}
