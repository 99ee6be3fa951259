// Package leadclient collects lead form values, validates them with the same
// rules the intake applies, and posts them to the intake endpoint.
package leadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

const (
	// SubmitFormID is the only form that sends submissions to the server.
	SubmitFormID = "lead-form"

	// DefaultEndpoint is the intake path served by both the API and the function.
	DefaultEndpoint = "/.netlify/functions/lead"

	maxResponseBytes = 64 << 10
)

// ErrSubmitInProgress is returned when Submit is called while another
// submission from the same Submitter is in flight.
var ErrSubmitInProgress = errors.New("leadclient: submission already in progress")

// Form holds raw field values as a browser would post them.
type Form struct {
	ID       string
	Name     string
	Phone    string
	Telegram string
	WhatsApp string
	Website  string
	Budget   string
	Consent  string // checkbox value: "on" when ticked
	Honeypot string
}

// Reset clears every value except the form id.
func (f *Form) Reset() {
	*f = Form{ID: f.ID}
}

func (f *Form) trim() {
	for _, p := range []*string{&f.Name, &f.Phone, &f.Telegram, &f.WhatsApp, &f.Website, &f.Budget, &f.Consent} {
		*p = strings.TrimSpace(*p)
	}
}

// Level classifies a user-facing message.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

// Notifier shows a message to the person filling the form.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Options configures a Submitter.
type Options struct {
	// Endpoint is the absolute intake URL.
	Endpoint string
	Client   *http.Client
	Policy   leads.Policy
	Notifier Notifier
	Logger   *logging.Logger
	Now      func() time.Time
}

// Result describes a finished Submit call.
type Result struct {
	OK      bool
	Sent    bool
	ID      string
	Message string
}

// Submitter submits one form instance. It is created when the form is shown
// and records that moment as the load time sent with each submission.
type Submitter struct {
	endpoint string
	client   *http.Client
	policy   leads.Policy
	notifier Notifier
	logger   *logging.Logger
	now      func() time.Time

	inFlight atomic.Bool
	mu       sync.Mutex
	loadedAt time.Time
}

// NewSubmitter creates a Submitter and captures the load time.
func NewSubmitter(opts Options) *Submitter {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(Level, string) {})
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Submitter{
		endpoint: opts.Endpoint,
		client:   opts.Client,
		policy:   opts.Policy,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Now,
		loadedAt: opts.Now(),
	}
}

// LoadedAt returns the timestamp that will accompany the next submission.
func (s *Submitter) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

type payload struct {
	Name     string            `json:"name"`
	Phone    string            `json:"phone"`
	Telegram string            `json:"telegram"`
	WhatsApp string            `json:"whatsapp"`
	Website  string            `json:"website"`
	Budget   string            `json:"budget"`
	Consent  bool              `json:"consent"`
	Source   string            `json:"source"`
	UTM      map[string]string `json:"utm"`
	Honeypot string            `json:"hp"`
	TS       int64             `json:"ts"`
}

type response struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Submit validates form and, for the designated lead form, posts it once.
// Every failure is reported through the Notifier and leaves form untouched;
// only a confirmed success clears it.
func (s *Submitter) Submit(ctx context.Context, form *Form, pageURL string) (Result, error) {
	if form == nil {
		return Result{}, errors.New("leadclient: form required")
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrSubmitInProgress
	}
	defer s.inFlight.Store(false)

	form.trim()
	consent := leads.IsTruthy(form.Consent)
	fields := leads.Fields{
		Name:     form.Name,
		Phone:    form.Phone,
		Telegram: form.Telegram,
		WhatsApp: form.WhatsApp,
		Website:  form.Website,
		Budget:   form.Budget,
	}
	if err := fields.Validate(s.policy, consent); err != nil {
		return s.failed(err.Error(), false), nil
	}

	if form.ID != SubmitFormID {
		const ack = "Thank you!"
		s.notifier.Notify(LevelSuccess, ack)
		return Result{OK: true, Message: ack}, nil
	}

	body, err := json.Marshal(payload{
		Name:     form.Name,
		Phone:    form.Phone,
		Telegram: form.Telegram,
		WhatsApp: form.WhatsApp,
		Website:  form.Website,
		Budget:   form.Budget,
		Consent:  consent,
		Source:   leads.DefaultSource,
		UTM:      utmFromURL(pageURL),
		Honeypot: form.Honeypot,
		TS:       s.LoadedAt().UnixMilli(),
	})
	if err != nil {
		return s.failed(errorMessage(err.Error()), false), nil
	}

	resp, err := s.post(ctx, body)
	if err != nil {
		s.logger.Warn("lead submission failed", "error", err)
		return s.failed(errorMessage(err.Error()), true), nil
	}
	if !resp.OK {
		msg := "Submission failed. Please try again."
		if resp.Error != "" {
			msg = errorMessage(resp.Error)
		}
		return s.failed(msg, true), nil
	}

	form.Reset()
	s.mu.Lock()
	s.loadedAt = s.now()
	s.mu.Unlock()

	const sent = "Request sent!"
	s.notifier.Notify(LevelSuccess, sent)
	return Result{OK: true, Sent: true, ID: resp.ID, Message: sent}, nil
}

// post sends the payload and folds the HTTP status into the decoded body.
func (s *Submitter) post(ctx context.Context, body []byte) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	// Empty or non-JSON bodies are tolerated; the status decides.
	var out response
	_ = json.Unmarshal(raw, &out)
	out.OK = res.StatusCode >= 200 && res.StatusCode < 300
	return out, nil
}

func (s *Submitter) failed(message string, sent bool) Result {
	s.notifier.Notify(LevelError, message)
	return Result{Sent: sent, Message: message}
}

func errorMessage(detail string) string {
	return "Error: " + detail
}

// utmFromURL keeps the first value of every query parameter.
func utmFromURL(pageURL string) map[string]string {
	utm := map[string]string{}
	if strings.TrimSpace(pageURL) == "" {
		return utm
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return utm
	}
	for key, values := range u.Query() {
		if len(values) > 0 {
			utm[key] = values[0]
		}
	}
	return utm
}
