package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxBodyBytes caps the request body before any parsing happens
const DefaultMaxBodyBytes = 10_000

const notifyTimeout = 5 * time.Second

var tracer = otel.Tracer("github.com/wolfman30/lead-intake/internal/leads")

// Outcome names the terminal state a request ended in.
type Outcome string

const (
	OutcomePreflight          Outcome = "preflight"
	OutcomeMethodRejected     Outcome = "method_rejected"
	OutcomeMisconfigured      Outcome = "misconfigured"
	OutcomeSizeRejected       Outcome = "size_rejected"
	OutcomeParseRejected      Outcome = "parse_rejected"
	OutcomeBotSilent          Outcome = "bot_silent"
	OutcomeBotRejected        Outcome = "bot_rejected"
	OutcomeValidationRejected Outcome = "validation_rejected"
	OutcomeStoreFailed        Outcome = "store_failed"
	OutcomeInserted           Outcome = "inserted"
)

// Notifier is told about every inserted lead. Failures never affect the response.
type Notifier interface {
	LeadCreated(ctx context.Context, lead *Lead) error
}

// Request is the transport-neutral view of an incoming call.
type Request struct {
	Method string
	Body   io.Reader
}

// Result is the single response a request maps to.
type Result struct {
	Status  int
	Payload any
	Outcome Outcome
	LeadID  string
	Err     error
}

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// Body renders the JSON payload; nil means the response has no body.
func (r Result) Body() []byte {
	if r.Payload == nil {
		return nil
	}
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return data
}

// Headers returns the response headers that depend on the result itself.
// Cross-origin headers are added by the transport.
func (r Result) Headers() map[string]string {
	h := map[string]string{}
	if r.Payload != nil {
		h["Content-Type"] = "application/json"
	}
	if r.Status == http.StatusMethodNotAllowed {
		h["Allow"] = "POST, OPTIONS"
	}
	return h
}

// IntakeConfig wires an Intake.
type IntakeConfig struct {
	Provider     Provider
	Policy       Policy
	MinElapsed   time.Duration
	MaxBodyBytes int
	Notifier     Notifier
	Metrics      *metrics.IntakeMetrics
	Logger       *logging.Logger
	Now          func() time.Time
}

// Intake validates and stores lead submissions. It holds no per-request
// state, so one value serves concurrent requests.
type Intake struct {
	provider Provider
	policy   Policy
	bots     BotFilter
	maxBody  int
	notifier Notifier
	metrics  *metrics.IntakeMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewIntake creates the intake pipeline.
func NewIntake(cfg IntakeConfig) *Intake {
	if cfg.Provider == nil {
		panic("leads: repository provider required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.MinElapsed <= 0 {
		cfg.MinElapsed = DefaultMinElapsed
	}
	return &Intake{
		provider: cfg.Provider,
		policy:   cfg.Policy,
		bots:     BotFilter{MinElapsed: cfg.MinElapsed, Now: cfg.Now},
		maxBody:  cfg.MaxBodyBytes,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// Process runs one request through the pipeline. Every path returns exactly
// one Result; nothing is retried.
func (in *Intake) Process(ctx context.Context, req Request) (res Result) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "leads.intake", trace.WithSpanKind(trace.SpanKindServer))
	defer func() {
		span.SetAttributes(
			attribute.String("leads.outcome", string(res.Outcome)),
			attribute.Int("http.status_code", res.Status),
		)
		if res.Status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, string(res.Outcome))
		}
		span.End()
		in.metrics.ObserveRequest(string(res.Outcome), res.Status, time.Since(start))
	}()

	switch req.Method {
	case http.MethodOptions:
		return Result{Status: http.StatusNoContent, Outcome: OutcomePreflight}
	case http.MethodPost:
	default:
		return fail(http.StatusMethodNotAllowed, OutcomeMethodRejected, ErrMethodNotAllowed)
	}

	repo, err := in.provider.Repository(ctx)
	if err != nil {
		in.logger.Error("leads store unavailable", "error", err)
		return fail(http.StatusInternalServerError, OutcomeMisconfigured, err)
	}

	data, err := readCapped(req.Body, in.maxBody)
	if errors.Is(err, ErrPayloadTooLarge) {
		return fail(http.StatusRequestEntityTooLarge, OutcomeSizeRejected, err)
	}
	if err != nil {
		in.logger.Warn("failed to read request body", "error", err)
		return fail(http.StatusBadRequest, OutcomeParseRejected, ErrInvalidJSON)
	}

	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		in.logger.Debug("failed to decode request", "error", err)
		return fail(http.StatusBadRequest, OutcomeParseRejected, ErrInvalidJSON)
	}

	switch verdict, elapsed := in.bots.Check(&sub); verdict {
	case BotHoneypot:
		// Look exactly like a quiet success so probing learns nothing.
		in.logger.Warn("honeypot filled, submission discarded", "verdict", verdict.String())
		return Result{Status: http.StatusNoContent, Outcome: OutcomeBotSilent}
	case BotNoTimestamp:
		return fail(http.StatusBadRequest, OutcomeBotRejected, ErrMissingTimestamp)
	case BotTooFast:
		in.logger.Warn("submission faster than minimum dwell time", "elapsed_ms", elapsed.Milliseconds())
		return fail(http.StatusTooManyRequests, OutcomeBotRejected, ErrTooFast)
	}

	if err := sub.Fields().Validate(in.policy, bool(sub.Consent)); err != nil {
		in.logger.Info("lead rejected", "reason", err.Error())
		return fail(http.StatusBadRequest, OutcomeValidationRejected, err)
	}

	lead, err := repo.Create(ctx, sub.ToLead())
	if err != nil {
		in.logger.Error("failed to create lead", "error", err)
		return fail(http.StatusInternalServerError, OutcomeStoreFailed, err)
	}

	in.logger.Info("lead created",
		"id", lead.ID,
		"source", lead.Source,
		"consent", true,
		"consent_at", in.now().UTC().Format(time.RFC3339),
	)
	in.notify(ctx, lead)

	return Result{
		Status:  http.StatusOK,
		Payload: successBody{OK: true, ID: lead.ID},
		Outcome: OutcomeInserted,
		LeadID:  lead.ID,
	}
}

func (in *Intake) notify(ctx context.Context, lead *Lead) {
	if in.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := in.notifier.LeadCreated(ctx, lead); err != nil {
		in.metrics.ObserveNotifyFailure()
		in.logger.Error("lead notification failed", "error", err, "id", lead.ID)
	}
}

func fail(status int, outcome Outcome, err error) Result {
	return Result{
		Status:  status,
		Payload: errorBody{Error: err.Error()},
		Outcome: outcome,
		Err:     err,
	}
}

// readCapped reads at most limit bytes and reports ErrPayloadTooLarge when
// the body is longer, without looking at its contents.
func readCapped(body io.Reader, limit int) ([]byte, error) {
	if body == nil {
		return []byte("{}"), nil
	}
	data, err := io.ReadAll(io.LimitReader(body, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, ErrPayloadTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}
