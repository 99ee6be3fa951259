package leads

import (
	"net/http"

	"github.com/wolfman30/lead-intake/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	intake *Intake
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(intake *Intake, logger *logging.Logger) *Handler {
	if intake == nil {
		panic("leads: intake required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		intake: intake,
		logger: logger,
	}
}

// CreateWebLead handles every method on the lead endpoint; the intake decides
// what is allowed.
func (h *Handler) CreateWebLead(w http.ResponseWriter, r *http.Request) {
	res := h.intake.Process(r.Context(), Request{Method: r.Method, Body: r.Body})
	WriteResult(w, res, h.logger)
}

// WriteResult renders a Result onto a ResponseWriter.
func WriteResult(w http.ResponseWriter, res Result, logger *logging.Logger) {
	for k, v := range res.Headers() {
		w.Header().Set(k, v)
	}
	w.WriteHeader(res.Status)
	if body := res.Body(); body != nil {
		if _, err := w.Write(body); err != nil && logger != nil {
			logger.Warn("failed to write response", "error", err, "outcome", string(res.Outcome))
		}
	}
}
