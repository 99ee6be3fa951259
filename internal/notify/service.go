package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// LeadAlerts emails the site operator whenever a lead is stored.
type LeadAlerts struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewLeadAlerts creates the operator alert service. recipients is a
// comma-separated list; nil is returned when there is nobody to tell.
func NewLeadAlerts(email EmailSender, recipients string, logger *logging.Logger) *LeadAlerts {
	if email == nil {
		return nil
	}
	var to []string
	for _, r := range strings.Split(recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	if len(to) == 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadAlerts{email: email, recipients: to, logger: logger}
}

// LeadCreated sends one email per recipient and joins the failures.
func (s *LeadAlerts) LeadCreated(ctx context.Context, lead *leads.Lead) error {
	if s == nil || lead == nil {
		return nil
	}
	subject, text, htmlBody := formatLead(lead)

	var failed []string
	for _, to := range s.recipients {
		if err := s.email.Send(ctx, EmailMessage{To: to, Subject: subject, Body: text, HTML: htmlBody}); err != nil {
			s.logger.Error("notify: lead alert failed", "error", err, "to", to, "lead_id", lead.ID)
			failed = append(failed, to)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("notify: lead alert failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

func formatLead(lead *leads.Lead) (subject, text, htmlBody string) {
	name := lead.Name
	if name == "" {
		name = "Someone"
	}
	subject = fmt.Sprintf("New lead: %s", name)

	rows := [][2]string{
		{"Name", lead.Name},
		{"Phone", lead.Phone},
		{"Telegram", deref(lead.Telegram)},
		{"WhatsApp", deref(lead.WhatsApp)},
		{"Website", deref(lead.Website)},
		{"Budget", deref(lead.Budget)},
		{"Source", lead.Source},
	}
	if len(lead.UTM) > 0 {
		rows = append(rows, [2]string{"UTM", string(lead.UTM)})
	}
	rows = append(rows, [2]string{"Lead ID", lead.ID})

	var tb, hb strings.Builder
	hb.WriteString("<table>")
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(&tb, "%s: %s\n", row[0], row[1])
		fmt.Fprintf(&hb, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", row[0], html.EscapeString(row[1]))
	}
	hb.WriteString("</table>")
	return subject, tb.String(), hb.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ leads.Notifier = (*LeadAlerts)(nil)
