package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/lead-intake/internal/leadclient"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

type options struct {
	endpoint    string
	pageURL     string
	interactive bool
	dwell       time.Duration
	timeout     time.Duration
	logLevel    string
	form        leadclient.Form
}

// NewRootCmd creates the 'leadsubmit' command.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "leadsubmit",
		Short: "Submit a lead to the intake endpoint the way the site form does",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, opts)
		},
		SilenceUsage: true,
	}

	f := cmd.Flags()
	f.StringVar(&opts.endpoint, "endpoint", envOr("LEAD_ENDPOINT", "http://localhost:8080"+leadclient.DefaultEndpoint), "Intake URL")
	f.StringVar(&opts.pageURL, "page-url", "", "Page URL whose query supplies utm values")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "Prompt for empty fields")
	f.DurationVar(&opts.dwell, "dwell", 2*time.Second, "Time to wait between form load and submit")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP timeout")
	f.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level")

	f.StringVar(&opts.form.ID, "form-id", leadclient.SubmitFormID, "Form id; only "+leadclient.SubmitFormID+" reaches the server")
	f.StringVar(&opts.form.Name, "name", "", "Name")
	f.StringVar(&opts.form.Phone, "phone", "", "Phone")
	f.StringVar(&opts.form.Telegram, "telegram", "", "Telegram handle")
	f.StringVar(&opts.form.WhatsApp, "whatsapp", "", "WhatsApp number")
	f.StringVar(&opts.form.Website, "website", "", "Website or course of interest")
	f.StringVar(&opts.form.Budget, "budget", "", "Budget")
	f.StringVar(&opts.form.Consent, "consent", "", `Consent value, e.g. "on"`)
	f.StringVar(&opts.form.Honeypot, "hp", "", "Honeypot value (testing only)")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	var failed bool
	submitter := leadclient.NewSubmitter(leadclient.Options{
		Endpoint: opts.endpoint,
		Client:   &http.Client{Timeout: opts.timeout},
		Policy:   leads.StrictPolicy,
		Logger:   logging.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel),
		Notifier: leadclient.NotifierFunc(func(level leadclient.Level, message string) {
			if level == leadclient.LevelError {
				failed = true
			}
			fmt.Fprintln(out, message)
		}),
	})

	if opts.interactive {
		if err := prompt(cmd.InOrStdin(), out, &opts.form); err != nil {
			return err
		}
	}

	if wait := opts.dwell - time.Since(submitter.LoadedAt()); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	res, err := submitter.Submit(ctx, &opts.form, opts.pageURL)
	if err != nil {
		return err
	}
	if failed || !res.OK {
		return errors.New(res.Message)
	}
	if res.ID != "" {
		fmt.Fprintf(out, "lead id: %s\n", res.ID)
	}
	return nil
}

// prompt asks for every empty field in form order.
func prompt(in io.Reader, out io.Writer, form *leadclient.Form) error {
	reader := bufio.NewReader(in)
	fields := []struct {
		label string
		value *string
	}{
		{"Name", &form.Name},
		{"Phone", &form.Phone},
		{"Telegram", &form.Telegram},
		{"WhatsApp", &form.WhatsApp},
		{"Website", &form.Website},
		{"Budget", &form.Budget},
		{"Consent to processing of personal data (yes/no)", &form.Consent},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) != "" {
			continue
		}
		fmt.Fprintf(out, "%s: ", field.label)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*field.value = strings.TrimSpace(line)
		if errors.Is(err, io.EOF) {
			break
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
