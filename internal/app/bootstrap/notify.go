package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/internal/notify"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// BuildNotifier returns the operator alert service, or nil when
// notifications are disabled or incomplete.
func BuildNotifier(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) leads.Notifier {
	if cfg == nil || strings.TrimSpace(cfg.NotifyEmailTo) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var sender notify.EmailSender
	switch cfg.NotifyProvider {
	case "sendgrid":
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
		if sg == nil {
			logger.Warn("sendgrid notifications requested without SENDGRID_API_KEY")
			return nil
		}
		sender = sg
	case "ses":
		if loadAWS == nil {
			return nil
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			logger.Warn("SES notifications disabled", "error", err)
			return nil
		}
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
	case "stub", "log":
		sender = notify.NewStubEmailSender(logger)
	default:
		return nil
	}

	alerts := notify.NewLeadAlerts(sender, cfg.NotifyEmailTo, logger)
	if alerts == nil {
		return nil
	}
	logger.Info("lead notifications enabled", "provider", cfg.NotifyProvider)
	return alerts
}
