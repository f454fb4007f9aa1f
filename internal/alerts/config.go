package alerts

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/config"
)

// FromConfig builds the sender for the configured alert modes. It also returns
// the channel names that were wired, for recording alongside sent alerts.
func FromConfig(cfg *config.Config, log *logrus.Logger) (Sender, []string, error) {
	var routes []Route
	var channels []string

	for _, mode := range cfg.AlertModes() {
		switch mode {
		case "log":
			routes = append(routes, Route{Name: mode, Sender: NewLogSender(log)})
		case "discord":
			if len(cfg.DiscordWebhookURLs) == 0 {
				log.Warn("Discord mode specified but DISCORD_WEBHOOK_URLS not set")
				continue
			}
			for i, url := range cfg.DiscordWebhookURLs {
				routes = append(routes, Route{Name: fmt.Sprintf("discord#%d", i+1), Sender: NewDiscordSender(url)})
			}
		case "smtp":
			if cfg.SMTPHost == "" {
				log.Warn("SMTP mode specified but SMTP_HOST not set")
				continue
			}
			routes = append(routes, Route{Name: mode, Sender: NewSMTPSender(
				cfg.SMTPHost,
				cfg.SMTPPort,
				cfg.SMTPUser,
				cfg.SMTPPassword,
				cfg.SMTPFrom,
				cfg.SMTPTo,
			)})
		case "telegram":
			tg, err := NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID)
			if err != nil {
				return nil, nil, fmt.Errorf("telegram sender: %w", err)
			}
			routes = append(routes, Route{Name: mode, Sender: tg})
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, skipping")
			continue
		}
		channels = append(channels, mode)
	}

	switch len(routes) {
	case 0:
		log.Warn("No valid alert senders configured, using log")
		return NewLogSender(log), []string{"log"}, nil
	case 1:
		return routes[0].Sender, channels, nil
	default:
		return NewMultiSender(routes...), channels, nil
	}
}
