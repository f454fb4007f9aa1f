package alerts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPSender sends alerts via email
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       []string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, user, password, from string, to []string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
		sendMail: smtp.SendMail,
	}
}

// Send sends the alert via email
func (s *SMTPSender) Send(ctx context.Context, payload *AlertPayload) error {
	if len(s.to) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("[%s] %s Big Fish Score %d for %s", payload.Severity, payload.RiskEmoji, payload.Score, payload.TokenSymbol)
	body := s.buildEmailBody(payload)

	message := fmt.Sprintf("From: %s\r\n", s.from)
	message += fmt.Sprintf("To: %s\r\n", strings.Join(s.to, ", "))
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "MIME-Version: 1.0\r\n"
	message += "Content-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n"
	message += body

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := s.sendMail(addr, auth, s.from, s.to, []byte(message)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

func (s *SMTPSender) buildEmailBody(payload *AlertPayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "BIGFISHALERT - %s\n", payload.Severity)
	b.WriteString("═══════════════════════════════════════\n\n")
	fmt.Fprintf(&b, "%s %s\n\n", payload.RiskEmoji, payload.RiskLabel)

	b.WriteString("TOKEN\n")
	b.WriteString("─────────────────────────────────────\n")
	fmt.Fprintf(&b, "Name:           %s\n", payload.displayName())
	fmt.Fprintf(&b, "Address:        %s\n", payload.TokenAddress)
	fmt.Fprintf(&b, "Chart:          %s\n\n", DexscreenerURL(payload.TokenAddress))

	b.WriteString("BIG FISH SCORE\n")
	b.WriteString("─────────────────────────────────────\n")
	fmt.Fprintf(&b, "Score:          %d/100 (alerts at %d)\n", payload.Score, payload.MinScore)
	fmt.Fprintf(&b, "Holders:        %.1f (top 10 hold %.1f%%)\n", payload.Components.HolderConcentration, payload.Top10Percentage)
	fmt.Fprintf(&b, "Whale Activity: %.1f\n", payload.Components.RecentActivity)
	fmt.Fprintf(&b, "Liquidity:      %.1f\n", payload.Components.LiquidityDepth)
	fmt.Fprintf(&b, "Security:       %.1f\n", payload.Components.SecurityScore)
	fmt.Fprintf(&b, "Volume:         %.1f\n\n", payload.Components.VolumeAnomaly)

	b.WriteString("MARKET\n")
	b.WriteString("─────────────────────────────────────\n")
	fmt.Fprintf(&b, "Price:          $%s\n", formatPrice(payload.PriceUSD))
	fmt.Fprintf(&b, "Liquidity:      $%.2f\n", payload.LiquidityUSD)
	fmt.Fprintf(&b, "Volume 24h:     $%.2f\n", payload.Volume24h)
	fmt.Fprintf(&b, "Change 24h:     %+.2f%%\n\n", payload.PriceChange24h)

	if len(payload.CriticalRisks) > 0 {
		b.WriteString("CRITICAL RISKS\n")
		b.WriteString("─────────────────────────────────────\n")
		for _, r := range payload.CriticalRisks {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if payload.Explanation != "" {
		fmt.Fprintf(&b, "%s\n\n", payload.Explanation)
	}

	b.WriteString("═══════════════════════════════════════\n")
	fmt.Fprintf(&b, "Environment: %s\n", payload.Environment)
	fmt.Fprintf(&b, "Scanned: %s\n", payload.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString("\nNote: the Big Fish Score is a heuristic risk estimate,\n")
	b.WriteString("not financial advice.\n")

	return b.String()
}
