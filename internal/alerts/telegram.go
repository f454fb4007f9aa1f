package alerts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts alerts to a Telegram chat through a bot
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender authenticates the bot and creates a sender
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	return newTelegramSender(token, tgbotapi.APIEndpoint, chatID)
}

func newTelegramSender(token, endpoint string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// Send sends the alert as a plain text message
func (s *TelegramSender) Send(ctx context.Context, payload *AlertPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, buildTelegramText(payload))
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func buildTelegramText(p *AlertPayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n", p.RiskEmoji, p.RiskLabel, p.FishEmoji)
	fmt.Fprintf(&b, "%s\n", p.displayName())
	fmt.Fprintf(&b, "Big Fish Score: %d/100\n", p.Score)
	fmt.Fprintf(&b, "Top 10 holders: %.1f%%\n", p.Top10Percentage)
	fmt.Fprintf(&b, "Liquidity: $%.0f | Volume 24h: $%.0f\n", p.LiquidityUSD, p.Volume24h)
	if len(p.CriticalRisks) > 0 {
		fmt.Fprintf(&b, "⚠️ %s\n", strings.Join(p.CriticalRisks, ", "))
	}
	if p.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Explanation)
	}
	fmt.Fprintf(&b, "\n%s", DexscreenerURL(p.TokenAddress))

	return truncate(b.String(), 4096)
}
