package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DiscordSender sends alerts to Discord via webhook
type DiscordSender struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordSender creates a new Discord sender
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends the alert to Discord
func (s *DiscordSender) Send(ctx context.Context, payload *AlertPayload) error {
	embed := s.buildEmbed(payload)

	webhookPayload := map[string]interface{}{
		"embeds": []interface{}{embed},
	}

	body, err := json.Marshal(webhookPayload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (s *DiscordSender) buildEmbed(payload *AlertPayload) map[string]interface{} {
	var title string
	var color int
	switch payload.Severity {
	case SeverityAlert:
		title = fmt.Sprintf("🔴 Big Fish Leaving %s (ALERT)", payload.TokenSymbol)
		color = 0xFF0000 // Red
	case SeverityWarn:
		title = fmt.Sprintf("🟡 Watch %s carefully (WARN)", payload.TokenSymbol)
		color = 0xFFD700 // Yellow
	default:
		title = fmt.Sprintf("🟢 %s calm waters", payload.TokenSymbol)
		color = 0x00C853 // Green
	}

	description := fmt.Sprintf("%s Big Fish Score **%d/100** for **%s**\n%s",
		payload.FishEmoji,
		payload.Score,
		payload.displayName(),
		payload.RiskLabel,
	)
	if payload.Explanation != "" {
		description += "\n\n" + payload.Explanation
	}

	fields := []map[string]interface{}{
		{
			"name":   "Token",
			"value":  fmt.Sprintf("`%s`", payload.TokenShort),
			"inline": true,
		},
		{
			"name":   "Top 10 Holders",
			"value":  fmt.Sprintf("%.1f%%", payload.Top10Percentage),
			"inline": true,
		},
		{
			"name":   "Price",
			"value":  fmt.Sprintf("$%s", formatPrice(payload.PriceUSD)),
			"inline": true,
		},
		{
			"name":   "Liquidity",
			"value":  fmt.Sprintf("$%.0f", payload.LiquidityUSD),
			"inline": true,
		},
		{
			"name":   "Volume 24h",
			"value":  fmt.Sprintf("$%.0f", payload.Volume24h),
			"inline": true,
		},
		{
			"name":   "Change 24h",
			"value":  fmt.Sprintf("%+.2f%%", payload.PriceChange24h),
			"inline": true,
		},
		{
			"name":   "📊 Score Breakdown",
			"value":  formatComponents(payload),
			"inline": false,
		},
	}

	if len(payload.CriticalRisks) > 0 {
		fields = append(fields, map[string]interface{}{
			"name":   "⚠️ Critical Risks",
			"value":  truncate(strings.Join(payload.CriticalRisks, "\n"), 1000),
			"inline": false,
		})
	}

	footer := map[string]interface{}{
		"text": fmt.Sprintf("BigFishAlert • %s • %s", payload.Environment, payload.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
	}

	embed := map[string]interface{}{
		"title":       truncate(title, 256),
		"url":         DexscreenerURL(payload.TokenAddress),
		"description": truncate(description, 4000),
		"color":       color,
		"fields":      fields,
		"footer":      footer,
		"timestamp":   payload.Timestamp.Format(time.RFC3339),
	}

	return embed
}

// formatComponents lists each sub-score with its weight
func formatComponents(p *AlertPayload) string {
	c := p.Components
	lines := []string{
		fmt.Sprintf("🐋 Holder concentration (35%%): **%.0f**", c.HolderConcentration),
		fmt.Sprintf("🌊 Recent whale activity (30%%): **%.0f**", c.RecentActivity),
		fmt.Sprintf("💧 Liquidity depth (20%%): **%.0f**", c.LiquidityDepth),
		fmt.Sprintf("🛡️ Security (10%%): **%.0f**", c.SecurityScore),
		fmt.Sprintf("📈 Volume anomaly (5%%): **%.0f**", c.VolumeAnomaly),
	}
	if p.LPLocked {
		lines = append(lines, "🔒 Liquidity locked")
	}
	return strings.Join(lines, "\n")
}

// formatPrice keeps significant digits for sub-cent tokens
func formatPrice(v float64) string {
	if v > 0 && v < 0.01 {
		return fmt.Sprintf("%.8f", v)
	}
	return fmt.Sprintf("%.4f", v)
}
