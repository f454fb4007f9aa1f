package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender sends alerts to the logger
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the alert
func (s *LogSender) Send(ctx context.Context, payload *AlertPayload) error {
	s.log.WithFields(logrus.Fields{
		"severity":         payload.Severity,
		"token":            payload.TokenShort,
		"symbol":           payload.TokenSymbol,
		"label":            payload.Label,
		"score":            payload.Score,
		"min_score":        payload.MinScore,
		"risk":             payload.RiskLevel,
		"top10_percentage": payload.Top10Percentage,
		"liquidity_usd":    payload.LiquidityUSD,
		"critical_risks":   payload.CriticalRisks,
	}).Warn("Big fish alert")
	return nil
}
