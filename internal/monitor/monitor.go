// Package monitor rescans a watchlist of tokens on a fixed interval and sends
// an alert when a token's Big Fish Score reaches its threshold.
package monitor

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/alerts"
	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/explain"
	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/scanner"
	"github.com/liamashdown/bigfishalert/internal/storage"
)

const alertType = "token_risk"

// TokenScanner scores a single token
type TokenScanner interface {
	ScanToken(ctx context.Context, mint string, opts scanner.ScanOptions) (*scanner.TokenAnalysis, error)
}

// Store persists sent alerts and the cycle checkpoint
type Store interface {
	GetLastAlertForToken(ctx context.Context, tokenAddress string) (*storage.Alert, error)
	InsertAlert(ctx context.Context, alert *storage.Alert) (int64, error)
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error
}

// Options tunes the monitor
type Options struct {
	Interval    time.Duration
	Workers     int
	MinScore    int
	Cooldown    time.Duration
	Language    string
	Environment string
	Channels    []string // recorded with each stored alert
}

// OptionsFromConfig derives monitor options from the service configuration
func OptionsFromConfig(cfg *config.Config, channels []string) Options {
	return Options{
		Interval:    time.Duration(cfg.MonitorIntervalSec) * time.Second,
		Workers:     cfg.MonitorWorkers,
		MinScore:    cfg.AlertMinScore,
		Cooldown:    time.Duration(cfg.AlertCooldownMins) * time.Minute,
		Language:    cfg.ExplainLanguage,
		Environment: cfg.Environment,
		Channels:    channels,
	}
}

// CycleResult summarizes one pass over the watchlist
type CycleResult struct {
	Scanned    int
	Failed     int
	Alerted    int
	Suppressed int
}

// Monitor watches a fixed set of tokens
type Monitor struct {
	scanner   TokenScanner
	explainer scanner.Explainer // may be nil
	store     Store             // may be nil
	sender    alerts.Sender
	entries   []config.WatchlistEntry
	opts      Options
	log       *logrus.Logger

	workerPool chan struct{}

	mu        sync.Mutex
	lastAlert map[string]time.Time // in-process cooldown, used without a store

	now func() time.Time
}

// New creates a monitor. explainer and store may be nil.
func New(
	sc TokenScanner,
	explainer scanner.Explainer,
	store Store,
	sender alerts.Sender,
	entries []config.WatchlistEntry,
	opts Options,
	log *logrus.Logger,
) *Monitor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}

	workerPool := make(chan struct{}, opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		workerPool <- struct{}{}
	}

	return &Monitor{
		scanner:    sc,
		explainer:  explainer,
		store:      store,
		sender:     sender,
		entries:    entries,
		opts:       opts,
		log:        log,
		workerPool: workerPool,
		lastAlert:  make(map[string]time.Time),
		now:        time.Now,
	}
}

// Run scans immediately and then on every tick until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.log.WithFields(logrus.Fields{
		"tokens":       len(m.entries),
		"interval":     m.opts.Interval.String(),
		"min_score":    m.opts.MinScore,
		"cooldown":     m.opts.Cooldown.String(),
		"workers":      m.opts.Workers,
		"alert_routes": m.opts.Channels,
	}).Info("Starting watchlist monitor")

	m.logPreviousCycle(ctx)
	m.RunCycle(ctx)

	for {
		select {
		case <-ticker.C:
			m.RunCycle(ctx)
		case <-ctx.Done():
			m.log.Info("Watchlist monitor stopped")
			return
		}
	}
}

// RunCycle rescans every watchlist token once
func (m *Monitor) RunCycle(ctx context.Context) CycleResult {
	start := time.Now()

	var scanned, failed, alerted, suppressed atomic.Int64
	var wg sync.WaitGroup

	for _, entry := range m.entries {
		wg.Add(1)
		go func(e config.WatchlistEntry) {
			defer wg.Done()

			select {
			case <-m.workerPool:
			case <-ctx.Done():
				return
			}
			defer func() { m.workerPool <- struct{}{} }()

			switch m.check(ctx, e) {
			case outcomeFailed:
				failed.Add(1)
				return
			case outcomeAlerted:
				alerted.Add(1)
			case outcomeSuppressed:
				suppressed.Add(1)
			}
			scanned.Add(1)
		}(entry)
	}

	wg.Wait()

	result := CycleResult{
		Scanned:    int(scanned.Load()),
		Failed:     int(failed.Load()),
		Alerted:    int(alerted.Load()),
		Suppressed: int(suppressed.Load()),
	}

	if m.store != nil && ctx.Err() == nil {
		ts := strconv.FormatInt(m.now().Unix(), 10)
		if err := m.store.SetState(ctx, storage.StateLastMonitorCycle, ts); err != nil {
			m.log.WithError(err).Error("Failed to update monitor checkpoint")
		}
	}

	metrics.RecordMonitorCycle(time.Since(start))

	m.log.WithFields(logrus.Fields{
		"scanned":    result.Scanned,
		"failed":     result.Failed,
		"alerted":    result.Alerted,
		"suppressed": result.Suppressed,
		"duration":   time.Since(start).String(),
	}).Info("Watchlist cycle complete")

	return result
}

type outcome int

const (
	outcomeQuiet outcome = iota
	outcomeAlerted
	outcomeSuppressed
	outcomeFailed
)

func (m *Monitor) check(ctx context.Context, entry config.WatchlistEntry) outcome {
	logger := m.log.WithFields(logrus.Fields{
		"token": entry.Address,
		"label": entry.Label,
	})

	analysis, err := m.scanner.ScanToken(ctx, entry.Address, scanner.ScanOptions{Origin: scanner.OriginMonitor})
	if err != nil {
		logger.WithError(err).Error("Failed to scan watchlist token")
		return outcomeFailed
	}

	minScore := m.opts.MinScore
	if entry.MinScore > 0 {
		minScore = entry.MinScore
	}
	if analysis.BigFishScore.Score < minScore {
		return outcomeQuiet
	}

	level := string(analysis.Risk.Level)
	if m.inCooldown(ctx, entry.Address) {
		logger.WithField("score", analysis.BigFishScore.Score).Debug("Alert suppressed by cooldown")
		metrics.RecordAlert(level, "", alertType, true)
		return outcomeSuppressed
	}

	if m.explainer != nil && analysis.AIExplanation == "" {
		analysis.AIExplanation = m.explainer.Explain(ctx, explain.Request{
			Score:       analysis.BigFishScore,
			Language:    m.opts.Language,
			TokenSymbol: analysis.TokenSymbol,
			TopHolders:  analysis.TopHolders,
		})
	}

	payload := alerts.NewPayload(analysis, minScore, entry.Label, m.opts.Environment)
	if err := m.sender.Send(ctx, payload); err != nil {
		logger.WithError(err).Error("Failed to send alert")
		metrics.RecordAlert(level, "failed", alertType, false)
		return outcomeFailed
	}
	metrics.RecordAlert(level, "sent", alertType, false)

	sentAt := m.now()
	m.mu.Lock()
	m.lastAlert[entry.Address] = sentAt
	m.mu.Unlock()

	if m.store != nil {
		_, err := m.store.InsertAlert(ctx, &storage.Alert{
			TokenAddress:    analysis.TokenAddress,
			TokenSymbol:     analysis.TokenSymbol,
			Score:           analysis.BigFishScore.Score,
			RiskLevel:       level,
			Top10Percentage: analysis.Top10Percentage,
			Explanation:     analysis.AIExplanation,
			Channels:        strings.Join(m.opts.Channels, ","),
			CreatedTS:       sentAt.Unix(),
		})
		if err != nil {
			logger.WithError(err).Error("Failed to record alert")
		}
	}

	logger.WithFields(logrus.Fields{
		"score":     analysis.BigFishScore.Score,
		"min_score": minScore,
		"risk":      level,
	}).Info("Alert sent")

	return outcomeAlerted
}

// inCooldown reports whether the token was alerted within the cooldown
func (m *Monitor) inCooldown(ctx context.Context, token string) bool {
	if m.opts.Cooldown <= 0 {
		return false
	}
	now := m.now()

	m.mu.Lock()
	last, ok := m.lastAlert[token]
	m.mu.Unlock()
	if ok && now.Sub(last) < m.opts.Cooldown {
		return true
	}

	if m.store == nil {
		return false
	}
	alert, err := m.store.GetLastAlertForToken(ctx, token)
	if err != nil {
		m.log.WithError(err).WithField("token", token).Warn("Failed to read last alert, using in-process cooldown")
		return false
	}
	if alert == nil {
		return false
	}
	return now.Sub(time.Unix(alert.CreatedTS, 0)) < m.opts.Cooldown
}

// logPreviousCycle reports when the last recorded cycle finished, if ever
func (m *Monitor) logPreviousCycle(ctx context.Context) {
	if m.store == nil {
		return
	}
	v, err := m.store.GetState(ctx, storage.StateLastMonitorCycle)
	if err != nil {
		m.log.WithError(err).Warn("Failed to read last monitor cycle")
		return
	}
	if v == "" {
		return
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return
	}
	m.log.WithField("last_cycle", time.Unix(ts, 0).UTC().Format(time.RFC3339)).Info("Resuming watchlist monitor")
}
