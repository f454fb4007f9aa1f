package rugcheck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/httpclient"
	"github.com/liamashdown/bigfishalert/internal/scoring"
)

// LPLockedThresholdPct is the locked share above which a pool counts as locked
const LPLockedThresholdPct = 90.0

// Client fetches token security reports from Rugcheck
type Client struct {
	http *httpclient.Client
	log  *logrus.Logger
}

// Assessment is the part of a report the scanner consumes
type Assessment struct {
	// Score is the 0-100 security risk, 50 when the mint is unrated
	Score         float64  `json:"score"`
	Rated         bool     `json:"rated"`
	CriticalRisks []string `json:"criticalRisks"`
	LPLocked      bool     `json:"lpLocked"`
	LPLockedPct   float64  `json:"lpLockedPct"`
	Rugged        bool     `json:"rugged"`

	// Holders as Rugcheck ranks them, used when RPC holder lookups fail
	Holders []scoring.TokenHolder `json:"-"`
}

// NewClient creates a new Rugcheck client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			API:      "rugcheck",
			BaseURL:  cfg.RugcheckBaseURL,
			RPS:      cfg.RugcheckRPS,
			Timeout:  cfg.UpstreamTimeout,
			MaxRetry: cfg.UpstreamMaxRetry,
		}, log),
		log: log,
	}
}

// Report fetches the raw report. An unknown mint returns nil, nil.
func (c *Client) Report(ctx context.Context, mint string) (*Report, error) {
	var report Report
	path := "/v1/tokens/" + url.PathEscape(mint) + "/report"
	if err := c.http.GetJSON(ctx, "report", path, nil, &report); err != nil {
		if errors.Is(err, httpclient.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch report: %w", err)
	}
	return &report, nil
}

// Assess fetches the report and reduces it to an Assessment. A missing report
// is not an error: it yields the neutral unrated assessment.
func (c *Client) Assess(ctx context.Context, mint string) (*Assessment, error) {
	report, err := c.Report(ctx, mint)
	if err != nil {
		return nil, err
	}
	return Summarize(report), nil
}

// Summarize reduces a report to an Assessment; nil gives the unrated default
func Summarize(report *Report) *Assessment {
	a := &Assessment{Score: scoring.NeutralScore}
	if report == nil {
		return a
	}

	if report.Score != nil && !math.IsNaN(*report.Score) {
		a.Score = math.Min(math.Max(*report.Score, 0), 100)
		a.Rated = true
	}

	a.CriticalRisks = CriticalRisks(report)
	a.LPLockedPct = lpLockedPct(report)
	a.LPLocked = a.LPLockedPct >= LPLockedThresholdPct
	a.Rugged = report.Rugged

	for _, h := range report.TopHolders {
		addr := h.Owner
		if addr == "" {
			addr = h.Address
		}
		a.Holders = append(a.Holders, scoring.TokenHolder{
			Address:    addr,
			UIAmount:   h.UIAmount,
			Percentage: h.Pct,
		})
	}

	return a
}

// CriticalRisks returns the names of danger-level risks
func CriticalRisks(report *Report) []string {
	if report == nil {
		return nil
	}
	var names []string
	for _, r := range report.Risks {
		if r.Level == LevelDanger {
			names = append(names, r.Name)
		}
	}
	return names
}

// lpLockedPct is the best locked share across the token's pools
func lpLockedPct(report *Report) float64 {
	var best float64
	for _, m := range report.Markets {
		if m.LP != nil && m.LP.LPLockedPct > best {
			best = m.LP.LPLockedPct
		}
	}
	return best
}
