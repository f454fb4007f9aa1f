// Package explain turns a Big Fish Score into a short plain-language summary,
// using OpenAI when configured and fixed template sentences otherwise.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/scoring"
)

// Supported languages
const (
	LanguageEnglish    = "en"
	LanguageIndonesian = "id"
)

const (
	temperature = 0.7
	maxTokens   = 150
)

const systemPrompt = "You are a friendly ocean guide who explains crypto whale movements using simple ocean metaphors. " +
	"Keep responses under 50 words. Use emojis: 🐋🦈🐬🐟🐠🌊🎣🔴🟡🟢"

// Request is everything an explanation is built from
type Request struct {
	Score       scoring.BigFishScore
	Language    string
	TokenSymbol string
	TopHolders  []scoring.TokenHolder
}

// Explainer generates explanations
type Explainer struct {
	client *openai.Client // nil when no API key is configured
	model  string
	log    *logrus.Logger
}

// New creates an Explainer. Without an OpenAI key it only produces template
// explanations.
func New(cfg *config.Config, log *logrus.Logger) *Explainer {
	e := &Explainer{model: cfg.OpenAIModel, log: log}
	if e.model == "" {
		e.model = openai.GPT4
	}
	if cfg.OpenAIAPIKey != "" {
		oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = cfg.OpenAIBaseURL
		}
		e.client = openai.NewClientWithConfig(oc)
	}
	return e
}

// Enabled reports whether explanations come from the model
func (e *Explainer) Enabled() bool {
	return e.client != nil
}

// Explain returns an explanation. It never fails: any model error or empty
// answer falls back to the template sentence for the score's tier.
func (e *Explainer) Explain(ctx context.Context, req Request) string {
	req = normalize(req)
	top10 := scoring.TopHolderPercentage(req.TopHolders, scoring.TopHolderCount)

	if e.client == nil {
		return Fallback(req.Score.Score, req.Language, top10)
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(req, top10)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	metrics.RecordAPIRequest("openai", "chat_completions", time.Since(start), err)

	if err != nil {
		e.log.WithFields(logrus.Fields{
			"token": req.TokenSymbol,
			"score": req.Score.Score,
		}).WithError(err).Warn("OpenAI request failed, using fallback explanation")
		return Fallback(req.Score.Score, req.Language, top10)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		e.log.WithField("token", req.TokenSymbol).Warn("OpenAI returned no content, using fallback explanation")
		return Fallback(req.Score.Score, req.Language, top10)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// Prompt builds the user message sent to the model
func Prompt(req Request, top10 float64) string {
	lang := "English"
	if req.Language == LanguageIndonesian {
		lang = "Indonesian"
	}
	s := req.Score

	var b strings.Builder
	b.WriteString("You are BigFishAlert AI, an expert at tracking whales in the crypto ocean.\n")
	fmt.Fprintf(&b, "Respond in %s language ONLY.\n\n", lang)
	fmt.Fprintf(&b, "Token: %s\n", req.TokenSymbol)
	fmt.Fprintf(&b, "Big Fish Score: %d/100\n\n", s.Score)
	b.WriteString("Detailed Metrics:\n")
	fmt.Fprintf(&b, "- Holder Concentration: %.1f/100\n", s.HolderConcentration)
	fmt.Fprintf(&b, "  (Top 10 holders own %.1f%% of supply)\n", top10)
	fmt.Fprintf(&b, "- Recent Big Fish Activity: %.1f/100\n", s.RecentActivity)
	fmt.Fprintf(&b, "- Liquidity Ocean Depth: %.1f/100\n", s.LiquidityDepth)
	fmt.Fprintf(&b, "- Security Score: %.1f/100\n", s.SecurityScore)
	fmt.Fprintf(&b, "- Volume Anomaly: %.1f/100\n\n", s.VolumeAnomaly)
	b.WriteString(`Using ocean and fishing metaphors, explain in 3-4 SHORT sentences (max 50 words total):

1. Are big fish leaving or staying? 🐋
2. How deep is the liquidity ocean? 🌊
3. Should small fish be worried? 🐟
4. What's happening in this ocean right now?

Style Guidelines:
- Use ocean/fishing metaphors (waves, swimming, depths, currents)
- Be conversational and friendly
- NO technical jargon
- NO financial advice disclaimers
- Keep it SHORT and actionable

Now generate a response for the data above:`)
	return b.String()
}

// Fallback is the template explanation for a score tier
func Fallback(score int, language string, top10 float64) string {
	level := scoring.ClassifyRisk(score).Level

	if language == LanguageIndonesian {
		switch level {
		case scoring.RiskHigh:
			return fmt.Sprintf("Peringatan! Ikan besar sedang berenang keluar 🔴. Top 10 pemegang kontrol %.1f%% supply. Lautan dangkal - hati-hati sebelum masuk!", top10)
		case scoring.RiskMedium:
			return fmt.Sprintf("Hati-hati! Ada aktivitas ikan besar 🟡. Top 10 pemegang %.1f%% supply. Perhatikan arus sebelum berenang.", top10)
		default:
			return fmt.Sprintf("Perairan tenang 🟢. Ikan besar sedang istirahat. Top 10 pemegang %.1f%% supply. Kondisi cukup aman untuk ikan kecil.", top10)
		}
	}

	switch level {
	case scoring.RiskHigh:
		return fmt.Sprintf("Warning! Big fish are swimming away 🔴. Top 10 holders control %.1f%% of supply. Shallow waters - be careful before jumping in!", top10)
	case scoring.RiskMedium:
		return fmt.Sprintf("Caution! Big fish activity detected 🟡. Top 10 holders own %.1f%% of supply. Watch the currents before swimming.", top10)
	default:
		return fmt.Sprintf("Calm waters 🟢. Big fish are resting. Top 10 holders own %.1f%% of supply. Relatively safe conditions for small fish.", top10)
	}
}

func normalize(req Request) Request {
	if req.Language != LanguageIndonesian {
		req.Language = LanguageEnglish
	}
	if req.TokenSymbol == "" {
		req.TokenSymbol = "Token"
	}
	return req
}
