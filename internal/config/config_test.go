package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		HTTPPort:           8080,
		SolanaRPCURL:       "https://api.mainnet-beta.solana.com",
		TopHoldersLimit:    20,
		OceanScanWorkers:   2,
		MonitorWorkers:     2,
		MonitorIntervalSec: 60,
		AlertMinScore:      70,
		ExplainLanguage:    "en",
		AlertMode:          "log",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"missing rpc", func(c *Config) { c.SolanaRPCURL = "" }, "SOLANA_RPC_URL"},
		{"bad port", func(c *Config) { c.HTTPPort = 70000 }, "HTTP_PORT"},
		{"alert score above 100", func(c *Config) { c.AlertMinScore = 101 }, "ALERT_MIN_SCORE"},
		{"too few holders for top 10", func(c *Config) { c.TopHoldersLimit = 5 }, "TOP_HOLDERS_LIMIT"},
		{"unsupported language", func(c *Config) { c.ExplainLanguage = "fr" }, "EXPLAIN_LANGUAGE"},
		{"unknown alert mode", func(c *Config) { c.AlertMode = "log,pager" }, "pager"},
		{"discord without webhook", func(c *Config) { c.AlertMode = "discord" }, "DISCORD_WEBHOOK_URLS"},
		{"smtp without host", func(c *Config) { c.AlertMode = "smtp" }, "SMTP_HOST"},
		{"telegram without chat", func(c *Config) {
			c.AlertMode = "telegram"
			c.TelegramBotToken = "123:abc"
		}, "TELEGRAM_CHAT_ID"},
		{"multi mode fully configured", func(c *Config) {
			c.AlertMode = "log, discord,telegram"
			c.DiscordWebhookURLs = []string{"https://discord.example/hook"}
			c.TelegramBotToken = "123:abc"
			c.TelegramChatID = -100123
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("ALERT_MIN_SCORE", "65")
	t.Setenv("HELIUS_RPS", "3.5")
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	t.Setenv("SMTP_TO", "a@example.com, b@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 65, cfg.AlertMinScore)
	assert.Equal(t, 3.5, cfg.HeliusRPS)
	assert.Equal(t, int64(0), cfg.TelegramChatID, "unparseable values fall back to the default")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.SMTPTo)
	assert.False(t, cfg.StorageEnabled())
}

func TestLoadWatchlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	content := `tokens:
  - address: DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263
    label: BONK
  - address: "  EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm "
    label: WIF
    min_score: 60
  - address: DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263
    label: duplicate
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	entries, err := LoadWatchlist(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "BONK", entries[0].Label)
	assert.Equal(t, "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm", entries[1].Address)
	assert.Equal(t, 60, entries[1].MinScore)
}

func TestLoadWatchlistRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()

	noAddress := filepath.Join(dir, "no_address.yaml")
	require.NoError(t, os.WriteFile(noAddress, []byte("tokens:\n  - label: X\n"), 0o600))
	_, err := LoadWatchlist(noAddress)
	assert.Error(t, err)

	badScore := filepath.Join(dir, "bad_score.yaml")
	require.NoError(t, os.WriteFile(badScore, []byte("tokens:\n  - address: abc\n    min_score: 150\n"), 0o600))
	_, err = LoadWatchlist(badScore)
	assert.Error(t, err)

	_, err = LoadWatchlist(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
