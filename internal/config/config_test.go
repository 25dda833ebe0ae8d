package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
exchange:
  access_key: ak
  secret_key: sk
discord:
  webhook_url: https://discord.com/api/webhooks/1/abc
`

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(cfg.Markets) != 5 {
		t.Errorf("default markets = %d, want 5", len(cfg.Markets))
	}
	if cfg.Trade.MinOrder != 5000 || cfg.Trade.FeeRate != 0.0005 {
		t.Errorf("trade defaults = %+v", cfg.Trade)
	}
	if cfg.Trade.CandleInterval != "minute5" {
		t.Errorf("candle interval = %q, want minute5", cfg.Trade.CandleInterval)
	}
	if got := cfg.Market("BTC"); got != "KRW-BTC" {
		t.Errorf("Market(BTC) = %q, want KRW-BTC", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("UPBIT_ACCESS_KEY", "from-env")
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Exchange.AccessKey != "from-env" {
		t.Errorf("access key = %q, want env override", cfg.Exchange.AccessKey)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	t.Setenv("UPBIT_ACCESS_KEY", "")
	t.Setenv("UPBIT_SECRET_KEY", "")
	cfg, err := Load(writeConfig(t, `discord: {webhook_url: "https://discord.com/api/webhooks/1/abc"}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure without exchange credentials")
	}
}

func TestValidate_AllocationOverflow(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
markets:
  - {symbol: BTC, allocation: 60}
  - {symbol: ETH, allocation: 60}
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for allocations over 100%")
	}
}

func TestValidate_AdvisorNeedsKey(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
advisor:
  enabled: true
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for enabled advisor without key")
	}
}
