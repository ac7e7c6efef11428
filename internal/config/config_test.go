package config

import (
	"errors"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Provider != "openrouter" {
		t.Errorf("Provider = %q, want openrouter", cfg.LLM.Provider)
	}
	if cfg.Revenue.TargetMRR != 2500 {
		t.Errorf("TargetMRR = %v, want 2500", cfg.Revenue.TargetMRR)
	}
	if cfg.Monitor.Addr != "0.0.0.0:8080" {
		t.Errorf("Monitor.Addr = %q, want 0.0.0.0:8080", cfg.Monitor.Addr)
	}
	if cfg.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("RequestsPerMinute = %d, want 10", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
}

func TestLoadWithoutTokenForMonitor(t *testing.T) {
	// Монитору токен бота не нужен, Load не должен его требовать.
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := Load(); err != nil {
		t.Errorf("Load() без токена error = %v, want nil", err)
	}
}

func TestValidateBotMissingToken(t *testing.T) {
	cfg := &Config{
		Revenue: RevenueConfig{TargetMRR: 2500},
		DataDir: "data",
	}
	if err := cfg.ValidateBot(); !errors.Is(err, ErrMissingToken) {
		t.Errorf("ValidateBot() error = %v, want ErrMissingToken", err)
	}
	cfg.Telegram.Token = "test-token"
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("ValidateBot() с токеном error = %v, want nil", err)
	}
}

func TestValidateTargetMRR(t *testing.T) {
	cfg := &Config{
		Revenue: RevenueConfig{TargetMRR: -1},
		DataDir: "data",
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Validate() error = %v, want ErrInvalidTarget", err)
	}
}

func TestLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"WARNING", "warn"},
		{"error", "error"},
		{"nonsense", "info"},
		{"", "info"},
	}
	for _, tc := range cases {
		if got := logLevel(tc.in).String(); got != tc.want {
			t.Errorf("logLevel(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" UQAb , ,UQCd ")
	if len(got) != 2 || got[0] != "UQAb" || got[1] != "UQCd" {
		t.Errorf("splitList() = %v, want [UQAb UQCd]", got)
	}
	if splitList("") != nil {
		t.Error("splitList(\"\") должен вернуть nil")
	}
}
