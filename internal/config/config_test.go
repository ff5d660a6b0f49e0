package config

import (
	"os"
	"path/filepath"
	"testing"

	"BioDigest/internal/domain"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()

	if cfg.Timezone != defaultTimezone {
		t.Fatalf("unexpected timezone: %s", cfg.Timezone)
	}
	if cfg.WindowHours != 12 {
		t.Fatalf("unexpected window: %d", cfg.WindowHours)
	}
	if len(cfg.ReportTimes) != 2 {
		t.Fatalf("unexpected report times: %v", cfg.ReportTimes)
	}
	if len(cfg.Sources.BioRxiv.Feeds) == 0 {
		t.Fatal("expected default feeds")
	}
	if len(cfg.Sources.PubMed.Venues) == 0 {
		t.Fatal("expected default venues")
	}
	if cfg.Location() == nil {
		t.Fatal("expected resolved location")
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
timezone: UTC
windowHours: 6
reportTimes: ["08:00"]
queries:
  - any: [tumor]
exclude: [plant]
digest:
  mode: deep
  maxItems: 5
sources:
  pubmed:
    maxPerVenue: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Timezone != "UTC" {
		t.Fatalf("unexpected timezone: %s", cfg.Timezone)
	}
	if cfg.WindowHours != 6 {
		t.Fatalf("unexpected window: %d", cfg.WindowHours)
	}
	if len(cfg.ReportTimes) != 1 || cfg.ReportTimes[0] != "08:00" {
		t.Fatalf("unexpected report times: %v", cfg.ReportTimes)
	}
	if len(cfg.Queries) != 1 || cfg.Queries[0].Any[0] != "tumor" {
		t.Fatalf("unexpected queries: %+v", cfg.Queries)
	}
	if cfg.Digest.DigestMode() != domain.ModeDeep {
		t.Fatalf("unexpected mode: %s", cfg.Digest.Mode)
	}
	if cfg.Digest.MaxItems != 5 {
		t.Fatalf("unexpected maxItems: %d", cfg.Digest.MaxItems)
	}
	if cfg.Sources.PubMed.MaxPerVenue != 3 {
		t.Fatalf("unexpected maxPerVenue: %d", cfg.Sources.PubMed.MaxPerVenue)
	}
	// Unset fields keep their defaults.
	if cfg.Digest.AbstractMaxChars != 500 {
		t.Fatalf("expected default abstract limit, got %d", cfg.Digest.AbstractMaxChars)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("unexpected location: %s", cfg.Location())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(llmAPIKeyEnv, "sk-test")
	t.Setenv(llmModelEnv, "custom-model")
	t.Setenv(smtpServerEnv, "smtp.example.com")
	t.Setenv(smtpPortEnv, "587")
	t.Setenv(smtpSenderEnv, "digest@example.com")
	t.Setenv(smtpPasswordEnv, "secret")
	t.Setenv(recipientEnv, "a@example.com; b@example.com,c@example.com")

	cfg := Load()

	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("unexpected api key: %s", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "custom-model" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.Mail.Server != "smtp.example.com" || cfg.Mail.Port != 587 {
		t.Fatalf("unexpected smtp settings: %s:%d", cfg.Mail.Server, cfg.Mail.Port)
	}
	if len(cfg.Mail.Recipients) != 3 {
		t.Fatalf("unexpected recipients: %v", cfg.Mail.Recipients)
	}
}

func TestSplitRecipients(t *testing.T) {
	t.Parallel()

	got := SplitRecipients(" a@x.com ;; b@x.com , ,c@x.com")
	want := []string{"a@x.com", "b@x.com", "c@x.com"}
	if len(got) != len(want) {
		t.Fatalf("expected %d recipients, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recipient %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if SplitRecipients("") != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestDigestModeDefaultsToConcise(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.DigestMode{
		"":        domain.ModeConcise,
		"concise": domain.ModeConcise,
		"DEEP":    domain.ModeDeep,
		"bogus":   domain.ModeConcise,
	}
	for value, want := range cases {
		d := DigestConfig{Mode: value}
		if got := d.DigestMode(); got != want {
			t.Fatalf("DigestMode(%q) = %s, want %s", value, got, want)
		}
	}
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timezone: Not/AZone\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Location().String() != defaultTimezone {
		t.Fatalf("expected fallback location, got %s", cfg.Location())
	}
}
