package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
credentials:
  - name: main
    exchange: deribit
    key: abc
    secret: def
scheduler:
  min_polling_delay: 1s
  max_polling_delay: 10s
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesCredentialsAndSchedulerBounds(t *testing.T) {
	cfg, err := Load(writeTemp(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Credentials) != 1 || cfg.Credentials[0].Exchange != "deribit" {
		t.Fatalf("credentials = %+v", cfg.Credentials)
	}
	if cfg.Scheduler.MinPollingDelay != time.Second {
		t.Errorf("MinPollingDelay = %v, want 1s", cfg.Scheduler.MinPollingDelay)
	}
	if cfg.Scheduler.MaxPollingDelay != 10*time.Second {
		t.Errorf("MaxPollingDelay = %v, want 10s", cfg.Scheduler.MaxPollingDelay)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := &Config{Scheduler: SchedulerConfig{MinPollingDelay: time.Second, MaxPollingDelay: 2 * time.Second}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error with no credentials entries")
	}
}

func TestValidateRejectsInvertedPollingBounds(t *testing.T) {
	cfg := &Config{
		Credentials: []CredentialsConfig{{Exchange: "deribit", Key: "k", Secret: "s"}},
		Scheduler:   SchedulerConfig{MinPollingDelay: 10 * time.Second, MaxPollingDelay: time.Second},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error when max_polling_delay < min_polling_delay")
	}
}
