package common

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			SourceDir:     "/data/incoming",
			ArchiveDir:    "/data/archive",
			QuarantineDir: "/data/quarantine",
			LedgerPath:    "/data/ledger.csv",
		},
		Watch: WatchConfig{
			PollInterval:    30 * time.Second,
			StabilityChecks: 3,
			BatchSlots:      2,
		},
		Sheet:  SheetConfig{SpreadsheetID: "sheet-id"},
		Upload: UploadConfig{FolderID: "folder-id"},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.Watch.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v", cfg.Watch.PollInterval)
	}
	if cfg.Watch.StabilityChecks != 3 || cfg.Watch.BatchSlots != 2 {
		t.Errorf("stability = %d checks, %d slots", cfg.Watch.StabilityChecks, cfg.Watch.BatchSlots)
	}
	if cfg.Sheet.SheetName != "Inventory" || cfg.Sheet.IDColumn != "A" || cfg.Sheet.VariantColumn != "M" {
		t.Errorf("sheet geometry = %+v", cfg.Sheet)
	}
	if cfg.Sheet.LinkStartColumn != "N" || cfg.Sheet.MarkColumn != "P" || cfg.Sheet.MarkValue != "✓" {
		t.Errorf("write-back geometry = %+v", cfg.Sheet)
	}
	if cfg.Upload.Retries != 3 || cfg.Upload.BackoffBase != 2*time.Second {
		t.Errorf("upload tuning = %+v", cfg.Upload)
	}
	if cfg.Pipeline.DuplicateLogCap != 2 || !cfg.Pipeline.ArchiveOnSuccess || cfg.Pipeline.TestingMode {
		t.Errorf("pipeline toggles = %+v", cfg.Pipeline)
	}
	if cfg.Paths.LedgerPath != "processing_ledger.csv" {
		t.Errorf("LedgerPath = %q", cfg.Paths.LedgerPath)
	}
	if cfg.Google.CredentialsFile != "credentials.json" {
		t.Errorf("CredentialsFile = %q", cfg.Google.CredentialsFile)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SOURCE_DIR", "/mnt/drop")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("BATCH_SLOTS", "3")
	t.Setenv("TESTING_MODE", "true")
	t.Setenv("DUPLICATE_LOG_CAP", "5")

	cfg := LoadConfig()
	if cfg.Paths.SourceDir != "/mnt/drop" {
		t.Errorf("SourceDir = %q", cfg.Paths.SourceDir)
	}
	if cfg.Watch.PollInterval != 5*time.Second || cfg.Watch.BatchSlots != 3 {
		t.Errorf("watch = %+v", cfg.Watch)
	}
	if !cfg.Pipeline.TestingMode || cfg.Pipeline.DuplicateLogCap != 5 {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing source", func(c *Config) { c.Paths.SourceDir = "" }},
		{"missing archive", func(c *Config) { c.Paths.ArchiveDir = "" }},
		{"missing quarantine", func(c *Config) { c.Paths.QuarantineDir = "" }},
		{"missing spreadsheet", func(c *Config) { c.Sheet.SpreadsheetID = "" }},
		{"missing folder", func(c *Config) { c.Upload.FolderID = "" }},
		{"zero slots", func(c *Config) { c.Watch.BatchSlots = 0 }},
		{"zero stability checks", func(c *Config) { c.Watch.StabilityChecks = 0 }},
		{"negative duplicate cap", func(c *Config) { c.Pipeline.DuplicateLogCap = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("want validation error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
