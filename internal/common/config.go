package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Paths    PathsConfig
	Watch    WatchConfig
	Sheet    SheetConfig
	Upload   UploadConfig
	Pipeline PipelineConfig
	Google   GoogleConfig
}

// PathsConfig holds the filesystem locations the pipeline operates on.
type PathsConfig struct {
	SourceDir     string
	ArchiveDir    string
	QuarantineDir string
	LedgerPath    string
}

// WatchConfig holds discovery and stability-check tuning.
type WatchConfig struct {
	PollInterval      time.Duration
	StabilityChecks   int
	StabilityInterval time.Duration
	BatchSlots        int
}

// SheetConfig holds the record-store geometry. Column letters refer to the
// inventory tab; the read range spans the identifier column through the
// variant column.
type SheetConfig struct {
	SpreadsheetID   string
	SheetName       string
	IDColumn        string
	VariantColumn   string
	LinkStartColumn string
	MarkColumn      string
	MarkValue       string
}

// UploadConfig holds blob-storage upload tuning.
type UploadConfig struct {
	FolderID    string
	Retries     int
	BackoffBase time.Duration
}

// PipelineConfig holds driver-level behavior toggles.
type PipelineConfig struct {
	TestingMode      bool // copy instead of move/delete on every transition
	ArchiveOnSuccess bool
	DuplicateLogCap  int
	CallTimeout      time.Duration
}

// GoogleConfig holds Google API credentials configuration.
type GoogleConfig struct {
	CredentialsFile string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			SourceDir:     getEnv("SOURCE_DIR", ""),
			ArchiveDir:    getEnv("ARCHIVE_DIR", ""),
			QuarantineDir: getEnv("QUARANTINE_DIR", ""),
			LedgerPath:    getEnv("LEDGER_PATH", "processing_ledger.csv"),
		},
		Watch: WatchConfig{
			PollInterval:      getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
			StabilityChecks:   getEnvAsInt("STABILITY_CHECKS", 3),
			StabilityInterval: getEnvAsDuration("STABILITY_INTERVAL", 2*time.Second),
			BatchSlots:        getEnvAsInt("BATCH_SLOTS", 2),
		},
		Sheet: SheetConfig{
			SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
			SheetName:       getEnv("SHEET_NAME", "Inventory"),
			IDColumn:        getEnv("SHEET_ID_COLUMN", "A"),
			VariantColumn:   getEnv("SHEET_VARIANT_COLUMN", "M"),
			LinkStartColumn: getEnv("SHEET_LINK_START_COLUMN", "N"),
			MarkColumn:      getEnv("SHEET_MARK_COLUMN", "P"),
			MarkValue:       getEnv("SHEET_MARK_VALUE", "✓"),
		},
		Upload: UploadConfig{
			FolderID:    getEnv("DRIVE_FOLDER_ID", ""),
			Retries:     getEnvAsInt("UPLOAD_RETRIES", 3),
			BackoffBase: getEnvAsDuration("UPLOAD_BACKOFF_BASE", 2*time.Second),
		},
		Pipeline: PipelineConfig{
			TestingMode:      getEnvAsBool("TESTING_MODE", false),
			ArchiveOnSuccess: getEnvAsBool("ARCHIVE_ON_SUCCESS", true),
			DuplicateLogCap:  getEnvAsInt("DUPLICATE_LOG_CAP", 2),
			CallTimeout:      getEnvAsDuration("CALL_TIMEOUT", 60*time.Second),
		},
		Google: GoogleConfig{
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Paths.SourceDir == "" {
		return NewAppError("CONFIG_ERROR", "SOURCE_DIR is required", ErrInvalidInput)
	}
	if c.Paths.ArchiveDir == "" {
		return NewAppError("CONFIG_ERROR", "ARCHIVE_DIR is required", ErrInvalidInput)
	}
	if c.Paths.QuarantineDir == "" {
		return NewAppError("CONFIG_ERROR", "QUARANTINE_DIR is required", ErrInvalidInput)
	}
	if c.Sheet.SpreadsheetID == "" {
		return NewAppError("CONFIG_ERROR", "SPREADSHEET_ID is required", ErrInvalidInput)
	}
	if c.Upload.FolderID == "" {
		return NewAppError("CONFIG_ERROR", "DRIVE_FOLDER_ID is required", ErrInvalidInput)
	}
	if c.Watch.BatchSlots < 1 {
		return NewAppError("CONFIG_ERROR", "BATCH_SLOTS must be at least 1", ErrInvalidInput)
	}
	if c.Watch.StabilityChecks < 1 {
		return NewAppError("CONFIG_ERROR", "STABILITY_CHECKS must be at least 1", ErrInvalidInput)
	}
	if c.Pipeline.DuplicateLogCap < 0 {
		return NewAppError("CONFIG_ERROR", "DUPLICATE_LOG_CAP must not be negative", ErrInvalidInput)
	}
	return nil
}
