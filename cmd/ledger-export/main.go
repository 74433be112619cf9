package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"shopflow/internal/export"
	"shopflow/internal/ledger"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in      = flag.String("ledger", "processing_ledger.csv", "path to the ledger file")
		out     = flag.String("out", "ledger_report.xlsx", "output XLSX file path")
		fromStr = flag.String("from", "", "from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "to date YYYY-MM-DD")
	)
	flag.Parse()

	var from, to *time.Time
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		from = &parsed
	}
	if *toStr != "" {
		parsed, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		to = &parsed
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	entries, err := ledger.ReadEntries(*in)
	if err != nil {
		logger.Error("failed to read ledger", "path", *in, "error", err)
		os.Exit(1)
	}

	svc := export.NewService(logger)
	data, err := svc.LedgerReportXLSX(entries, from, to)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write report", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("report written", "path", *out, "entries", len(entries))
}
