package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sox-reconciler/internal/config"
	"sox-reconciler/internal/gateway"
	"sox-reconciler/internal/usecase"
)

func main() {
	// Define command-line flags
	cutoff := flag.String("cutoff", "", "Cutoff date for the close (YYYY-MM-DD) (required)")
	dataDir := flag.String("data", "", "Directory holding the extract CSV/XLSX files (required)")
	outFile := flag.String("out", "", "Write the JSON report to this file instead of stdout")
	xlsxFile := flag.String("xlsx", "", "Also write the evidence workbook to this .xlsx file")
	flag.Parse()

	// Validate required flags
	if *cutoff == "" || *dataDir == "" {
		fmt.Fprintln(os.Stderr, "Error: flags -cutoff and -data are required.")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so the JSON report on stdout stays clean.
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	// --- Dependency Injection (Wiring the application) ---
	repo := gateway.NewCSVExtractRepository(logger)
	reconciliationUseCase := usecase.NewReconciliationUseCase(repo, cfg, logger)

	// --- Execute the Usecase ---
	report, err := reconciliationUseCase.Reconcile(context.Background(), usecase.Request{
		CutoffDate: *cutoff,
		Source:     *dataDir,
	})
	if err != nil {
		logger.Fatalf("Reconciliation failed: %v", err)
	}

	// --- Present the Output ---
	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to generate JSON report: %v", err)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, append(output, '\n'), 0o644); err != nil {
			logger.Fatalf("Failed to write report: %v", err)
		}
	} else {
		fmt.Println(string(output))
	}

	if *xlsxFile != "" {
		if err := gateway.NewXLSXEvidenceWriter(logger).Write(report, *xlsxFile); err != nil {
			logger.Fatalf("Failed to write evidence workbook: %v", err)
		}
	}
}
