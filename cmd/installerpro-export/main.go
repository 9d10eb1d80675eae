package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"installerpro/internal/cli"
	"installerpro/internal/core"
	"installerpro/internal/export"
	"installerpro/internal/pricing"
	"installerpro/internal/report"
	"installerpro/internal/store"
)

// installerpro-export is a one-shot tool: it opens the same dictionary
// the server uses and writes a CSV, a PDF report or a full backup to a
// file, then exits.
func main() {
	var (
		format = flag.String("format", "csv", "output format: csv, pdf or backup")
		out    = flag.String("out", "", "output file (default: stdout for csv/backup, report_<period>.pdf for pdf)")
		period = flag.String("period", "", "period YYYY-MM for the PDF report (default: current month)")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	dict := cli.OpenDictionary(logger, cfg)
	defer dict.Close()

	ctx := context.Background()
	st, err := store.Open(ctx, dict, store.Options{
		CodePolicy:        cfg.CodePolicy,
		RequireClientName: cfg.RequireClientName,
		Rollover:          cfg.RolloverMode,
	}, nil)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)
		os.Exit(1)
	}

	if *period == "" {
		*period = core.Today().Period()
	}

	var data []byte
	switch *format {
	case "csv":
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, st.Installations(), cfg.RequireClientName); err != nil {
			logger.Error("CSV export failed", "error", err)
			os.Exit(1)
		}
		data = buf.Bytes()

	case "pdf":
		installs := inPeriod(st.Installations(), *period)
		fuel := inPeriod(st.FuelExpenses(), *period)
		rep := report.Build(st.Technician(), *period, installs, fuel, cfg.DailyTotalPolicy)
		data, err = report.RenderPDF(rep)
		if err != nil {
			logger.Error("PDF rendering failed", "error", err)
			os.Exit(1)
		}
		if *out == "" {
			*out = fmt.Sprintf("report_%s.pdf", *period)
		}

	case "backup":
		entries, err := st.ExportAll(ctx)
		if err != nil {
			logger.Error("Backup export failed", "error", err)
			os.Exit(1)
		}
		data, err = export.MarshalBackup(entries)
		if err != nil {
			logger.Error("Backup export failed", "error", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown format %q: want csv, pdf or backup\n", *format)
		os.Exit(2)
	}

	if *out == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("Failed writing output file", "error", err, "path", *out)
		os.Exit(1)
	}
	logger.Info("Export written", "format", *format, "path", *out, "bytes", len(data))
}

func inPeriod[T pricing.Dated](records []T, period string) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if rec.Day().Period() == period {
			out = append(out, rec)
		}
	}
	return out
}
