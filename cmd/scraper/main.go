// Command scraper retrieves cause-list PDFs from the eCourts portal
// for one court or for every court in a complex, without the web
// server. Results land in the output tree as
// state/district/complex/court/CNR.pdf.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"causelist/internal/config"
	"causelist/internal/infrastructure"
	"causelist/internal/scraper"
	"causelist/pkg/contracts/domain"
)

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n", r)
			fmt.Printf("Stack trace:\n%s\n", debug.Stack())
			if logger != nil {
				logger.Error("scraper panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	state := flag.String("state", "", "state name, matched case-insensitively against the portal dropdown")
	district := flag.String("district", "", "district name")
	complexName := flag.String("complex", "", "court complex name")
	courtName := flag.String("name", "", "court name; omit with -all to scrape every court")
	date := flag.String("date", "", "cause-list date (DD-MM-YYYY)")
	caseType := flag.String("case", "Civil", "case type: Civil or Criminal")
	all := flag.Bool("all", false, "scrape every court in the complex")
	outDir := flag.String("out", "", "output directory (defaults to data/causelists relative to executable)")
	headless := flag.Bool("headless", true, "run browser headless")
	timeout := flag.Duration("timeout", 2*time.Hour, "overall run timeout")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		fmt.Printf("Error: failed to initialize paths: %v\n", err)
		os.Exit(1)
	}
	if *outDir == "" {
		*outDir = paths.OutputDir
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: failed to load config, using defaults: %v\n", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "console",
			},
			Scraper: config.ScraperConfig{
				PortalURL:          scraper.PortalURL,
				Headless:           true,
				MaxCaptchaAttempts: 10,
				SettleDelay:        2 * time.Second,
				PageDelay:          5 * time.Second,
				ExportRPS:          0.2,
				TesseractLang:      "eng",
			},
		}
	}
	cfg.Scraper.Headless = *headless
	cfg.Logging.FilePath = paths.GetLogPath("scraper.log")

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}

	sel := domain.CourtSelection{
		State:     *state,
		District:  *district,
		Complex:   *complexName,
		CourtName: *courtName,
		Date:      *date,
		CaseType:  domain.CaseType(*caseType),
	}
	if err := validateFlags(sel, *all); err != nil {
		fmt.Printf("Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Error("failed to create output dir", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("cause-list scraper starting",
		slog.String("state", sel.State),
		slog.String("district", sel.District),
		slog.String("complex", sel.Complex),
		slog.String("court", sel.CourtName),
		slog.String("date", sel.Date),
		slog.Bool("all_courts", *all),
		slog.String("output_dir", *outDir))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	s := scraper.New(cfg.Scraper, *outDir, nil, logger)

	sink := func(r domain.Record) {
		fmt.Printf("saved %s -> %s\n", r.CNR, r.Path)
	}
	progress := func(p scraper.Progress) {
		switch p.Phase {
		case "captcha":
			if p.Attempt > 0 {
				fmt.Printf("  captcha attempt %d\n", p.Attempt)
			}
		case "select":
			if p.Total > 0 {
				fmt.Printf("court %d/%d: %s\n", p.Current, p.Total, p.Court)
			}
		}
	}

	var records []domain.Record
	if *all {
		records, err = s.ScrapeAll(ctx, sel, sink, progress)
	} else {
		records, err = s.Scrape(ctx, sel, sink, progress)
	}

	if err != nil {
		logger.Error("scrape failed",
			slog.String("error", err.Error()),
			slog.Int("records", len(records)))
		fmt.Printf("scrape failed after %d records: %v\n", len(records), err)
		os.Exit(1)
	}

	logger.Info("scrape complete", slog.Int("records", len(records)))
	fmt.Printf("done: %d cause-list PDFs under %s\n", len(records), *outDir)
}

// validateFlags enforces the flag invariants before a browser starts.
func validateFlags(sel domain.CourtSelection, all bool) error {
	switch {
	case sel.State == "":
		return fmt.Errorf("-state is required")
	case sel.District == "":
		return fmt.Errorf("-district is required")
	case sel.Complex == "":
		return fmt.Errorf("-complex is required")
	case !all && sel.CourtName == "":
		return fmt.Errorf("-name is required unless -all is set")
	case all && sel.CourtName != "":
		return fmt.Errorf("-name and -all are mutually exclusive")
	case !sel.CaseType.Valid():
		return fmt.Errorf("-case must be Civil or Criminal")
	}
	return sel.ValidateDate()
}
