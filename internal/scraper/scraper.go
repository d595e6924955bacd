package scraper

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"causelist/internal/config"
	"causelist/internal/infrastructure"
	"causelist/pkg/contracts/domain"
)

// Progress is invoked as a scrape run moves through its phases. All
// fields except Phase are optional.
type Progress struct {
	Phase   string
	Court   string
	Attempt int
	Current int
	Total   int
}

// ProgressFunc receives progress callbacks from a scrape run.
type ProgressFunc func(Progress)

// Scraper owns one browser automation flow against the cause-list
// portal. It is not safe for concurrent use; callers serialize runs
// through the job queue.
type Scraper struct {
	cfg     config.ScraperConfig
	solver  Solver
	page    pageDriver
	baseDir string
	logger  *slog.Logger
	limiter *rate.Limiter
}

// New creates a Scraper writing PDFs below baseDir. A nil solver
// defaults to Tesseract OCR.
func New(cfg config.ScraperConfig, baseDir string, solver Solver, logger *slog.Logger) *Scraper {
	if solver == nil {
		solver = NewTesseractSolver(cfg.TesseractLang)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	rps := cfg.ExportRPS
	if rps <= 0 {
		rps = 0.2
	}

	return &Scraper{
		cfg:     cfg,
		solver:  solver,
		page:    chromedpPage{},
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "scraper")),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Scrape runs the full flow for a single court name and returns the
// exported records. Records are also streamed through sink as they
// land on disk.
func (s *Scraper) Scrape(ctx context.Context, sel domain.CourtSelection, sink RecordSink, progress ProgressFunc) ([]domain.Record, error) {
	ctx, cancel := s.newBrowser(ctx)
	defer cancel()

	if err := s.openPortal(ctx, progress); err != nil {
		return nil, err
	}

	if err := s.selectCourt(ctx, sel, progress); err != nil {
		return nil, err
	}
	if err := s.chooseOption(ctx, "court name", selCourtName, sel.CourtName); err != nil {
		return nil, err
	}

	records, err := s.submitAndHarvest(ctx, sel, sink, progress)
	if err != nil {
		return records, err
	}
	return records, nil
}

// ScrapeAll runs the flow once per enabled court name of the selected
// complex, reusing a single browser session. A court that fails keeps
// the loop going; only context cancellation aborts the run.
func (s *Scraper) ScrapeAll(ctx context.Context, sel domain.CourtSelection, sink RecordSink, progress ProgressFunc) ([]domain.Record, error) {
	ctx, cancel := s.newBrowser(ctx)
	defer cancel()

	if err := s.openPortal(ctx, progress); err != nil {
		return nil, err
	}

	if err := s.selectCourt(ctx, sel, progress); err != nil {
		return nil, err
	}

	opts, err := s.getAllOptions(ctx, selCourtName)
	if err != nil {
		return nil, err
	}
	courtNames := enabledOptionTexts(opts)
	s.logger.Info("scraping all court names",
		slog.Int("count", len(courtNames)),
		slog.String("complex", sel.Complex))

	var all []domain.Record
	for i, name := range courtNames {
		emit(progress, Progress{Phase: "select", Court: name, Current: i + 1, Total: len(courtNames)})

		// A rejected CAPTCHA from the previous round can leave the
		// modal open.
		if visible, err := s.page.isVisible(ctx, selModalClose); err != nil {
			return all, err
		} else if visible {
			if err := s.page.clickFirst(ctx, selModalClose); err != nil {
				return all, err
			}
		}

		courtSel := sel
		courtSel.CourtName = name
		if err := s.chooseOption(ctx, "court name", selCourtName, name); err != nil {
			var notFound *OptionNotFoundError
			if errors.As(err, &notFound) {
				s.logger.Warn("court name vanished from select, skipping",
					slog.String("court", name))
				continue
			}
			return all, err
		}

		records, err := s.submitAndHarvest(ctx, courtSel, sink, progress)
		all = append(all, records...)
		if err != nil {
			if ctx.Err() != nil {
				return all, err
			}
			if errors.Is(err, ErrCaptchaExhausted) {
				s.logger.Error("captcha attempts exhausted for court, continuing",
					slog.String("court", name))
			} else {
				s.logger.Error("harvest failed for court, continuing",
					slog.String("court", name),
					slog.String("error", err.Error()))
			}
			continue
		}

		if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
			return all, err
		}
	}
	return all, nil
}

// openPortal navigates to the cause-list page and dismisses the
// greeting modal when present.
func (s *Scraper) openPortal(ctx context.Context, progress ProgressFunc) error {
	emit(progress, Progress{Phase: "navigate"})

	url := s.cfg.PortalURL
	if url == "" {
		url = PortalURL
	}

	s.logger.Info("opening portal", slog.String("url", url))
	if err := s.page.navigate(ctx, url, selState); err != nil {
		return err
	}
	if err := sleep(ctx, s.cfg.PageDelay); err != nil {
		return err
	}

	visible, err := s.page.isVisible(ctx, selModalClose)
	if err != nil {
		return err
	}
	if visible {
		return s.page.clickFirst(ctx, selModalClose)
	}
	return nil
}

// selectCourt drives the state, district and complex selects. A name
// missing from one of them is logged and skipped; the court-name step
// surfaces the failure when the chain really went nowhere.
func (s *Scraper) selectCourt(ctx context.Context, sel domain.CourtSelection, progress ProgressFunc) error {
	emit(progress, Progress{Phase: "select", Court: sel.Complex})

	steps := []struct {
		field string
		sel   string
		name  string
	}{
		{"state", selState, sel.State},
		{"district", selDistrict, sel.District},
		{"court complex", selComplex, sel.Complex},
	}

	for _, step := range steps {
		err := s.chooseOption(ctx, step.field, step.sel, step.name)
		if err == nil {
			continue
		}
		var notFound *OptionNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		s.logger.Warn("option not found, continuing",
			slog.String("field", step.field),
			slog.String("requested", step.name))
	}
	return nil
}

// submitAndHarvest fills the date, solves the CAPTCHA, and exports the
// listed records for the currently selected court name.
func (s *Scraper) submitAndHarvest(ctx context.Context, sel domain.CourtSelection, sink RecordSink, progress ProgressFunc) ([]domain.Record, error) {
	if err := s.page.fillValue(ctx, selDate, sel.Date); err != nil {
		return nil, err
	}

	emit(progress, Progress{Phase: "captcha", Court: sel.CourtName})
	if err := s.submitForm(ctx, sel.CaseType); err != nil {
		return nil, err
	}
	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, err
	}
	if err := s.passCaptcha(ctx, sel.CaseType, func(attempt int) {
		emit(progress, Progress{Phase: "captcha", Court: sel.CourtName, Attempt: attempt})
	}); err != nil {
		return nil, err
	}

	emit(progress, Progress{Phase: "harvest", Court: sel.CourtName})
	return s.harvest(ctx, sel, sink)
}

func emit(progress ProgressFunc, p Progress) {
	if progress != nil {
		progress(p)
	}
}
