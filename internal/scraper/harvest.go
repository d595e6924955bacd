package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"causelist/pkg/contracts/domain"
)

// RecordSink receives each record as soon as its PDF is on disk.
type RecordSink func(domain.Record)

// harvest walks the result rows of a submitted cause-list form, opens
// each record, prints it to PDF named after the CNR label, and
// navigates back for the next row.
func (s *Scraper) harvest(ctx context.Context, sel domain.CourtSelection, sink RecordSink) ([]domain.Record, error) {
	if err := sleep(ctx, s.cfg.PageDelay); err != nil {
		return nil, err
	}

	count, err := s.page.count(ctx, selRecordLink)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		s.logger.Info("no records listed",
			slog.String("court", sel.CourtName),
			slog.String("date", sel.Date))
		return nil, nil
	}

	dir := s.courtDir(sel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	s.logger.Info("harvesting records",
		slog.Int("count", count),
		slog.String("dir", dir))

	var records []domain.Record
	for i := 0; i < count; i++ {
		record, err := s.harvestOne(ctx, dir, i, sel.CourtName)
		if err != nil {
			return records, err
		}
		if record == nil {
			continue
		}
		records = append(records, *record)
		if sink != nil {
			sink(*record)
		}
	}
	return records, nil
}

// harvestOne opens the i-th record, exports it and navigates back.
// Returns nil without error when the row carries no CNR label.
func (s *Scraper) harvestOne(ctx context.Context, dir string, i int, courtName string) (*domain.Record, error) {
	// Row handles go stale after the back navigation, so rows are
	// addressed by index on every pass.
	if err := s.page.clickNth(ctx, selRecordLink, i); err != nil {
		return nil, err
	}
	if err := sleep(ctx, s.cfg.PageDelay); err != nil {
		return nil, err
	}

	cnr, err := s.page.firstText(ctx, selCNRNumber)
	if err != nil {
		return nil, err
	}
	cnr = strings.TrimSpace(cnr)
	if cnr == "" {
		s.logger.Warn("record without CNR label, skipping",
			slog.Int("index", i),
			slog.String("court", courtName))
		return nil, s.goBack(ctx)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := s.page.printPDF(ctx)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", cnr, err)
	}
	path := filepath.Join(dir, sanitizeFilename(cnr)+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("export %s: %w", cnr, err)
	}

	s.logger.Info("record exported",
		slog.String("cnr", cnr),
		slog.String("path", path),
		slog.Int64("size_bytes", int64(len(data))))

	if err := s.goBack(ctx); err != nil {
		return nil, err
	}

	return &domain.Record{
		CNR:       cnr,
		Path:      path,
		Court:     courtName,
		SavedAt:   time.Now(),
		SizeBytes: int64(len(data)),
	}, nil
}

// goBack returns from a record view to the result list.
func (s *Scraper) goBack(ctx context.Context) error {
	if err := s.page.clickFirst(ctx, selBack); err != nil {
		return err
	}
	return sleep(ctx, s.cfg.PageDelay)
}

// courtDir is the per-court output directory, nested the same way the
// form drills down.
func (s *Scraper) courtDir(sel domain.CourtSelection) string {
	return filepath.Join(s.baseDir,
		sanitizeFilename(sel.State),
		sanitizeFilename(sel.District),
		sanitizeFilename(sel.Complex),
		sanitizeFilename(sel.CourtName))
}

// sanitizeFilename keeps path components safe on every platform the
// exports may be synced to.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	return replacer.Replace(name)
}
