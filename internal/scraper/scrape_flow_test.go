package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causelist/internal/config"
	"causelist/pkg/contracts/domain"
)

func testFlowLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countResult scripts one count() call of the fake page.
type countResult struct {
	n   int
	err error
}

// fakePage scripts the portal DOM so the form, CAPTCHA and harvest
// flows run without a browser.
type fakePage struct {
	optionsBySel map[string][]option
	selected     map[string]string
	fills        map[string]string

	// modalRejections is how many more isVisible checks of the error
	// modal report it standing.
	modalRejections int

	counts []countResult
	cnrs   []string
	pdf    []byte

	refreshes int
	submits   int
	onSubmit  func()
	navErr    error
}

func (p *fakePage) navigate(ctx context.Context, url, waitSel string) error { return p.navErr }

func (p *fakePage) isVisible(ctx context.Context, sel string) (bool, error) {
	if sel == selModalClose && p.modalRejections > 0 {
		p.modalRejections--
		return true, nil
	}
	return false, nil
}

func (p *fakePage) clickFirst(ctx context.Context, sel string) error {
	if sel == selRefresh {
		p.refreshes++
	}
	return nil
}

func (p *fakePage) clickNth(ctx context.Context, sel string, i int) error { return nil }

func (p *fakePage) clickButtonByText(ctx context.Context, label string) error {
	p.submits++
	if p.onSubmit != nil {
		p.onSubmit()
	}
	return nil
}

func (p *fakePage) fillValue(ctx context.Context, sel, value string) error {
	if p.fills == nil {
		p.fills = make(map[string]string)
	}
	p.fills[sel] = value
	return nil
}

func (p *fakePage) firstText(ctx context.Context, sel string) (string, error) {
	if len(p.cnrs) == 0 {
		return "", nil
	}
	cnr := p.cnrs[0]
	p.cnrs = p.cnrs[1:]
	return cnr, nil
}

func (p *fakePage) options(ctx context.Context, sel string) ([]option, error) {
	return p.optionsBySel[sel], nil
}

func (p *fakePage) setOption(ctx context.Context, sel, value string) error {
	if p.selected == nil {
		p.selected = make(map[string]string)
	}
	p.selected[sel] = value
	return nil
}

func (p *fakePage) count(ctx context.Context, sel string) (int, error) {
	if len(p.counts) == 0 {
		return 0, nil
	}
	next := p.counts[0]
	p.counts = p.counts[1:]
	return next.n, next.err
}

func (p *fakePage) captchaImage(ctx context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (p *fakePage) printPDF(ctx context.Context) ([]byte, error) {
	return p.pdf, nil
}

func scriptedScraper(t *testing.T, page *fakePage) *Scraper {
	t.Helper()
	s := New(config.ScraperConfig{
		MaxCaptchaAttempts: 10,
		ExportRPS:          100,
	}, t.TempDir(), &fakeSolver{answer: "AB12CD"}, testFlowLogger())
	s.page = page
	return s
}

func testFlowSelection() domain.CourtSelection {
	return domain.CourtSelection{
		State:    "Delhi",
		District: "New Delhi",
		Complex:  "Patiala House",
		Date:     "15-08-2026",
		CaseType: domain.CaseTypeCivil,
	}
}

// fullChainOptions populates every select of the form chain.
func fullChainOptions(courts ...option) map[string][]option {
	return map[string][]option{
		selState:     {{Value: "7", Text: "Delhi"}},
		selDistrict:  {{Value: "2", Text: "New Delhi"}},
		selComplex:   {{Value: "9", Text: "District and Sessions Court, Patiala House"}},
		selCourtName: courts,
	}
}

func TestPassCaptchaRetryBound(t *testing.T) {
	tests := []struct {
		name       string
		rejections int
		wantErr    error
		wantRounds int
	}{
		{"accepted immediately", 0, nil, 0},
		{"accepted after retries", 3, nil, 3},
		{"accepted on last attempt", 10, nil, 10},
		{"attempts exhausted", 11, ErrCaptchaExhausted, 10},
		{"modal never clears", 50, ErrCaptchaExhausted, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{modalRejections: tt.rejections}
			s := scriptedScraper(t, page)

			err := s.passCaptcha(context.Background(), domain.CaseTypeCivil, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantRounds, page.refreshes)
			assert.Equal(t, tt.wantRounds, page.submits)
		})
	}
}

func TestPassCaptchaReportsAttempts(t *testing.T) {
	page := &fakePage{modalRejections: 2}
	s := scriptedScraper(t, page)

	var attempts []int
	err := s.passCaptcha(context.Background(), domain.CaseTypeCivil, func(attempt int) {
		attempts = append(attempts, attempt)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestSelectCourtContinuesPastMissingOption(t *testing.T) {
	page := &fakePage{optionsBySel: fullChainOptions()}
	// The district list is stale and lacks the requested name
	page.optionsBySel[selDistrict] = []option{{Value: "4", Text: "South West"}}
	s := scriptedScraper(t, page)

	err := s.selectCourt(context.Background(), testFlowSelection(), nil)
	require.NoError(t, err)
	assert.Equal(t, "7", page.selected[selState])
	assert.NotContains(t, page.selected, selDistrict)
	assert.Equal(t, "9", page.selected[selComplex])
}

func TestScrapeCourtNameMissIsError(t *testing.T) {
	page := &fakePage{optionsBySel: fullChainOptions(option{Value: "1", Text: "Court 1"})}
	s := scriptedScraper(t, page)

	sel := testFlowSelection()
	sel.CourtName = "Court 99"
	_, err := s.Scrape(context.Background(), sel, nil, nil)

	var notFound *OptionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "court name", notFound.Field)
}

func TestScrapeExportsListedRecords(t *testing.T) {
	page := &fakePage{
		optionsBySel: fullChainOptions(option{Value: "1", Text: "Court 1"}),
		counts:       []countResult{{n: 2}},
		cnrs:         []string{"DLND010012342024", "DLND010056782024"},
		pdf:          []byte("%PDF-1.4 fake"),
	}
	s := scriptedScraper(t, page)

	var streamed []domain.Record
	sel := testFlowSelection()
	sel.CourtName = "Court 1"
	records, err := s.Scrape(context.Background(), sel, func(r domain.Record) {
		streamed = append(streamed, r)
	}, nil)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "DLND010012342024", records[0].CNR)
	assert.FileExists(t, records[0].Path)
	assert.FileExists(t, records[1].Path)
	assert.Len(t, streamed, 2)
}

func TestScrapeAllContinuesPastFailedCourt(t *testing.T) {
	page := &fakePage{
		optionsBySel: fullChainOptions(
			option{Value: "1", Text: "Court 1"},
			option{Value: "2", Text: "Court 2"},
		),
		// The first court's results table never renders; the second
		// court lists one record.
		counts: []countResult{{err: errors.New("results table missing")}, {n: 1}},
		cnrs:   []string{"DLND010012342024"},
		pdf:    []byte("%PDF-1.4 fake"),
	}
	s := scriptedScraper(t, page)

	records, err := s.ScrapeAll(context.Background(), testFlowSelection(), nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "DLND010012342024", records[0].CNR)
	assert.Equal(t, "Court 2", records[0].Court)
}

func TestScrapeAllStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	page := &fakePage{
		optionsBySel: fullChainOptions(
			option{Value: "1", Text: "Court 1"},
			option{Value: "2", Text: "Court 2"},
		),
	}
	page.onSubmit = cancel
	s := scriptedScraper(t, page)

	_, err := s.ScrapeAll(ctx, testFlowSelection(), nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, page.submits)
}
