package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

// chooseOption selects the first enabled option of sel whose text
// matches name case-insensitively. name is treated as a regular
// expression, matching the portal's free-text court labels.
func (s *Scraper) chooseOption(ctx context.Context, field, sel, name string) error {
	opts, err := s.getAllOptions(ctx, sel)
	if err != nil {
		return fmt.Errorf("read options of %s: %w", field, err)
	}

	match, err := pickOption(opts, name)
	if err != nil {
		return &OptionNotFoundError{Field: field, Name: name}
	}

	if err := s.page.setOption(ctx, sel, match.Value); err != nil {
		return err
	}

	s.logger.Debug("option selected",
		slog.String("field", field),
		slog.String("requested", name),
		slog.String("matched", match.Text),
		slog.String("value", match.Value))

	// Dependent selects repopulate after the change event
	return sleep(ctx, s.cfg.SettleDelay)
}

// pickOption returns the first enabled option whose text matches name
// case-insensitively. Names that fail to compile as a regexp fall back
// to a literal match.
func pickOption(opts []option, name string) (option, error) {
	re, err := regexp.Compile("(?i)" + name)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(name))
	}

	for _, opt := range opts {
		if opt.Value == "" || opt.Disabled {
			continue
		}
		if re.MatchString(opt.Text) {
			return opt, nil
		}
	}
	return option{}, fmt.Errorf("no option matching %q", name)
}

// getAllOptions reads every option of a select, waiting first for the
// portal's AJAX repopulation to finish.
func (s *Scraper) getAllOptions(ctx context.Context, sel string) ([]option, error) {
	if err := sleep(ctx, s.cfg.PageDelay); err != nil {
		return nil, err
	}
	return s.page.options(ctx, sel)
}

// enabledOptionTexts filters the raw options down to selectable names.
func enabledOptionTexts(opts []option) []string {
	texts := make([]string, 0, len(opts))
	for _, opt := range opts {
		if opt.Value == "" || opt.Disabled {
			continue
		}
		texts = append(texts, opt.Text)
	}
	return texts
}
