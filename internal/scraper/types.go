package scraper

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by scrape runs.
var (
	// ErrCaptchaExhausted is returned when the CAPTCHA was not
	// accepted within the configured number of attempts.
	ErrCaptchaExhausted = errors.New("failed to solve captcha, attempts exhausted")

	// ErrInvalidImage is returned when the CAPTCHA capture does not
	// decode to an image.
	ErrInvalidImage = errors.New("invalid captcha image")
)

// OptionNotFoundError reports that no enabled option of a select
// matched the requested name.
type OptionNotFoundError struct {
	Field string
	Name  string
}

func (e *OptionNotFoundError) Error() string {
	return fmt.Sprintf("no option matching %q for %s", e.Name, e.Field)
}

// option is one entry of a select element as seen on the page.
type option struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
}
