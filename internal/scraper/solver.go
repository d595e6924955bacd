package scraper

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Solver turns a CAPTCHA image into the text to submit. Implementations
// must be safe for sequential reuse across attempts.
type Solver interface {
	Solve(ctx context.Context, image []byte) (string, error)
}

// TesseractSolver runs the image through the Tesseract OCR engine.
type TesseractSolver struct {
	lang string
}

// NewTesseractSolver creates a solver for the given language pack
// ("eng" when empty).
func NewTesseractSolver(lang string) *TesseractSolver {
	if lang == "" {
		lang = "eng"
	}
	return &TesseractSolver{lang: lang}
}

// Solve implements Solver. A fresh client per call keeps the cgo
// handle lifetime simple; CAPTCHA solving is never on a hot path.
func (t *TesseractSolver) Solve(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.lang); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", ErrInvalidImage
	}

	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return sanitizeCaptchaText(text), nil
}

// sanitizeCaptchaText strips whitespace OCR tends to hallucinate around
// the code.
func sanitizeCaptchaText(text string) string {
	return strings.Join(strings.Fields(text), "")
}
