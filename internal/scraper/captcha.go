package scraper

import (
	"context"
	"log/slog"

	"causelist/pkg/contracts/domain"
)

// solveCaptcha captures the challenge and runs it through the solver.
// A failed capture yields an empty answer rather than an error so the
// retry loop can refresh and try again.
func (s *Scraper) solveCaptcha(ctx context.Context) string {
	image, err := s.page.captchaImage(ctx)
	if err != nil {
		s.logger.Warn("captcha capture failed", slog.String("error", err.Error()))
		return ""
	}

	answer, err := s.solver.Solve(ctx, image)
	if err != nil {
		s.logger.Warn("captcha solve failed", slog.String("error", err.Error()))
		return ""
	}
	return answer
}

// submitForm fills the CAPTCHA answer and presses the case-type button.
func (s *Scraper) submitForm(ctx context.Context, caseType domain.CaseType) error {
	answer := s.solveCaptcha(ctx)
	if err := s.page.fillValue(ctx, selCaptchaCode, answer); err != nil {
		return err
	}
	return s.page.clickButtonByText(ctx, caseTypeButton(caseType))
}

func caseTypeButton(caseType domain.CaseType) string {
	if caseType == domain.CaseTypeCriminal {
		return btnCriminal
	}
	return btnCivil
}

// passCaptcha keeps re-solving while the portal rejects the answer,
// which it signals by raising the error modal again. Gives up after
// MaxCaptchaAttempts rounds. An answer accepted on the final round
// still passes; only a modal left standing after the last resubmit
// counts as exhaustion.
func (s *Scraper) passCaptcha(ctx context.Context, caseType domain.CaseType, progress func(attempt int)) error {
	for attempt := 0; attempt < s.cfg.MaxCaptchaAttempts; attempt++ {
		rejected, err := s.page.isVisible(ctx, selModalClose)
		if err != nil {
			return err
		}
		if !rejected {
			return nil
		}

		s.logger.Info("captcha rejected, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", s.cfg.MaxCaptchaAttempts))
		if progress != nil {
			progress(attempt + 1)
		}

		if err := s.page.clickFirst(ctx, selModalClose); err != nil {
			return err
		}
		if err := s.page.clickFirst(ctx, selRefresh); err != nil {
			return err
		}
		if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
			return err
		}

		if err := s.submitForm(ctx, caseType); err != nil {
			return err
		}
		if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
			return err
		}
	}

	if rejected, err := s.page.isVisible(ctx, selModalClose); err != nil {
		return err
	} else if rejected {
		return ErrCaptchaExhausted
	}
	return nil
}
