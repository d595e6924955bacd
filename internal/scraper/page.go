package scraper

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// pageDriver is the set of DOM interactions a scrape run performs.
// chromedp backs the real implementation; tests substitute a scripted
// fake so the form, CAPTCHA and harvest flows run without a browser.
type pageDriver interface {
	navigate(ctx context.Context, url, waitSel string) error
	isVisible(ctx context.Context, sel string) (bool, error)
	clickFirst(ctx context.Context, sel string) error
	clickNth(ctx context.Context, sel string, i int) error
	clickButtonByText(ctx context.Context, label string) error
	fillValue(ctx context.Context, sel, value string) error
	firstText(ctx context.Context, sel string) (string, error)
	options(ctx context.Context, sel string) ([]option, error)
	setOption(ctx context.Context, sel, value string) error
	count(ctx context.Context, sel string) (int, error)
	captchaImage(ctx context.Context) ([]byte, error)
	printPDF(ctx context.Context) ([]byte, error)
}

// chromedpPage drives the portal through chromedp. Element interaction
// goes through in-page JavaScript, which tolerates the portal's
// overlapping modal layers better than synthesized mouse events.
type chromedpPage struct{}

func (chromedpPage) navigate(ctx context.Context, url, waitSel string) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(waitSel, chromedp.ByQuery),
	)
}

// isVisible reports whether the first element matching sel is rendered.
func (chromedpPage) isVisible(ctx context.Context, sel string) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const style = window.getComputedStyle(el);
		return style.display !== "none" && style.visibility !== "hidden" && el.offsetParent !== null;
	})()`, sel)

	var visible bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (chromedpPage) clickFirst(ctx context.Context, sel string) error {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, sel)

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("element %q not found", sel)
	}
	return nil
}

func (chromedpPage) clickNth(ctx context.Context, sel string, i int) error {
	js := fmt.Sprintf(`(() => {
		const nodes = document.querySelectorAll(%q);
		if (nodes.length <= %d) return false;
		nodes[%d].click();
		return true;
	})()`, sel, i, i)

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("record link %d not found", i)
	}
	return nil
}

// clickButtonByText clicks the first button whose visible text contains
// the given label.
func (chromedpPage) clickButtonByText(ctx context.Context, label string) error {
	js := fmt.Sprintf(`(() => {
		for (const btn of document.querySelectorAll("button")) {
			if (btn.textContent.includes(%q)) {
				btn.click();
				return true;
			}
		}
		return false;
	})()`, label)

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("button with text %q not found", label)
	}
	return nil
}

// fillValue clears an input and types the value into it.
func (chromedpPage) fillValue(ctx context.Context, sel, value string) error {
	return chromedp.Run(ctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.SetValue(sel, "", chromedp.ByQuery),
		chromedp.SetValue(sel, value, chromedp.ByQuery),
	)
}

// firstText returns the text content of the first element matching sel,
// or empty when none exists.
func (chromedpPage) firstText(ctx context.Context, sel string) (string, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.textContent.trim() : "";
	})()`, sel)

	var text string
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &text)); err != nil {
		return "", err
	}
	return text, nil
}

// options reads every option of a select as currently rendered.
func (chromedpPage) options(ctx context.Context, sel string) ([]option, error) {
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(opt => ({
		value: opt.getAttribute("value") || "",
		text: opt.textContent.trim(),
		disabled: opt.hasAttribute("disabled")
	}))`, sel+" option")

	var opts []option
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &opts)); err != nil {
		return nil, err
	}
	return opts, nil
}

// setOption sets a select's value and dispatches a change event so
// dependent selects repopulate.
func (chromedpPage) setOption(ctx context.Context, sel, value string) error {
	js := fmt.Sprintf(`(() => {
		const sel = document.querySelector(%q);
		if (!sel) return false;
		sel.value = %q;
		sel.dispatchEvent(new Event("change", {bubbles: true}));
		return true;
	})()`, sel, value)

	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("select %q not found", sel)
	}
	return nil
}

func (chromedpPage) count(ctx context.Context, sel string) (int, error) {
	js := fmt.Sprintf(`document.querySelectorAll(%q).length`, sel)
	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &count)); err != nil {
		return 0, err
	}
	return count, nil
}

// captchaImage captures the current CAPTCHA as PNG bytes without
// re-fetching it from the server.
func (chromedpPage) captchaImage(ctx context.Context) ([]byte, error) {
	var dataURL string
	if err := chromedp.Run(ctx, chromedp.Evaluate(captchaToCanvasJS, &dataURL)); err != nil {
		return nil, err
	}
	return decodeDataURL(dataURL)
}

// printPDF renders the current page to PDF bytes.
func (chromedpPage) printPDF(ctx context.Context) ([]byte, error) {
	var data []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		data, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
		return err
	}))
	return data, err
}
