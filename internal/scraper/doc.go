// Package scraper drives a headless Chrome session against the eCourts
// cause-list portal. It walks the state, district, court complex and
// court name selects, solves the image CAPTCHA with OCR, and exports
// every listed record as a PDF named after its CNR number.
package scraper
