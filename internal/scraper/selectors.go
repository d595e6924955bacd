package scraper

// PortalURL is the cause-list entry point of the eCourts portal.
const PortalURL = "https://services.ecourts.gov.in/ecourtindia_v6/?p=cause_list/"

// CSS selectors on the cause-list page.
const (
	selCaptchaImage = "img#captcha_image"
	selModalClose   = "div.modal-header.text-center.align-items-start button.btn-close"

	selCNRNumber = "span.fw-bold.text-uppercase.fs-5.me-2.text-danger"

	selState       = "#sess_state_code"
	selDistrict    = "#sess_dist_code"
	selComplex     = "#court_complex_code"
	selCourtName   = "#CL_court_no"
	selDate        = "#causelist_date"
	selCaptchaCode = "#cause_list_captcha_code"
	selRefresh     = "img.refresh-btn"

	selRecordLink = "a.someclass"
	selBack       = "button#main_back_CauseList"
)

// The Civil and Criminal submit buttons carry no stable id or class;
// they are located by their visible text.
const (
	btnCivil    = "Civil"
	btnCriminal = "Criminal"
)

// captchaToCanvasJS redraws the CAPTCHA image onto a canvas and returns
// it as a PNG data URL, avoiding a second fetch that would rotate the
// challenge.
const captchaToCanvasJS = `(() => {
	const img = document.querySelector("img#captcha_image");
	if (!img) throw new Error("Image not found");

	const canvas = document.createElement("canvas");
	const ctx = canvas.getContext("2d");
	canvas.width = img.naturalWidth;
	canvas.height = img.naturalHeight;
	ctx.drawImage(img, 0, 0);

	return canvas.toDataURL("image/png");
})()`
