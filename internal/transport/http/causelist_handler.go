package http

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "causelist/internal/errors"
	"causelist/internal/middleware"
	"causelist/internal/operations"
	"causelist/pkg/contracts/domain"
)

// CauselistHandler handles cause-list scrape requests.
type CauselistHandler struct {
	service  CauselistServiceInterface
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCauselistHandler creates a new cause-list handler
func NewCauselistHandler(service CauselistServiceInterface, logger *slog.Logger) *CauselistHandler {
	validate := validator.New()
	// Report field names as they appear on the wire
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &CauselistHandler{
		service:  service,
		validate: validate,
		logger:   logger.With(slog.String("component", "causelist_handler")),
	}
}

// scrapeRequest is the submission body for a scrape job.
type scrapeRequest struct {
	State     string `json:"state" validate:"required"`
	District  string `json:"district" validate:"required"`
	Complex   string `json:"complex" validate:"required"`
	CourtName string `json:"court_name"`
	Date      string `json:"date" validate:"required"`
	CaseType  string `json:"case_type" validate:"required,oneof=Civil Criminal"`
}

// Routes returns the cause-list routes
func (h *CauselistHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateJob)
	r.Post("/all", h.CreateAllCourtsJob)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{jobID}", h.GetJob)
	r.Get("/records", h.ListRecords)

	return r
}

// CreateJob handles POST /api/causelist: scrape one court.
func (h *CauselistHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	h.createJob(w, r, false)
}

// CreateAllCourtsJob handles POST /api/causelist/all: scrape every
// court in the selected complex.
func (h *CauselistHandler) CreateAllCourtsJob(w http.ResponseWriter, r *http.Request) {
	h.createJob(w, r, true)
}

func (h *CauselistHandler) createJob(w http.ResponseWriter, r *http.Request, all bool) {
	clientKey := middleware.GetClientID(r)
	if clientKey == "" {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrUnauthorized))
		return
	}

	var req scrapeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}

	if apiErr := h.validateRequest(req, all); apiErr != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apiErr))
		return
	}

	sel := domain.CourtSelection{
		State:     req.State,
		District:  req.District,
		Complex:   req.Complex,
		CourtName: req.CourtName,
		Date:      req.Date,
		CaseType:  domain.CaseType(req.CaseType),
	}

	h.logger.InfoContext(r.Context(), "scrape job requested",
		slog.String("state", sel.State),
		slog.String("district", sel.District),
		slog.String("complex", sel.Complex),
		slog.String("court", sel.CourtName),
		slog.Bool("all_courts", all))

	job, err := h.service.Submit(r.Context(), clientKey, sel, all)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to submit scrape job",
			slog.String("error", err.Error()))

		if strings.Contains(err.Error(), "queue is full") {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrServiceUnavailable))
			return
		}
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("request", err.Error())))
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"status": "accepted",
		"job_id": job.ID,
	})
}

// validateRequest runs struct validation plus the single/all court rule.
func (h *CauselistHandler) validateRequest(req scrapeRequest, all bool) *apierrors.APIError {
	if err := h.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make([]apierrors.ValidationError, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				details = append(details, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: "failed validation rule: " + fe.Tag(),
				})
			}
			return apierrors.NewValidationErrors(details)
		}
		return apierrors.InvalidRequestWithError(err)
	}

	if !all && req.CourtName == "" {
		return apierrors.ErrValidation("court_name", "court_name is required when scraping a single court")
	}
	if all && req.CourtName != "" {
		return apierrors.ErrValidation("court_name", "court_name must be empty when scraping all courts")
	}
	return nil
}

// GetJob handles GET /api/causelist/jobs/{jobID}
func (h *CauselistHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.service.Job(jobID)
	if err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrJobNotFound))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   job,
	})
}

// ListJobs handles GET /api/causelist/jobs. Clients only see their own
// jobs; the filter key comes from the identity cookie.
func (h *CauselistHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	clientKey := middleware.GetClientID(r)
	if clientKey == "" {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrUnauthorized))
		return
	}

	filter := operations.JobFilter{ClientKey: clientKey}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = operations.JobStatus(status)
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			render.Render(w, r, apierrors.NewErrorResponse(
				apierrors.ErrValidation("limit", "limit must be a positive number")))
			return
		}
		filter.Limit = limit
	}

	jobs, err := h.service.Jobs(filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list jobs",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   jobs,
		"count":  len(jobs),
	})
}

// ListRecords handles GET /api/causelist/records
func (h *CauselistHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Records()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list records",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(
			apierrors.FileSystemError("list records", err)))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}
