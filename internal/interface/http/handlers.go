package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/halaqat-hub/halaqat-reports/internal/application/aggregation"
	"github.com/halaqat-hub/halaqat-reports/internal/application/sheetsync"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/shared"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/scheduler"
	"github.com/halaqat-hub/halaqat-reports/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "Halaqat Reports API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":  "/health",
			"pages":   "/api/v1/pages",
			"refresh": "/api/v1/pages/{page}/refresh",
			"forms":   "/api/v1/forms/{form}",
			"jobs":    "/api/v1/jobs",
		},
	}, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		s.writeJSON(w, r, http.StatusOK, map[string]any{
			"status": "healthy",
			"uptime": s.Uptime().String(),
		}, nil)
		return
	}

	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, code, status, nil)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if status := s.deps.Health.Check(r.Context()); !status.Ready {
			s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			}, nil)
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, nil)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// PAGE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListPages handles GET /api/v1/pages
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, report.Pages(), nil)
}

// handleGetPage handles GET /api/v1/pages/{page}. The cached view is
// returned at once and a background sync of the page is started; the next
// request sees its result. If-None-Match is honoured against the stored
// state of the page's sheets.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	req, ok := s.pageRequest(w, r)
	if !ok {
		return
	}

	tag, err := s.deps.Pages.Tag(r.Context(), req.Page)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context())
	view, err := s.deps.Pages.Load(r.Context(), req, func(out sheetsync.Outcome) {
		log.Debug("background page sync finished",
			logger.Page(string(out.Page)),
			slog.String("run_id", out.RunID),
			slog.String("notice", string(out.Notice.Kind)),
		)
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	etag := `W/"` + tag + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	s.writeJSON(w, r, http.StatusOK, view, nil)
}

// handleRefreshPage handles POST /api/v1/pages/{page}/refresh
func (s *Server) handleRefreshPage(w http.ResponseWriter, r *http.Request) {
	req, ok := s.pageRequest(w, r)
	if !ok {
		return
	}

	out, err := s.deps.Pages.Refresh(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if tag, err := s.deps.Pages.Tag(r.Context(), req.Page); err == nil {
		w.Header().Set("ETag", `W/"`+tag+`"`)
	}
	s.writeOutcome(w, r, out, string(out.Notice.Kind), out.Notice.Message)
}

// pageRequest parses the page path value and the filter query parameters.
func (s *Server) pageRequest(w http.ResponseWriter, r *http.Request) (aggregation.Request, bool) {
	page, err := report.ParsePage(r.PathValue("page"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return aggregation.Request{}, false
	}

	q := r.URL.Query()
	req := aggregation.Request{
		Page: page,
		Filter: aggregation.Filter{
			Week:       strings.TrimSpace(q.Get("week")),
			CircleTime: strings.TrimSpace(q.Get("circle_time")),
			Teacher:    strings.TrimSpace(q.Get("teacher")),
			Day:        strings.TrimSpace(q.Get("day")),
		},
		AbsenceMode: report.AbsenceAll,
	}
	if days := q.Get("days"); days != "" {
		for _, d := range strings.Split(days, ",") {
			if d = strings.TrimSpace(d); d != "" {
				req.AbsenceDays = append(req.AbsenceDays, d)
			}
		}
	}
	switch mode := report.AbsenceMode(q.Get("mode")); mode {
	case "":
	case report.AbsenceAll, report.AbsenceConsecutive, report.AbsenceIntermittent:
		req.AbsenceMode = mode
	default:
		s.writeError(w, r, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "mode must be all, consecutive or intermittent",
		})
		return aggregation.Request{}, false
	}
	return req, true
}

// matchesETag implements the weak comparison of If-None-Match.
func matchesETag(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAppendRow handles POST /api/v1/sheets/{sheet}/rows
func (s *Server) handleAppendRow(w http.ResponseWriter, r *http.Request) {
	name := sheet.Name(r.PathValue("sheet"))
	if !name.Valid() {
		s.writeDomainError(w, r, sheet.ErrUnknownSheet)
		return
	}

	var body AppendRowRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Row.Len() == 0 {
		s.writeError(w, r, http.StatusBadRequest, APIError{
			Code:    "validation_failed",
			Message: "row must have at least one field",
			Fields:  map[string]string{"row": "required"},
		})
		return
	}
	page, err := report.ParsePage(body.Page)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out, err := s.deps.Pages.Submit(r.Context(), name, body.Row, page)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeOutcome(w, r, out, string(sheetsync.NoticeChanges), out.Notice.Message)
}

func (s *Server) handleTeacherAttendance(w http.ResponseWriter, r *http.Request) {
	var body TeacherAttendanceRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.submitForm(w, r, func() (sheetsync.Submission, error) { return body.submission(s.deps.Clock) })
}

func (s *Server) handleSupervisorAttendance(w http.ResponseWriter, r *http.Request) {
	var body SupervisorAttendanceRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.submitForm(w, r, func() (sheetsync.Submission, error) { return body.submission(s.deps.Clock) })
}

func (s *Server) handleEvaluation(w http.ResponseWriter, r *http.Request) {
	var body EvaluationRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.submitForm(w, r, body.submission)
}

func (s *Server) handleExamGrade(w http.ResponseWriter, r *http.Request) {
	var body ExamGradeRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.submitForm(w, r, body.submission)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var body SettingsRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.submitForm(w, r, body.submission)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request, build func() (sheetsync.Submission, error)) {
	sub, err := build()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out, err := s.deps.Pages.SubmitForm(r.Context(), sub)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeOutcome(w, r, out, string(sheetsync.NoticeChanges), sub.Success)
}

// decode reads and validates the body, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeAndValidate(r, dst)
	if err == nil {
		return true
	}
	if fields, ok := fieldErrors(err); ok {
		s.writeError(w, r, http.StatusBadRequest, APIError{
			Code:    "validation_failed",
			Message: "request validation failed",
			Fields:  fields,
		})
		return false
	}
	s.writeError(w, r, http.StatusBadRequest, APIError{Code: "invalid_request", Message: err.Error()})
	return false
}

func (s *Server) writeOutcome(w http.ResponseWriter, r *http.Request, out sheetsync.Outcome, kind, message string) {
	s.writeJSON(w, r, http.StatusOK, out, &NoticeBody{Kind: kind, Message: message})
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		s.writeError(w, r, http.StatusNotImplemented, APIError{Code: "not_implemented", Message: "scheduler is disabled"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.deps.Jobs.ListJobs(), nil)
}

// handleRunJob handles POST /api/v1/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		s.writeError(w, r, http.StatusNotImplemented, APIError{Code: "not_implemented", Message: "scheduler is disabled"})
		return
	}

	result, err := s.deps.Jobs.RunNow(context.WithoutCancel(r.Context()), r.PathValue("name"))
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		s.writeError(w, r, http.StatusNotFound, APIError{Code: "not_found", Message: err.Error()})
		return
	case errors.Is(err, scheduler.ErrJobBusy):
		s.writeError(w, r, http.StatusConflict, APIError{Code: "job_running", Message: err.Error()})
		return
	}

	body := map[string]any{
		"job":         result.JobName,
		"success":     result.Success,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	s.writeJSON(w, r, http.StatusOK, body, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain and application errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrUnknownPage):
		s.writeError(w, r, http.StatusNotFound, APIError{Code: "unknown_page", Message: err.Error()})
	case errors.Is(err, sheet.ErrUnknownSheet):
		s.writeError(w, r, http.StatusNotFound, APIError{Code: "unknown_sheet", Message: err.Error()})
	case shared.IsValidation(err):
		s.writeError(w, r, http.StatusBadRequest, APIError{
			Code:    "validation_failed",
			Message: shared.UserMessage(err, err.Error()),
		})
	case shared.IsExternalService(err):
		logger.FromContext(r.Context()).Warn("remote write failed", logger.Err(err))
		s.writeError(w, r, http.StatusBadGateway, APIError{
			Code:    "remote_failed",
			Message: shared.UserMessage(err, "remote sheet service failed"),
		})
	default:
		logger.FromContext(r.Context()).Error("request failed", logger.Err(err))
		s.writeError(w, r, http.StatusInternalServerError, APIError{Code: "internal_error", Message: "internal error"})
	}
}
