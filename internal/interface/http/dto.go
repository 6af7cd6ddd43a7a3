package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/halaqat-hub/halaqat-reports/internal/application/sheetsync"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TeacherAttendanceRequest is the teacher check-in/check-out form.
type TeacherAttendanceRequest struct {
	TeacherID int        `json:"teacher_id" validate:"required,gt=0"`
	Name      string     `json:"name" validate:"required"`
	Action    string     `json:"action" validate:"required"`
	Time      *time.Time `json:"time,omitempty"`
}

// SupervisorAttendanceRequest is the supervisor check-in/check-out form.
type SupervisorAttendanceRequest struct {
	ID     string     `json:"id" validate:"required"`
	Name   string     `json:"name" validate:"required"`
	Action string     `json:"action" validate:"required"`
	Time   *time.Time `json:"time,omitempty"`
}

// ScoreRequest is one answered evaluation question.
type ScoreRequest struct {
	Question string  `json:"question" validate:"required"`
	Mark     float64 `json:"mark" validate:"gte=0"`
}

// EvaluationRequest is the circle evaluation form.
type EvaluationRequest struct {
	Teacher string         `json:"teacher" validate:"required"`
	Circle  string         `json:"circle" validate:"required"`
	Scores  []ScoreRequest `json:"scores" validate:"required,min=1,dive"`
}

// ExamGradeRequest is the exam marking form.
type ExamGradeRequest struct {
	Student string    `json:"student" validate:"required"`
	Circle  string    `json:"circle" validate:"required"`
	Exam    string    `json:"exam" validate:"required"`
	Marks   []float64 `json:"marks" validate:"len=5,dive,gte=0"`
}

// SettingsRequest replaces the settings row.
type SettingsRequest struct {
	DefaultStudentCountDay  string `json:"defaultStudentCountDay" validate:"omitempty,datetime=02-01"`
	TeacherLateCheckIn      string `json:"teacherLateCheckinTime" validate:"omitempty,datetime=15:04"`
	TeacherEarlyCheckOut    string `json:"teacherEarlyCheckoutTime" validate:"omitempty,datetime=15:04"`
	SupervisorLateCheckIn   string `json:"supervisorLateCheckinTime" validate:"omitempty,datetime=15:04"`
	SupervisorEarlyCheckOut string `json:"supervisorEarlyCheckoutTime" validate:"omitempty,datetime=15:04"`
}

// AppendRowRequest posts a raw row to any sheet. The row keeps the field
// order of the JSON object.
type AppendRowRequest struct {
	Page string    `json:"page" validate:"required"`
	Row  sheet.Row `json:"row"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSIONS
// ══════════════════════════════════════════════════════════════════════════════

func stamp(t *time.Time, now func() time.Time) time.Time {
	if t != nil && !t.IsZero() {
		return *t
	}
	return now()
}

func (r TeacherAttendanceRequest) submission(now func() time.Time) (sheetsync.Submission, error) {
	return sheetsync.TeacherAttendance(r.TeacherID, r.Name, r.Action, stamp(r.Time, now))
}

func (r SupervisorAttendanceRequest) submission(now func() time.Time) (sheetsync.Submission, error) {
	return sheetsync.SupervisorAttendance(r.ID, r.Name, r.Action, stamp(r.Time, now))
}

func (r EvaluationRequest) submission() (sheetsync.Submission, error) {
	scores := make([]sheetsync.Score, len(r.Scores))
	for i, s := range r.Scores {
		scores[i] = sheetsync.Score{Question: s.Question, Mark: s.Mark}
	}
	return sheetsync.EvaluationResult(r.Teacher, r.Circle, scores)
}

func (r ExamGradeRequest) submission() (sheetsync.Submission, error) {
	var marks [5]float64
	copy(marks[:], r.Marks)
	return sheetsync.ExamGrade(r.Student, r.Circle, r.Exam, marks)
}

func (r SettingsRequest) submission() (sheetsync.Submission, error) {
	return sheetsync.SettingsUpdate(report.Settings{
		DefaultStudentCountDay:  r.DefaultStudentCountDay,
		TeacherLateCheckIn:      r.TeacherLateCheckIn,
		TeacherEarlyCheckOut:    r.TeacherEarlyCheckOut,
		SupervisorLateCheckIn:   r.SupervisorLateCheckIn,
		SupervisorEarlyCheckOut: r.SupervisorEarlyCheckOut,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// DECODING & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errInvalidBody is returned when the body is not the expected JSON.
var errInvalidBody = errors.New("invalid request body")

// decodeAndValidate reads a JSON body into dst and validates it. Validation
// failures are returned as validator.ValidationErrors.
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidBody)
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return validate.Struct(dst)
}

// fieldErrors maps each failing field to the rule it broke.
func fieldErrors(err error) (map[string]string, bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, false
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[trimNamespace(fe.Namespace())] = rule
	}
	return out, true
}

// trimNamespace drops the struct name from "EvaluationRequest.scores[0].question".
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
