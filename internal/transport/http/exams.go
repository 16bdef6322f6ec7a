package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"exam-service/internal/app"
	"exam-service/internal/domain"
	"exam-service/internal/identity"
	"github.com/go-chi/chi/v5"
)

type examResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Date            string `json:"date"`
	DurationMinutes int    `json:"durationMinutes"`
	QuestionsCount  int    `json:"questionsCount"`
	CreatedBy       string `json:"createdBy"`
}

func toExamResponse(e domain.Exam) examResponse {
	return examResponse{
		ID:              e.ID,
		Name:            e.Name,
		Date:            e.DateString(),
		DurationMinutes: e.DurationMinutes,
		QuestionsCount:  e.QuestionsCount,
		CreatedBy:       e.CreatedBy,
	}
}

type createExamRequest struct {
	Name            string `json:"name"`
	Date            string `json:"date"` // YYYY-MM-DD, today when empty
	DurationMinutes int    `json:"durationMinutes"`
}

type addQuestionRequest struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Points             int      `json:"points"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (a *API) listExams(w http.ResponseWriter, r *http.Request) {
	exams, err := a.catalog.ListExams(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]examResponse, 0, len(exams))
	for _, e := range exams {
		out = append(out, toExamResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createExam(w http.ResponseWriter, r *http.Request) {
	var req createExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid exam payload")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	exam, err := a.catalog.AddExam(r.Context(), identity.CurrentUser(r.Context()), app.NewExam{
		Name:            req.Name,
		Date:            date,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExamResponse(exam))
}

func (a *API) getExam(w http.ResponseWriter, r *http.Request) {
	id, ok := examID(w, r)
	if !ok {
		return
	}
	exam, found, err := a.catalog.GetExam(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toExamResponse(exam))
}

func (a *API) removeExam(w http.ResponseWriter, r *http.Request) {
	id, ok := examID(w, r)
	if !ok {
		return
	}
	if err := a.catalog.RemoveExam(r.Context(), identity.CurrentUser(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listQuestions includes correct indices, so it is limited to admins.
func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := examID(w, r)
	if !ok {
		return
	}
	user := identity.CurrentUser(r.Context())
	if user == nil || !user.CanManageCatalog() {
		writeError(w, r, domain.ErrUnauthorized)
		return
	}
	questions, err := a.bank.QuestionsFor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *API) addQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := examID(w, r)
	if !ok {
		return
	}
	var req addQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid question payload")
		return
	}
	q, err := a.bank.AddQuestion(r.Context(), identity.CurrentUser(r.Context()), app.NewQuestion{
		ExamID:             id,
		Text:               req.Text,
		Options:            req.Options,
		CorrectOptionIndex: req.CorrectOptionIndex,
		Points:             req.Points,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (a *API) myAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := examID(w, r)
	if !ok {
		return
	}
	user := identity.CurrentUser(r.Context())
	if user == nil {
		writeError(w, r, domain.ErrUnauthorized)
		return
	}
	answers, err := a.recorder.History(r.Context(), id, user.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func examID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "exam id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	return date, nil
}

func statusFor(r *http.Request, err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnauthorized):
		if identity.CurrentUser(r.Context()) == nil {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyExam), errors.Is(err, domain.ErrSessionState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoPoints):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(r, err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeMessage(w, status, domain.Message(err))
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
