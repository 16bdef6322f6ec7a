package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"exam-service/internal/domain"
)

// SessionState is the lifecycle position of one attempt.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateInProgress
	StateCompleted
	StateAborted
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// ExamSession drives one user through one exam, one question at a time.
// A session is not safe for concurrent use.
type ExamSession struct {
	catalog   *ExamCatalog
	bank      *QuestionBank
	presenter Presenter
	now       func() time.Time

	state     SessionState
	exam      domain.Exam
	user      domain.User
	questions []domain.Question
	answers   []domain.Answer
	next      int
}

func NewExamSession(catalog *ExamCatalog, bank *QuestionBank, presenter Presenter) *ExamSession {
	return NewExamSessionWithClock(catalog, bank, presenter, time.Now)
}

// NewExamSessionWithClock allows deterministic answer timestamps in tests.
func NewExamSessionWithClock(catalog *ExamCatalog, bank *QuestionBank, presenter Presenter, now func() time.Time) *ExamSession {
	return &ExamSession{
		catalog:   catalog,
		bank:      bank,
		presenter: presenter,
		now:       now,
	}
}

// Begin loads the exam and its questions. On failure the session is aborted.
func (s *ExamSession) Begin(ctx context.Context, examID int64, user *domain.User) error {
	if s.state != StateNotStarted {
		return fmt.Errorf("%w: begin called while %s", domain.ErrSessionState, s.state)
	}
	if user == nil {
		return s.abort(fmt.Errorf("%w: no authenticated user", domain.ErrUnauthorized))
	}

	exam, ok, err := s.catalog.GetExam(ctx, examID)
	if err != nil {
		return s.abort(err)
	}
	if !ok {
		return s.abort(fmt.Errorf("%w: exam %d", domain.ErrNotFound, examID))
	}

	questions, err := s.bank.QuestionsFor(ctx, examID)
	if err != nil {
		return s.abort(err)
	}
	if len(questions) == 0 {
		return s.abort(fmt.Errorf("%w: exam %d", domain.ErrEmptyExam, examID))
	}

	s.exam = exam
	s.user = *user
	s.questions = questions
	s.answers = make([]domain.Answer, 0, len(questions))
	s.state = StateInProgress
	return nil
}

// PresentNext shows the next question and blocks until a legal choice is
// captured. Illegal input is rejected and asked again without advancing.
func (s *ExamSession) PresentNext(ctx context.Context) (domain.Answer, error) {
	if s.state != StateInProgress {
		return domain.Answer{}, fmt.Errorf("%w: present called while %s", domain.ErrSessionState, s.state)
	}

	q := s.questions[s.next]
	if err := s.presenter.RenderQuestion(ctx, q, s.next+1, len(s.questions)); err != nil {
		return domain.Answer{}, err
	}

	chosen, err := s.askChoice(ctx, len(q.Options))
	if err != nil {
		return domain.Answer{}, err
	}

	answer := domain.Answer{
		Seq:               s.next + 1,
		QuestionID:        q.ID,
		ExamID:            s.exam.ID,
		UserID:            s.user.Username,
		ChosenOptionIndex: chosen,
		IsCorrect:         q.IsCorrect(chosen),
		Timestamp:         s.now(),
	}
	s.answers = append(s.answers, answer)
	s.next++
	if s.next == len(s.questions) {
		s.state = StateCompleted
	}
	return answer, nil
}

// Run presents every remaining question until the session completes.
func (s *ExamSession) Run(ctx context.Context) error {
	for s.state == StateInProgress {
		if _, err := s.PresentNext(ctx); err != nil {
			return err
		}
	}
	if s.state != StateCompleted {
		return fmt.Errorf("%w: run ended while %s", domain.ErrSessionState, s.state)
	}
	return nil
}

// Answers returns the captured answers in question order once completed.
func (s *ExamSession) Answers() ([]domain.Answer, error) {
	if s.state != StateCompleted {
		return nil, fmt.Errorf("%w: answers requested while %s", domain.ErrSessionState, s.state)
	}
	return append([]domain.Answer(nil), s.answers...), nil
}

func (s *ExamSession) State() SessionState { return s.state }

func (s *ExamSession) Exam() domain.Exam { return s.exam }

func (s *ExamSession) Questions() []domain.Question {
	return cloneQuestions(s.questions)
}

func (s *ExamSession) askChoice(ctx context.Context, optionCount int) (int, error) {
	for {
		raw, err := s.presenter.AskChoice(ctx, optionCount)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && n >= 1 && n <= optionCount {
			return n - 1, nil
		}
		msg := fmt.Sprintf("Please enter a number between 1 and %d.", optionCount)
		if err := s.presenter.ShowError(ctx, msg); err != nil {
			return 0, err
		}
	}
}

func (s *ExamSession) abort(err error) error {
	s.state = StateAborted
	return err
}
