package app

import (
	"context"
	"time"

	"exam-service/internal/domain"
)

// AttemptService wires the session, scoring and recording steps of one attempt.
type AttemptService struct {
	catalog  *ExamCatalog
	bank     *QuestionBank
	scoring  ScoringEngine
	recorder *AttemptRecorder
	now      func() time.Time
}

func NewAttemptService(catalog *ExamCatalog, bank *QuestionBank, scoring ScoringEngine, recorder *AttemptRecorder) *AttemptService {
	return &AttemptService{
		catalog:  catalog,
		bank:     bank,
		scoring:  scoring,
		recorder: recorder,
		now:      time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// Take runs a full attempt for user through presenter: questions are asked in
// order, the answers are scored and persisted, then the report is rendered.
// Any failure is shown once through the presenter and returned.
func (s *AttemptService) Take(ctx context.Context, examID int64, user *domain.User, presenter Presenter) (domain.ScoreReport, error) {
	report, err := s.take(ctx, examID, user, presenter)
	if err != nil {
		_ = presenter.ShowError(ctx, domain.Message(err))
		return domain.ScoreReport{}, err
	}
	return report, nil
}

func (s *AttemptService) take(ctx context.Context, examID int64, user *domain.User, presenter Presenter) (domain.ScoreReport, error) {
	session := NewExamSessionWithClock(s.catalog, s.bank, presenter, s.now)
	if err := session.Begin(ctx, examID, user); err != nil {
		return domain.ScoreReport{}, err
	}
	if err := session.Run(ctx); err != nil {
		return domain.ScoreReport{}, err
	}
	answers, err := session.Answers()
	if err != nil {
		return domain.ScoreReport{}, err
	}

	report, err := s.scoring.Score(session.Exam(), session.Questions(), answers)
	if err != nil {
		return domain.ScoreReport{}, err
	}
	if _, err := s.recorder.Record(ctx, user.Username, examID, answers); err != nil {
		return domain.ScoreReport{}, err
	}
	if err := presenter.RenderResults(ctx, report); err != nil {
		return domain.ScoreReport{}, err
	}
	return report, nil
}
