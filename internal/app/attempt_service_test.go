package app_test

import (
	"context"
	"errors"
	"testing"

	"exam-service/internal/app"
	"exam-service/internal/domain"
)

func newAttemptService(f fixture, store app.Store) *app.AttemptService {
	return app.NewAttemptService(f.catalog, f.bank, app.NewScoringEngine(app.DefaultPassThreshold), app.NewAttemptRecorder(store))
}

func TestTakeScenarios(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		want   domain.ScoreReport
	}{
		{
			name:   "answers 0 and 0",
			inputs: []string{"1", "1"},
			want:   domain.ScoreReport{ExamName: "Arithmetic", CorrectCount: 1, TotalQuestions: 2, EarnedPoints: 1, TotalPoints: 2, Percentage: 50.0, Passed: false},
		},
		{
			name:   "answers 0 and 1",
			inputs: []string{"1", "2"},
			want:   domain.ScoreReport{ExamName: "Arithmetic", CorrectCount: 2, TotalQuestions: 2, EarnedPoints: 2, TotalPoints: 2, Percentage: 100.0, Passed: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			exam := f.twoQuestionExam(t)
			presenter := &scriptedPresenter{inputs: tt.inputs}

			report, err := newAttemptService(f, f.store).Take(ctx, exam.ID, student, presenter)
			if err != nil {
				t.Fatalf("take: %v", err)
			}
			if report != tt.want {
				t.Fatalf("report = %+v, want %+v", report, tt.want)
			}
			if presenter.report == nil || *presenter.report != tt.want {
				t.Fatalf("expected report rendered, got %+v", presenter.report)
			}

			rows, _ := f.store.AnswersByExam(ctx, exam.ID)
			if len(rows) != 2 {
				t.Fatalf("expected 2 answer rows, got %d", len(rows))
			}
			questions, _ := f.bank.QuestionsFor(ctx, exam.ID)
			total := 0
			for _, q := range questions {
				total += q.Points
			}
			if total != report.TotalPoints {
				t.Fatalf("total points %d differ from question sum %d", report.TotalPoints, total)
			}
		})
	}
}

func TestTakeEmptyExamWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam, _ := f.catalog.AddExam(ctx, admin, app.NewExam{Name: "Empty", Date: examDay, DurationMinutes: 5})
	presenter := &scriptedPresenter{}

	_, err := newAttemptService(f, f.store).Take(ctx, exam.ID, student, presenter)
	if !errors.Is(err, domain.ErrEmptyExam) {
		t.Fatalf("expected empty exam error, got %v", err)
	}
	if len(presenter.errors) != 1 || presenter.errors[0] != domain.Message(domain.ErrEmptyExam) {
		t.Fatalf("expected one user-facing message, got %v", presenter.errors)
	}
	rows, _ := f.store.AnswersByExam(ctx, exam.ID)
	if len(rows) != 0 {
		t.Fatalf("expected no answers written, got %d", len(rows))
	}
}

func TestTakeReportsPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := f.twoQuestionExam(t)
	presenter := &scriptedPresenter{inputs: []string{"1", "2"}}

	svc := newAttemptService(f, failingStore{Store: f.store, err: errors.New("tx aborted")})
	_, err := svc.Take(ctx, exam.ID, student, presenter)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if presenter.report != nil {
		t.Fatalf("results must not be rendered when recording fails")
	}
	if len(presenter.errors) != 1 || presenter.errors[0] != domain.Message(domain.ErrPersistence) {
		t.Fatalf("unexpected messages %v", presenter.errors)
	}
}
