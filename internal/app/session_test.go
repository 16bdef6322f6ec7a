package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-service/internal/app"
	"exam-service/internal/domain"
)

func TestSessionPresentsEachQuestionOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := f.twoQuestionExam(t)
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	presenter := &scriptedPresenter{inputs: []string{"1", "3"}}
	session := app.NewExamSessionWithClock(f.catalog, f.bank, presenter, func() time.Time { return at })
	if err := session.Begin(ctx, exam.ID, student); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if session.State() != app.StateInProgress {
		t.Fatalf("expected in progress, got %s", session.State())
	}
	if _, err := session.Answers(); !errors.Is(err, domain.ErrSessionState) {
		t.Fatalf("answers must not be available before completion, got %v", err)
	}

	first, err := session.PresentNext(ctx)
	if err != nil {
		t.Fatalf("present first: %v", err)
	}
	if !first.IsCorrect || first.ChosenOptionIndex != 0 || first.Seq != 1 {
		t.Fatalf("unexpected first answer %+v", first)
	}
	second, err := session.PresentNext(ctx)
	if err != nil {
		t.Fatalf("present second: %v", err)
	}
	if second.IsCorrect || second.ChosenOptionIndex != 2 || second.Seq != 2 {
		t.Fatalf("unexpected second answer %+v", second)
	}
	if session.State() != app.StateCompleted {
		t.Fatalf("expected completed, got %s", session.State())
	}
	if _, err := session.PresentNext(ctx); !errors.Is(err, domain.ErrSessionState) {
		t.Fatalf("expected no further questions, got %v", err)
	}

	answers, err := session.Answers()
	if err != nil || len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d (%v)", len(answers), err)
	}
	for _, a := range answers {
		if a.UserID != "bob" || a.ExamID != exam.ID || !a.Timestamp.Equal(at) {
			t.Fatalf("unexpected answer attribution %+v", a)
		}
	}
	if len(presenter.rendered) != 2 || presenter.rendered[0] != 1 || presenter.rendered[1] != 2 {
		t.Fatalf("expected questions rendered once in order, got %v", presenter.rendered)
	}
}

func TestSessionRepromptsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := f.twoQuestionExam(t)

	presenter := &scriptedPresenter{inputs: []string{"abc", "0", "3", " 2 ", "", "4", "2"}}
	session := app.NewExamSession(f.catalog, f.bank, presenter)
	if err := session.Begin(ctx, exam.ID, student); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := session.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	answers, _ := session.Answers()
	if answers[0].ChosenOptionIndex != 1 || answers[1].ChosenOptionIndex != 1 {
		t.Fatalf("unexpected choices %+v", answers)
	}
	if len(presenter.errors) != 5 {
		t.Fatalf("expected 5 re-prompts, got %d: %v", len(presenter.errors), presenter.errors)
	}
	if len(presenter.rendered) != 2 {
		t.Fatalf("re-prompts must not re-render or advance, got %v", presenter.rendered)
	}
}

func TestSessionBeginFailuresAbort(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := f.twoQuestionExam(t)
	empty, err := f.catalog.AddExam(ctx, admin, app.NewExam{Name: "Empty", Date: examDay, DurationMinutes: 5})
	if err != nil {
		t.Fatalf("add exam: %v", err)
	}

	tests := []struct {
		name   string
		examID int64
		user   *domain.User
		want   error
	}{
		{name: "no user", examID: exam.ID, user: nil, want: domain.ErrUnauthorized},
		{name: "unknown exam", examID: 404, user: student, want: domain.ErrNotFound},
		{name: "empty exam", examID: empty.ID, user: student, want: domain.ErrEmptyExam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presenter := &scriptedPresenter{}
			session := app.NewExamSession(f.catalog, f.bank, presenter)
			err := session.Begin(ctx, tt.examID, tt.user)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if session.State() != app.StateAborted {
				t.Fatalf("expected aborted, got %s", session.State())
			}
			if len(presenter.rendered) != 0 {
				t.Fatalf("no question may be shown after an aborted begin")
			}
			if err := session.Begin(ctx, exam.ID, student); !errors.Is(err, domain.ErrSessionState) {
				t.Fatalf("aborted session must stay terminal, got %v", err)
			}
		})
	}
}

func TestSessionSurfacesPresenterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := f.twoQuestionExam(t)

	presenter := &scriptedPresenter{inputs: []string{"1"}}
	session := app.NewExamSession(f.catalog, f.bank, presenter)
	if err := session.Begin(ctx, exam.ID, student); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := session.Run(ctx); !errors.Is(err, errInputClosed) {
		t.Fatalf("expected input error, got %v", err)
	}
	if session.State() != app.StateInProgress {
		t.Fatalf("expected session left in progress, got %s", session.State())
	}
}
