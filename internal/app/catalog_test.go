package app_test

import (
	"context"
	"errors"
	"testing"

	"exam-service/internal/app"
	"exam-service/internal/domain"
)

func TestAddExamAllocatesSequentialIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	first, err := f.catalog.AddExam(ctx, admin, app.NewExam{Name: "Go", Date: examDay, DurationMinutes: 60})
	if err != nil {
		t.Fatalf("add exam: %v", err)
	}
	second, err := f.catalog.AddExam(ctx, admin, app.NewExam{Name: "SQL", Date: examDay, DurationMinutes: 45})
	if err != nil {
		t.Fatalf("add exam: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if first.CreatedBy != "admin" || first.QuestionsCount != 0 {
		t.Fatalf("unexpected exam %+v", first)
	}

	exams, err := f.catalog.ListExams(ctx)
	if err != nil || len(exams) != 2 {
		t.Fatalf("expected 2 exams, got %d (%v)", len(exams), err)
	}
}

func TestAddExamValidation(t *testing.T) {
	tests := []struct {
		name string
		in   app.NewExam
	}{
		{name: "empty name", in: app.NewExam{Name: "", Date: examDay, DurationMinutes: 60}},
		{name: "blank name", in: app.NewExam{Name: "   ", Date: examDay, DurationMinutes: 60}},
		{name: "zero duration", in: app.NewExam{Name: "Go", Date: examDay, DurationMinutes: 0}},
		{name: "negative duration", in: app.NewExam{Name: "Go", Date: examDay, DurationMinutes: -5}},
		{name: "missing date", in: app.NewExam{Name: "Go", DurationMinutes: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.catalog.AddExam(context.Background(), admin, tt.in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			exams, _ := f.catalog.ListExams(context.Background())
			if len(exams) != 0 {
				t.Fatalf("expected nothing persisted, got %d exams", len(exams))
			}
		})
	}
}

func TestAddExamRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, user := range []*domain.User{nil, student} {
		_, err := f.catalog.AddExam(ctx, user, app.NewExam{Name: "Go", Date: examDay, DurationMinutes: 60})
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected authorization error for %v, got %v", user, err)
		}
	}
	exams, _ := f.catalog.ListExams(ctx)
	if len(exams) != 0 {
		t.Fatalf("expected catalog unchanged, got %d exams", len(exams))
	}
}

func TestGetExamReportsAbsence(t *testing.T) {
	f := newFixture()
	_, ok, err := f.catalog.GetExam(context.Background(), 42)
	if err != nil || ok {
		t.Fatalf("expected absent exam without error, got ok=%v err=%v", ok, err)
	}
}

func TestRemoveExamCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	exam := f.twoQuestionExam(t)
	questions, _ := f.bank.QuestionsFor(ctx, exam.ID) // warm the cache

	recorder := app.NewAttemptRecorder(f.store)
	if _, err := recorder.Record(ctx, "bob", exam.ID, []domain.Answer{{QuestionID: questions[0].ID}}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := f.catalog.RemoveExam(ctx, student, exam.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected student removal to be rejected, got %v", err)
	}
	if err := f.catalog.RemoveExam(ctx, admin, exam.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, ok, _ := f.catalog.GetExam(ctx, exam.ID); ok {
		t.Fatalf("expected exam gone")
	}
	got, err := f.bank.QuestionsFor(ctx, exam.ID)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no questions after removal, got %d (%v)", len(got), err)
	}
	answers, _ := f.store.AnswersByExam(ctx, exam.ID)
	if len(answers) != 0 {
		t.Fatalf("expected answers removed, got %d", len(answers))
	}

	if err := f.catalog.RemoveExam(ctx, admin, exam.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second removal, got %v", err)
	}
}
