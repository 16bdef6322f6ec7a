package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-service/internal/app"
	"exam-service/internal/domain"
	"exam-service/internal/infra/memory"
)

var (
	admin   = &domain.User{Username: "admin", Role: domain.RoleAdmin}
	student = &domain.User{Username: "bob", Role: domain.RoleStudent}
	examDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	store   *memory.Store
	catalog *app.ExamCatalog
	bank    *app.QuestionBank
}

func newFixture() fixture {
	store := memory.NewStore()
	bank := app.NewQuestionBank(store, memory.NewQuestionCache(time.Minute))
	return fixture{
		store:   store,
		catalog: app.NewExamCatalog(store, bank),
		bank:    bank,
	}
}

// twoQuestionExam seeds an exam with two 1-point questions whose correct
// indices are 0 and 1.
func (f fixture) twoQuestionExam(t *testing.T) domain.Exam {
	t.Helper()
	ctx := context.Background()
	exam, err := f.catalog.AddExam(ctx, admin, app.NewExam{Name: "Arithmetic", Date: examDay, DurationMinutes: 30})
	if err != nil {
		t.Fatalf("add exam: %v", err)
	}
	for i, q := range []app.NewQuestion{
		{ExamID: exam.ID, Text: "What is 2 + 2?", Options: []string{"4", "5"}, CorrectOptionIndex: 0},
		{ExamID: exam.ID, Text: "What is 3 + 3?", Options: []string{"5", "6", "7"}, CorrectOptionIndex: 1},
	} {
		if _, err := f.bank.AddQuestion(ctx, admin, q); err != nil {
			t.Fatalf("add question %d: %v", i, err)
		}
	}
	exam, _, _ = f.catalog.GetExam(ctx, exam.ID)
	return exam
}

// scriptedPresenter feeds canned inputs and records what was shown.
type scriptedPresenter struct {
	inputs   []string
	rendered []int
	errors   []string
	report   *domain.ScoreReport
}

var errInputClosed = errors.New("input closed")

func (p *scriptedPresenter) RenderQuestion(_ context.Context, _ domain.Question, number, _ int) error {
	p.rendered = append(p.rendered, number)
	return nil
}

func (p *scriptedPresenter) AskChoice(_ context.Context, _ int) (string, error) {
	if len(p.inputs) == 0 {
		return "", errInputClosed
	}
	in := p.inputs[0]
	p.inputs = p.inputs[1:]
	return in, nil
}

func (p *scriptedPresenter) ShowError(_ context.Context, message string) error {
	p.errors = append(p.errors, message)
	return nil
}

func (p *scriptedPresenter) RenderResults(_ context.Context, report domain.ScoreReport) error {
	p.report = &report
	return nil
}
