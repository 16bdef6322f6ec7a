package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"exam-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "exams.db") + "?_pragma=foreign_keys(1)"
	store, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestExamRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	exam, err := store.InsertExam(ctx, domain.Exam{
		Name:            "Go basics",
		Date:            time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		CreatedBy:       "admin",
	})
	if err != nil {
		t.Fatalf("insert exam: %v", err)
	}
	if exam.ID != 1 {
		t.Fatalf("expected first id 1, got %d", exam.ID)
	}

	got, ok, err := store.GetExam(ctx, exam.ID)
	if err != nil || !ok {
		t.Fatalf("get exam: ok=%v err=%v", ok, err)
	}
	if got.Name != "Go basics" || got.DateString() != "2024-03-15" || got.DurationMinutes != 45 {
		t.Fatalf("unexpected exam %+v", got)
	}
	if _, ok, err := store.GetExam(ctx, 99); ok || err != nil {
		t.Fatalf("expected absent exam, got ok=%v err=%v", ok, err)
	}
}

func TestQuestionsAndAnswers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	exam, _ := store.InsertExam(ctx, domain.Exam{Name: "Go", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DurationMinutes: 10, CreatedBy: "admin"})

	if _, ok, _ := maxQuestionID(ctx, store.db); ok {
		t.Fatalf("expected no questions")
	}
	q1, err := store.InsertQuestion(ctx, domain.Question{ExamID: exam.ID, Text: "first", Options: []string{"a", "b"}, CorrectOptionIndex: 1, Points: 2})
	if err != nil {
		t.Fatalf("insert question: %v", err)
	}
	q2, _ := store.InsertQuestion(ctx, domain.Question{ExamID: exam.ID, Text: "second", Options: []string{"x", "y", "z"}, Points: 1})
	if q1.ID != 1 || q2.ID != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", q1.ID, q2.ID)
	}
	if _, err := store.InsertQuestion(ctx, domain.Question{ExamID: 77, Text: "orphan", Options: []string{"a", "b"}, Points: 1}); err == nil {
		t.Fatalf("expected unknown exam to fail")
	}

	questions, err := store.QuestionsByExam(ctx, exam.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 2 || questions[1].Options[2] != "z" || questions[0].CorrectOptionIndex != 1 {
		t.Fatalf("unexpected questions %+v", questions)
	}
	got, _, _ := store.GetExam(ctx, exam.ID)
	if got.QuestionsCount != 2 {
		t.Fatalf("expected questions count 2, got %d", got.QuestionsCount)
	}

	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	stored, err := store.InsertAnswers(ctx, []domain.Answer{
		{QuestionID: q1.ID, ExamID: exam.ID, UserID: "bob", ChosenOptionIndex: 1, IsCorrect: true, Timestamp: at},
		{QuestionID: q2.ID, ExamID: exam.ID, UserID: "bob", ChosenOptionIndex: 2, Timestamp: at},
	})
	if err != nil {
		t.Fatalf("insert answers: %v", err)
	}
	if stored[0].ID != 1 || stored[1].ID != 2 {
		t.Fatalf("unexpected answer ids %+v", stored)
	}
	answers, _ := store.AnswersByExam(ctx, exam.ID)
	if len(answers) != 2 || !answers[0].IsCorrect || answers[1].IsCorrect || !answers[0].Timestamp.Equal(at) {
		t.Fatalf("unexpected answers %+v", answers)
	}
}

func TestAnswerBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	exam, _ := store.InsertExam(ctx, domain.Exam{Name: "Go", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DurationMinutes: 10, CreatedBy: "admin"})
	q, _ := store.InsertQuestion(ctx, domain.Question{ExamID: exam.ID, Text: "q", Options: []string{"a", "b"}, Points: 1})

	_, err := store.InsertAnswers(ctx, []domain.Answer{
		{QuestionID: q.ID, ExamID: exam.ID, UserID: "bob", Timestamp: time.Now()},
		{QuestionID: 404, ExamID: exam.ID, UserID: "bob", Timestamp: time.Now()},
	})
	if err == nil {
		t.Fatalf("expected foreign key failure")
	}
	answers, _ := store.AnswersByExam(ctx, exam.ID)
	if len(answers) != 0 {
		t.Fatalf("expected rollback, got %d answers", len(answers))
	}
}

func TestDeleteExamCascade(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	exam, _ := store.InsertExam(ctx, domain.Exam{Name: "Go", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DurationMinutes: 10, CreatedBy: "admin"})
	q, _ := store.InsertQuestion(ctx, domain.Question{ExamID: exam.ID, Text: "q", Options: []string{"a", "b"}, Points: 1})
	if _, err := store.InsertAnswers(ctx, []domain.Answer{{QuestionID: q.ID, ExamID: exam.ID, UserID: "bob", Timestamp: time.Now()}}); err != nil {
		t.Fatalf("insert answers: %v", err)
	}

	if err := store.DeleteExamCascade(ctx, exam.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetExam(ctx, exam.ID); ok {
		t.Fatalf("expected exam gone")
	}
	if qs, _ := store.QuestionsByExam(ctx, exam.ID); len(qs) != 0 {
		t.Fatalf("expected questions gone")
	}
	if as, _ := store.AnswersByExam(ctx, exam.ID); len(as) != 0 {
		t.Fatalf("expected answers gone")
	}
	if err := store.DeleteExamCascade(ctx, exam.ID); err == nil {
		t.Fatalf("expected not found")
	}
	exams, _ := store.ListExams(ctx)
	if len(exams) != 0 {
		t.Fatalf("expected empty list, got %d", len(exams))
	}
}

func TestDeleteExamCascadeRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	exam, _ := store.InsertExam(ctx, domain.Exam{Name: "Go", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DurationMinutes: 10, CreatedBy: "admin"})
	q, _ := store.InsertQuestion(ctx, domain.Question{ExamID: exam.ID, Text: "q", Options: []string{"a", "b"}, Points: 1})
	if _, err := store.InsertAnswers(ctx, []domain.Answer{{QuestionID: q.ID, ExamID: exam.ID, UserID: "bob", Timestamp: time.Now()}}); err != nil {
		t.Fatalf("insert answers: %v", err)
	}

	// the exam row goes last, so failing it leaves the earlier deletes to roll back
	if _, err := store.db.ExecContext(ctx, `CREATE TRIGGER block_exam_delete BEFORE DELETE ON exams
		BEGIN SELECT RAISE(ABORT, 'exam delete blocked'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	if err := store.DeleteExamCascade(ctx, exam.ID); err == nil {
		t.Fatalf("expected cascade to fail")
	}

	if _, ok, _ := store.GetExam(ctx, exam.ID); !ok {
		t.Fatalf("expected exam to survive the failed cascade")
	}
	if qs, _ := store.QuestionsByExam(ctx, exam.ID); len(qs) != 1 {
		t.Fatalf("expected questions restored, got %d", len(qs))
	}
	if as, _ := store.AnswersByExam(ctx, exam.ID); len(as) != 1 {
		t.Fatalf("expected answers restored, got %d", len(as))
	}

	if _, err := store.db.ExecContext(ctx, `DROP TRIGGER block_exam_delete`); err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	if err := store.DeleteExamCascade(ctx, exam.ID); err != nil {
		t.Fatalf("delete after dropping trigger: %v", err)
	}
}
