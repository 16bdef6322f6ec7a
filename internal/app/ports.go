package app

import (
	"context"
	"errors"
	"fmt"

	"exam-service/internal/domain"
)

// Store abstracts the row-oriented record store (in-memory, SQLite, Postgres).
//
// Implementations allocate exam, question and answer ids as max(existing)+1
// inside the inserting transaction, and run every multi-row mutation in a
// single transaction. InsertQuestion also bumps the owning exam's
// QuestionsCount in the same transaction. Unknown exam ids are reported with
// domain.ErrNotFound; anything else is a raw store error.
type Store interface {
	InsertExam(ctx context.Context, exam domain.Exam) (domain.Exam, error)
	GetExam(ctx context.Context, id int64) (domain.Exam, bool, error)
	ListExams(ctx context.Context) ([]domain.Exam, error)
	DeleteExamCascade(ctx context.Context, id int64) error
	InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	QuestionsByExam(ctx context.Context, examID int64) ([]domain.Question, error)
	InsertAnswers(ctx context.Context, answers []domain.Answer) ([]domain.Answer, error)
	AnswersByExam(ctx context.Context, examID int64) ([]domain.Answer, error)
}

// QuestionCache holds per-exam question lists in front of the Store.
// Entries for an exam are invalidated on every question insert and exam
// removal; implementations may also expire them after a TTL.
type QuestionCache interface {
	Get(ctx context.Context, examID int64) ([]domain.Question, bool)
	Put(ctx context.Context, examID int64, questions []domain.Question)
	Invalidate(ctx context.Context, examID int64)
}

// Presenter is the request/response surface a user takes an exam through.
type Presenter interface {
	RenderQuestion(ctx context.Context, q domain.Question, number, total int) error
	// AskChoice returns the raw input for a 1-based option number.
	AskChoice(ctx context.Context, optionCount int) (string, error)
	ShowError(ctx context.Context, message string) error
	RenderResults(ctx context.Context, report domain.ScoreReport) error
}

// NoopCache never holds anything; every read goes to the Store.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int64) ([]domain.Question, bool) { return nil, false }
func (NoopCache) Put(context.Context, int64, []domain.Question)         {}
func (NoopCache) Invalidate(context.Context, int64)                     {}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}

func authorize(user *domain.User) error {
	if user == nil {
		return fmt.Errorf("%w: no authenticated user", domain.ErrUnauthorized)
	}
	if !user.CanManageCatalog() {
		return fmt.Errorf("%w: %s is not an admin", domain.ErrUnauthorized, user.Username)
	}
	return nil
}
