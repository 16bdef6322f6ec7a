package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"exam-service/internal/domain"
)

// NewExam carries the admin-supplied exam fields.
type NewExam struct {
	Name            string
	Date            time.Time
	DurationMinutes int
}

// ExamCatalog owns exam metadata and cascade deletion. It keeps no exam list
// of its own; every read goes through the Store.
type ExamCatalog struct {
	store     Store
	questions *QuestionBank
}

// NewExamCatalog returns a catalog over store. Removing an exam drops its
// cached questions through questions.
func NewExamCatalog(store Store, questions *QuestionBank) *ExamCatalog {
	return &ExamCatalog{store: store, questions: questions}
}

// AddExam validates and persists a new exam created by an admin.
func (c *ExamCatalog) AddExam(ctx context.Context, user *domain.User, in NewExam) (domain.Exam, error) {
	if err := authorize(user); err != nil {
		return domain.Exam{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Exam{}, fmt.Errorf("%w: exam name is required", domain.ErrValidation)
	}
	if in.DurationMinutes <= 0 {
		return domain.Exam{}, fmt.Errorf("%w: duration must be positive, got %d", domain.ErrValidation, in.DurationMinutes)
	}
	if in.Date.IsZero() {
		return domain.Exam{}, fmt.Errorf("%w: exam date is required", domain.ErrValidation)
	}

	exam, err := c.store.InsertExam(ctx, domain.Exam{
		Name:            name,
		Date:            in.Date,
		DurationMinutes: in.DurationMinutes,
		CreatedBy:       user.Username,
	})
	if err != nil {
		return domain.Exam{}, storeErr("insert exam", err)
	}
	return exam, nil
}

// ListExams returns a snapshot of all exams in store order.
func (c *ExamCatalog) ListExams(ctx context.Context) ([]domain.Exam, error) {
	exams, err := c.store.ListExams(ctx)
	if err != nil {
		return nil, storeErr("list exams", err)
	}
	return exams, nil
}

// GetExam looks an exam up by id. A missing exam is reported as ok=false.
func (c *ExamCatalog) GetExam(ctx context.Context, id int64) (domain.Exam, bool, error) {
	exam, ok, err := c.store.GetExam(ctx, id)
	if err != nil {
		return domain.Exam{}, false, storeErr("get exam", err)
	}
	return exam, ok, nil
}

// RemoveExam deletes an exam together with its questions and answers.
func (c *ExamCatalog) RemoveExam(ctx context.Context, user *domain.User, id int64) error {
	if err := authorize(user); err != nil {
		return err
	}
	if _, ok, err := c.GetExam(ctx, id); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: exam %d", domain.ErrNotFound, id)
	}
	if err := c.store.DeleteExamCascade(ctx, id); err != nil {
		return storeErr("delete exam", err)
	}
	c.questions.invalidate(ctx, id)
	return nil
}
