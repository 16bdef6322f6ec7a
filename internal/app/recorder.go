package app

import (
	"context"
	"sort"

	"exam-service/internal/domain"
)

// AttemptRecorder persists finished answer sets as append-only facts.
type AttemptRecorder struct {
	store Store
}

func NewAttemptRecorder(store Store) *AttemptRecorder {
	return &AttemptRecorder{store: store}
}

// Record writes all answers in one transaction and returns them with their
// persisted ids. Retrying after a failure may duplicate rows.
func (r *AttemptRecorder) Record(ctx context.Context, userID string, examID int64, answers []domain.Answer) ([]domain.Answer, error) {
	if len(answers) == 0 {
		return nil, nil
	}
	rows := make([]domain.Answer, len(answers))
	for i, a := range answers {
		a.UserID = userID
		a.ExamID = examID
		rows[i] = a
	}
	stored, err := r.store.InsertAnswers(ctx, rows)
	if err != nil {
		return nil, storeErr("insert answers", err)
	}
	return stored, nil
}

// History returns the answers a user has recorded for an exam, oldest first.
func (r *AttemptRecorder) History(ctx context.Context, examID int64, userID string) ([]domain.Answer, error) {
	all, err := r.store.AnswersByExam(ctx, examID)
	if err != nil {
		return nil, storeErr("load answers", err)
	}
	out := make([]domain.Answer, 0, len(all))
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
