package memory

import (
	"context"
	"fmt"
	"sync"

	"exam-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Every mutation builds
// the new table state on the side and swaps it in only when all statements
// succeeded, so a failing batch leaves nothing behind.
type Store struct {
	mu        sync.RWMutex
	exams     []domain.Exam
	questions []domain.Question
	answers   []domain.Answer
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) InsertExam(_ context.Context, exam domain.Exam) (domain.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for _, e := range s.exams {
		maxID = max(maxID, e.ID)
	}
	exam.ID = maxID + 1
	exam.QuestionsCount = 0
	s.exams = append(s.exams, exam)
	return exam, nil
}

func (s *Store) GetExam(_ context.Context, id int64) (domain.Exam, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.examIndexLocked(id); i >= 0 {
		return s.exams[i], true, nil
	}
	return domain.Exam{}, false, nil
}

func (s *Store) ListExams(_ context.Context) ([]domain.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Exam(nil), s.exams...), nil
}

func (s *Store) DeleteExamCascade(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.examIndexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: exam %d", domain.ErrNotFound, id)
	}

	questions := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.ExamID != id {
			questions = append(questions, q)
		}
	}
	answers := make([]domain.Answer, 0, len(s.answers))
	for _, a := range s.answers {
		if a.ExamID != id {
			answers = append(answers, a)
		}
	}
	exams := make([]domain.Exam, 0, len(s.exams))
	exams = append(exams, s.exams[:idx]...)
	exams = append(exams, s.exams[idx+1:]...)

	s.questions, s.answers, s.exams = questions, answers, exams
	return nil
}

func (s *Store) InsertQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.examIndexLocked(q.ExamID)
	if idx < 0 {
		return domain.Question{}, fmt.Errorf("%w: exam %d", domain.ErrNotFound, q.ExamID)
	}
	q.ID = s.maxQuestionIDLocked() + 1
	q.Options = append([]string(nil), q.Options...)
	s.questions = append(s.questions, q)
	s.exams[idx].QuestionsCount++
	return q, nil
}

func (s *Store) QuestionsByExam(_ context.Context, examID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.ExamID == examID {
			q.Options = append([]string(nil), q.Options...)
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) InsertAnswers(_ context.Context, answers []domain.Answer) ([]domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nextID int64
	for _, a := range s.answers {
		nextID = max(nextID, a.ID)
	}
	staged := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		if s.examIndexLocked(a.ExamID) < 0 {
			return nil, fmt.Errorf("answer references unknown exam %d", a.ExamID)
		}
		if !s.hasQuestionLocked(a.ExamID, a.QuestionID) {
			return nil, fmt.Errorf("answer references unknown question %d", a.QuestionID)
		}
		nextID++
		a.ID = nextID
		staged = append(staged, a)
	}
	s.answers = append(s.answers, staged...)
	return append([]domain.Answer(nil), staged...), nil
}

func (s *Store) AnswersByExam(_ context.Context, examID int64) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Answer, 0)
	for _, a := range s.answers {
		if a.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) examIndexLocked(id int64) int {
	for i, e := range s.exams {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) hasQuestionLocked(examID, questionID int64) bool {
	for _, q := range s.questions {
		if q.ID == questionID && q.ExamID == examID {
			return true
		}
	}
	return false
}

// maxQuestionIDLocked is 0 when there are no questions.
func (s *Store) maxQuestionIDLocked() int64 {
	var maxID int64
	for _, q := range s.questions {
		maxID = max(maxID, q.ID)
	}
	return maxID
}
