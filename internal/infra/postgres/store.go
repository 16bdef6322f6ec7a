package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"exam-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store implements app.Store on Postgres. Ids are max+1 under a table lock
// taken inside the inserting transaction.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) InsertExam(ctx context.Context, exam domain.Exam) (domain.Exam, error) {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE exams IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock exams: %w", err)
		}
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM exams`).Scan(&exam.ID); err != nil {
			return fmt.Errorf("next exam id: %w", err)
		}
		exam.QuestionsCount = 0
		_, err := tx.Exec(ctx, `INSERT INTO exams (id, name, date, duration_minutes, questions_count, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			exam.ID, exam.Name, exam.Date, exam.DurationMinutes, exam.QuestionsCount, exam.CreatedBy)
		return err
	})
	if err != nil {
		return domain.Exam{}, err
	}
	return exam, nil
}

func (s *Store) GetExam(ctx context.Context, id int64) (domain.Exam, bool, error) {
	var exam domain.Exam
	err := s.pool.QueryRow(ctx, `SELECT id, name, date, duration_minutes, questions_count, created_by FROM exams WHERE id = $1`, id).
		Scan(&exam.ID, &exam.Name, &exam.Date, &exam.DurationMinutes, &exam.QuestionsCount, &exam.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Exam{}, false, nil
	}
	if err != nil {
		return domain.Exam{}, false, fmt.Errorf("get exam: %w", err)
	}
	return exam, true, nil
}

func (s *Store) ListExams(ctx context.Context) ([]domain.Exam, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, date, duration_minutes, questions_count, created_by FROM exams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exams: %w", err)
	}
	defer rows.Close()

	exams := make([]domain.Exam, 0)
	for rows.Next() {
		var exam domain.Exam
		if err := rows.Scan(&exam.ID, &exam.Name, &exam.Date, &exam.DurationMinutes, &exam.QuestionsCount, &exam.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		exams = append(exams, exam)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return exams, nil
}

func (s *Store) DeleteExamCascade(ctx context.Context, id int64) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SET CONSTRAINTS ALL DEFERRED`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, id); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE exam_id = $1`, id); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete exam: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: exam %d", domain.ErrNotFound, id)
		}
		return nil
	})
}

func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return domain.Question{}, err
	}
	err = s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE exams SET questions_count = questions_count + 1 WHERE id = $1`, q.ExamID)
		if err != nil {
			return fmt.Errorf("bump questions count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: exam %d", domain.ErrNotFound, q.ExamID)
		}
		if _, err := tx.Exec(ctx, `LOCK TABLE questions IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock questions: %w", err)
		}
		maxID, _, err := maxQuestionID(ctx, tx)
		if err != nil {
			return err
		}
		q.ID = maxID + 1
		_, err = tx.Exec(ctx, `INSERT INTO questions (id, exam_id, text, options, correct_option_index, points)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			q.ID, q.ExamID, q.Text, string(options), q.CorrectOptionIndex, q.Points)
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *Store) QuestionsByExam(ctx context.Context, examID int64) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, exam_id, text, options, correct_option_index, points
		FROM questions WHERE exam_id = $1 ORDER BY id`, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		var options string
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &options, &q.CorrectOptionIndex, &q.Points); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of question %d: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return questions, nil
}

func (s *Store) InsertAnswers(ctx context.Context, answers []domain.Answer) ([]domain.Answer, error) {
	stored := make([]domain.Answer, 0, len(answers))
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE answers IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock answers: %w", err)
		}
		var nextID int64
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM answers`).Scan(&nextID); err != nil {
			return fmt.Errorf("next answer id: %w", err)
		}

		batch := &pgx.Batch{}
		for _, a := range answers {
			nextID++
			a.ID = nextID
			batch.Queue(`INSERT INTO answers (id, question_id, exam_id, user_id, chosen_option_index, is_correct, timestamp)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				a.ID, a.QuestionID, a.ExamID, a.UserID, a.ChosenOptionIndex, a.IsCorrect, a.Timestamp)
			stored = append(stored, a)
		}
		br := tx.SendBatch(ctx, batch)
		for range answers {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert answer: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) AnswersByExam(ctx context.Context, examID int64) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, question_id, exam_id, user_id, chosen_option_index, is_correct, timestamp
		FROM answers WHERE exam_id = $1 ORDER BY id`, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	answers := make([]domain.Answer, 0)
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.ExamID, &a.UserID, &a.ChosenOptionIndex, &a.IsCorrect, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return answers, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func maxQuestionID(ctx context.Context, q rowQuerier) (int64, bool, error) {
	var maxID *int64
	if err := q.QueryRow(ctx, `SELECT MAX(id) FROM questions`).Scan(&maxID); err != nil {
		return 0, false, fmt.Errorf("max question id: %w", err)
	}
	if maxID == nil {
		return 0, false, nil
	}
	return *maxID, true, nil
}
