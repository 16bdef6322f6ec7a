package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exam-service/internal/domain"
	_ "modernc.org/sqlite" // driver: sqlite
)

// DefaultDSN keeps the database next to the binary.
const DefaultDSN = "file:exams.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

const schema = `
CREATE TABLE IF NOT EXISTS exams (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  date TEXT NOT NULL,
  duration_minutes INTEGER NOT NULL,
  questions_count INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY,
  exam_id INTEGER NOT NULL REFERENCES exams(id),
  text TEXT NOT NULL,
  options TEXT NOT NULL,
  correct_option_index INTEGER NOT NULL,
  points INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS answers (
  id INTEGER PRIMARY KEY,
  question_id INTEGER NOT NULL REFERENCES questions(id),
  exam_id INTEGER NOT NULL REFERENCES exams(id),
  user_id TEXT NOT NULL,
  chosen_option_index INTEGER NOT NULL,
  is_correct INTEGER NOT NULL,
  timestamp TEXT NOT NULL
);
`

// Store implements app.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer at a time; keeps max(id)+1 allocation race-free in process
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertExam(ctx context.Context, exam domain.Exam) (domain.Exam, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM exams`).Scan(&exam.ID); err != nil {
			return fmt.Errorf("next exam id: %w", err)
		}
		exam.QuestionsCount = 0
		_, err := tx.ExecContext(ctx, `INSERT INTO exams (id, name, date, duration_minutes, questions_count, created_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			exam.ID, exam.Name, exam.DateString(), exam.DurationMinutes, exam.QuestionsCount, exam.CreatedBy)
		return err
	})
	if err != nil {
		return domain.Exam{}, err
	}
	return exam, nil
}

func (s *Store) GetExam(ctx context.Context, id int64) (domain.Exam, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, date, duration_minutes, questions_count, created_by FROM exams WHERE id = ?`, id)
	exam, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Exam{}, false, nil
	}
	if err != nil {
		return domain.Exam{}, false, err
	}
	return exam, true, nil
}

func (s *Store) ListExams(ctx context.Context) ([]domain.Exam, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, date, duration_minutes, questions_count, created_by FROM exams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()

	exams := make([]domain.Exam, 0)
	for rows.Next() {
		exam, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, exam)
	}
	return exams, rows.Err()
}

func (s *Store) DeleteExamCascade(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// questions, answers, then the exam; foreign keys are checked at commit
		if _, err := tx.ExecContext(ctx, `PRAGMA defer_foreign_keys = ON`); err != nil {
			return fmt.Errorf("defer foreign keys: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE exam_id = ?`, id); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE exam_id = ?`, id); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete exam: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
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
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE exams SET questions_count = questions_count + 1 WHERE id = ?`, q.ExamID)
		if err != nil {
			return fmt.Errorf("bump questions count: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: exam %d", domain.ErrNotFound, q.ExamID)
		}
		maxID, _, err := maxQuestionID(ctx, tx)
		if err != nil {
			return err
		}
		q.ID = maxID + 1
		_, err = tx.ExecContext(ctx, `INSERT INTO questions (id, exam_id, text, options, correct_option_index, points)
			VALUES (?, ?, ?, ?, ?, ?)`,
			q.ID, q.ExamID, q.Text, string(options), q.CorrectOptionIndex, q.Points)
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *Store) QuestionsByExam(ctx context.Context, examID int64) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, exam_id, text, options, correct_option_index, points
		FROM questions WHERE exam_id = ? ORDER BY id`, examID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		var options string
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &options, &q.CorrectOptionIndex, &q.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %d: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) InsertAnswers(ctx context.Context, answers []domain.Answer) ([]domain.Answer, error) {
	stored := make([]domain.Answer, 0, len(answers))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var nextID int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM answers`).Scan(&nextID); err != nil {
			return fmt.Errorf("next answer id: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO answers (id, question_id, exam_id, user_id, chosen_option_index, is_correct, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, a := range answers {
			nextID++
			a.ID = nextID
			if _, err := stmt.ExecContext(ctx, a.ID, a.QuestionID, a.ExamID, a.UserID, a.ChosenOptionIndex, a.IsCorrect, a.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
				return fmt.Errorf("insert answer for question %d: %w", a.QuestionID, err)
			}
			stored = append(stored, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) AnswersByExam(ctx context.Context, examID int64) ([]domain.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, question_id, exam_id, user_id, chosen_option_index, is_correct, timestamp
		FROM answers WHERE exam_id = ? ORDER BY id`, examID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	answers := make([]domain.Answer, 0)
	for rows.Next() {
		var a domain.Answer
		var ts string
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.ExamID, &a.UserID, &a.ChosenOptionIndex, &a.IsCorrect, &ts); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if a.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse answer timestamp: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// withTx commits when fn succeeds and rolls back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func maxQuestionID(ctx context.Context, q queryer) (int64, bool, error) {
	var maxID sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(id) FROM questions`).Scan(&maxID); err != nil {
		return 0, false, fmt.Errorf("max question id: %w", err)
	}
	return maxID.Int64, maxID.Valid, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExam(row scanner) (domain.Exam, error) {
	var exam domain.Exam
	var date string
	if err := row.Scan(&exam.ID, &exam.Name, &date, &exam.DurationMinutes, &exam.QuestionsCount, &exam.CreatedBy); err != nil {
		return domain.Exam{}, err
	}
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return domain.Exam{}, fmt.Errorf("parse exam date: %w", err)
	}
	exam.Date = d
	return exam, nil
}
