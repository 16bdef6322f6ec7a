package domain

import "time"

// DateLayout is the wire format of an exam date.
const DateLayout = "2006-01-02"

// Exam is a named, timed collection of multiple-choice questions.
type Exam struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Date            time.Time `json:"-"`
	DurationMinutes int       `json:"durationMinutes"`
	QuestionsCount  int       `json:"questionsCount"`
	CreatedBy       string    `json:"createdBy"`
}

// DateString renders the exam date as YYYY-MM-DD.
func (e Exam) DateString() string {
	return e.Date.Format(DateLayout)
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID                 int64    `json:"id"`
	ExamID             int64    `json:"examId"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Points             int      `json:"points"` // defaults to 1 if zero
}

// IsCorrect reports whether the 0-based option index is the right one.
func (q Question) IsCorrect(index int) bool {
	return index == q.CorrectOptionIndex
}

// Answer is one user's recorded choice for one question during one attempt.
type Answer struct {
	ID                int64     `json:"id"`
	Seq               int       `json:"seq"`
	QuestionID        int64     `json:"questionId"`
	ExamID            int64     `json:"examId"`
	UserID            string    `json:"userId"`
	ChosenOptionIndex int       `json:"chosenOptionIndex"`
	IsCorrect         bool      `json:"isCorrect"`
	Timestamp         time.Time `json:"timestamp"`
}

// ScoreReport summarizes a completed attempt.
type ScoreReport struct {
	ExamName       string  `json:"examName"`
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	EarnedPoints   int     `json:"earnedPoints"`
	TotalPoints    int     `json:"totalPoints"`
	Percentage     float64 `json:"percentage"`
	Passed         bool    `json:"passed"`
}
