package app

import (
	"fmt"
	"strconv"

	"exam-service/internal/domain"
)

// DefaultPassThreshold is the pass mark in percent.
const DefaultPassThreshold = 70.0

// ScoringEngine aggregates an attempt into a score report. It has no side effects.
type ScoringEngine struct {
	passThreshold float64
}

// NewScoringEngine returns an engine with the given pass mark; non-positive
// values fall back to DefaultPassThreshold.
func NewScoringEngine(passThreshold float64) ScoringEngine {
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	return ScoringEngine{passThreshold: passThreshold}
}

func (e ScoringEngine) PassThreshold() float64 {
	if e.passThreshold <= 0 {
		return DefaultPassThreshold
	}
	return e.passThreshold
}

// Score pairs questions and answers by position.
func (e ScoringEngine) Score(exam domain.Exam, questions []domain.Question, answers []domain.Answer) (domain.ScoreReport, error) {
	report := domain.ScoreReport{
		ExamName:       exam.Name,
		TotalQuestions: len(questions),
	}
	for _, a := range answers {
		if a.IsCorrect {
			report.CorrectCount++
		}
	}
	for i, q := range questions {
		report.TotalPoints += q.Points
		if i < len(answers) && answers[i].IsCorrect {
			report.EarnedPoints += q.Points
		}
	}
	if report.TotalPoints == 0 {
		return domain.ScoreReport{}, fmt.Errorf("%w: exam %q", domain.ErrNoPoints, exam.Name)
	}

	pct := float64(report.EarnedPoints) / float64(report.TotalPoints) * 100
	report.Percentage = roundTenths(pct)
	report.Passed = report.Percentage >= e.PassThreshold()
	return report, nil
}

// roundTenths rounds to one decimal place, resolving exact ties to the even
// digit. The decimal conversion works on the exact binary value, so 6.25
// gives 6.2 while 0.15 (stored as 0.1499...) gives 0.1.
func roundTenths(x float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	if err != nil {
		return x
	}
	return r
}
