package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"exam-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// MinOptions is the smallest number of options a question may have.
const MinOptions = 2

// NewQuestion carries the admin-supplied question fields.
type NewQuestion struct {
	ExamID             int64
	Text               string
	Options            []string
	CorrectOptionIndex int
	Points             int // 0 means 1
}

// QuestionBank owns questions scoped to an exam.
type QuestionBank struct {
	store Store
	cache QuestionCache
	sf    singleflight.Group

	// generations counts invalidations per exam; a load only fills the
	// cache if no invalidation happened since it started reading.
	mu          sync.Mutex
	generations map[int64]uint64
}

func NewQuestionBank(store Store, cache QuestionCache) *QuestionBank {
	if cache == nil {
		cache = NoopCache{}
	}
	return &QuestionBank{store: store, cache: cache, generations: make(map[int64]uint64)}
}

// AddQuestion validates and persists a question under an existing exam.
func (b *QuestionBank) AddQuestion(ctx context.Context, user *domain.User, in NewQuestion) (domain.Question, error) {
	if err := authorize(user); err != nil {
		return domain.Question{}, err
	}
	if _, ok, err := b.store.GetExam(ctx, in.ExamID); err != nil {
		return domain.Question{}, storeErr("get exam", err)
	} else if !ok {
		return domain.Question{}, fmt.Errorf("%w: exam %d does not exist", domain.ErrValidation, in.ExamID)
	}
	q, err := validateQuestion(in)
	if err != nil {
		return domain.Question{}, err
	}

	stored, err := b.store.InsertQuestion(ctx, q)
	if err != nil {
		return domain.Question{}, storeErr("insert question", err)
	}
	b.invalidate(ctx, in.ExamID)
	return stored, nil
}

// QuestionsFor returns the questions of an exam in insertion order.
func (b *QuestionBank) QuestionsFor(ctx context.Context, examID int64) ([]domain.Question, error) {
	if cached, ok := b.cache.Get(ctx, examID); ok {
		return cached, nil
	}

	result, err, _ := b.sf.Do(flightKey(examID), func() (interface{}, error) {
		if cached, ok := b.cache.Get(ctx, examID); ok {
			return cached, nil
		}
		gen := b.generation(examID)
		questions, err := b.store.QuestionsByExam(ctx, examID)
		if err != nil {
			return nil, storeErr("load questions", err)
		}
		b.putIfCurrent(ctx, examID, gen, questions)
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneQuestions(result.([]domain.Question)), nil
}

// invalidate drops the cached questions of an exam after a mutation. The
// generation is bumped first so in-flight loads that read before the
// mutation cannot write their rows back.
func (b *QuestionBank) invalidate(ctx context.Context, examID int64) {
	b.mu.Lock()
	b.generations[examID]++
	b.mu.Unlock()
	b.sf.Forget(flightKey(examID))
	b.cache.Invalidate(ctx, examID)
}

func (b *QuestionBank) generation(examID int64) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generations[examID]
}

func (b *QuestionBank) putIfCurrent(ctx context.Context, examID int64, gen uint64, questions []domain.Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.generations[examID] != gen {
		return
	}
	b.cache.Put(ctx, examID, questions)
}

func flightKey(examID int64) string {
	return strconv.FormatInt(examID, 10)
}

func validateQuestion(in NewQuestion) (domain.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.Question{}, fmt.Errorf("%w: question text is required", domain.ErrValidation)
	}
	if len(in.Options) < MinOptions {
		return domain.Question{}, fmt.Errorf("%w: need at least %d options, got %d", domain.ErrValidation, MinOptions, len(in.Options))
	}
	options := make([]string, len(in.Options))
	for i, opt := range in.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return domain.Question{}, fmt.Errorf("%w: option %d is empty", domain.ErrValidation, i+1)
		}
		options[i] = opt
	}
	if in.CorrectOptionIndex < 0 || in.CorrectOptionIndex >= len(options) {
		return domain.Question{}, fmt.Errorf("%w: correct option index %d outside [0, %d)", domain.ErrValidation, in.CorrectOptionIndex, len(options))
	}
	points := in.Points
	if points < 0 {
		return domain.Question{}, fmt.Errorf("%w: points must be positive, got %d", domain.ErrValidation, points)
	}
	if points == 0 {
		points = 1
	}
	return domain.Question{
		ExamID:             in.ExamID,
		Text:               text,
		Options:            options,
		CorrectOptionIndex: in.CorrectOptionIndex,
		Points:             points,
	}, nil
}

func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
