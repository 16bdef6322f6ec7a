package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"exam-service/internal/domain"
)

// QuestionCache keeps per-exam question lists in process with a TTL.
type QuestionCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[int64]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[int64]cachedQuestions),
	}
}

func (c *QuestionCache) Get(_ context.Context, examID int64) ([]domain.Question, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[examID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return copyQuestions(entry.questions), true
}

func (c *QuestionCache) Put(_ context.Context, examID int64, questions []domain.Question) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[examID] = cachedQuestions{
		questions: copyQuestions(questions),
		expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
	}
}

func (c *QuestionCache) Invalidate(_ context.Context, examID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, examID)
}

func (c *QuestionCache) ttlWithJitterLocked() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
