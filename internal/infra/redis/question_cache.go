package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"exam-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// QuestionCache stores each exam's question list as one JSON value:
//
//	SET exam:{examID}:questions <json> EX <ttl>
//
// Cache failures are logged and treated as misses; the Store stays the
// source of truth.
type QuestionCache struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Get(ctx context.Context, examID int64) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, c.key(examID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("question cache get exam %d: %v", examID, err)
		}
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		log.Printf("question cache decode exam %d: %v", examID, err)
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) Put(ctx context.Context, examID int64, questions []domain.Question) {
	if c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(questions)
	if err != nil {
		log.Printf("question cache encode exam %d: %v", examID, err)
		return
	}
	if err := c.client.Set(ctx, c.key(examID), raw, c.ttlWithJitter()).Err(); err != nil {
		log.Printf("question cache put exam %d: %v", examID, err)
	}
}

func (c *QuestionCache) Invalidate(ctx context.Context, examID int64) {
	if err := c.client.Del(ctx, c.key(examID)).Err(); err != nil {
		log.Printf("question cache invalidate exam %d: %v", examID, err)
	}
}

func (c *QuestionCache) key(examID int64) string {
	return "exam:" + strconv.FormatInt(examID, 10) + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
