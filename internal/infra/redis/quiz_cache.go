package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"untrivially-api/internal/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a full quiz tree from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// versionTTL keeps invalidation counters around far longer than any fill takes.
const versionTTL = 24 * time.Hour

// errStaleFill aborts a fill that raced an invalidation.
var errStaleFill = errors.New("quiz changed during cache fill")

// QuizCache keeps quiz trees in Redis as JSON and falls back to a loader on a miss.
// Trees are stored as: SET quiz:{quizID} {json} EX ttl
// Invalidations bump quiz:{quizID}:version; a fill only writes when the version it
// read before loading is unchanged (WATCH/MULTI).
type QuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration, logger *slog.Logger) *QuizCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := c.lookup(ctx, quizID); ok {
			return quiz, nil
		}

		version, err := c.version(ctx, quizID)
		if err != nil {
			c.logger.WarnContext(ctx, "quiz cache version read failed", "quizId", quizID, "error", err)
		}

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		ttl := c.ttlWithJitter()
		if ttl <= 0 {
			return quiz, nil
		}
		raw, err := json.Marshal(quiz)
		if err != nil {
			return domain.Quiz{}, errors.Wrap(err, "marshal quiz")
		}
		if err := c.fill(ctx, quizID, version, raw, ttl); err != nil {
			// the loaded value is still good; the next read retries the fill
			c.logger.WarnContext(ctx, "quiz cache fill skipped", "quizId", quizID, "error", err)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// fill stores raw only if no invalidation happened since version was read.
func (c *QuizCache) fill(ctx context.Context, quizID string, version int64, raw []byte, ttl time.Duration) error {
	versionKey := c.versionKey(quizID)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(quizID), raw, ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return errStaleFill
	}
	return err
}

func (c *QuizCache) version(ctx context.Context, quizID string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Invalidate bumps the quiz version and deletes the cached tree.
func (c *QuizCache) Invalidate(ctx context.Context, quizID string) error {
	c.sf.Forget(quizID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.versionKey(quizID))
		pipe.Expire(ctx, c.versionKey(quizID), versionTTL)
		pipe.Del(ctx, c.key(quizID))
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "invalidate quiz %s", quizID)
	}
	return nil
}

func (c *QuizCache) lookup(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "quiz cache read failed", "quizId", quizID, "error", err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		c.logger.WarnContext(ctx, "dropping undecodable quiz cache entry", "quizId", quizID, "error", err)
		_ = c.client.Del(ctx, c.key(quizID)).Err()
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID
}

func (c *QuizCache) versionKey(quizID string) string {
	return "quiz:" + quizID + ":version"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
