package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/cache"
)

const (
	defaultRevalidateTimeout = 30 * time.Second
	concurrencyLimit         = 4
)

type Revalidator interface {
	Keys() []cache.Key
	Policy(key cache.Key) cache.Policy
	Revalidate(ctx context.Context, key cache.Key) error
}

// RevalidateJob refreshes cache keys in the background on each key's
// refetch interval.
type RevalidateJob struct {
	cache   Revalidator
	logger  *zap.Logger
	timeout time.Duration
}

func NewRevalidateJob(c Revalidator, logger *zap.Logger) *RevalidateJob {
	return &RevalidateJob{
		cache:   c,
		logger:  logger,
		timeout: defaultRevalidateTimeout,
	}
}

func (j *RevalidateJob) Revalidate(key cache.Key) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.cache.Revalidate(ctx, key); err != nil {
		j.logger.Warn("Background revalidation failed", zap.String("key", string(key)), zap.Error(err))
		return
	}
	j.logger.Debug("Background revalidation done", zap.String("key", string(key)))
}

// RevalidateAll refreshes every interval-driven key at once.
func (j *RevalidateJob) RevalidateAll() {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, key := range j.scheduledKeys() {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(key cache.Key) {
			defer wg.Done()
			defer func() { <-semaphore }()
			j.Revalidate(key)
		}(key)
	}

	wg.Wait()
}

func (j *RevalidateJob) scheduledKeys() []cache.Key {
	var keys []cache.Key
	for _, key := range j.cache.Keys() {
		if j.cache.Policy(key).RefetchInterval > 0 {
			keys = append(keys, key)
		}
	}
	return keys
}

// Schedule adds one @every entry per key with a refetch interval and
// returns how many were added.
func (j *RevalidateJob) Schedule(c *cron.Cron) (int, error) {
	added := 0
	for _, key := range j.scheduledKeys() {
		key := key
		interval := j.cache.Policy(key).RefetchInterval
		if err := c.AddFunc("@every "+interval.String(), func() { j.Revalidate(key) }); err != nil {
			return added, fmt.Errorf("scheduling %s: %w", key, err)
		}
		j.logger.Info("Scheduled background revalidation", zap.String("key", string(key)), zap.Duration("interval", interval))
		added++
	}
	return added, nil
}
