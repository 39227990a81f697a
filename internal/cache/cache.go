// Package cache keeps a key-indexed copy of server resources. Keys are the
// resource paths; each key has its own staleness and revalidation policy.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/maheshrc27/postflow-sync/internal/apiclient"
)

type Key string

const (
	KeyUser                Key = apiclient.PathUser
	KeyUserStatus          Key = apiclient.PathUserStatus
	KeyBrandPurpose        Key = apiclient.PathBrandPurpose
	KeyPosts               Key = apiclient.PathPosts
	KeyAnalytics           Key = apiclient.PathAnalytics
	KeySubscriptionUsage   Key = apiclient.PathSubscriptionUsage
	KeyPlatformConnections Key = apiclient.PathPlatformConnections
	KeyConnectionState     Key = apiclient.PathConnectionState
	KeyAdminMonitoring     Key = apiclient.PathAdminMonitoring
)

// Policy controls when a key is considered stale and when it refetches on
// its own. A zero StaleTime means every read revalidates.
type Policy struct {
	StaleTime       time.Duration
	RefetchInterval time.Duration
	RefetchOnFocus  bool
}

// DefaultPolicies reflects how volatile each resource is.
var DefaultPolicies = map[Key]Policy{
	KeyUser:                {StaleTime: 5 * time.Minute},
	KeyUserStatus:          {StaleTime: 5 * time.Minute},
	KeyBrandPurpose:        {StaleTime: 5 * time.Minute},
	KeyPosts:               {StaleTime: 30 * time.Second, RefetchInterval: 30 * time.Second},
	KeyAnalytics:           {StaleTime: 2 * time.Minute, RefetchInterval: 5 * time.Minute},
	KeySubscriptionUsage:   {RefetchOnFocus: true},
	KeyPlatformConnections: {StaleTime: 30 * time.Second, RefetchInterval: 2 * time.Minute},
	KeyConnectionState:     {StaleTime: 30 * time.Second},
	KeyAdminMonitoring:     {RefetchInterval: 10 * time.Second},
}

type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

type Entry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Set(ctx context.Context, key Key, entry Entry, ttl time.Duration) error
	Delete(ctx context.Context, key Key) error
}

// ErrMiss is returned by a Store that holds nothing for a key.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	fetcher  Fetcher
	store    Store
	logger   *zap.Logger
	group    singleflight.Group
	now      func() time.Time
	mu       sync.Mutex
	policies map[Key]Policy
	stale    map[Key]bool
	gens     map[Key]uint64
	subs     map[Key]map[int]func([]byte)
	nextSub  int

	// commit orders fetch results against invalidations.
	commit sync.Mutex
}

func New(fetcher Fetcher, store Store, logger *zap.Logger) *Cache {
	policies := make(map[Key]Policy, len(DefaultPolicies))
	for k, p := range DefaultPolicies {
		policies[k] = p
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{
		fetcher:  fetcher,
		store:    store,
		logger:   logger,
		now:      time.Now,
		policies: policies,
		stale:    map[Key]bool{},
		gens:     map[Key]uint64{},
		subs:     map[Key]map[int]func([]byte){},
	}
}

func (c *Cache) SetPolicy(key Key, p Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policies[key] = p
}

func (c *Cache) Policy(key Key) Policy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policies[key]
}

// Keys lists every key with a policy, sorted.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.policies))
	for k := range c.policies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Get returns the cached body for key, fetching it first when it is missing
// or stale.
func (c *Cache) Get(ctx context.Context, key Key) ([]byte, error) {
	entry, err := c.store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrMiss) {
		c.logger.Warn("Cache store read failed", zap.String("key", string(key)), zap.Error(err))
	}
	if err == nil && !c.isStale(key, entry) {
		return entry.Data, nil
	}
	return c.refetch(ctx, key)
}

// Peek returns whatever is stored for key without fetching.
func (c *Cache) Peek(ctx context.Context, key Key) ([]byte, bool) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return entry.Data, true
}

// Invalidate marks keys stale and refetches those that have subscribers.
// Keys nobody subscribes to are dropped from the store so other processes
// sharing it refetch too. Fetches already in flight are not joined; their
// results are discarded. Unrelated keys refetch in no particular order.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) error {
	var errs []error
	for _, key := range keys {
		c.commit.Lock()
		c.mu.Lock()
		c.stale[key] = true
		c.gens[key]++
		active := len(c.subs[key]) > 0
		c.mu.Unlock()
		c.commit.Unlock()
		c.group.Forget(string(key))

		c.logger.Debug("Cache key invalidated", zap.String("key", string(key)), zap.Bool("active", active))
		if !active {
			if err := c.store.Delete(ctx, key); err != nil {
				c.logger.Warn("Cache store delete failed", zap.String("key", string(key)), zap.Error(err))
			}
			continue
		}
		if _, err := c.refetch(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Focus revalidates focus-enabled keys that are stale, as a UI does when
// its window regains focus.
func (c *Cache) Focus(ctx context.Context) error {
	var errs []error
	for _, key := range c.Keys() {
		if !c.Policy(key).RefetchOnFocus {
			continue
		}
		entry, err := c.store.Get(ctx, key)
		if err == nil && !c.isStale(key, entry) {
			continue
		}
		if errors.Is(err, ErrMiss) && !c.active(key) {
			continue
		}
		if _, err := c.refetch(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Revalidate refetches key when something is subscribed to it. It backs
// fixed-interval background revalidation.
func (c *Cache) Revalidate(ctx context.Context, key Key) error {
	if !c.active(key) {
		return nil
	}
	_, err := c.refetch(ctx, key)
	return err
}

// Subscribe registers fn to receive every fresh body for key.
func (c *Cache) Subscribe(key Key, fn func([]byte)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[key] == nil {
		c.subs[key] = map[int]func([]byte){}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[key][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[key], id)
	}
}

func (c *Cache) active(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[key]) > 0
}

func (c *Cache) isStale(key Key, entry *Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale[key] {
		return true
	}
	return c.now().Sub(entry.FetchedAt) >= c.policies[key].StaleTime
}

func (c *Cache) refetch(ctx context.Context, key Key) ([]byte, error) {
	v, err, _ := c.group.Do(string(key), func() (interface{}, error) {
		c.mu.Lock()
		gen := c.gens[key]
		c.mu.Unlock()

		data, err := c.fetcher.Fetch(ctx, string(key))
		if err != nil {
			return nil, err
		}
		if listeners, ok := c.fill(ctx, key, gen, data); ok {
			for _, fn := range listeners {
				fn(data)
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	return v.([]byte), nil
}

// fill records data fetched at generation gen and returns the listeners to
// notify. It reports false when an invalidation happened after the fetch
// started.
func (c *Cache) fill(ctx context.Context, key Key, gen uint64, data []byte) ([]func([]byte), bool) {
	c.commit.Lock()
	defer c.commit.Unlock()

	c.mu.Lock()
	current := c.gens[key] == gen
	policy := c.policies[key]
	c.mu.Unlock()
	if !current {
		c.logger.Debug("Discarding fetch older than invalidation", zap.String("key", string(key)))
		return nil, false
	}

	entry := Entry{Data: data, FetchedAt: c.now()}
	if err := c.store.Set(ctx, key, entry, policy.StaleTime); err != nil {
		c.logger.Warn("Cache store write failed", zap.String("key", string(key)), zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stale, key)
	listeners := make([]func([]byte), 0, len(c.subs[key]))
	for _, fn := range c.subs[key] {
		listeners = append(listeners, fn)
	}
	return listeners, true
}

// Getter is the read side of the cache.
type Getter interface {
	Get(ctx context.Context, key Key) ([]byte, error)
}

// GetJSON reads key through g and decodes it into T.
func GetJSON[T any](ctx context.Context, g Getter, key Key) (T, error) {
	var out T
	raw, err := g.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding %s: %w", key, err)
	}
	return out, nil
}
