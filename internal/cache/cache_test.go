package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	bodies map[string]string
	err    error
	gate   chan struct{}
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{calls: map[string]int{}, bodies: map[string]string{}}
}

func (f *countingFetcher) Fetch(_ context.Context, path string) ([]byte, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[path]
	if !ok {
		body = `{}`
	}
	return []byte(body), nil
}

func (f *countingFetcher) count(path Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[string(path)]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(f Fetcher) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := New(f, nil, zap.NewNop())
	c.now = clock.Now
	return c, clock
}

func TestGetServesFreshEntryFromCache(t *testing.T) {
	f := newCountingFetcher()
	f.bodies[string(KeyUser)] = `{"id":1}`
	c, clock := newTestCache(f)
	ctx := context.Background()

	raw, err := c.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(raw))

	clock.Advance(4 * time.Minute)
	_, err = c.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(KeyUser))

	clock.Advance(2 * time.Minute)
	_, err = c.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count(KeyUser))
}

func TestZeroStaleTimeRevalidatesOnEveryMount(t *testing.T) {
	f := newCountingFetcher()
	c, _ := newTestCache(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, KeySubscriptionUsage)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.count(KeySubscriptionUsage))
}

func TestInvalidateRefetchesOnlySubscribedKeys(t *testing.T) {
	f := newCountingFetcher()
	c, _ := newTestCache(f)
	ctx := context.Background()

	var received atomic.Int32
	unsubscribe := c.Subscribe(KeyPosts, func([]byte) { received.Add(1) })

	require.NoError(t, c.Invalidate(ctx, KeyPosts, KeyUser))
	assert.Equal(t, 1, f.count(KeyPosts))
	assert.Equal(t, 0, f.count(KeyUser))
	assert.Equal(t, int32(1), received.Load())

	// KeyUser was marked stale, so the next mount refetches it.
	_, err := c.Get(ctx, KeyUser)
	require.NoError(t, err)
	_, err = c.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(KeyUser))

	unsubscribe()
	require.NoError(t, c.Invalidate(ctx, KeyPosts))
	assert.Equal(t, 1, f.count(KeyPosts))
}

func TestInvalidateReportsFetchErrors(t *testing.T) {
	f := newCountingFetcher()
	f.err = errors.New("boom")
	c, _ := newTestCache(f)
	c.Subscribe(KeyPosts, func([]byte) {})

	err := c.Invalidate(context.Background(), KeyPosts)
	assert.ErrorContains(t, err, "boom")
}

func TestConcurrentGetsCollapseIntoOneFetch(t *testing.T) {
	f := newCountingFetcher()
	f.gate = make(chan struct{})
	c, _ := newTestCache(f)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get(context.Background(), KeyPosts)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, 1, f.count(KeyPosts))
}

func TestFocusRevalidatesFocusEnabledKeys(t *testing.T) {
	f := newCountingFetcher()
	c, clock := newTestCache(f)
	ctx := context.Background()

	_, err := c.Get(ctx, KeySubscriptionUsage)
	require.NoError(t, err)
	_, err = c.Get(ctx, KeyUser)
	require.NoError(t, err)

	clock.Advance(time.Second)
	require.NoError(t, c.Focus(ctx))

	assert.Equal(t, 2, f.count(KeySubscriptionUsage))
	assert.Equal(t, 1, f.count(KeyUser))
}

func TestRevalidateSkipsInactiveKeys(t *testing.T) {
	f := newCountingFetcher()
	c, _ := newTestCache(f)
	ctx := context.Background()

	require.NoError(t, c.Revalidate(ctx, KeyAdminMonitoring))
	assert.Equal(t, 0, f.count(KeyAdminMonitoring))

	c.Subscribe(KeyAdminMonitoring, func([]byte) {})
	require.NoError(t, c.Revalidate(ctx, KeyAdminMonitoring))
	assert.Equal(t, 1, f.count(KeyAdminMonitoring))
}

func TestGetJSON(t *testing.T) {
	f := newCountingFetcher()
	f.bodies[string(KeyUser)] = `{"id":7,"email":"a@b.co"}`
	c, _ := newTestCache(f)

	type user struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	u, err := GetJSON[user](context.Background(), c, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	f.bodies[string(KeyPosts)] = `not json`
	_, err = GetJSON[[]user](context.Background(), c, KeyPosts)
	assert.Error(t, err)
}

func TestPeekDoesNotFetch(t *testing.T) {
	f := newCountingFetcher()
	c, _ := newTestCache(f)

	_, ok := c.Peek(context.Background(), KeyPosts)
	assert.False(t, ok)
	assert.Equal(t, 0, f.count(KeyPosts))
}

func TestKeysAreSortedAndIncludeDefaults(t *testing.T) {
	c, _ := newTestCache(newCountingFetcher())
	keys := c.Keys()
	assert.Len(t, keys, len(DefaultPolicies))
	assert.True(t, sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] < keys[j] }))

	c.SetPolicy(KeyPosts, Policy{StaleTime: time.Hour})
	assert.Equal(t, time.Hour, c.Policy(KeyPosts).StaleTime)
}

// versionFetcher serves the current server version. The first fetch reads
// the version and then waits on hold before answering.
type versionFetcher struct {
	mu      sync.Mutex
	version string
	calls   int
	started chan struct{}
	hold    chan struct{}
}

func (f *versionFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	body := `"` + f.version + `"`
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first && f.hold != nil {
		close(f.started)
		<-f.hold
	}
	return []byte(body), nil
}

func (f *versionFetcher) set(version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = version
}

func TestInvalidateDoesNotJoinFetchStartedBeforeIt(t *testing.T) {
	f := &versionFetcher{version: "old", started: make(chan struct{}), hold: make(chan struct{})}
	c, _ := newTestCache(f)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	c.Subscribe(KeyPosts, func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(data))
	})

	done := make(chan error, 1)
	go func() { done <- c.Revalidate(ctx, KeyPosts) }()
	<-f.started

	f.set("new")
	require.NoError(t, c.Invalidate(ctx, KeyPosts))

	raw, ok := c.Peek(ctx, KeyPosts)
	require.True(t, ok)
	assert.Equal(t, `"new"`, string(raw))

	close(f.hold)
	require.NoError(t, <-done)

	raw, ok = c.Peek(ctx, KeyPosts)
	require.True(t, ok)
	assert.Equal(t, `"new"`, string(raw), "late result from before the invalidation must not overwrite")

	mu.Lock()
	assert.Equal(t, []string{`"new"`}, seen)
	mu.Unlock()

	// The invalidation's own fetch cleared the stale mark.
	raw, err := c.Get(ctx, KeyPosts)
	require.NoError(t, err)
	assert.Equal(t, `"new"`, string(raw))
	assert.Equal(t, 2, f.calls)
}

func TestInvalidateDropsUnsubscribedKeyFromSharedStore(t *testing.T) {
	f := &versionFetcher{version: "old"}
	store := NewMemoryStore()
	ctx := context.Background()

	console := New(f, store, zap.NewNop())
	oneShot := New(f, store, zap.NewNop())

	raw, err := console.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `"old"`, string(raw))

	f.set("new")
	require.NoError(t, oneShot.Invalidate(ctx, KeyUser))
	_, ok := oneShot.Peek(ctx, KeyUser)
	assert.False(t, ok)

	raw, err = console.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `"new"`, string(raw))
}
