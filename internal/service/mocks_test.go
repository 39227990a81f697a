package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

// fakeCache serves canned values and records every invalidation.
type fakeCache struct {
	mu            sync.Mutex
	values        map[cache.Key][]byte
	errs          map[cache.Key]error
	invalidations []invalidation
}

type invalidation struct {
	keys []cache.Key
	at   time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[cache.Key][]byte{}, errs: map[cache.Key]error{}}
}

func (c *fakeCache) set(key cache.Key, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
}

func (c *fakeCache) fail(key cache.Key, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[key] = err
}

func (c *fakeCache) Get(_ context.Context, key cache.Key) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.errs[key]; ok {
		return nil, err
	}
	raw, ok := c.values[key]
	if !ok {
		return []byte("null"), nil
	}
	return raw, nil
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...cache.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations = append(c.invalidations, invalidation{keys: append([]cache.Key(nil), keys...), at: time.Now()})
	return nil
}

func (c *fakeCache) invalidated() []invalidation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]invalidation(nil), c.invalidations...)
}

// count reports how many invalidation calls named key.
func (c *fakeCache) count(key cache.Key) int {
	n := 0
	for _, inv := range c.invalidated() {
		for _, k := range inv.keys {
			if k == key {
				n++
			}
		}
	}
	return n
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (n *recordingNotifier) Notify(item notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
}

func (n *recordingNotifier) last() notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return notify.Notification{}
	}
	return n.items[len(n.items)-1]
}

func (n *recordingNotifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

type MockPostAPI struct {
	mock.Mock
}

func (m *MockPostAPI) UpdatePost(ctx context.Context, postID int64, update transfer.PostUpdate) (*models.Post, error) {
	args := m.Called(ctx, postID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostAPI) ApprovePost(ctx context.Context, postID int64) (*transfer.ApprovePostResponse, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.ApprovePostResponse), args.Error(1)
}

type MockGenerationAPI struct {
	mock.Mock
}

func (m *MockGenerationAPI) GenerateContent(ctx context.Context, req transfer.GenerateContentRequest) (*transfer.GenerateContentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.GenerateContentResponse), args.Error(1)
}

type MockConnectionAPI struct {
	mock.Mock
}

func (m *MockConnectionAPI) BaseURL() string {
	return m.Called().String(0)
}

func (m *MockConnectionAPI) CheckLiveStatus(ctx context.Context, platform models.Platform) (*transfer.LiveStatusResponse, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.LiveStatusResponse), args.Error(1)
}

func (m *MockConnectionAPI) ConnectionState(ctx context.Context) (*transfer.ConnectionStateResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.ConnectionStateResponse), args.Error(1)
}

func (m *MockConnectionAPI) DisconnectPlatform(ctx context.Context, platform models.Platform) (*transfer.DisconnectResponse, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.DisconnectResponse), args.Error(1)
}

type MockSubscriptionAPI struct {
	mock.Mock
}

func (m *MockSubscriptionAPI) DirectPublish(ctx context.Context) (*transfer.DirectPublishResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*transfer.DirectPublishResponse)
	return resp, args.Error(1)
}

func (m *MockSubscriptionAPI) RedeemGiftCertificate(ctx context.Context, req transfer.GiftCertificateRedemption) (*transfer.GiftCertificateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.GiftCertificateResponse), args.Error(1)
}

type MockBrandAPI struct {
	mock.Mock
}

func (m *MockBrandAPI) SaveBrandPurpose(ctx context.Context, bp models.BrandPurpose) (*models.BrandPurpose, error) {
	args := m.Called(ctx, bp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BrandPurpose), args.Error(1)
}

type MockVideoAPI struct {
	mock.Mock
}

func (m *MockVideoAPI) GenerateVideo(ctx context.Context, req transfer.GenerateVideoRequest) (*models.GeneratedVideo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedVideo), args.Error(1)
}

func (m *MockVideoAPI) GetVideo(ctx context.Context, videoID string) (*models.GeneratedVideo, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedVideo), args.Error(1)
}

func (m *MockVideoAPI) ApproveVideo(ctx context.Context, req transfer.ApproveVideoRequest) error {
	return m.Called(ctx, req).Error(0)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) UploadToR2(ctx context.Context, key string, file []byte, contentType string) error {
	return m.Called(ctx, key, file, contentType).Error(0)
}
