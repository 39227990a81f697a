package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	config "github.com/maheshrc27/postflow-sync/configs"
	"github.com/maheshrc27/postflow-sync/internal/apiclient"
	"github.com/maheshrc27/postflow-sync/internal/app"
	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/testutil/fakeapi"
)

func newMountedApp(t *testing.T) (*app.App, *fakeapi.Backend) {
	t.Helper()
	backend := fakeapi.New()
	cfg := &config.Config{
		APIBaseURL:       fakeapi.BaseURL,
		APITimeout:       5 * time.Second,
		BusinessTimezone: "Australia/Brisbane",
		SecretKey:        "app-test-secret",
	}
	a, err := app.New(context.Background(), cfg, zap.NewNop(), backend.Transport())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	t.Cleanup(a.Mount())
	return a, backend
}

func TestMountedViewsFollowTheirRefetchInterval(t *testing.T) {
	a, backend := newMountedApp(t)
	ctx := context.Background()

	for _, key := range app.ViewKeys {
		if a.Cache.Policy(key).RefetchInterval == 0 {
			continue
		}
		for i := 0; i < 3; i++ {
			require.NoError(t, a.Cache.Revalidate(ctx, key))
		}
		assert.Equal(t, 3, backend.Hits("GET", string(key)), "background ticks for %s", key)
	}
}

func TestEveryIntervalKeyIsMounted(t *testing.T) {
	a, _ := newMountedApp(t)

	mounted := map[cache.Key]bool{}
	for _, key := range app.ViewKeys {
		mounted[key] = true
	}
	for _, key := range a.Cache.Keys() {
		if a.Cache.Policy(key).RefetchInterval > 0 {
			assert.True(t, mounted[key], "%s refetches on an interval but is never mounted", key)
		}
	}
}

func TestMonitoringRevalidatesInBackground(t *testing.T) {
	a, backend := newMountedApp(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, a.Cache.Revalidate(ctx, cache.KeyAdminMonitoring))
	}
	assert.Equal(t, 3, backend.Hits("GET", apiclient.PathAdminMonitoring))
}
