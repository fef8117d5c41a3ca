package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "ARCHMARKET_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "access")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("ARCHMARKET_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("ARCHMARKET_TEST_ENV_LOAD"))
}

func TestParse_Defaults(t *testing.T) {
	c := &Configuration{}
	require.NoError(t, c.parse())

	assert.Equal(t, FeedBackendPostgres, c.Notifications.FeedBackend)
	assert.Equal(t, 20, c.Notifications.PageSize)
	assert.Equal(t, 10*time.Second, c.EngineCallTimeout)
	assert.Equal(t, "public.marketplace_outbox", c.Outbox.Table)
	assert.Contains(t, c.Database.Opts, "dbname=archmarket")
}

func TestParse_RejectsUnknownFeedBackend(t *testing.T) {
	t.Setenv("NOTIFICATIONS_FEED_BACKEND", "kafka")

	c := &Configuration{}
	err := c.parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATIONS_FEED_BACKEND")
}

func TestParse_NormalizesFeedBackend(t *testing.T) {
	t.Setenv("NOTIFICATIONS_FEED_BACKEND", " Redis ")

	c := &Configuration{}
	require.NoError(t, c.parse())
	assert.Equal(t, FeedBackendRedis, c.Notifications.FeedBackend)
}

func TestParse_PostgresFeedChannelIsFixed(t *testing.T) {
	t.Setenv("NOTIFICATIONS_FEED_CHANNEL", "feed")

	c := &Configuration{}
	err := c.parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), PostgresFeedChannel)

	t.Setenv("NOTIFICATIONS_FEED_BACKEND", "redis")
	require.NoError(t, c.parse())
	assert.Equal(t, "feed", c.Notifications.FeedChannel)
}

func TestRateLimitOptions_Validate(t *testing.T) {
	t.Parallel()

	ok := RateLimitOptions{GlobalRPS: 10, Storage: "memory"}
	require.NoError(t, ok.Validate())

	missingURL := RateLimitOptions{GlobalRPS: 10, Storage: "redis"}
	require.Error(t, missingURL.Validate())

	badStorage := RateLimitOptions{GlobalRPS: 10, Storage: "disk"}
	require.Error(t, badStorage.Validate())
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
