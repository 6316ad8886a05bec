package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lesson-runtime/internal/services/reward"
	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

type mirrored struct {
	Session struct {
		Status string `json:"status"`
	} `json:"session"`
	Entitlement struct {
		Plan string `json:"plan"`
	} `json:"entitlement"`
	Rewards  []string `json:"rewards"`
	Playback struct {
		Status string `json:"status"`
	} `json:"playback"`
	Version uint64 `json:"version"`
}

func readMirror(t *testing.T, c *Cache, key string) (mirrored, bool) {
	t.Helper()
	var got mirrored
	raw, err := c.Db.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return got, false
	}
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &got))
	return got, true
}

func TestMirror_WritesLatestSnapshot(t *testing.T) {
	c, mr := setupTestCache(t)
	m := NewMirror(c, "lesson-runtime:snapshot", time.Hour, newNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	first := store.Initial()
	first.Version = 1
	second := store.Initial()
	second.Version = 2
	second.Rewards = reward.NewLedger("intro")

	m.Publish(first)
	m.Publish(second)

	require.Eventually(t, func() bool {
		got, found := readMirror(t, c, "lesson-runtime:snapshot")
		return found && got.Version == 2
	}, time.Second, 5*time.Millisecond)

	got, _ := readMirror(t, c, "lesson-runtime:snapshot")
	assert.Equal(t, "signed_out", got.Session.Status)
	assert.Equal(t, "free", got.Entitlement.Plan)
	assert.Equal(t, []string{"intro"}, got.Rewards)
	assert.Equal(t, "idle", got.Playback.Status)
	assert.Greater(t, mr.TTL("lesson-runtime:snapshot"), time.Duration(0))

	cancel()
	<-done
}

func TestMirror_FlushesOnShutdown(t *testing.T) {
	c, _ := setupTestCache(t)
	m := NewMirror(c, "snap", 0, newNoopLogger())

	snap := store.Initial()
	snap.Version = 7
	m.Publish(snap)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Канал wake уже заполнен, поэтому select может выбрать любую ветку: обе записывают снимок.
	m.Run(ctx)

	raw, err := c.Db.Get(context.Background(), "snap").Bytes()
	require.NoError(t, err)
	var got mirrored
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, uint64(7), got.Version)
}
