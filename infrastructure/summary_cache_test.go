package infrastructure

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wagerengine/domain/entities"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			Labels:       map[string]string{"wagerengine-test": "summary-cache"},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := ConnectRedis(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testDetail(wagerID int64) *entities.WagerDetail {
	return &entities.WagerDetail{
		Wager: &entities.Wager{
			ID:              wagerID,
			CreatorID:       1,
			StakeAmount:     100,
			MaxParticipants: 2,
			Status:          entities.WagerStatusOpen,
			DisputeStatus:   entities.DisputeStatusNone,
			TotalPot:        100,
			Game:            "chess",
		},
		Participants: []*entities.Participant{
			{WagerID: wagerID, UserID: 1, StakePaid: 100, Status: entities.ParticipantStatusActive},
		},
		Escrow: &entities.EscrowHold{WagerID: wagerID, Amount: 100, Status: entities.EscrowStatusHeld},
	}
}

func TestRedisSummaryCache_SetGetInvalidate(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewRedisSummaryCache(client, time.Minute)
	ctx := context.Background()

	// Miss before anything is stored
	got, gen, err := cache.Get(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Set(ctx, testDetail(10), gen))

	got, _, err = cache.Get(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.Wager.ID)
	assert.Equal(t, int64(100), got.Wager.TotalPot)
	assert.Equal(t, entities.WagerStatusOpen, got.Wager.Status)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, int64(1), got.Participants[0].UserID)
	assert.Equal(t, int64(100), got.Escrow.Amount)

	require.NoError(t, cache.Invalidate(ctx, 10))

	got, gen, err = cache.Get(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), gen)
}

func TestRedisSummaryCache_DropsSummaryReadBeforeInvalidation(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewRedisSummaryCache(client, time.Minute)
	ctx := context.Background()

	// A reader misses and starts loading from the database
	_, readerGen, err := cache.Get(ctx, 12)
	require.NoError(t, err)

	// A transition commits and invalidates before the reader writes back
	require.NoError(t, cache.Invalidate(ctx, 12))

	stale := testDetail(12)
	require.NoError(t, cache.Set(ctx, stale, readerGen))

	got, gen, err := cache.Get(ctx, 12)
	require.NoError(t, err)
	assert.Nil(t, got)

	// The next reader sees the new generation and may cache
	fresh := testDetail(12)
	fresh.Wager.Status = entities.WagerStatusCancelled
	require.NoError(t, cache.Set(ctx, fresh, gen))

	got, _, err = cache.Get(ctx, 12)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.WagerStatusCancelled, got.Wager.Status)

	genTTL, err := client.TTL(ctx, generationKey(12)).Result()
	require.NoError(t, err)
	assert.Greater(t, genTTL, time.Minute)
}

func TestRedisSummaryCache_EntriesExpire(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewRedisSummaryCache(client, time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, testDetail(11), 0))

	ttl, err := client.TTL(ctx, summaryKey(11)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)
}

func TestNoopSummaryCache(t *testing.T) {
	var cache NoopSummaryCache
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, testDetail(1), 0))
	got, gen, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, gen)
	assert.NoError(t, cache.Invalidate(ctx, 1))
}
