package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/xxjiinn/medical-inference-platform/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *queue.RedisQueue {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	q, err := queue.NewRedisQueue("redis://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	return q
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)
	assert.NoError(t, q.Ping(context.Background()))
}

func TestEnqueueAndCollectBatch_SingleJob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 1))

	batch, err := q.CollectBatch(ctx, 2*time.Second, 30*time.Millisecond, 8)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, batch)
}

func TestCollectBatch_FillsUpToMaxSize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3, 4, 5} {
		require.NoError(t, q.Enqueue(ctx, id))
	}

	batch, err := q.CollectBatch(ctx, 2*time.Second, 50*time.Millisecond, 3)
	require.NoError(t, err)
	assert.Len(t, batch, 3)
}

func TestCollectBatch_StopsAtWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 1))

	start := time.Now()
	batch, err := q.CollectBatch(ctx, 2*time.Second, 40*time.Millisecond, 100)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestCollectBatch_EmptyQueueTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)

	batch, err := q.CollectBatch(context.Background(), 1*time.Second, 30*time.Millisecond, 8)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestDLQ_PushLenRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, q.PushDLQ(ctx, 10))
	require.NoError(t, q.PushDLQ(ctx, 11))

	n, err := q.DLQLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ids, err := q.DLQRange(ctx, 0, -1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 11}, ids)
}

func TestRequeueFromDLQ(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, q.PushDLQ(ctx, 20))
	require.NoError(t, q.RequeueFromDLQ(ctx, 20))

	n, err := q.DLQLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	batch, err := q.CollectBatch(ctx, 2*time.Second, 30*time.Millisecond, 8)
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, batch)
}

func TestRequeueFromDLQ_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	q := setupRedis(t)

	err := q.RequeueFromDLQ(context.Background(), 999)
	assert.Error(t, err)
}
