package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStateStore(client, time.Hour)
	ctx := context.Background()

	data, err := store.Load(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Save(ctx, "u-1", []byte(`{"theme":"dark"}`)))
	assert.True(t, mr.Exists("sitecrew:state:u-1"))
	assert.Equal(t, time.Hour, mr.TTL("sitecrew:state:u-1"))

	data, err = store.Load(ctx, "u-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(data))

	require.NoError(t, store.Delete(ctx, "u-1"))
	require.NoError(t, store.Delete(ctx, "u-1"))
	assert.False(t, mr.Exists("sitecrew:state:u-1"))
}
