//go:build integration
// +build integration

package valkey_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/lgatracker/internal/adapters/valkey"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

func setupClient(t *testing.T) *valkey.Client {
	addr := os.Getenv("LGATRACKER_VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := valkey.New(addr, "lgatracker-test:")
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func TestVisitRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupClient(t)
	repo := valkey.NewVisitRepo(c, t.Name())
	t.Cleanup(func() { _ = c.Delete(ctx, t.Name()) })

	ids, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	svc := usecases.NewVisitService(repo)
	_, err = svc.Toggle(ctx, 8)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, 3)
	require.NoError(t, err)

	ids, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 8}, ids)
}

func TestClient_CacheTTL(t *testing.T) {
	ctx := context.Background()
	c := setupClient(t)

	require.NoError(t, c.Set(ctx, "boundaries:test", []byte(`{"elements":[]}`), 60))
	got, err := c.Get(ctx, "boundaries:test")
	require.NoError(t, err)
	assert.JSONEq(t, `{"elements":[]}`, string(got))

	require.NoError(t, c.Delete(ctx, "boundaries:test"))
	_, err = c.Get(ctx, "boundaries:test")
	assert.Error(t, err)
}
