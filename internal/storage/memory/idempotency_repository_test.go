package memory_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
)

func TestIdempotencyRepository_CreateProcessing(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(2 * time.Hour).Round(time.Second)

	created, err := repo.CreateProcessing(ctx, " order-key ", "hash-1", ttl)
	require.NoError(t, err)
	require.Equal(t, "order-key", created.Key)
	require.Equal(t, domain.IdempotencyStatusProcessing, created.Status)

	got, err := repo.Get(ctx, "order-key")
	require.NoError(t, err)
	require.Equal(t, "hash-1", got.RequestHash)
	require.True(t, got.TTLAt.Equal(ttl))
	require.False(t, got.Completed())
}

func TestIdempotencyRepository_CreateProcessingValidation(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()

	_, err := repo.CreateProcessing(ctx, " ", "hash", time.Time{})
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)

	_, err = repo.CreateProcessing(ctx, "key", " ", time.Time{})
	require.ErrorIs(t, err, domain.ErrIdempotencyRequestHashRequired)

	record, err := repo.CreateProcessing(ctx, "key", "hash", time.Time{})
	require.NoError(t, err)
	require.True(t, record.TTLAt.After(time.Now().Add(23*time.Hour)))
}

func TestIdempotencyRepository_ConflictReturnsStoredRecord(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	_, err := repo.CreateProcessing(ctx, "order-key", "hash-a", ttl)
	require.NoError(t, err)
	require.NoError(t, repo.MarkDone(ctx, "order-key", []byte(`{"totalPrice":18000}`), http.StatusCreated))

	existing, err := repo.CreateProcessing(ctx, "order-key", "hash-a", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)
	require.True(t, existing.Completed())
	require.Equal(t, http.StatusCreated, existing.HTTPStatus)
	require.JSONEq(t, `{"totalPrice":18000}`, string(existing.ResponseBody))

	_, err = repo.CreateProcessing(ctx, "order-key", "hash-b", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)
}

func TestIdempotencyRepository_MarkFailedAndUnknownKey(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()

	_, err := repo.CreateProcessing(ctx, "rejected", "hash", time.Now().Add(time.Hour))
	require.NoError(t, err)

	body := []byte(`{"error":"food does not exist"}`)
	require.NoError(t, repo.MarkFailed(ctx, "rejected", body, http.StatusNotFound))
	body[0] = 'x'

	got, err := repo.Get(ctx, "rejected")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusFailed, got.Status)
	require.Equal(t, http.StatusNotFound, got.HTTPStatus)
	require.JSONEq(t, `{"error":"food does not exist"}`, string(got.ResponseBody))

	require.ErrorIs(t, repo.MarkDone(ctx, "missing", nil, http.StatusCreated), domain.ErrIdempotencyKeyNotFound)
	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
}

func TestIdempotencyRepository_ExpiredKeyIsReclaimed(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()

	_, err := repo.CreateProcessing(ctx, "reuse", "hash-old", time.Now().UTC().Add(-time.Second))
	require.NoError(t, err)

	record, err := repo.CreateProcessing(ctx, "reuse", "hash-new", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "hash-new", record.RequestHash)
	require.Equal(t, domain.IdempotencyStatusProcessing, record.Status)
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	for i, key := range []string{"expired-1", "expired-2", "expired-3"} {
		_, err := repo.CreateProcessing(ctx, key, "hash", now.Add(-time.Duration(3-i)*time.Minute))
		require.NoError(t, err)
	}
	_, err := repo.CreateProcessing(ctx, "active", "hash", now.Add(time.Hour))
	require.NoError(t, err)

	removed, err := repo.DeleteExpired(ctx, now, 2)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	_, err = repo.Get(ctx, "expired-1")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	_, err = repo.Get(ctx, "expired-3")
	require.NoError(t, err)

	removed, err = repo.DeleteExpired(ctx, time.Time{}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "active")
	require.NoError(t, err)
}
