package staging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	ts := time.Date(2025, 7, 3, 14, 5, 6, 0, time.UTC)
	assert.Equal(t, "addresses/2025/07/addresses_2025-07-03_140506.csv", ObjectName("addresses", ts))
	assert.Equal(t, "addresses/2025/07/addresses_", MonthPrefix("addresses", ts))
}

func TestLatestPicksGreatestNameInMonth(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)

	for _, ts := range []time.Time{
		time.Date(2025, 7, 3, 14, 5, 6, 0, time.UTC),
		time.Date(2025, 7, 19, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 10, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC),
	} {
		require.NoError(t, s.Put(ctx, ObjectName("products", ts), []byte("x")))
	}
	require.NoError(t, s.Put(ctx, ObjectName("product_texts", now), []byte("y")))

	got, err := Latest(ctx, s, "products", now)
	require.NoError(t, err)
	assert.Equal(t, "products/2025/07/products_2025-07-19_080000.csv", got)
}

func TestLatestNoSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, ObjectName("products", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil))

	_, err := Latest(ctx, s, "products", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNoSnapshot))
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "a.csv", data))
	data[0] = 'z'

	got, err := s.Get(ctx, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = s.Get(ctx, "missing.csv")
	assert.Error(t, err)
}
