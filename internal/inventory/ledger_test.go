package inventory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMemLedger_ReserveDecrements(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger(map[string]int{"p1": 5})

	remaining, err := l.Reserve(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, 2, l.Stock("p1"))
}

func TestMemLedger_ReserveInsufficient(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger(map[string]int{"p1": 2})

	_, err := l.Reserve(ctx, "p1", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "p1", short.ProductID)
	assert.Equal(t, 3, short.Requested)
	assert.Equal(t, 2, short.Available)

	// A failed reservation must not touch the count.
	assert.Equal(t, 2, l.Stock("p1"))
}

func TestMemLedger_ReserveUnknownProduct(t *testing.T) {
	l := NewMemLedger(nil)
	_, err := l.Reserve(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemLedger_ReserveReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := NewMemLedger(map[string]int{"p1": 7})

	_, err := l.Reserve(ctx, "p1", 4)
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, "p1", 4))

	assert.Equal(t, 7, l.Stock("p1"))
}

func TestMemLedger_ConcurrentReserveNeverOversells(t *testing.T) {
	const stock = 5
	const attempts = 10

	ctx := context.Background()
	l := NewMemLedger(map[string]int{"p1": stock})

	var succeeded, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := l.Reserve(ctx, "p1", 1)
			switch {
			case err == nil:
				succeeded.Add(1)
				return nil
			case errors.Is(err, ErrInsufficientStock):
				rejected.Add(1)
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(stock), succeeded.Load())
	assert.Equal(t, int32(attempts-stock), rejected.Load())
	assert.Equal(t, 0, l.Stock("p1"))
}

func TestMemLedger_CancelledContext(t *testing.T) {
	l := NewMemLedger(map[string]int{"p1": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Reserve(ctx, "p1", 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, l.Stock("p1"))
}
