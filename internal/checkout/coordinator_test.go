package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/shop-api/internal/catalog"
	"github.com/shopcore/shop-api/internal/inventory"
	"github.com/shopcore/shop-api/internal/orders"
)

type fakeProducts struct {
	mu sync.Mutex
	m  map[string]*catalog.Product
}

func (f *fakeProducts) Find(ctx context.Context, id string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) setPrice(id string, cents int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[id].PriceCents = cents
}

// fakeStore persists orders in memory with the same all-or-nothing contract
// as the Postgres repo. failWith makes Persisting blow up; cancelOn lets a
// test cancel the request context at the persistence boundary.
type fakeStore struct {
	mu       sync.Mutex
	created  []*orders.Order
	failWith error
	cancelOn context.CancelFunc
}

func (f *fakeStore) CreateOrderWithItems(ctx context.Context, buyerID string, createdAt time.Time, items []orders.NewItem) (*orders.Order, error) {
	if f.cancelOn != nil {
		f.cancelOn()
		return nil, ctx.Err()
	}
	if f.failWith != nil {
		return nil, f.failWith
	}
	total := 0
	out := &orders.Order{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		Status:    orders.StatusPending,
		CreatedAt: createdAt,
	}
	for _, it := range items {
		total += it.PriceCents * it.Quantity
		out.Items = append(out.Items, orders.Item{ProductID: it.ProductID, Quantity: it.Quantity, PriceCents: it.PriceCents})
	}
	out.TotalCents = total
	f.mu.Lock()
	f.created = append(f.created, out)
	f.mu.Unlock()
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func fixture(stock map[string]int, prices map[string]int) (*Coordinator, *inventory.MemLedger, *fakeProducts, *fakeStore) {
	products := &fakeProducts{m: map[string]*catalog.Product{}}
	for id, cents := range prices {
		products.m[id] = &catalog.Product{ID: id, Name: "product " + id, PriceCents: cents, Inventory: stock[id]}
	}
	ledger := inventory.NewMemLedger(stock)
	store := &fakeStore{}
	coord := &Coordinator{
		Products: products,
		Ledger:   ledger,
		Orders:   store,
		Now:      func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return coord, ledger, products, store
}

func TestCheckout_Commit(t *testing.T) {
	coord, ledger, _, store := fixture(
		map[string]int{"a": 10, "b": 4},
		map[string]int{"a": 1500, "b": 250},
	)

	ord, err := coord.Checkout(context.Background(), Request{
		BuyerID: "buyer-1",
		Items: []LineItem{
			{ProductID: "b", Quantity: 2},
			{ProductID: "a", Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "buyer-1", ord.BuyerID)
	assert.Equal(t, orders.StatusPending, ord.Status)
	assert.Equal(t, 3*1500+2*250, ord.TotalCents)
	require.Len(t, ord.Items, 2)

	assert.Equal(t, 7, ledger.Stock("a"))
	assert.Equal(t, 2, ledger.Stock("b"))
	assert.Equal(t, 1, store.count())
}

func TestCheckout_MergesDuplicateLines(t *testing.T) {
	coord, ledger, _, _ := fixture(map[string]int{"a": 10}, map[string]int{"a": 100})

	ord, err := coord.Checkout(context.Background(), Request{
		BuyerID: "b1",
		Items: []LineItem{
			{ProductID: "a", Quantity: 2},
			{ProductID: "a", Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, ord.Items, 1)
	assert.Equal(t, 5, ord.Items[0].Quantity)
	assert.Equal(t, 5, ledger.Stock("a"))
}

func TestCheckout_RejectInsufficient(t *testing.T) {
	coord, ledger, _, store := fixture(map[string]int{"a": 2}, map[string]int{"a": 100})

	_, err := coord.Checkout(context.Background(), Request{
		BuyerID: "b1",
		Items:   []LineItem{{ProductID: "a", Quantity: 3}},
	})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "a", rejected.Detail.ProductID)
	assert.Equal(t, 3, rejected.Detail.Requested)
	assert.Equal(t, 2, rejected.Detail.Available)

	assert.Equal(t, 2, ledger.Stock("a"), "inventory must be untouched")
	assert.Equal(t, 0, store.count(), "no order may exist")
}

func TestCheckout_PartialFailureReleasesEverything(t *testing.T) {
	// "a" is in stock, "z" is out: the reservation already taken on "a"
	// must be given back and no order created.
	coord, ledger, _, store := fixture(
		map[string]int{"a": 5, "z": 0},
		map[string]int{"a": 100, "z": 200},
	)

	_, err := coord.Checkout(context.Background(), Request{
		BuyerID: "b1",
		Items: []LineItem{
			{ProductID: "a", Quantity: 1},
			{ProductID: "z", Quantity: 1},
		},
	})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "z", rejected.Detail.ProductID)

	assert.Equal(t, 5, ledger.Stock("a"))
	assert.Equal(t, 0, ledger.Stock("z"))
	assert.Equal(t, 0, store.count())
}

func TestCheckout_UnknownProduct(t *testing.T) {
	coord, ledger, _, store := fixture(map[string]int{"a": 5}, map[string]int{"a": 100})

	_, err := coord.Checkout(context.Background(), Request{
		BuyerID: "b1",
		Items: []LineItem{
			{ProductID: "a", Quantity: 1},
			{ProductID: "ghost", Quantity: 1},
		},
	})
	var missing *NotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "ghost", missing.ProductID)

	// Validation fails before any reservation is attempted.
	assert.Equal(t, 5, ledger.Stock("a"))
	assert.Equal(t, 0, store.count())
}

func TestCheckout_Validation(t *testing.T) {
	coord, ledger, _, store := fixture(map[string]int{"a": 5}, map[string]int{"a": 100})

	cases := []struct {
		name string
		req  Request
	}{
		{"empty buyer", Request{Items: []LineItem{{ProductID: "a", Quantity: 1}}}},
		{"no items", Request{BuyerID: "b1"}},
		{"zero quantity", Request{BuyerID: "b1", Items: []LineItem{{ProductID: "a", Quantity: 0}}}},
		{"negative quantity", Request{BuyerID: "b1", Items: []LineItem{{ProductID: "a", Quantity: -2}}}},
		{"missing product id", Request{BuyerID: "b1", Items: []LineItem{{Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := coord.Checkout(context.Background(), tc.req)
			var invalid *ValidationError
			assert.ErrorAs(t, err, &invalid)
		})
	}

	assert.Equal(t, 5, ledger.Stock("a"), "rejected requests make zero ledger calls")
	assert.Equal(t, 0, store.count())
}

func TestCheckout_PersistenceFaultAborts(t *testing.T) {
	coord, ledger, _, store := fixture(
		map[string]int{"a": 5, "b": 5},
		map[string]int{"a": 100, "b": 100},
	)
	store.failWith = errors.New("connection reset")

	_, err := coord.Checkout(context.Background(), Request{
		BuyerID: "b1",
		Items: []LineItem{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 1},
		},
	})
	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)

	// Aborted is fatal but side-effect free: both reservations were undone.
	assert.Equal(t, 5, ledger.Stock("a"))
	assert.Equal(t, 5, ledger.Stock("b"))
}

func TestCheckout_CancelledRequestStillReleases(t *testing.T) {
	coord, ledger, _, store := fixture(map[string]int{"a": 5}, map[string]int{"a": 100})

	ctx, cancel := context.WithCancel(context.Background())
	store.cancelOn = cancel

	_, err := coord.Checkout(ctx, Request{
		BuyerID: "b1",
		Items:   []LineItem{{ProductID: "a", Quantity: 2}},
	})
	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)

	// The request context is dead, yet the compensating release ran.
	assert.Equal(t, 5, ledger.Stock("a"))
	assert.Equal(t, 0, store.count())
}

func TestCheckout_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	coord, _, products, _ := fixture(map[string]int{"a": 5}, map[string]int{"a": 100})

	ord, err := coord.Checkout(context.Background(), Request{
		BuyerID: "b1",
		Items:   []LineItem{{ProductID: "a", Quantity: 2}},
	})
	require.NoError(t, err)

	products.setPrice("a", 9999)

	assert.Equal(t, 100, ord.Items[0].PriceCents)
	assert.Equal(t, 200, ord.TotalCents)
}

func TestCheckout_ConcurrentContention(t *testing.T) {
	const stock = 5
	const attempts = 10

	coord, ledger, _, store := fixture(map[string]int{"p": stock}, map[string]int{"p": 100})

	var committed, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coord.Checkout(context.Background(), Request{
				BuyerID: "b1",
				Items:   []LineItem{{ProductID: "p", Quantity: 1}},
			})
			switch {
			case err == nil:
				committed.Add(1)
			case errors.Is(err, inventory.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(stock), committed.Load())
	assert.Equal(t, int32(attempts-stock), rejected.Load())
	assert.Equal(t, 0, ledger.Stock("p"))
	assert.Equal(t, stock, store.count())
}

func TestCheckout_DisjointProductsBothCommit(t *testing.T) {
	coord, ledger, _, store := fixture(
		map[string]int{"a": 1, "b": 1},
		map[string]int{"a": 100, "b": 100},
	)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := coord.Checkout(context.Background(), Request{
				BuyerID: "b-" + id,
				Items:   []LineItem{{ProductID: id, Quantity: 1}},
			})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 0, ledger.Stock("a"))
	assert.Equal(t, 0, ledger.Stock("b"))
	assert.Equal(t, 2, store.count())
}
