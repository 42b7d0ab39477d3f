package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/coupons"
	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	pkgredis "github.com/fabguard/storefront-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const sessionA = "session-aaaaaaaa"

type stubCatalog struct {
	mu       sync.Mutex
	services []cart.Service
	err      error
}

func (c *stubCatalog) Index(context.Context) (cart.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return cart.NewIndex(c.services), nil
}

func (c *stubCatalog) SubItems(_ context.Context, svc cart.Service) ([]string, error) {
	return []string{"Shirt", "Kurta"}, nil
}

type clearingSubmitter struct{}

func (clearingSubmitter) Submit(_ context.Context, draft checkout.OrderDraft, clear func()) (*checkout.SubmitResult, error) {
	clear()
	return &checkout.SubmitResult{Persisted: true, OrderID: "ORDER-1"}, nil
}

type memorySnapshots struct {
	mu      sync.Mutex
	data    map[string]Snapshot
	saves   int
	saveErr error
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: map[string]Snapshot{}}
}

func (m *memorySnapshots) Load(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *memorySnapshots) Save(_ context.Context, id string, snap Snapshot, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[id] = snap
	return nil
}

func (m *memorySnapshots) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func testCatalog() *stubCatalog {
	return &stubCatalog{services: []cart.Service{
		{ID: 1, Name: "Plumbing Services", Price: decimal.NewFromInt(150), Category: "Plumbing Services"},
		{ID: 4, Name: "Clothes Ironing Services", Price: decimal.NewFromInt(100), Category: "Clothes Ironing Services"},
	}}
}

func newTestRegistry(t *testing.T, catalog *stubCatalog, snaps SnapshotStore) *Registry {
	t.Helper()
	reg, err := NewRegistry(Deps{
		Catalog:   catalog,
		Submitter: clearingSubmitter{},
		Coupons:   coupons.DefaultTable(),
		Snapshots: snaps,
	}, Options{TTL: time.Hour})
	require.NoError(t, err)
	return reg
}

func TestDoRejectsInvalidSessionID(t *testing.T) {
	reg := newTestRegistry(t, testCatalog(), nil)
	err := reg.Do(context.Background(), "short", func(*Session) error { return nil })
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.False(t, ValidID("has spaces in it"))
	assert.True(t, ValidID("6f1c2a4e-8d1b-4c55-9a0e-3b7f0e2d9c11"))
}

func TestDoPropagatesCatalogFailure(t *testing.T) {
	catalog := testCatalog()
	catalog.err = pkgerrors.New(pkgerrors.CodeDependency, "catalog unavailable")
	reg := newTestRegistry(t, catalog, nil)

	called := false
	err := reg.Do(context.Background(), sessionA, func(*Session) error { called = true; return nil })
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.False(t, called)
}

func TestSessionStatePersistsAcrossCalls(t *testing.T) {
	reg := newTestRegistry(t, testCatalog(), nil)
	ctx := context.Background()

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, cart.SignalAdded, s.Cart.AddLine(1))
		return nil
	}))
	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, 1, s.Cart.TotalLineCount())
		return nil
	}))
	assert.Equal(t, 1, reg.Len())
}

func TestCartSeesCatalogChanges(t *testing.T) {
	catalog := testCatalog()
	reg := newTestRegistry(t, catalog, nil)
	ctx := context.Background()

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, cart.SignalNotFound, s.Cart.AddLine(7))
		return nil
	}))

	catalog.mu.Lock()
	catalog.services = append(catalog.services, cart.Service{ID: 7, Name: "Carpentry", Price: decimal.NewFromInt(150)})
	catalog.mu.Unlock()

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, cart.SignalAdded, s.Cart.AddLine(7))
		return nil
	}))
}

func TestConcurrentRequestsAreSerialized(t *testing.T) {
	reg := newTestRegistry(t, testCatalog(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan cart.Signal, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.Do(ctx, sessionA, func(s *Session) error {
				results <- s.Cart.AddLine(1)
				return nil
			})
		}()
	}
	wg.Wait()
	close(results)

	added := 0
	for sig := range results {
		if sig == cart.SignalAdded {
			added++
		}
	}
	assert.Equal(t, 1, added)
}

func TestSnapshotRestoreAfterRestart(t *testing.T) {
	snaps := newMemorySnapshots()
	ctx := context.Background()

	first := newTestRegistry(t, testCatalog(), snaps)
	require.NoError(t, first.Do(ctx, sessionA, func(s *Session) error {
		s.Cart.AddLine(1)
		s.Cart.AddLine(4)
		require.NoError(t, s.Flow.Open())
		_, err := s.Flow.ExpandLine(ctx, 4)
		require.NoError(t, err)
		require.NoError(t, s.Flow.ToggleItem(4, "Kurta", true))
		require.NoError(t, s.Flow.ProceedToDetails())
		_, err = s.Flow.ApplyCoupon("SAVE10")
		return err
	}))
	require.Equal(t, 1, snaps.saves)

	// unchanged state is not written again
	require.NoError(t, first.Do(ctx, sessionA, func(*Session) error { return nil }))
	assert.Equal(t, 1, snaps.saves)

	catalog := testCatalog()
	catalog.services = catalog.services[1:]
	second := newTestRegistry(t, catalog, snaps)
	require.NoError(t, second.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, enums.CheckoutStateCustomerDetails, s.Flow.State())
		require.Equal(t, 1, s.Cart.TotalLineCount())
		line, ok := s.Cart.Line(4)
		require.True(t, ok)
		assert.Equal(t, []string{"Kurta"}, line.SelectedNames())
		coupon, ok := s.Flow.Coupon()
		require.True(t, ok)
		assert.Equal(t, "SAVE10", coupon.Code)
		return nil
	}))
}

func TestRestoreKeepsPriceFromWhenLineWasAdded(t *testing.T) {
	snaps := newMemorySnapshots()
	ctx := context.Background()

	first := newTestRegistry(t, testCatalog(), snaps)
	require.NoError(t, first.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, cart.SignalAdded, s.Cart.AddLine(1))
		return nil
	}))

	repriced := testCatalog()
	repriced.services[0].Price = decimal.NewFromInt(999)
	repriced.services[0].Name = "Plumbing Services (new)"
	second := newTestRegistry(t, repriced, snaps)
	require.NoError(t, second.Do(ctx, sessionA, func(s *Session) error {
		line, ok := s.Cart.Line(1)
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(150).Equal(line.Service.Price), "got %s", line.Service.Price)
		assert.Equal(t, "Plumbing Services", line.Service.Name)
		assert.True(t, decimal.NewFromInt(150).Equal(s.Cart.TotalPrice()))
		return nil
	}))
}

func TestSweptSessionKeepsPriceFromWhenLineWasAdded(t *testing.T) {
	snaps := newMemorySnapshots()
	catalog := testCatalog()
	reg := newTestRegistry(t, catalog, snaps)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error { s.Cart.AddLine(1); return nil }))

	catalog.mu.Lock()
	catalog.services[0].Price = decimal.NewFromInt(999)
	catalog.mu.Unlock()

	now = now.Add(2 * time.Hour)
	evicted, err := reg.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, evicted)

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		assert.True(t, decimal.NewFromInt(150).Equal(s.Cart.TotalPrice()))
		return nil
	}))
}

func TestUntouchedSessionsAreNotRetained(t *testing.T) {
	snaps := newMemorySnapshots()
	reg := newTestRegistry(t, testCatalog(), snaps)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("session-%08d", i)
		require.NoError(t, reg.Do(ctx, id, func(s *Session) error {
			assert.True(t, s.Cart.IsEmpty())
			return nil
		}))
	}
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, snaps.saves)
	assert.Empty(t, snaps.data)

	// opening the cart panel is state worth keeping
	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		s.Flow.SetCartOpen(true)
		return nil
	}))
	assert.Equal(t, 1, reg.Len())
	assert.Contains(t, snaps.data, sessionA)
}

func TestEmptiedCartStillOverwritesSnapshot(t *testing.T) {
	snaps := newMemorySnapshots()
	reg := newTestRegistry(t, testCatalog(), snaps)
	ctx := context.Background()

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error { s.Cart.AddLine(1); return nil }))
	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, cart.SignalRemoved, s.Cart.RemoveLine(1))
		return nil
	}))
	assert.Equal(t, 1, reg.Len())
	require.Contains(t, snaps.data, sessionA)
	assert.Empty(t, snaps.data[sessionA].Lines)
}

func TestCompletedSubmissionDeletesSnapshot(t *testing.T) {
	snaps := newMemorySnapshots()
	reg := newTestRegistry(t, testCatalog(), snaps)
	ctx := context.Background()

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		s.Cart.AddLine(1)
		return nil
	}))
	require.Contains(t, snaps.data, sessionA)

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		require.NoError(t, s.Flow.Open())
		require.NoError(t, s.Flow.ProceedToDetails())
		require.NoError(t, s.Flow.SetDetails(checkout.CustomerDetails{Name: "A", Email: "a@b.c", Phone: "1", Address: "x"}))
		require.NoError(t, s.Flow.AcceptTerms(true))
		_, err := s.Flow.Submit(ctx)
		return err
	}))
	assert.NotContains(t, snaps.data, sessionA)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	snaps := newMemorySnapshots()
	reg := newTestRegistry(t, testCatalog(), snaps)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error { s.Cart.AddLine(1); return nil }))
	require.NoError(t, reg.Do(ctx, "session-bbbbbbbb", func(s *Session) error { s.Cart.AddLine(4); return nil }))

	now = now.Add(30 * time.Minute)
	require.NoError(t, reg.Do(ctx, "session-bbbbbbbb", func(*Session) error { return nil }))

	now = now.Add(45 * time.Minute)
	evicted, err := reg.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, reg.Len())

	// evicted sessions come back from their snapshot
	require.NoError(t, reg.Do(ctx, sessionA, func(s *Session) error {
		assert.Equal(t, 1, s.Cart.TotalLineCount())
		return nil
	}))
}

func TestSweepCombinesSaveErrors(t *testing.T) {
	snaps := newMemorySnapshots()
	reg := newTestRegistry(t, testCatalog(), snaps)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	for _, id := range []string{sessionA, "session-bbbbbbbb"} {
		require.NoError(t, reg.Do(ctx, id, func(s *Session) error { s.Cart.AddLine(1); return nil }))
	}
	snaps.saveErr = errors.New("redis down")
	now = now.Add(2 * time.Hour)

	evicted, err := reg.Sweep(ctx)
	assert.Equal(t, 2, evicted)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestRedisSnapshots(t *testing.T) {
	mr := miniredis.RunT(t)
	client := pkgredis.FromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSnapshots(client)
	ctx := context.Background()

	snap, err := store.Load(ctx, sessionA)
	require.NoError(t, err)
	assert.Nil(t, snap)

	in := Snapshot{
		Lines: []cart.Line{{Service: cart.Service{ID: 1, Name: "Plumbing Services", Price: decimal.NewFromInt(150)}, Quantity: 1}},
		Flow:  checkout.Snapshot{State: enums.CheckoutStateItemSelection, CouponCode: "SAVE10"},
	}
	require.NoError(t, store.Save(ctx, sessionA, in, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("fg:session:"+sessionA))

	out, err := store.Load(ctx, sessionA)
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	assert.True(t, decimal.NewFromInt(150).Equal(out.Lines[0].Service.Price))
	assert.Equal(t, enums.CheckoutStateItemSelection, out.Flow.State)

	require.NoError(t, store.Delete(ctx, sessionA))
	out, err = store.Load(ctx, sessionA)
	require.NoError(t, err)
	assert.Nil(t, out)

	mr.Set("fg:session:broken", "{not json")
	_, err = store.Load(ctx, "broken")
	assert.Error(t, err)
}
