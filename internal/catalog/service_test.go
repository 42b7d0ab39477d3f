package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/pkg/db/dbtest"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	pkgredis "github.com/fabguard/storefront-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	mu       sync.Mutex
	services int
	items    int
	err      error
	rows     []models.ServiceItem
}

func (r *countingRepo) ListActiveServices(context.Context) ([]models.Service, error) {
	r.mu.Lock()
	r.services++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return []models.Service{
		{ID: 1, Name: "Plumbing Services", Price: decimal.NewFromInt(150), Category: "Plumbing Services"},
		{ID: 9, Name: "Pest Control", Price: decimal.NewFromInt(300), Category: "Pest Control"},
	}, nil
}

func (r *countingRepo) ListActiveMemberships(context.Context) ([]models.Membership, error) {
	return nil, r.err
}

func (r *countingRepo) ListServiceItems(_ context.Context, serviceID int64) ([]models.ServiceItem, error) {
	r.mu.Lock()
	r.items++
	r.mu.Unlock()
	var out []models.ServiceItem
	for _, row := range r.rows {
		if row.ServiceID == serviceID {
			out = append(out, row)
		}
	}
	return out, r.err
}

func (r *countingRepo) FindMembership(context.Context, int64) (*models.Membership, error) {
	return nil, r.err
}

func newMiniredisCache(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := pkgredis.FromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestServicesAreCached(t *testing.T) {
	repo := &countingRepo{}
	cache, mr := newMiniredisCache(t)
	svc, err := NewService(repo, cache, time.Minute, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Services(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.Services(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.services)
	assert.True(t, first[0].Price.Equal(second[0].Price))
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.True(t, mr.Exists("fg:catalog:services"))
	assert.Equal(t, time.Minute, mr.TTL("fg:catalog:services"))

	mr.FastForward(2 * time.Minute)
	_, err = svc.Services(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.services)
}

func TestCacheOutageFallsBackToDatabase(t *testing.T) {
	repo := &countingRepo{}
	cache, mr := newMiniredisCache(t)
	mr.Close()
	svc, err := NewService(repo, cache, time.Minute, nil)
	require.NoError(t, err)

	services, err := svc.Services(context.Background())
	require.NoError(t, err)
	assert.Len(t, services, 2)
}

func TestRepositoryFailureIsDependencyError(t *testing.T) {
	svc, err := NewService(&countingRepo{err: errors.New("connection reset")}, nil, 0, nil)
	require.NoError(t, err)

	_, err = svc.Services(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	_, err = svc.Membership(context.Background(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

type gatedRepo struct {
	countingRepo
	started chan struct{}
	release chan struct{}
	loadErr error
}

func (r *gatedRepo) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	close(r.started)
	<-r.release
	r.loadErr = ctx.Err()
	return r.countingRepo.ListActiveServices(ctx)
}

func TestSharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	repo := &gatedRepo{started: make(chan struct{}), release: make(chan struct{})}
	svc, err := NewService(repo, nil, 0, nil)
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Services(firstCtx)
		firstErr <- err
	}()

	<-repo.started
	cancelFirst()
	err = <-firstErr
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.ErrorIs(t, err, context.Canceled)

	time.AfterFunc(20*time.Millisecond, func() { close(repo.release) })
	services, err := svc.Services(context.Background())
	require.NoError(t, err)
	assert.Len(t, services, 2)
	assert.NoError(t, repo.loadErr)
	assert.Equal(t, 1, repo.services)
}

func TestSubItemsPreferRowsOverDefaults(t *testing.T) {
	repo := &countingRepo{rows: []models.ServiceItem{
		{ID: 1, ServiceID: 9, ItemName: "Cockroach treatment"},
		{ID: 2, ServiceID: 9, ItemName: "Termite treatment"},
	}}
	svc, err := NewService(repo, nil, 0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	items, err := svc.SubItems(ctx, cart.Service{ID: 9, Category: "Pest Control"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cockroach treatment", "Termite treatment"}, items)

	items, err = svc.SubItems(ctx, cart.Service{ID: 1, Category: "Plumbing Services"})
	require.NoError(t, err)
	assert.Equal(t, "TOILET JET", items[0])
	assert.Equal(t, "Other plumbing services", items[len(items)-1])

	items, err = svc.SubItems(ctx, cart.Service{ID: 77, Category: "Unknown"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestServiceItemsUnknownService(t *testing.T) {
	svc, err := NewService(&countingRepo{}, nil, 0, nil)
	require.NoError(t, err)

	_, err = svc.ServiceItems(context.Background(), 404)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	dto, err := svc.ServiceItems(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dto.ServiceID)
	assert.NotEmpty(t, dto.Items)
}

func TestDefaultItemsReturnsCopy(t *testing.T) {
	items := DefaultItems("Dry Cleaning Services")
	require.NotEmpty(t, items)
	items[0] = "mutated"
	assert.Equal(t, "Shirt", DefaultItems("Dry Cleaning Services")[0])
	assert.Nil(t, DefaultItems("Gardening"))
}

func TestCatalogAgainstSeededDatabase(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), nil, 0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	services, err := svc.Services(ctx)
	require.NoError(t, err)
	require.Len(t, services, 6)
	assert.Equal(t, "Carpentry Services", services[0].Category)
	assert.True(t, decimal.NewFromInt(150).Equal(services[0].Price))

	index, err := svc.Index(ctx)
	require.NoError(t, err)
	plumbing, ok := index.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Plumbing Services", plumbing.Name)

	memberships, err := svc.Memberships(ctx)
	require.NoError(t, err)
	require.Len(t, memberships, 3)
	assert.Equal(t, "Gold Membership", memberships[0].Name)
	assert.Equal(t, "1-Year Validity", memberships[0].Validity)
	assert.Equal(t, "10% Discount", memberships[0].Discount)
	assert.True(t, memberships[1].Popular)
	assert.Contains(t, memberships[1].Services, "Carpentry Services")

	_, err = svc.Membership(ctx, 42)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, client.DB().Create(&models.ServiceItem{ID: 1, ServiceID: 3, ItemName: "TABLE"}).Error)
	require.NoError(t, client.DB().Create(&models.ServiceItem{ID: 2, ServiceID: 3, ItemName: "BED"}).Error)
	dto, err := svc.ServiceItems(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"BED", "TABLE"}, dto.Items)
}
