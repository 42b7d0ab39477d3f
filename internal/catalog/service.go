package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	pkgredis "github.com/fabguard/storefront-backend/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheTTL = 5 * time.Minute
	loadTimeout     = 10 * time.Second
)

type repository interface {
	ListActiveServices(ctx context.Context) ([]models.Service, error)
	ListActiveMemberships(ctx context.Context) ([]models.Membership, error)
	ListServiceItems(ctx context.Context, serviceID int64) ([]models.ServiceItem, error)
	FindMembership(ctx context.Context, id int64) (*models.Membership, error)
}

// Cache is the subset of the redis client the catalog needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(parts ...string) string
}

// Service serves the catalog with a read-through cache. A nil cache reads the
// database on every call.
type Service struct {
	repo  repository
	cache Cache
	ttl   time.Duration
	logg  *logger.Logger
	group singleflight.Group
}

// NewService wires the catalog read side.
func NewService(repo repository, cache Cache, ttl time.Duration, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

// Services lists the active services ordered by category.
func (s *Service) Services(ctx context.Context) ([]cart.Service, error) {
	return cached(ctx, s, []string{"services"}, func(ctx context.Context) ([]cart.Service, error) {
		rows, err := s.repo.ListActiveServices(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]cart.Service, 0, len(rows))
		for _, row := range rows {
			out = append(out, serviceFromModel(row))
		}
		return out, nil
	})
}

// Index returns the active services keyed by id, for the cart store.
func (s *Service) Index(ctx context.Context) (cart.Index, error) {
	services, err := s.Services(ctx)
	if err != nil {
		return nil, err
	}
	return cart.NewIndex(services), nil
}

// Memberships lists the active plans, cheapest first.
func (s *Service) Memberships(ctx context.Context) ([]MembershipDTO, error) {
	return cached(ctx, s, []string{"memberships"}, func(ctx context.Context) ([]MembershipDTO, error) {
		rows, err := s.repo.ListActiveMemberships(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]MembershipDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, membershipFromModel(row))
		}
		return out, nil
	})
}

// Membership returns one active plan.
func (s *Service) Membership(ctx context.Context, id int64) (*MembershipDTO, error) {
	row, err := s.repo.FindMembership(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("membership %d not found", id))
	}
	dto := membershipFromModel(*row)
	return &dto, nil
}

// ServiceItems returns the sub-items offered for an active service.
func (s *Service) ServiceItems(ctx context.Context, serviceID int64) (*ServiceItemsDTO, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	svc, ok := index.Lookup(serviceID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("service %d not found", serviceID))
	}
	items, err := s.SubItems(ctx, svc)
	if err != nil {
		return nil, err
	}
	return &ServiceItemsDTO{ServiceID: serviceID, Items: items}, nil
}

// SubItems returns the service's own service_items rows, falling back to the
// built-in list for its category.
func (s *Service) SubItems(ctx context.Context, svc cart.Service) ([]string, error) {
	return cached(ctx, s, []string{"items", strconv.FormatInt(svc.ID, 10)}, func(ctx context.Context) ([]string, error) {
		rows, err := s.repo.ListServiceItems(ctx, svc.ID)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			items := DefaultItems(svc.Category)
			if items == nil {
				items = []string{}
			}
			return items, nil
		}
		out := make([]string, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.ItemName)
		}
		return out, nil
	})
}

// cached reads key from the cache, collapsing concurrent misses into one load.
// Cache faults are logged and fall through to the database.
func cached[T any](ctx context.Context, s *Service, parts []string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	key := "catalog"
	if s.cache != nil {
		key = s.cache.CatalogKey(parts...)
	} else {
		for _, p := range parts {
			key += ":" + p
		}
	}

	// The load is shared by every caller waiting on key, so it runs detached
	// from the first caller's cancellation and under its own deadline.
	ch := s.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if s.cache != nil {
			raw, err := s.cache.Get(ctx, key)
			if err == nil {
				var out T
				if err := json.Unmarshal([]byte(raw), &out); err == nil {
					return out, nil
				}
				s.logg.Warn(s.logg.WithField(ctx, "key", key), "catalog.cache.decode_failed")
			} else if !errors.Is(err, pkgredis.ErrMiss) {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "catalog.cache.get_failed")
			}
		}

		out, err := load(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unavailable")
		}

		if s.cache != nil {
			if buf, err := json.Marshal(out); err == nil {
				if err := s.cache.Set(ctx, key, string(buf), s.ttl); err != nil {
					s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "catalog.cache.set_failed")
				}
			}
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return zero, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "catalog unavailable")
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
