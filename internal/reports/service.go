package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/backend-pos/internal/store"
)

// Querier defines the database access required for reports.
type Querier interface {
	ListTransactionsSince(ctx context.Context, ownerID string, since *time.Time) ([]store.Transaction, error)
	ListAllItems(ctx context.Context, ownerID string) ([]store.Item, error)
	ListCategories(ctx context.Context, ownerID string) ([]store.Category, error)
}

// Service computes reports and caches them per owner and period.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
	Log zerolog.Logger
	Now func() time.Time

	group singleflight.Group
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(ownerID string, p Period) string {
	return "reports:" + ownerID + ":" + string(p)
}

// Report returns the owner's report for p.
func (s *Service) Report(ctx context.Context, ownerID string, p Period) (Report, error) {
	if s == nil || s.Q == nil {
		return Report{}, errors.New("reports service not configured")
	}
	key := cacheKey(ownerID, p)
	if rep, ok := s.cached(ctx, key); ok {
		return rep, nil
	}
	ch := s.group.DoChan(key, func() (any, error) {
		// detached so one caller's cancellation does not fail the others
		rep, err := s.compute(context.WithoutCancel(ctx), ownerID, p)
		if err != nil {
			return Report{}, err
		}
		s.store(context.WithoutCancel(ctx), key, rep)
		return rep, nil
	})
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Report{}, res.Err
		}
		return res.Val.(Report), nil
	}
}

// Invalidate drops every cached report of the owner.
func (s *Service) Invalidate(ctx context.Context, ownerID string) {
	if s == nil || s.R == nil {
		return
	}
	keys := make([]string, 0, len(Periods))
	for _, p := range Periods {
		keys = append(keys, cacheKey(ownerID, p))
	}
	if err := s.R.Del(ctx, keys...).Err(); err != nil {
		s.Log.Warn().Err(err).Str("owner_id", ownerID).Msg("report cache invalidation failed")
	}
}

func (s *Service) compute(ctx context.Context, ownerID string, p Period) (Report, error) {
	var data Dataset
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.Q.ListTransactionsSince(ctx, ownerID, nil)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		data.Transactions = txs
		return nil
	})
	g.Go(func() error {
		items, err := s.Q.ListAllItems(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		data.Items = items
		return nil
	})
	g.Go(func() error {
		cats, err := s.Q.ListCategories(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		data.Categories = cats
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Build(p, s.now(), data), nil
}

func (s *Service) cached(ctx context.Context, key string) (Report, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Report{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.Log.Warn().Err(err).Msg("report cache read failed")
		}
		return Report{}, false
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Report{}, false
	}
	return rep, true
}

func (s *Service) store(ctx context.Context, key string, rep Report) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
