package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"
	"telegram-subscription-payments/internal/infra/metrics"
	red "telegram-subscription-payments/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator serves the hot read path of both gateways: every
// webhook call resolves a plan, so plans sit in Redis with a short TTL.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient) repository.PlanRepository {
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	key := fmt.Sprintf("plan:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		bytes, _ := json.Marshal(plan)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

// Writes invalidate both the single-plan key and the full list.
func (d *planRepoCacheDecorator) Save(ctx context.Context, plan *model.Plan) error {
	d.cache.Del(ctx, fmt.Sprintf("plan:%s", plan.ID), "plans:all")
	return d.inner.Save(ctx, plan)
}

func (d *planRepoCacheDecorator) Delete(ctx context.Context, id string) error {
	d.cache.Del(ctx, fmt.Sprintf("plan:%s", id), "plans:all")
	return d.inner.Delete(ctx, id)
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context) ([]*model.Plan, error) {
	const key = "plans:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		bytes, _ := json.Marshal(plans)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plans, nil
}
