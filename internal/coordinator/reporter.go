// Package coordinator gives a fleet of demo-app instances cross-instance
// visibility into each other's pool occupancy via Redis.
//
// It is deliberately NOT a distributed semaphore: it never gates or
// rejects a Checkout, never enforces a global connection quota, and
// never wakes a waiter on another instance. Doing any of those would
// reintroduce fairness, priority-queue, or per-tenant-quota guarantees.
// What it does do — mirror local Stats into Redis on an interval and
// maintain a heartbeat-based instance registry — is pure observability.
// Lua-script-based quota enforcement and Pub/Sub waiter wakeup are
// deliberately absent; see DESIGN.md.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evoila/genpool/internal/config"
	"github.com/evoila/genpool/pkg/pool"
)

const (
	keyInstanceList = "genpool:instances"
	keyInstanceHB   = "genpool:instance:%s:heartbeat"
	keyPoolStats    = "genpool:instance:%s:pool:%s"
)

// StatsSource is anything that reports point-in-time pool occupancy.
// pool.Pool[C] satisfies this for any connection type C, since Stats()
// returns the non-generic pool.Stats.
type StatsSource interface {
	Stats() pool.Stats
}

// Reporter mirrors this instance's registered pools into Redis and
// maintains a heartbeat so other instances (or a dashboard) can see
// which instances are alive.
type Reporter struct {
	client     redis.UniversalClient
	instanceID string
	interval   time.Duration
	hbTTL      time.Duration

	mu    sync.Mutex
	pools map[string]StatsSource

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewReporter connects to Redis and returns a Reporter for instanceID.
// It pings once at construction so misconfiguration surfaces
// immediately rather than silently on the first report tick.
func NewReporter(ctx context.Context, cfg config.RedisConfig, instanceID string) (*Reporter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("coordinator: redis ping: %w", err)
	}

	interval := cfg.ReportInterval
	if interval == 0 {
		interval = 5 * time.Second
	}
	ttl := cfg.HeartbeatTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}

	return &Reporter{
		client:     client,
		instanceID: instanceID,
		interval:   interval,
		hbTTL:      ttl,
		pools:      make(map[string]StatsSource),
		stopCh:     make(chan struct{}),
	}, nil
}

// Register adds a named pool to the set this Reporter mirrors into
// Redis on every tick.
func (r *Reporter) Register(name string, src StatsSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[name] = src
}

// Start begins the periodic report/heartbeat loop in the background.
func (r *Reporter) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)
	log.Printf("[coordinator] started: instance=%s interval=%s", r.instanceID, r.interval)
}

// Stop signals the report loop to exit and waits for it to finish.
func (r *Reporter) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Reporter) loop(ctx context.Context) {
	defer r.wg.Done()

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	cleanupEvery := 3
	count := 0

	for {
		select {
		case <-r.stopCh:
			r.deregister(ctx)
			return
		case <-ctx.Done():
			r.deregister(ctx)
			return
		case <-ticker.C:
			r.tick(ctx)
			count++
			if count%cleanupEvery == 0 {
				r.cleanupDeadInstances(ctx)
			}
		}
	}
}

func (r *Reporter) tick(ctx context.Context) {
	hbKey := fmt.Sprintf(keyInstanceHB, r.instanceID)
	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, keyInstanceList, r.instanceID)
	pipe.Set(ctx, hbKey, time.Now().Unix(), r.hbTTL)

	r.mu.Lock()
	for name, src := range r.pools {
		stats := src.Stats()
		payload, err := json.Marshal(stats)
		if err != nil {
			continue
		}
		statsKey := fmt.Sprintf(keyPoolStats, r.instanceID, name)
		pipe.Set(ctx, statsKey, payload, r.hbTTL)
	}
	r.mu.Unlock()

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[coordinator] report tick failed: %v", err)
	}
}

// cleanupDeadInstances drops instance IDs from the registry whose
// heartbeat key has expired. Their per-pool stats keys carry their own
// TTL and expire on their own.
func (r *Reporter) cleanupDeadInstances(ctx context.Context) {
	instances, err := r.client.SMembers(ctx, keyInstanceList).Result()
	if err != nil {
		log.Printf("[coordinator] listing instances failed: %v", err)
		return
	}

	for _, id := range instances {
		if id == r.instanceID {
			continue
		}
		hbKey := fmt.Sprintf(keyInstanceHB, id)
		exists, err := r.client.Exists(ctx, hbKey).Result()
		if err != nil || exists > 0 {
			continue
		}
		log.Printf("[coordinator] instance %s missed its heartbeat, removing from registry", id)
		r.client.SRem(ctx, keyInstanceList, id)
	}
}

func (r *Reporter) deregister(ctx context.Context) {
	r.client.SRem(ctx, keyInstanceList, r.instanceID)
	r.client.Del(ctx, fmt.Sprintf(keyInstanceHB, r.instanceID))
}

// ActiveInstances returns the set of instance IDs currently believed
// alive.
func (r *Reporter) ActiveInstances(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, keyInstanceList).Result()
}

// Close releases the underlying Redis client. Callers should Stop
// before Close so the deregistration pipeline still has a live client.
func (r *Reporter) Close() error {
	return r.client.Close()
}
