package rawsql

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PlanCache is a size and TTL bounded cache of query plans keyed by
// RawSql.QueryHash()
//
// the query hash is a lookup hint only - equal hashes over differing content
// are possible (if rare), so every hit is verified by comparing the full sql
// and column mapping content before the cached plan is returned
//
// only text based RawSql can be cached - cursor based RawSql is per
// invocation and owns a live cursor
type PlanCache struct {
	mutex sync.Mutex
	lru   *expirable.LRU[uint64, []*cachedPlan]
}

type cachedPlan struct {
	rawSql *RawSql
	plan   any
}

// NewPlanCache creates a PlanCache holding at most size plans (0 for
// unbounded) that expire after ttl (0 for no expiry)
func NewPlanCache(size int, ttl time.Duration) *PlanCache {
	return &PlanCache{
		lru: expirable.NewLRU[uint64, []*cachedPlan](size, nil, ttl),
	}
}

// Get returns the plan cached for a RawSql with the same query hash and the
// same content - the second return is false on a miss (including a hash
// collision with differing content)
func (c *PlanCache) Get(rawSql *RawSql) (any, bool, error) {
	hash, err := rawSql.QueryHash()
	if err != nil {
		return nil, false, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if entries, ok := c.lru.Get(hash); ok {
		for _, entry := range entries {
			if entry.rawSql.sameShape(rawSql) {
				return entry.plan, true, nil
			}
		}
	}
	return nil, false, nil
}

// Put caches the plan for the given text based RawSql - replacing any plan
// already cached for the same content
func (c *PlanCache) Put(rawSql *RawSql, plan any) error {
	if rawSql.rows != nil {
		return errors.New("cursor based raw sql cannot be plan cached")
	}
	hash, err := rawSql.QueryHash()
	if err != nil {
		return err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	entries, _ := c.lru.Get(hash)
	for _, entry := range entries {
		if entry.rawSql.sameShape(rawSql) {
			entry.plan = plan
			return nil
		}
	}
	c.lru.Add(hash, append(entries, &cachedPlan{rawSql: rawSql, plan: plan}))
	return nil
}

// Len returns the number of distinct query hashes currently cached
func (c *PlanCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lru.Len()
}
