package services

import (
	"fmt"
	"time"

	"cobranca/internal/cache"
	"cobranca/internal/core"
)

// SummaryCache memoizes aggregates per scope and period. A scope is any key
// naming the installment set the aggregate was computed over, such as a
// company id. Callers must Purge whenever that set changes.
//
// A nil *SummaryCache is valid and caches nothing.
type SummaryCache struct {
	monthly *cache.LRUCache[core.MonthlyTotals]
	annual  *cache.LRUCache[core.AnnualTotals]
}

// NewSummaryCache creates a cache holding up to size entries of each kind.
func NewSummaryCache(size int, ttl time.Duration, opts ...cache.Option) *SummaryCache {
	return &SummaryCache{
		monthly: cache.NewLRUCache[core.MonthlyTotals](size, ttl, opts...),
		annual:  cache.NewLRUCache[core.AnnualTotals](size, ttl, opts...),
	}
}

func monthlyKey(scope string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", scope, year, month)
}

func annualKey(scope string, year int) string {
	return fmt.Sprintf("%s|%04d", scope, year)
}

// Monthly returns the cached totals for scope/year/month, calling compute on
// a miss.
func (c *SummaryCache) Monthly(scope string, year, month int, compute func() core.MonthlyTotals) core.MonthlyTotals {
	if c == nil {
		return compute()
	}
	key := monthlyKey(scope, year, month)
	if t, ok := c.monthly.Get(key); ok {
		return t
	}
	t := compute()
	c.monthly.Set(key, t)
	return t
}

// Annual returns the cached totals for scope/year, calling compute on a miss.
func (c *SummaryCache) Annual(scope string, year int, compute func() core.AnnualTotals) core.AnnualTotals {
	if c == nil {
		return compute()
	}
	key := annualKey(scope, year)
	if t, ok := c.annual.Get(key); ok {
		return t
	}
	t := compute()
	c.annual.Set(key, t)
	return t
}

// Invalidate drops every aggregate of scope.
func (c *SummaryCache) Invalidate(scope string) {
	if c == nil {
		return
	}
	c.monthly.DeletePrefix(scope + "|")
	c.annual.DeletePrefix(scope + "|")
}

// Purge drops everything.
func (c *SummaryCache) Purge() {
	if c == nil {
		return
	}
	c.monthly.Purge()
	c.annual.Purge()
}

// Size is the number of cached aggregates.
func (c *SummaryCache) Size() int {
	if c == nil {
		return 0
	}
	return c.monthly.Size() + c.annual.Size()
}

// Register hands both underlying caches to m for periodic expiry.
func (c *SummaryCache) Register(m *cache.Manager) {
	if c == nil {
		return
	}
	m.Register(c.monthly)
	m.Register(c.annual)
}
