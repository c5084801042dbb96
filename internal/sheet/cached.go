package sheet

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const rowsKey = "rows"

// Cached keeps the last ListRows result for a fixed TTL. Every mutating call
// purges it, whether or not the mutation succeeded. The TTL must be positive;
// Open skips the cache entirely when it is zero.
type Cached struct {
	Store Store
	lru   *expirable.LRU[string, []Record]

	// gen counts invalidations. A read that overlapped one must not refill
	// the cache with rows fetched before the write.
	mu  sync.Mutex
	gen uint64
}

func NewCached(store Store, ttl time.Duration) *Cached {
	return &Cached{
		Store: store,
		lru:   expirable.NewLRU[string, []Record](1, nil, ttl),
	}
}

func (c *Cached) ListRows(ctx context.Context) ([]Record, error) {
	if rows, ok := c.lru.Get(rowsKey); ok {
		return cloneRecords(rows), nil
	}

	c.mu.Lock()
	start := c.gen
	c.mu.Unlock()

	rows, err := c.Store.ListRows(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == start {
		c.lru.Add(rowsKey, cloneRecords(rows))
	}
	c.mu.Unlock()
	return rows, nil
}

func (c *Cached) FindRow(ctx context.Context, title string) (int, error) {
	rows, err := c.ListRows(ctx)
	if err != nil {
		return 0, err
	}
	for i, r := range rows {
		if r["title"] == title {
			return i + FirstDataRow, nil
		}
	}
	return 0, ErrNotFound
}

func (c *Cached) AppendRow(ctx context.Context, values []string) error {
	defer c.Invalidate()
	return c.Store.AppendRow(ctx, values)
}

func (c *Cached) UpdateCell(ctx context.Context, row, col int, value string) error {
	defer c.Invalidate()
	return c.Store.UpdateCell(ctx, row, col, value)
}

func (c *Cached) UpdateCells(ctx context.Context, row int, values map[int]string) error {
	defer c.Invalidate()
	return UpdateCells(ctx, c.Store, row, values)
}

func (c *Cached) DeleteRow(ctx context.Context, row int) error {
	defer c.Invalidate()
	return c.Store.DeleteRow(ctx, row)
}

func (c *Cached) Ping(ctx context.Context) error {
	return Ping(ctx, c.Store)
}

func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.lru.Purge()
	c.mu.Unlock()
}

func cloneRecords(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = maps.Clone(r)
	}
	return out
}
