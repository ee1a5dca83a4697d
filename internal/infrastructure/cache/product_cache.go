// Package cache provides caching infrastructure with PostgreSQL
// LISTEN/NOTIFY invalidation.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/catalog/product"
	"stockyard/pkg/logger"
)

// productChannel carries invalidation events. A trigger on cat_products
// emits NOTIFY with the product id as payload (empty payload flushes
// the whole cache).
const productChannel = "stockyard_products_changed"

// Source loads products on cache misses.
type Source interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// ProductCache keeps products in memory for the checkout hot path.
// Entries are evicted on NOTIFY events, so packaging and price changes
// become visible without polling.
type ProductCache struct {
	source Source
	pool   *pgxpool.Pool

	mu   sync.RWMutex
	byID map[id.ID]*product.Product

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewProductCache creates a product cache over the given source.
func NewProductCache(source Source, pool *pgxpool.Pool) *ProductCache {
	return &ProductCache{
		source: source,
		pool:   pool,
		byID:   make(map[id.ID]*product.Product),
	}
}

// GetByID returns the cached product, loading it from the source on a
// miss. Implements the product lookup used by the document services.
func (c *ProductCache) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	c.mu.RLock()
	p, ok := c.byID[productID]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := c.source.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byID[productID] = p
	c.mu.Unlock()
	return p, nil
}

// Start begins listening for invalidation events.
func (c *ProductCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "product cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *ProductCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "product cache stopped")
}

// listenLoop holds a dedicated connection on LISTEN, reconnecting on
// failure.
func (c *ProductCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, "LISTEN "+productChannel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// A fresh subscription may have missed events, start clean
		c.evictAll()

		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks waiting for NOTIFY events.
func (c *ProductCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Timeout keeps shutdown responsive
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue // timeout, keep listening
			}
			logger.Warn(c.ctx, "notification wait failed, reconnecting", "error", err)
			return
		}

		c.handleNotification(notification.Payload)
	}
}

func (c *ProductCache) handleNotification(payload string) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		c.evictAll()
		return
	}

	productID, err := id.Parse(payload)
	if err != nil {
		logger.Warn(c.ctx, "unparseable invalidation payload, flushing cache", "payload", payload)
		c.evictAll()
		return
	}

	c.mu.Lock()
	delete(c.byID, productID)
	c.mu.Unlock()

	logger.Debug(c.ctx, "product evicted from cache", "product_id", productID)
}

func (c *ProductCache) evictAll() {
	c.mu.Lock()
	c.byID = make(map[id.ID]*product.Product)
	c.mu.Unlock()
}

// Stats returns cache statistics.
type Stats struct {
	CachedProducts int
}

// GetStats returns current cache statistics.
func (c *ProductCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{CachedProducts: len(c.byID)}
}
