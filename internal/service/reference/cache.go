// Package reference caches the appliance's department and area
// catalogs. The appliance is slow and the catalogs barely change, so
// they are refreshed on a schedule instead of per request.
package reference

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
)

type Cache struct {
	source roster.ReferenceSource
	log    *slog.Logger

	mu          sync.RWMutex
	departments []roster.RefItem
	areas       []roster.RefItem
	refreshedAt time.Time
}

func NewCache(source roster.ReferenceSource, log *slog.Logger) *Cache {
	return &Cache{source: source, log: log}
}

// Refresh pulls both catalogs. A failure on either side keeps the
// previous snapshot for that side.
func (c *Cache) Refresh(ctx context.Context) error {
	var firstErr error

	departments, err := c.source.Departments(ctx)
	if err != nil {
		departments = nil
		firstErr = fmt.Errorf("failed to refresh departments: %w", err)
		c.log.Warn("department catalog refresh failed", "error", err)
	}

	areas, err := c.source.Areas(ctx)
	if err != nil {
		areas = nil
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to refresh areas: %w", err)
		}
		c.log.Warn("area catalog refresh failed", "error", err)
	}

	c.mu.Lock()
	if departments != nil {
		c.departments = departments
	}
	if areas != nil {
		c.areas = areas
	}
	if firstErr == nil {
		c.refreshedAt = time.Now()
	}
	c.mu.Unlock()

	return firstErr
}

func (c *Cache) Departments() []roster.RefItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.departments
}

func (c *Cache) Areas() []roster.RefItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.areas
}

// DepartmentName resolves a department id to its display name, empty
// when unknown.
func (c *Cache) DepartmentName(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.departments {
		if d.ID == id {
			return d.Name
		}
	}
	return ""
}

// RefreshedAt reports when both catalogs last refreshed cleanly.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}
