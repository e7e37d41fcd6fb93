// Package recordcache keeps decoded records in an LRU keyed by
// registered name, saving repeated blob decodes for hot names.
package recordcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/micjavier/hsd/internal/dns/domain"
	"github.com/micjavier/hsd/internal/dns/services/resolver"
)

// Cache is an LRU of decoded records. Records are immutable, so an entry
// goes stale only when the registry blob for its name changes; nothing
// evicts it then unless Delete is called.
type Cache struct {
	lru *lru.Cache[string, *domain.Record]
}

// New returns a Cache holding at most size decoded records.
func New(size int) (*Cache, error) {
	c, err := lru.New[string, *domain.Record](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the decoded record for name, if cached.
func (c *Cache) Get(name string) (*domain.Record, bool) {
	return c.lru.Get(name)
}

// Set stores the decoded record for name.
func (c *Cache) Set(name string, rec *domain.Record) {
	c.lru.Add(name, rec)
}

// Delete evicts name, for use when the registry updates a record.
func (c *Cache) Delete(name string) {
	c.lru.Remove(name)
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return c.lru.Len()
}

var _ resolver.RecordCache = (*Cache)(nil)
