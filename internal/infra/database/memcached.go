package database

import (
	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached opens the shared second-tier query cache.
func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}
