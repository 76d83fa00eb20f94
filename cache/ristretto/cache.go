// Package ristretto provides a bounded ProgramCache for compiled expressions.
package ristretto

import (
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

// Config sizes the cache. Every program costs 1, so MaxCost is the maximum
// number of cached programs.
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration
	Metrics     bool
}

// DefaultConfig holds up to 1024 programs.
func DefaultConfig() Config {
	return Config{NumCounters: 10240, MaxCost: 1024, BufferItems: 64}
}

// ProgramCache satisfies jsconfig.ProgramCache.
type ProgramCache struct {
	c   *rc.Cache
	ttl time.Duration
}

// New builds a cache.
func New(cfg Config) (*ProgramCache, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &ProgramCache{c: c, ttl: cfg.TTL}, nil
}

// Get returns the program stored under key.
func (p *ProgramCache) Get(key string) (any, bool) {
	return p.c.Get(key)
}

// Set stores value and waits for the write buffer so the next Get sees it.
// Ristretto may still drop the entry under admission pressure.
func (p *ProgramCache) Set(key string, value any) {
	if p.ttl > 0 {
		p.c.SetWithTTL(key, value, 1, p.ttl)
	} else {
		p.c.Set(key, value, 1)
	}
	p.c.Wait()
}

// Close releases the cache goroutines.
func (p *ProgramCache) Close() {
	p.c.Close()
}

// Metrics exposes hit/miss counters when Config.Metrics is set.
func (p *ProgramCache) Metrics() *rc.Metrics {
	return p.c.Metrics
}
