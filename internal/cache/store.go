package cache

import (
	"context"
	"time"

	"github.com/avelume/tutorialcast/internal/script"
)

// Entry is one cached script. Entries are created once per miss and replaced
// wholesale, never updated in place.
type Entry struct {
	Fingerprint string        `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	Script      script.Script `json:"script"`
}

// Fresh reports whether the entry is still within the ttl window at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

// Store is a content-addressed store for planned scripts. Get treats stale
// and corrupt entries as misses, never errors.
type Store interface {
	Get(ctx context.Context, fingerprint string, now time.Time) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
	// Sweep removes entries older than the freshness window and reports how
	// many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// ForPlanner adapts a Store to the planner's cache port. The planner deals
// in scripts; the entry envelope stays private to this package.
func ForPlanner(s Store) script.Cache {
	return plannerCache{store: s}
}

type plannerCache struct {
	store Store
}

func (c plannerCache) Get(ctx context.Context, fingerprint string, now time.Time) (script.Script, bool, error) {
	e, ok, err := c.store.Get(ctx, fingerprint, now)
	if err != nil || !ok {
		return script.Script{}, false, err
	}
	return e.Script, true, nil
}

func (c plannerCache) Put(ctx context.Context, fingerprint string, now time.Time, sc script.Script) error {
	return c.store.Put(ctx, Entry{
		Fingerprint: fingerprint,
		CreatedAt:   now,
		Script:      sc,
	})
}
