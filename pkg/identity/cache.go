package identity

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachedMembership is the snapshot stored per user.
type cachedMembership struct {
	user   *User
	groups []string
}

// CachedDirectory wraps a Store with a short-TTL cache of user rows and
// group membership. The TTL bounds how long a revoked group membership
// can keep granting access, so it should stay in the tens of seconds.
type CachedDirectory struct {
	store *Store
	cache *expirable.LRU[int64, cachedMembership]
}

// NewCachedDirectory builds a directory over the store with the given
// cache TTL. A zero TTL disables expiry, which is only useful in tests.
func NewCachedDirectory(store *Store, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		store: store,
		cache: expirable.NewLRU[int64, cachedMembership](1024, nil, ttl),
	}
}

// Lookup returns the user and its current group names, consulting the
// cache first.
func (d *CachedDirectory) Lookup(ctx context.Context, userID int64) (*User, []string, error) {
	if m, ok := d.cache.Get(userID); ok {
		return m.user, m.groups, nil
	}

	user, err := d.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	groups, err := d.store.GetUserGroups(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	d.cache.Add(userID, cachedMembership{user: user, groups: groups})
	return user, groups, nil
}

// Invalidate drops a user's cached membership, forcing the next lookup
// to hit the database. Call after group or account changes.
func (d *CachedDirectory) Invalidate(userID int64) {
	d.cache.Remove(userID)
}
