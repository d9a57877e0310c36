package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hlsrip-cli/hlsrip/filesystem"
	"github.com/hlsrip-cli/hlsrip/where"
	"github.com/metafates/gache"
)

// Record is the non-secret part of a cached session.
type Record struct {
	Context
	SavedAt time.Time `json:"saved_at"`
}

// sessions maps accounts to their cached records. The cookie is kept in the keyring.
var sessions = sync.OnceValue(func() *gache.Cache[map[string]*Record] {
	return gache.New[map[string]*Record](
		&gache.Options{
			Path:       where.Session(),
			FileSystem: &filesystem.GacheFs{},
		},
	)
})

// Cache reuses a session saved by an earlier run for the same site.
type Cache struct {
	Account  string
	Lifetime time.Duration

	now func() time.Time
}

// NewCache returns a cache provider for account whose entries expire after lifetime.
// A zero lifetime never expires.
func NewCache(account string, lifetime time.Duration) *Cache {
	return &Cache{Account: account, Lifetime: lifetime, now: time.Now}
}

// Acquire returns the cached session, or ErrNoSession when it is missing or stale.
func (c *Cache) Acquire(context.Context) (Context, error) {
	record, ok, err := c.Status()
	if err != nil {
		return Context{}, err
	}
	if !ok {
		return Context{}, ErrNoSession
	}

	cookie, err := GetCookie(c.Account)
	if err != nil {
		return Context{}, err
	}
	if cookie == "" {
		return Context{}, ErrNoSession
	}

	ac := record.Context
	ac.Cookie = cookie
	return ac, nil
}

// Status reports the cached record and whether it is still fresh.
func (c *Cache) Status() (*Record, bool, error) {
	saved, err := load()
	if err != nil {
		return nil, false, err
	}

	record, ok := saved[c.Account]
	if !ok {
		return nil, false, nil
	}

	if c.Lifetime > 0 && c.now().Sub(record.SavedAt) > c.Lifetime {
		return record, false, nil
	}
	return record, true, nil
}

// Store saves ac for the account, refreshing its timestamp.
func (c *Cache) Store(ac Context) error {
	if ac.Cookie == "" {
		return fmt.Errorf("refusing to cache a session without cookie")
	}

	if err := SetCookie(c.Account, ac.Cookie); err != nil {
		return fmt.Errorf("keyring: %w", err)
	}

	saved, err := load()
	if err != nil {
		return err
	}

	meta := ac
	meta.Cookie = ""
	saved[c.Account] = &Record{Context: meta, SavedAt: c.now()}
	return sessions().Set(saved)
}

// Clear forgets the cached session of the account.
func (c *Cache) Clear() error {
	if err := DeleteCookie(c.Account); err != nil {
		return err
	}

	saved, err := load()
	if err != nil {
		return err
	}

	delete(saved, c.Account)
	return sessions().Set(saved)
}

// Accounts lists every account with a cached record.
func Accounts() (map[string]*Record, error) {
	return load()
}

func load() (map[string]*Record, error) {
	saved, expired, err := sessions().Get()
	if err != nil {
		return nil, err
	}
	if expired || saved == nil {
		return make(map[string]*Record), nil
	}
	return saved, nil
}
