package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/pkg/config"
	pkgerrors "github.com/quotehub/quotehub-backend/pkg/errors"
)

const (
	defaultWait = 10 * time.Second
	defaultTTL  = 30 * time.Second
	defaultPoll = 100 * time.Millisecond
)

// Store defines the redis operations backing the lock provider.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	GetString(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// Provider hands out named distributed locks with the configured budgets.
type Provider struct {
	store Store
	wait  time.Duration
	ttl   time.Duration
	poll  time.Duration
}

// NewProvider builds a lock provider from configuration.
func NewProvider(store Store, cfg config.LockConfig) (*Provider, error) {
	if store == nil {
		return nil, errors.New("lock store required")
	}
	p := &Provider{
		store: store,
		wait:  cfg.WaitTimeout,
		ttl:   cfg.TTL,
		poll:  cfg.PollEvery,
	}
	if p.wait <= 0 {
		p.wait = defaultWait
	}
	if p.ttl <= 0 {
		p.ttl = defaultTTL
	}
	if p.poll <= 0 {
		p.poll = defaultPoll
	}
	return p, nil
}

// Lock builds a named lock. The lock is not acquired until Block succeeds.
func (p *Provider) Lock(name string) *Lock {
	return &Lock{
		store: p.store,
		key:   p.store.LockKey(name),
		wait:  p.wait,
		ttl:   p.ttl,
		poll:  p.poll,
	}
}

// WithLock acquires the named lock, runs fn, and always releases.
func (p *Provider) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	l := p.Lock(name)
	if err := l.Block(ctx); err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = l.Release(releaseCtx)
	}()
	return fn(ctx)
}

// Lock is one named mutual-exclusion handle backed by redis SETNX + TTL.
type Lock struct {
	store Store
	key   string
	wait  time.Duration
	ttl   time.Duration
	poll  time.Duration
	owner string
}

// Block polls for the lock until it is acquired or the wait budget runs
// out, in which case a LOCK_TIMEOUT error is returned.
func (l *Lock) Block(ctx context.Context) error {
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", l.key, err)
		}
		if ok {
			l.owner = owner
			return nil
		}
		if time.Now().After(deadline) {
			return pkgerrors.New(pkgerrors.CodeLockTimeout, fmt.Sprintf("could not acquire lock %s within %s", l.key, l.wait))
		}
		select {
		case <-ctx.Done():
			return pkgerrors.Wrap(pkgerrors.CodeLockTimeout, ctx.Err(), fmt.Sprintf("canceled while waiting for lock %s", l.key))
		case <-time.After(l.poll):
		}
	}
}

// Release frees the lock only if the owner value still matches.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.store.GetString(ctx, l.key)
	if err != nil {
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// UpdateQuoteFileKey names the lock guarding mutations of one quote file.
func UpdateQuoteFileKey(id uuid.UUID) string {
	return "update-quote-file:" + id.String()
}

// UpdateQuoteKey names the lock guarding mutations of one quote version.
func UpdateQuoteKey(id uuid.UUID) string {
	return "update-quote:" + id.String()
}
