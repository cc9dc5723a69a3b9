package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/bizhub/portal-client/pkg/logger"
)

// ErrPartialWrite reports that the primary backend took a write (or a
// delete) the secondary did not, even after one retry. Callers must
// treat it as failure and compensate with Wipe so the two copies never
// disagree.
var ErrPartialWrite = errors.New("kvstore: partial write, backends out of sync")

// Dual fans every write out to a primary (script-readable, the
// authority for reads) and a secondary (cookie) backend. There is no
// transaction across the two; the contract is write-primary,
// write-secondary, retry the secondary once, then surface
// ErrPartialWrite and let the caller wipe both sides.
type Dual struct {
	primary   Backend
	secondary Backend
	ttl       time.Duration
}

// NewDual builds the adapter. ttl applies to the secondary (cookie)
// copy only; the primary copy is written without expiry because its
// validity is judged by server-side refresh, not a client clock.
func NewDual(primary, secondary Backend, ttl time.Duration) *Dual {
	return &Dual{primary: primary, secondary: secondary, ttl: ttl}
}

// Set writes the value to both backends. On a secondary failure after
// retry the primary copy is left in place and ErrPartialWrite is
// returned; the caller decides whether to wipe.
func (d *Dual) Set(ctx context.Context, key, value string) error {
	if err := d.primary.Write(ctx, key, value, 0); err != nil {
		return err
	}
	if err := d.secondary.Write(ctx, key, value, d.ttl); err != nil {
		logger.Warnf("kvstore: secondary write of %q failed, retrying: %v", key, err)
		if err = d.secondary.Write(ctx, key, value, d.ttl); err != nil {
			logger.Errorf("kvstore: secondary write of %q failed twice: %v", key, err)
			return ErrPartialWrite
		}
	}
	return nil
}

// Get reads from the primary backend only.
func (d *Dual) Get(ctx context.Context, key string) (string, bool, error) {
	return d.primary.Read(ctx, key)
}

// Delete removes the key from both backends. The secondary is
// attempted even when the primary fails; the first error wins. A
// secondary failure after one retry surfaces ErrPartialWrite.
func (d *Dual) Delete(ctx context.Context, key string) error {
	perr := d.primary.Remove(ctx, key)
	serr := d.secondary.Remove(ctx, key)
	if serr != nil {
		if serr = d.secondary.Remove(ctx, key); serr != nil {
			logger.Errorf("kvstore: secondary remove of %q failed twice: %v", key, serr)
			serr = ErrPartialWrite
		}
	}
	if perr != nil {
		return perr
	}
	return serr
}

// Wipe best-effort removes every key from both backends. It is the
// compensating delete used after a partial write: errors are logged,
// not returned, because at that point clearing as much as possible
// beats reporting.
func (d *Dual) Wipe(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := d.primary.Remove(ctx, key); err != nil {
			logger.Warnf("kvstore: wipe %q from primary: %v", key, err)
		}
		if err := d.secondary.Remove(ctx, key); err != nil {
			logger.Warnf("kvstore: wipe %q from secondary: %v", key, err)
		}
	}
}
