// Package accountcache caches chain account lookups so the verifier does
// not round-trip to the RPC node once per instruction account on every
// verification.
package accountcache

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/CedrosPay/x402-facilitator/internal/cacheutil"
)

// errNotFound is returned by the internal fetch closure to signal
// GetOrSet should not cache the result — covers both "account genuinely
// absent" and "RPC call failed", which Exists conflates into a single
// false per SPEC_FULL.md §4.4, but neither of which should be
// remembered for the TTL the way a confirmed existence is.
var errNotFound = errors.New("accountcache: not found")

// AccountFetcher is the subset of *rpc.Client this package depends on.
// Narrowing to an interface lets tests substitute a fake RPC backend.
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// Cache bounds account-existence lookups by TTL and capacity. Negative
// caching is not performed: an RPC error never gets written to the cache,
// so a transient failure does not get remembered as "not found" for the
// TTL — only a confirmed answer from the chain does.
type Cache struct {
	rpcClient AccountFetcher
	entries   *cacheutil.TTLCache[bool]
}

// New creates a Cache bounded to capacity entries, each valid for ttl.
func New(rpcClient AccountFetcher, capacity int, ttl time.Duration) *Cache {
	return &Cache{
		rpcClient: rpcClient,
		entries:   cacheutil.NewTTLCache[bool](capacity, ttl),
	}
}

// Exists reports whether the account at pubkey exists on chain. RPC
// errors are treated identically to "account not found": the caller
// cannot tell the two apart, mirroring the upstream GetAccountInfo
// semantics this cache wraps. Neither outcome is cached — only a
// confirmed existing account is, so a transient RPC failure never gets
// stuck as a false negative for the cache TTL.
func (c *Cache) Exists(ctx context.Context, pubkey solana.PublicKey) bool {
	exists, err := c.entries.GetOrSet(pubkey.String(), func() (bool, error) {
		info, err := c.rpcClient.GetAccountInfo(ctx, pubkey)
		if err != nil {
			return false, errNotFound
		}
		if info == nil || info.Value == nil {
			return false, errNotFound
		}
		return true, nil
	})
	return err == nil && exists
}

// Invalidate removes a cached entry, forcing the next Exists call to hit
// the chain.
func (c *Cache) Invalidate(pubkey solana.PublicKey) {
	c.entries.Delete(pubkey.String())
}
