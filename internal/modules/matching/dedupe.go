package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"propfirm-core/internal/models"
)

// dedupeSet is the short-lived "seen this exact order shape recently"
// set used by placeOrder step 2 (DUPLICATE_ORDER_MS). It is a plain
// in-process map rather than the rediskv idempotency key, since the
// hash here is derived from order content rather than a caller-supplied
// key (spec.md §4.D step 2 vs. the explicit idempotency key of §6).
type dedupeSet struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]time.Time
}

func newDedupeSet(ttl time.Duration) *dedupeSet {
	return &dedupeSet{ttl: ttl, m: make(map[string]time.Time)}
}

func orderShapeHash(o models.Order) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s", o.AccountID, o.Symbol, o.Side, o.Quantity.String(), o.Type)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// seen reports whether this order shape was already recorded within
// the TTL window, and records it if not (recorded either way, so a
// rapid resubmission always resets the window).
func (d *dedupeSet) seen(o models.Order, now time.Time) bool {
	key := orderShapeHash(o)

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, t := range d.m {
		if now.Sub(t) > d.ttl {
			delete(d.m, k)
		}
	}

	if t, ok := d.m[key]; ok && now.Sub(t) <= d.ttl {
		d.m[key] = now
		return true
	}
	d.m[key] = now
	return false
}
