// internal/invalidate/invalidate.go
package invalidate

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storegate/pkg/tenantcache"
)

// Channel carries hostname keys whose cached resolution must be dropped.
// The directory service publishes when a tenant's domain settings change;
// every edge instance subscribes. Best-effort: an edge without Redis still
// converges within the cache TTL.
const Channel = "storegate:invalidate"

// ClearAll is the payload that drops the whole cache.
const ClearAll = "*"

// Publish fans out invalidation for the given hostname keys.
func Publish(ctx context.Context, rdb *redis.Client, keys ...string) error {
	for _, k := range keys {
		if err := rdb.Publish(ctx, Channel, k).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Run subscribes and applies invalidations to the local cache until ctx is
// done. Non-blocking; safe to skip entirely when rdb is nil.
func Run(ctx context.Context, rdb *redis.Client, cache *tenantcache.Cache, log *zap.SugaredLogger) {
	sub := rdb.Subscribe(ctx, Channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == ClearAll {
					cache.Clear()
				} else {
					cache.Invalidate(msg.Payload)
				}
				log.Infow("tenant cache invalidated", "key", msg.Payload)
			}
		}
	}()
}
