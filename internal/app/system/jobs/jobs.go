// internal/app/system/jobs/jobs.go
package jobs

import (
	"context"
	"time"

	refreshtokenstore "github.com/dalemusser/volunteerhub/internal/app/store/refreshtokens"
	"github.com/dalemusser/volunteerhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// RefreshTokenCleanupJob removes refresh tokens that expired or were
// revoked more than grace ago. The TTL index covers expiry; this also
// clears revoked rows early.
func RefreshTokenCleanupJob(store *refreshtokenstore.Store, logger *zap.Logger, interval, grace time.Duration) Job {
	return Job{
		Name:     "refresh-token-cleanup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := store.CleanupExpired(ctx, time.Now().Add(-grace))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("removed stale refresh tokens", zap.Int64("count", n))
			}
			return nil
		},
	}
}

// LoginLimiterSweepJob drops idle rate-limit buckets so the limiter's
// memory stays bounded.
func LoginLimiterSweepJob(ll *ratelimit.LoginLimiter, logger *zap.Logger) Job {
	return Job{
		Name:     "login-limiter-sweep",
		Interval: 5 * time.Minute,
		Run: func(context.Context) error {
			if n := ll.Sweep(); n > 0 {
				logger.Debug("swept login limiter buckets", zap.Int("count", n))
			}
			return nil
		},
	}
}
