package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	agentSummaryCachePrefix = "agent_summary:"
	topPerformersCacheKey   = "top_performers"

	summaryCacheTTL     = 5 * time.Minute
	leaderboardCacheTTL = 10 * time.Minute
)

func agentSummaryCacheKey(agentID int64, period time.Time) string {
	return fmt.Sprintf("%s%d:%s", agentSummaryCachePrefix, agentID, period.Format("2006-01"))
}

// invalidateSalesCaches drops the cached monthly summary for the given
// agents plus the leaderboard. Cache misses after a mutation are cheaper
// than a stale payout figure.
func invalidateSalesCaches(ctx context.Context, rdb *redis.Client, agentIDs ...int64) {
	keys := []string{topPerformersCacheKey}
	now := time.Now()
	for _, id := range agentIDs {
		keys = append(keys, agentSummaryCacheKey(id, now))
	}
	_ = rdb.Del(ctx, keys...)
}
