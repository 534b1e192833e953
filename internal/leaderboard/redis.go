package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPoints is the sorted set of address -> points for a module
const keyPoints = "leaderboard:points:"

// RedisBoard stores each module's ranking in a Redis sorted set
type RedisBoard struct {
	client *redis.Client
}

// NewRedisBoard wraps an existing client
func NewRedisBoard(client *redis.Client) *RedisBoard {
	return &RedisBoard{client: client}
}

// SetScore sets a learner's points. O(log N).
func (b *RedisBoard) SetScore(ctx context.Context, moduleID, userAddress string, points int) error {
	err := b.client.ZAdd(ctx, keyPoints+moduleID, redis.Z{
		Score:  float64(points),
		Member: userAddress,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to set leaderboard score: %w", err)
	}
	return nil
}

// Top returns the highest ranked learners
func (b *RedisBoard) Top(ctx context.Context, moduleID string, limit int) ([]Entry, error) {
	limit = ClampLimit(limit)

	results, err := b.client.ZRevRangeWithScores(ctx, keyPoints+moduleID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries = append(entries, Entry{
			Rank:        int64(i + 1),
			UserAddress: member,
			Points:      int(z.Score),
		})
	}
	return entries, nil
}

// Rank returns the learner's position, or nil if they are not on the board
func (b *RedisBoard) Rank(ctx context.Context, moduleID, userAddress string) (*Entry, error) {
	key := keyPoints + moduleID

	pipe := b.client.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, key, userAddress)
	scoreCmd := pipe.ZScore(ctx, key, userAddress)
	_, err := pipe.Exec(ctx)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rank: %w", err)
	}

	return &Entry{
		Rank:        rankCmd.Val() + 1,
		UserAddress: userAddress,
		Points:      int(scoreCmd.Val()),
	}, nil
}

// Replace rewrites the module's sorted set in one MULTI/EXEC
func (b *RedisBoard) Replace(ctx context.Context, moduleID string, scores map[string]int) error {
	key := keyPoints + moduleID

	members := make([]redis.Z, 0, len(scores))
	for addr, pts := range scores {
		members = append(members, redis.Z{Score: float64(pts), Member: addr})
	}

	pipe := b.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace leaderboard: %w", err)
	}
	return nil
}
