package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// DefaultLimit is used when a caller asks for a non-positive number of entries
const DefaultLimit = 10

// MaxLimit caps a single Top query
const MaxLimit = 100

// Entry is one ranked learner
type Entry struct {
	Rank        int64  `json:"rank"`
	UserAddress string `json:"userAddress"`
	Points      int    `json:"points"`
}

// Board ranks learners of a scoring module by points
type Board interface {
	SetScore(ctx context.Context, moduleID, userAddress string, points int) error
	Top(ctx context.Context, moduleID string, limit int) ([]Entry, error)
	// Rank returns nil when the learner has no score
	Rank(ctx context.Context, moduleID, userAddress string) (*Entry, error)
	// Replace swaps the module's whole board for scores
	Replace(ctx context.Context, moduleID string, scores map[string]int) error
}

// ClampLimit applies DefaultLimit and MaxLimit
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// MemoryBoard is a Board kept in process memory. Ordering matches Redis
// sorted sets: points descending, then address descending.
type MemoryBoard struct {
	mu     sync.RWMutex
	scores map[string]map[string]int
}

// NewMemoryBoard creates an empty board
func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{scores: make(map[string]map[string]int)}
}

func (b *MemoryBoard) SetScore(ctx context.Context, moduleID, userAddress string, points int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scores[moduleID] == nil {
		b.scores[moduleID] = make(map[string]int)
	}
	b.scores[moduleID][userAddress] = points
	return nil
}

func (b *MemoryBoard) Top(ctx context.Context, moduleID string, limit int) ([]Entry, error) {
	ranked := b.ranked(moduleID)
	limit = ClampLimit(limit)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (b *MemoryBoard) Rank(ctx context.Context, moduleID, userAddress string) (*Entry, error) {
	for _, e := range b.ranked(moduleID) {
		if e.UserAddress == userAddress {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (b *MemoryBoard) Replace(ctx context.Context, moduleID string, scores map[string]int) error {
	fresh := make(map[string]int, len(scores))
	for addr, pts := range scores {
		fresh[addr] = pts
	}
	b.mu.Lock()
	b.scores[moduleID] = fresh
	b.mu.Unlock()
	return nil
}

func (b *MemoryBoard) ranked(moduleID string) []Entry {
	b.mu.RLock()
	entries := make([]Entry, 0, len(b.scores[moduleID]))
	for addr, pts := range b.scores[moduleID] {
		entries = append(entries, Entry{UserAddress: addr, Points: pts})
	}
	b.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserAddress > entries[j].UserAddress
	})
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	return entries
}
