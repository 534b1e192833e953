package leaderboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/storage"
)

// Rebuilder periodically recomputes every scoring module's board from the
// completion store, repairing drift left by best-effort score updates
type Rebuilder struct {
	registry *curriculum.Registry
	store    storage.CompletionStore
	board    Board
	interval time.Duration
}

// NewRebuilder creates a new rebuild worker
func NewRebuilder(registry *curriculum.Registry, store storage.CompletionStore, board Board, interval time.Duration) *Rebuilder {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Rebuilder{
		registry: registry,
		store:    store,
		board:    board,
		interval: interval,
	}
}

// Start begins the rebuild worker in a goroutine
func (r *Rebuilder) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Rebuilder) run(ctx context.Context) {
	slog.Info("leaderboard rebuilder started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run immediately on start
	r.RebuildAll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("leaderboard rebuilder stopped")
			return
		case <-ticker.C:
			r.RebuildAll(ctx)
		}
	}
}

// RebuildAll rebuilds the board of every scoring module
func (r *Rebuilder) RebuildAll(ctx context.Context) {
	for _, mod := range r.registry.Modules() {
		if mod.Scoring != curriculum.ScoringByLevel {
			continue
		}
		if err := r.Rebuild(ctx, mod); err != nil {
			slog.Error("failed to rebuild leaderboard",
				"error", err,
				"module", mod.ID.String(),
			)
		}
	}
}

// Rebuild recomputes one module's scores against the current curriculum
func (r *Rebuilder) Rebuild(ctx context.Context, mod *curriculum.Module) error {
	records, err := r.store.ListCompletions(ctx, mod.ID.String())
	if err != nil {
		return err
	}

	scores := make(map[string]int, len(records))
	for _, rec := range records {
		progress := curriculum.CalculateProgress(mod, rec.Chapters)
		scores[rec.UserAddress] = progress.Points
	}

	if err := r.board.Replace(ctx, mod.ID.String(), scores); err != nil {
		return err
	}

	slog.Debug("leaderboard rebuilt", "module", mod.ID.String(), "learners", len(scores))
	return nil
}
