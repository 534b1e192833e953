package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/events"
	"github.com/terra-clan/progress-engine/internal/leaderboard"
	"github.com/terra-clan/progress-engine/internal/metrics"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/storage"
)

// DefaultMaxConflictRetries is the number of write attempts made when the
// completion record keeps changing underneath the writer
const DefaultMaxConflictRetries = 3

// Options configures optional collaborators. Nil fields are skipped.
type Options struct {
	Board              leaderboard.Board
	Events             events.Publisher
	Metrics            *metrics.Metrics
	MaxConflictRetries int
	// StrictModules rejects unknown module ids on reads instead of falling
	// back to the default module
	StrictModules bool
}

// Service records section completions and serves progress views
type Service struct {
	registry   *curriculum.Registry
	store      storage.CompletionStore
	board      leaderboard.Board
	events     events.Publisher
	metrics    *metrics.Metrics
	maxRetries int
	strict     bool
	now        func() time.Time
}

// NewService creates a new progress service
func NewService(registry *curriculum.Registry, store storage.CompletionStore, opts Options) *Service {
	if opts.MaxConflictRetries <= 0 {
		opts.MaxConflictRetries = DefaultMaxConflictRetries
	}

	return &Service{
		registry:   registry,
		store:      store,
		board:      opts.Board,
		events:     opts.Events,
		metrics:    opts.Metrics,
		maxRetries: opts.MaxConflictRetries,
		strict:     opts.StrictModules,
		now:        time.Now,
	}
}

// Result is a stored completion record with its derived progress
type Result struct {
	Record   *models.CompletionRecord   `json:"record"`
	Progress curriculum.ModuleProgress `json:"progress"`
	// Changed is false when the request did not alter the record
	Changed bool `json:"changed"`
}

// CompleteSection marks a section done and recomputes the learner's module
// state. The write is a compare-and-set on the record version and is retried
// on conflict.
func (s *Service) CompleteSection(ctx context.Context, req *models.CompleteSectionRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address, err := models.NormalizeAddress(req.UserAddress)
	if err != nil {
		return nil, err
	}

	mod, ok := s.registry.LookupKey(req.ModuleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrModuleNotFound, req.ModuleID)
	}

	chapter := mod.Chapter(req.ChapterID)
	if chapter == nil {
		return nil, fmt.Errorf("%w: %s/%s", models.ErrChapterNotFound, req.ModuleID, req.ChapterID)
	}

	moduleKey := mod.ID.String()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		result, err := s.apply(ctx, mod, chapter, address, req)
		if err == nil {
			if result.Changed {
				s.metrics.Completion(moduleKey, metrics.OutcomeRecorded)
				s.afterWrite(ctx, mod, req, result)
			} else {
				s.metrics.Completion(moduleKey, metrics.OutcomeNoop)
			}
			return result, nil
		}

		if !errors.Is(err, models.ErrVersionConflict) {
			s.metrics.Completion(moduleKey, metrics.OutcomeError)
			return nil, err
		}

		s.metrics.VersionConflict(moduleKey)
		slog.Debug("completion record changed concurrently, retrying",
			"address", address,
			"module", moduleKey,
			"attempt", attempt,
		)
	}

	s.metrics.Completion(moduleKey, metrics.OutcomeError)
	slog.Warn("giving up on completion after repeated version conflicts",
		"address", address,
		"module", moduleKey,
		"attempts", s.maxRetries,
	)
	return nil, fmt.Errorf("after %d attempts: %w", s.maxRetries, models.ErrVersionConflict)
}

// apply runs one load, mutate and save cycle
func (s *Service) apply(ctx context.Context, mod *curriculum.Module, chapter *curriculum.Chapter, address string, req *models.CompleteSectionRequest) (*Result, error) {
	moduleKey := mod.ID.String()

	rec, err := s.store.GetCompletion(ctx, address, moduleKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load completion record: %w", err)
	}
	if rec == nil {
		rec = models.NewCompletionRecord(address, moduleKey)
	}
	before := rec.Clone()

	rec.AddSection(chapter.ID, req.SectionID)
	if req.FinalizeChapter {
		rec.SetChapter(chapter.ID, chapter.AvailableSectionIDs())
	}

	progress := curriculum.CalculateProgress(mod, rec.Chapters)
	rec.CompletedChapters = progress.CompletedChapters
	rec.ChapterPoints = progress.ChapterPoints
	rec.Points = progress.Points
	rec.IsCompleted = progress.IsCompleted

	if rec.Version != 0 && sameState(before, rec) {
		return &Result{Record: rec, Progress: progress}, nil
	}

	rec.UpdatedAt = s.now().UTC()
	if err := s.store.SaveCompletion(ctx, rec); err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save completion record: %w", err)
	}

	return &Result{Record: rec, Progress: progress, Changed: true}, nil
}

// afterWrite updates the leaderboard and notifies subscribers. Failures are
// logged and never fail the request.
func (s *Service) afterWrite(ctx context.Context, mod *curriculum.Module, req *models.CompleteSectionRequest, result *Result) {
	rec := result.Record

	if s.board != nil && mod.Scoring == curriculum.ScoringByLevel {
		if err := s.board.SetScore(ctx, rec.ModuleID, rec.UserAddress, rec.Points); err != nil {
			slog.Warn("failed to update leaderboard",
				"error", err,
				"address", rec.UserAddress,
				"module", rec.ModuleID,
			)
		}
	}

	if s.events != nil {
		ev := events.ProgressEvent{
			Type:              events.TypeSectionCompleted,
			UserAddress:       rec.UserAddress,
			ModuleID:          rec.ModuleID,
			ChapterID:         req.ChapterID,
			SectionID:         req.SectionID,
			CompletedChapters: rec.CompletedChapters,
			Points:            rec.Points,
			IsCompleted:       rec.IsCompleted,
			Timestamp:         rec.UpdatedAt,
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			slog.Warn("failed to publish progress event",
				"error", err,
				"address", rec.UserAddress,
				"module", rec.ModuleID,
			)
		}
	}
}

// GetProgress returns a learner's progress in a module. An empty or unknown
// module id resolves to the default module unless strict mode is on. A
// learner with no record gets an empty, unsaved record.
func (s *Service) GetProgress(ctx context.Context, userAddress, moduleID string) (*Result, error) {
	address, err := models.NormalizeAddress(userAddress)
	if err != nil {
		return nil, err
	}

	mod, err := s.resolveModule(moduleID)
	if err != nil {
		return nil, err
	}
	moduleKey := mod.ID.String()

	rec, err := s.store.GetCompletion(ctx, address, moduleKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load completion record: %w", err)
	}
	if rec == nil {
		rec = models.NewCompletionRecord(address, moduleKey)
	}

	return &Result{
		Record:   rec,
		Progress: curriculum.CalculateProgress(mod, rec.Chapters),
	}, nil
}

func (s *Service) resolveModule(moduleID string) (*curriculum.Module, error) {
	if moduleID == "" {
		mod, _ := s.registry.Lookup(curriculum.DefaultModule)
		return mod, nil
	}

	if s.strict {
		mod, ok := s.registry.LookupKey(moduleID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrModuleNotFound, moduleID)
		}
		return mod, nil
	}

	mod, ok := s.registry.Resolve(moduleID)
	if !ok {
		slog.Debug("unknown module, using default", "module", moduleID, "default", mod.ID.String())
	}
	return mod, nil
}

func sameState(a, b *models.CompletionRecord) bool {
	return maps.EqualFunc(a.Chapters, b.Chapters, slices.Equal[[]string]) &&
		slices.Equal(a.CompletedChapters, b.CompletedChapters) &&
		maps.Equal(a.ChapterPoints, b.ChapterPoints) &&
		a.Points == b.Points &&
		a.IsCompleted == b.IsCompleted
}
