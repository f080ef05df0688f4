package records

import (
	"context"
	"encoding/json"
	"fmt"

	"blackjack/internal/domain"
	"blackjack/internal/ports"
)

// Repository reads and writes the records of one player. Every storage or
// parse failure is logged and replaced by a default; nothing is returned.
type Repository struct {
	store  ports.KVStore
	logger ports.Logger
}

// NewRepository creates a repository over store. logger must be non-nil.
func NewRepository(store ports.KVStore, logger ports.Logger) *Repository {
	return &Repository{store: store, logger: logger}
}

// LoadRun returns the stored run, or ok=false when absent or invalid.
func (r *Repository) LoadRun(ctx context.Context) (Run, bool) {
	raw, found := r.get(ctx, KeyRun)
	if !found {
		return Run{}, false
	}
	run, ok := ParseRun(raw)
	if !ok {
		r.logger.Warn("records: discarding invalid %s", KeyRun)
	}
	return run, ok
}

// SaveRun replaces the run record.
func (r *Repository) SaveRun(ctx context.Context, run Run) {
	r.setJSON(ctx, KeyRun, run)
}

// LoadCampaignOrder returns the permanent order, or ok=false when absent or invalid.
func (r *Repository) LoadCampaignOrder(ctx context.Context) ([]domain.ScenarioID, bool) {
	raw, found := r.get(ctx, KeyCampaignOrder)
	if !found {
		return nil, false
	}
	ids, ok := ParseCampaignOrder(raw)
	if !ok {
		r.logger.Warn("records: discarding invalid %s", KeyCampaignOrder)
	}
	return ids, ok
}

// SeedCampaignOrder stores ids as the permanent order unless a valid order
// already exists. Returns whether ids were written.
func (r *Repository) SeedCampaignOrder(ctx context.Context, ids []domain.ScenarioID) bool {
	written, err := SeedCampaignOrder(ctx, r.store, ids)
	if err != nil {
		r.logger.Warn("records: seed %s: %v", KeyCampaignOrder, err)
		return false
	}
	return written
}

// SeedCampaignOrder is the strict form of Repository.SeedCampaignOrder used
// where the caller must see storage failures. An absent order is written
// with SetIfAbsent so a concurrent seeder keeps the first write. An invalid
// order is overwritten.
func SeedCampaignOrder(ctx context.Context, store ports.KVStore, ids []domain.ScenarioID) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	value, err := json.Marshal(ids)
	if err != nil {
		return false, fmt.Errorf("marshal campaign order: %w", err)
	}

	raw, found, err := store.Get(ctx, KeyCampaignOrder)
	if err != nil {
		return false, fmt.Errorf("read campaign order: %w", err)
	}
	if !found {
		return store.SetIfAbsent(ctx, KeyCampaignOrder, string(value))
	}
	if _, ok := ParseCampaignOrder(raw); ok {
		return false, nil
	}
	if err := store.Set(ctx, KeyCampaignOrder, string(value)); err != nil {
		return false, fmt.Errorf("replace campaign order: %w", err)
	}
	return true, nil
}

// LoadStats returns the stored stats or an empty accumulator.
func (r *Repository) LoadStats(ctx context.Context) domain.Stats {
	raw, found := r.get(ctx, KeyStats)
	if !found {
		return domain.NewStats()
	}
	stats, ok := ParseStats(raw)
	if !ok {
		r.logger.Warn("records: discarding invalid %s", KeyStats)
		return domain.NewStats()
	}
	return stats
}

// SaveStats replaces the stats record.
func (r *Repository) SaveStats(ctx context.Context, stats domain.Stats) {
	if stats.Levels == nil {
		stats.Levels = map[domain.ScenarioID]domain.LevelStats{}
	}
	r.setJSON(ctx, KeyStats, stats)
}

// UpdateStats reads stats, applies fn and writes the result back whole.
func (r *Repository) UpdateStats(ctx context.Context, fn func(domain.Stats) domain.Stats) domain.Stats {
	stats := fn(r.LoadStats(ctx))
	r.SaveStats(ctx, stats)
	return stats
}

// FirstRunSeen reports whether the intro was acknowledged.
func (r *Repository) FirstRunSeen(ctx context.Context) bool {
	raw, found := r.get(ctx, KeyFirstRunSeen)
	return found && raw == FirstRunSeenMarker
}

// MarkFirstRunSeen stores the intro marker.
func (r *Repository) MarkFirstRunSeen(ctx context.Context) {
	if err := r.store.Set(ctx, KeyFirstRunSeen, FirstRunSeenMarker); err != nil {
		r.logger.Warn("records: write %s: %v", KeyFirstRunSeen, err)
	}
}

// Reset removes every record.
func (r *Repository) Reset(ctx context.Context) {
	for _, key := range AllKeys {
		if err := r.store.Remove(ctx, key); err != nil {
			r.logger.Warn("records: remove %s: %v", key, err)
		}
	}
}

func (r *Repository) get(ctx context.Context, key string) (string, bool) {
	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("records: read %s: %v", key, err)
		return "", false
	}
	return raw, found
}

func (r *Repository) setJSON(ctx context.Context, key string, v any) {
	value, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("records: marshal %s: %v", key, err)
		return
	}
	if err := r.store.Set(ctx, key, string(value)); err != nil {
		r.logger.Warn("records: write %s: %v", key, err)
	}
}
