// Package records persists the campaign run, the permanent campaign order,
// statistics and the first-run marker as versioned JSON values.
package records

import (
	"bytes"
	"encoding/json"
	"math"

	"blackjack/internal/domain"
)

// Storage keys. The version suffix is bumped on schema changes.
const (
	KeyRun           = "blackJack:run:v1"
	KeyCampaignOrder = "blackJack:campaignOrder:v1"
	KeyStats         = "blackJack:stats:v1"
	KeyFirstRunSeen  = "blackJack:firstRunModalSeen:v1"

	// FirstRunSeenMarker is the value stored once the intro was acknowledged.
	FirstRunSeenMarker = "1"
)

// AllKeys lists every key owned by this package.
var AllKeys = []string{KeyRun, KeyStats, KeyCampaignOrder, KeyFirstRunSeen}

// Run is the current campaign position.
type Run struct {
	ScenarioIDs     []domain.ScenarioID `json:"scenarioIds"`
	Index           int                 `json:"index"`
	SavedAt         int64               `json:"savedAt"`
	AllLevelsBeaten bool                `json:"allLevelsBeaten"`
}

// ParseRun validates a stored run record. Ids must be a non-empty array of
// strings or numbers. A missing or non-numeric index reads as 0 and negative
// indexes are raised to 0.
func ParseRun(raw string) (Run, bool) {
	var wire struct {
		ScenarioIDs     json.RawMessage `json:"scenarioIds"`
		Index           json.RawMessage `json:"index"`
		SavedAt         json.RawMessage `json:"savedAt"`
		AllLevelsBeaten json.RawMessage `json:"allLevelsBeaten"`
	}
	if !isObject(raw) || json.Unmarshal([]byte(raw), &wire) != nil {
		return Run{}, false
	}
	ids, ok := parseIDs(wire.ScenarioIDs)
	if !ok {
		return Run{}, false
	}

	run := Run{ScenarioIDs: ids}
	if n, ok := parseNumber(wire.Index); ok && n > 0 {
		run.Index = int(math.Floor(n))
	}
	if n, ok := parseNumber(wire.SavedAt); ok {
		run.SavedAt = int64(n)
	}
	var beaten bool
	if json.Unmarshal(wire.AllLevelsBeaten, &beaten) == nil {
		run.AllLevelsBeaten = beaten
	}
	return run, true
}

// ParseCampaignOrder validates the permanent order: a non-empty array of
// string or number ids.
func ParseCampaignOrder(raw string) ([]domain.ScenarioID, bool) {
	return parseIDs(json.RawMessage(raw))
}

// ParseStats validates a stored stats record. Counters must be non-negative
// integers. currentStreak and levels may be missing.
func ParseStats(raw string) (domain.Stats, bool) {
	var wire struct {
		TotalGamesPlayed *int                   `json:"totalGamesPlayed"`
		TotalWins        *int                   `json:"totalWins"`
		TotalTimeSpent   *int64                 `json:"totalTimeSpent"`
		CurrentStreak    *int                   `json:"currentStreak"`
		BestStreak       *int                   `json:"bestStreak"`
		Levels           map[string]levelRecord `json:"levels"`
	}
	if !isObject(raw) || json.Unmarshal([]byte(raw), &wire) != nil {
		return domain.Stats{}, false
	}
	if wire.TotalGamesPlayed == nil || wire.TotalWins == nil || wire.TotalTimeSpent == nil || wire.BestStreak == nil {
		return domain.Stats{}, false
	}
	if *wire.TotalGamesPlayed < 0 || *wire.TotalWins < 0 || *wire.TotalTimeSpent < 0 || *wire.BestStreak < 0 {
		return domain.Stats{}, false
	}

	stats := domain.NewStats()
	stats.TotalGamesPlayed = *wire.TotalGamesPlayed
	stats.TotalWins = *wire.TotalWins
	stats.TotalTimeSpent = *wire.TotalTimeSpent
	stats.BestStreak = *wire.BestStreak
	if wire.CurrentStreak != nil && *wire.CurrentStreak > 0 {
		stats.CurrentStreak = *wire.CurrentStreak
	}
	for id, lvl := range wire.Levels {
		if lvl.Wins == nil || *lvl.Wins < 0 {
			return domain.Stats{}, false
		}
		stats.Levels[domain.ScenarioID(id)] = domain.LevelStats{Wins: *lvl.Wins, BestTimeMs: lvl.BestTimeMs}
	}
	return stats, true
}

type levelRecord struct {
	Wins       *int   `json:"wins"`
	BestTimeMs *int64 `json:"bestTimeMs"`
}

func parseIDs(raw json.RawMessage) ([]domain.ScenarioID, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var ids []domain.ScenarioID
	if err := json.Unmarshal(raw, &ids); err != nil || len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	var n float64
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return 0, false
	}
	return n, true
}

func isObject(raw string) bool {
	trimmed := bytes.TrimSpace([]byte(raw))
	return len(trimmed) > 0 && trimmed[0] == '{'
}
