package domain

import "fmt"

// LevelStats tracks completions of one scenario.
type LevelStats struct {
	Wins       int    `json:"wins"`
	BestTimeMs *int64 `json:"bestTimeMs"`
}

// Stats accumulates play statistics across sessions.
type Stats struct {
	TotalGamesPlayed int                       `json:"totalGamesPlayed"`
	TotalWins        int                       `json:"totalWins"`
	TotalTimeSpent   int64                     `json:"totalTimeSpent"`
	CurrentStreak    int                       `json:"currentStreak"`
	BestStreak       int                       `json:"bestStreak"`
	Levels           map[ScenarioID]LevelStats `json:"levels"`
}

// NewStats returns an empty accumulator.
func NewStats() Stats {
	return Stats{Levels: map[ScenarioID]LevelStats{}}
}

// LevelResult describes a completed level for stats.
type LevelResult struct {
	ScenarioID ScenarioID
	ElapsedMs  int64
}

// RecordResult returns stats updated with one settled game. A success bumps
// wins and the streak and, when level is set, the level's wins and best time.
// A danger resets the streak. Attempt seconds are always added.
func RecordResult(s Stats, kind OutcomeKind, level *LevelResult, attemptSeconds int64) Stats {
	out := s.clone()
	out.TotalGamesPlayed++

	switch kind {
	case OutcomeSuccess:
		out.TotalWins++
		out.CurrentStreak++
		if out.CurrentStreak > out.BestStreak {
			out.BestStreak = out.CurrentStreak
		}
		if level != nil {
			prev := out.Levels[level.ScenarioID]
			best := prev.BestTimeMs
			if level.ElapsedMs >= 0 && (best == nil || level.ElapsedMs < *best) {
				v := level.ElapsedMs
				best = &v
			}
			out.Levels[level.ScenarioID] = LevelStats{Wins: prev.Wins + 1, BestTimeMs: best}
		}
	case OutcomeDanger:
		out.CurrentStreak = 0
	}

	if attemptSeconds > 0 {
		out.TotalTimeSpent += attemptSeconds
	}
	return out
}

// WinRate is totalWins/totalGamesPlayed as a percentage, 0 with no games.
func (s Stats) WinRate() float64 {
	if s.TotalGamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalWins) / float64(s.TotalGamesPlayed) * 100
}

func (s Stats) clone() Stats {
	out := s
	out.Levels = make(map[ScenarioID]LevelStats, len(s.Levels))
	for k, v := range s.Levels {
		if v.BestTimeMs != nil {
			b := *v.BestTimeMs
			v.BestTimeMs = &b
		}
		out.Levels[k] = v
	}
	return out
}

// FormatElapsed renders milliseconds as "Xm Ys" or "Ys".
func FormatElapsed(ms int64) string {
	total := ms / 1000
	if total < 0 {
		total = 0
	}
	minutes := total / 60
	seconds := total % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// FormatDuration renders seconds as "Xh Ym", "Xm Ys" or "Xs".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
