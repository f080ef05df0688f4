package app

import (
	"fmt"
	"math/rand"
	"time"

	"blackjack/internal/domain"
	"blackjack/internal/records"
)

// Campaign tracks the ordered scenarios a player works through.
type Campaign struct {
	catalogue       []domain.Scenario
	order           []domain.Scenario
	index           int
	allLevelsBeaten bool
	rng             *rand.Rand
}

// InitialOrder groups the catalogue into easy, medium and hard blocks and
// shuffles each block.
func InitialOrder(catalogue []domain.Scenario, rng *rand.Rand) []domain.Scenario {
	out := make([]domain.Scenario, 0, len(catalogue))
	for _, tier := range domain.Tiers {
		start := len(out)
		for _, s := range catalogue {
			if s.Difficulty == tier {
				out = append(out, s)
			}
		}
		block := out[start:]
		rng.Shuffle(len(block), func(i, j int) { block[i], block[j] = block[j], block[i] })
	}
	return out
}

// NewCampaign starts at the first scenario of order.
func NewCampaign(catalogue, order []domain.Scenario, rng *rand.Rand) *Campaign {
	c := &Campaign{
		catalogue: catalogue,
		order:     append([]domain.Scenario(nil), order...),
		rng:       rng,
	}
	c.clamp()
	return c
}

// HydrateCampaign restores a stored run over the catalogue. A run whose ids
// no longer match the catalogue is discarded in favour of initial, keeping
// only its allLevelsBeaten flag.
func HydrateCampaign(catalogue, initial []domain.Scenario, run records.Run, hasRun bool, rng *rand.Rand) *Campaign {
	c := NewCampaign(catalogue, initial, rng)
	if !hasRun {
		return c
	}
	c.allLevelsBeaten = run.AllLevelsBeaten
	if restored, ok := domain.ResolveScenarios(run.ScenarioIDs, catalogue); ok {
		c.order = restored
		c.index = run.Index
		c.clamp()
	}
	return c
}

// Current returns the active scenario.
func (c *Campaign) Current() domain.Scenario { return c.order[c.index] }

// Index is the position of the active scenario.
func (c *Campaign) Index() int { return c.index }

// Len is the number of scenarios in the campaign.
func (c *Campaign) Len() int { return len(c.order) }

// AllLevelsBeaten reports whether the campaign was completed once.
func (c *Campaign) AllLevelsBeaten() bool { return c.allLevelsBeaten }

// Order returns the ids of the current ordering.
func (c *Campaign) Order() []domain.ScenarioID { return domain.ScenarioIDs(c.order) }

// Advance moves to the next scenario. Running past the end reshuffles the
// whole catalogue without tiers, marks the campaign beaten and restarts at 0.
func (c *Campaign) Advance() (reshuffled bool) {
	c.index++
	if c.index < len(c.order) {
		return false
	}
	next := append([]domain.Scenario(nil), c.catalogue...)
	c.rng.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
	c.order = next
	c.allLevelsBeaten = true
	c.index = 0
	return true
}

// Record returns the run record for the current position.
func (c *Campaign) Record(now time.Time) records.Run {
	return records.Run{
		ScenarioIDs:     c.Order(),
		Index:           c.index,
		SavedAt:         now.UnixMilli(),
		AllLevelsBeaten: c.allLevelsBeaten,
	}
}

// Header is the level caption shown above the table.
func (c *Campaign) Header() string {
	if c.allLevelsBeaten {
		return "All levels beaten! Freeplay mode is on."
	}
	return fmt.Sprintf("Level %d/%d", c.index+1, len(c.order))
}

func (c *Campaign) clamp() {
	if c.index > len(c.order)-1 {
		c.index = len(c.order) - 1
	}
	if c.index < 0 {
		c.index = 0
	}
}

// LevelStatus is a scenario's place in the progress listing.
type LevelStatus string

const (
	LevelCompleted LevelStatus = "completed"
	LevelCurrent   LevelStatus = "current"
	LevelLocked    LevelStatus = "locked"
)

// LevelProgress is one row of the progress listing.
type LevelProgress struct {
	ScenarioID domain.ScenarioID `json:"scenarioId"`
	Title      string            `json:"title"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Status     LevelStatus       `json:"status"`
	Wins       int               `json:"wins"`
	BestTimeMs *int64            `json:"bestTimeMs"`
	BestTime   string            `json:"bestTime"`
}

// Progress is a read-only view of the campaign.
type Progress struct {
	Header          string          `json:"header"`
	Index           int             `json:"index"`
	Total           int             `json:"total"`
	AllLevelsBeaten bool            `json:"allLevelsBeaten"`
	Levels          []LevelProgress `json:"levels"`
}

// Progress lists the levels in the permanent order when it still matches
// the catalogue, else in the current order.
func (c *Campaign) Progress(permanent []domain.ScenarioID, stats domain.Stats) Progress {
	list := c.order
	if resolved, ok := domain.ResolveScenarios(permanent, c.catalogue); ok {
		list = resolved
	}

	levels := make([]LevelProgress, len(list))
	for i, s := range list {
		status := LevelLocked
		switch {
		case c.allLevelsBeaten || i < c.index:
			status = LevelCompleted
		case i == c.index:
			status = LevelCurrent
		}
		lvl := stats.Levels[s.ID]
		best := "-"
		if lvl.BestTimeMs != nil {
			best = domain.FormatElapsed(*lvl.BestTimeMs)
		}
		levels[i] = LevelProgress{
			ScenarioID: s.ID,
			Title:      s.Title,
			Difficulty: s.Difficulty,
			Status:     status,
			Wins:       lvl.Wins,
			BestTimeMs: lvl.BestTimeMs,
			BestTime:   best,
		}
	}
	return Progress{
		Header:          c.Header(),
		Index:           c.index,
		Total:           len(list),
		AllLevelsBeaten: c.allLevelsBeaten,
		Levels:          levels,
	}
}
