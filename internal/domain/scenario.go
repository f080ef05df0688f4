package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Difficulty tiers a scenario can belong to.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Tiers lists difficulties in campaign order.
var Tiers = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// HasDistractions reports whether rounds at this tier schedule distractions.
func (d Difficulty) HasDistractions() bool {
	return d == DifficultyMedium || d == DifficultyHard
}

// ScenarioID identifies a scenario. JSON numbers and strings both decode
// into the string form.
type ScenarioID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ScenarioID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ScenarioID(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("scenario id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("scenario id must be a string or number: %w", err)
	}
	*id = ScenarioID(n.String())
	return nil
}

// Scenario is a read-only level descriptor.
type Scenario struct {
	ID             ScenarioID `json:"id"`
	Type           string     `json:"type,omitempty"`
	Title          string     `json:"title"`
	Difficulty     Difficulty `json:"difficulty"`
	StartingAmount int        `json:"startingAmount"`
	EndWithAmount  int        `json:"endWithAmount"`
	TimeLimit      *int       `json:"timeLimit"`
}

// HasTimer reports whether the scenario runs a countdown.
func (s Scenario) HasTimer() bool { return s.TimeLimit != nil }

// Validate checks the descriptor is playable.
func (s Scenario) Validate() error {
	if strings.TrimSpace(string(s.ID)) == "" {
		return fmt.Errorf("scenario id is required")
	}
	if !s.Difficulty.Valid() {
		return fmt.Errorf("scenario %s: unknown difficulty %q", s.ID, s.Difficulty)
	}
	if s.StartingAmount <= 0 {
		return fmt.Errorf("scenario %s: startingAmount must be positive", s.ID)
	}
	if s.EndWithAmount <= 0 {
		return fmt.Errorf("scenario %s: endWithAmount must be positive", s.ID)
	}
	if s.TimeLimit != nil && *s.TimeLimit <= 0 {
		return fmt.Errorf("scenario %s: timeLimit must be positive when set", s.ID)
	}
	return nil
}

// ScenarioIDs returns the ids of the given scenarios in order.
func ScenarioIDs(list []Scenario) []ScenarioID {
	ids := make([]ScenarioID, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

// ResolveScenarios maps ids onto the catalogue. It returns false unless
// every id resolves and the result covers the whole catalogue exactly once.
func ResolveScenarios(ids []ScenarioID, catalogue []Scenario) ([]Scenario, bool) {
	if len(ids) == 0 || len(ids) != len(catalogue) {
		return nil, false
	}
	byID := make(map[ScenarioID]Scenario, len(catalogue))
	for _, s := range catalogue {
		byID[s.ID] = s
	}
	seen := make(map[ScenarioID]bool, len(ids))
	out := make([]Scenario, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok || seen[id] {
			return nil, false
		}
		seen[id] = true
		out = append(out, s)
	}
	return out, true
}
