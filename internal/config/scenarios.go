package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"blackjack/internal/domain"
)

// ScenarioType marks catalogue entries that belong to this game.
const ScenarioType = "blackjack"

var (
	scenarios []domain.Scenario
	loadOnce  sync.Once
	loadErr   error
)

// LoadScenarios reads the scenario catalogue from path once per process.
// Later calls return the first result regardless of path.
func LoadScenarios(path string) ([]domain.Scenario, error) {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read scenarios: %w", err)
			return
		}
		scenarios, loadErr = ParseScenarios(data)
	})
	return scenarios, loadErr
}

// GetScenarios returns the loaded catalogue, or nil before LoadScenarios.
func GetScenarios() []domain.Scenario {
	return scenarios
}

// ParseScenarios decodes a JSON array of scenario descriptors, keeps the
// blackjack ones and validates them. Duplicate ids are rejected.
func ParseScenarios(data []byte) ([]domain.Scenario, error) {
	var all []domain.Scenario
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenarios: %w", err)
	}

	out := make([]domain.Scenario, 0, len(all))
	seen := make(map[domain.ScenarioID]bool, len(all))
	for _, s := range all {
		if s.Type != ScenarioType {
			continue
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate scenario id %s", s.ID)
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no %s scenarios found", ScenarioType)
	}
	return out, nil
}
