package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"blackjack/internal/app"
	"blackjack/internal/domain"
	"blackjack/internal/ports"
	"blackjack/internal/records"
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// CampaignSeeded is false when a campaign order already existed.
	CampaignSeeded bool
}

// StoreFor returns the record store of one user.
type StoreFor func(userID string) ports.KVStore

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts  ports.AccountPort
	stores    StoreFor
	scenarios []domain.Scenario
	rng       *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/stores must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, stores StoreFor, scenarios []domain.Scenario, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts:  accounts,
		stores:    stores,
		scenarios: scenarios,
		rng:       rng,
	}
}

// OnboardNewUser gives a new account a friendly name and fixes its campaign order.
// Returns a Result with any non-fatal issues and an error if the campaign order cannot be stored.
// Side effects: updates account profile and writes the campaign order record.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.stores == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{}
	displayName := s.generateFriendlyName()
	if err := s.accounts.UpdateProfile(ctx, userID, displayName, displayName); err != nil {
		// Profile updates are best-effort; the campaign order matters more.
		result.ProfileUpdateErr = err
	}

	if len(s.scenarios) == 0 {
		return result, nil
	}
	order := domain.ScenarioIDs(app.InitialOrder(s.scenarios, s.rng))
	seeded, err := records.SeedCampaignOrder(ctx, s.stores(userID), order)
	if err != nil {
		return result, fmt.Errorf("failed to seed campaign order: %w", err)
	}
	result.CampaignSeeded = seeded
	return result, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Lucky", "Sharp", "Cool", "Bold", "Steady", "Sly", "Quick", "Calm", "Wild", "Clever"}
	nouns := []string{"Dealer", "Ace", "Shark", "Joker", "Gambler", "Croupier", "Highroller", "Punter", "King", "Queen"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
