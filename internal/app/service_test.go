package app

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"blackjack/internal/domain"
)

func TestPlaceBetAndClearConserveBankroll(t *testing.T) {
	svc := stackedService()
	r := svc.NewRound(700, nil)
	total := r.Committed()

	steps := []func() ([]Event, error){
		func() ([]Event, error) { return svc.PlaceBet(r, 500) },
		func() ([]Event, error) { return svc.PlaceBet(r, 100) },
		func() ([]Event, error) { return svc.PlaceBet(r, 500) },
		func() ([]Event, error) { return svc.PlaceBet(r, 25) },
		func() ([]Event, error) { return svc.ClearBet(r) },
		func() ([]Event, error) { return svc.PlaceBet(r, 10) },
		func() ([]Event, error) { return svc.PlaceBet(r, 1) },
		func() ([]Event, error) { return svc.PlaceBet(r, 7) },
	}
	for i, step := range steps {
		_, _ = step()
		if r.Committed() != total {
			t.Fatalf("step %d: bankroll+bet = %d, want %d", i, r.Committed(), total)
		}
		if domain.SumChips(r.ChipsInBetZone) != r.CurrentBet {
			t.Fatalf("step %d: chips %v do not sum to bet %d", i, r.ChipsInBetZone, r.CurrentBet)
		}
	}
	if r.CurrentBet != 11 || r.Bankroll != 689 {
		t.Fatalf("bet=%d bankroll=%d", r.CurrentBet, r.Bankroll)
	}
}

func TestPlaceBetPreconditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Service, *domain.Round)
		denom int
		want  error
	}{
		{"unknown denomination", nil, 5, ErrUnknownDenomination},
		{"insufficient bankroll", nil, 500, ErrInsufficientBankroll},
		{"after all in", func(s *Service, r *domain.Round) { _, _ = s.GoAllIn(r) }, 1, ErrBetLocked},
		{"after deal", func(s *Service, r *domain.Round) {
			_, _ = s.PlaceBet(r, 10)
			r.Deck = stack("2", "3", "4")
			_, _ = s.Deal(r)
		}, 10, ErrBetLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := stackedService()
			r := svc.NewRound(100, nil)
			if tt.setup != nil {
				tt.setup(svc, r)
			}
			bankroll, bet := r.Bankroll, r.CurrentBet

			_, err := svc.PlaceBet(r, tt.denom)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if r.Bankroll != bankroll || r.CurrentBet != bet {
				t.Fatal("rejected bet changed the round")
			}
		})
	}
}

func TestGoAllIn(t *testing.T) {
	svc := stackedService()
	r := svc.NewRound(136, nil)
	_, _ = svc.PlaceBet(r, 25)

	if _, err := svc.GoAllIn(r); err != nil {
		t.Fatalf("all in: %v", err)
	}
	if r.Bankroll != 0 || r.CurrentBet != 136 || !r.IsAllIn {
		t.Fatalf("round = bankroll %d bet %d allIn %v", r.Bankroll, r.CurrentBet, r.IsAllIn)
	}
	want := map[int]int{100: 1, 25: 1, 10: 1, 1: 1}
	if !reflect.DeepEqual(r.ChipsInBetZone, want) {
		t.Fatalf("chips = %v, want %v", r.ChipsInBetZone, want)
	}

	empty := svc.NewRound(0, nil)
	if _, err := svc.GoAllIn(empty); !errors.Is(err, ErrEmptyBankroll) {
		t.Fatalf("err = %v, want ErrEmptyBankroll", err)
	}

	if _, err := svc.ClearBet(r); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if r.IsAllIn || r.Bankroll != 136 {
		t.Fatal("clear should undo all in")
	}
}

func TestDealRequiresBet(t *testing.T) {
	svc := stackedService()
	r := svc.NewRound(100, nil)
	if _, err := svc.Deal(r); !errors.Is(err, ErrNoBet) {
		t.Fatalf("err = %v, want ErrNoBet", err)
	}
	if r.Phase != domain.PhaseAwaitingBet || len(r.PlayerHand) != 0 {
		t.Fatal("rejected deal changed the round")
	}
}

func TestDealNaturalWins(t *testing.T) {
	svc := stackedService()
	r := svc.NewRound(100, nil)
	_, _ = svc.PlaceBet(r, 50)
	r.Deck = stack("A", "K", "7")

	evs, err := svc.Deal(r)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if !r.IsGameOver || r.Phase != domain.PhaseRoundOver {
		t.Fatal("natural should end the round")
	}
	if r.Outcome.Kind != domain.OutcomeSuccess || r.Outcome.Message != "You have Blackjack! YOU WIN 100!" {
		t.Fatalf("outcome = %+v", r.Outcome)
	}
	if len(r.PlayerHand) != 2 || len(r.DealerHand) != 1 || r.DealerHand[0].Rank != "7" {
		t.Fatalf("hands = %v / %v", r.PlayerHand, r.DealerHand)
	}
	dealt := 0
	for _, ev := range evs {
		if ev.Kind == EventCardDealt {
			dealt++
		}
	}
	if dealt != 3 || !hasEvent(evs, EventRoundOver) {
		t.Fatalf("events = %+v", evs)
	}
}

func TestHit(t *testing.T) {
	tests := []struct {
		name string
		deck []string
		over bool
		kind domain.OutcomeKind
	}{
		{"continue", []string{"9", "5", "7", "2"}, false, domain.OutcomeNone},
		{"twenty one", []string{"9", "5", "7", "7"}, true, domain.OutcomeSuccess},
		{"bust", []string{"9", "5", "7", "K"}, true, domain.OutcomeDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := stackedService()
			r := svc.NewRound(100, nil)
			_, _ = svc.PlaceBet(r, 10)
			r.Deck = stack(tt.deck...)
			_, _ = svc.Deal(r)

			if _, err := svc.Hit(r); err != nil {
				t.Fatalf("hit: %v", err)
			}
			if r.IsGameOver != tt.over || r.Outcome.Kind != tt.kind {
				t.Fatalf("over=%v outcome=%+v", r.IsGameOver, r.Outcome)
			}
		})
	}
}

func TestHitRequiresInPlay(t *testing.T) {
	svc := stackedService()
	r := svc.NewRound(100, nil)
	if _, err := svc.Hit(r); !errors.Is(err, ErrNotInPlay) {
		t.Fatalf("err = %v, want ErrNotInPlay", err)
	}
	if _, err := svc.Stand(r); !errors.Is(err, ErrNotInPlay) {
		t.Fatalf("err = %v, want ErrNotInPlay", err)
	}
}

func TestStandDealerPolicy(t *testing.T) {
	tests := []struct {
		name        string
		deck        []string
		dealerCards int
		outcome     domain.Outcome
	}{
		{"dealer draws to bust", []string{"10", "8", "9", "6", "10"}, 3, domain.Outcome{Message: "Dealer went over 21! YOU WIN 20!", Kind: domain.OutcomeSuccess}},
		{"dealer stops on 17", []string{"10", "8", "10", "7", "5"}, 2, domain.Outcome{Message: "YOU WIN 20!", Kind: domain.OutcomeSuccess}},
		{"dealer higher", []string{"10", "7", "10", "9"}, 2, domain.Outcome{Message: "Dealer wins! YOU LOSE!", Kind: domain.OutcomeDanger}},
		{"push", []string{"10", "8", "9", "9"}, 2, domain.Outcome{Message: "It's a tie! Your bet RETURNS!", Kind: domain.OutcomeWarning}},
		{"soft seventeen stands", []string{"10", "9", "A", "6", "5"}, 2, domain.Outcome{Message: "YOU WIN 20!", Kind: domain.OutcomeSuccess}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := stackedService()
			r := svc.NewRound(100, nil)
			_, _ = svc.PlaceBet(r, 10)
			r.Deck = stack(tt.deck...)
			_, _ = svc.Deal(r)

			if _, err := svc.Stand(r); err != nil {
				t.Fatalf("stand: %v", err)
			}
			if !r.HasStood || r.Phase != domain.PhaseRoundOver {
				t.Fatalf("phase = %s", r.Phase)
			}
			if len(r.DealerHand) != tt.dealerCards {
				t.Fatalf("dealer hand = %v", r.DealerHand)
			}
			if r.Outcome != tt.outcome {
				t.Fatalf("outcome = %+v, want %+v", r.Outcome, tt.outcome)
			}
		})
	}
}

func TestDeckExhaustionEndsRoundAsLoss(t *testing.T) {
	svc := stackedService()
	r := svc.NewRound(100, nil)
	_, _ = svc.PlaceBet(r, 10)
	r.Deck = stack("2", "3", "4")
	_, _ = svc.Deal(r)

	evs, err := svc.Hit(r)
	if err != nil {
		t.Fatalf("hit on empty deck returned error: %v", err)
	}
	if !r.IsGameOver || r.Outcome != domain.DeckExhaustedOutcome() {
		t.Fatalf("outcome = %+v", r.Outcome)
	}
	if !hasEvent(evs, EventRoundOver) {
		t.Fatal("expected round over event")
	}
}

func TestSeededRoundsAreDeterministic(t *testing.T) {
	play := func() (domain.Hand, domain.Hand, domain.Outcome) {
		svc := NewService(rand.New(rand.NewSource(42)))
		r := svc.NewRound(100, nil)
		_, _ = svc.PlaceBet(r, 25)
		_, _ = svc.Deal(r)
		if !r.IsGameOver {
			_, _ = svc.Hit(r)
		}
		if !r.IsGameOver {
			_, _ = svc.Stand(r)
		}
		return r.PlayerHand, r.DealerHand, r.Outcome
	}

	p1, d1, o1 := play()
	p2, d2, o2 := play()
	if !reflect.DeepEqual(p1, p2) || !reflect.DeepEqual(d1, d2) || o1 != o2 {
		t.Fatalf("runs differ: %v/%v/%+v vs %v/%v/%+v", p1, d1, o1, p2, d2, o2)
	}
}

func TestSettle(t *testing.T) {
	scenario := domain.Scenario{ID: "s", StartingAmount: 100, EndWithAmount: 150, TimeLimit: domain.IntPtr(30)}
	tests := []struct {
		name      string
		round     domain.Round
		next      int
		failed    bool
		completed bool
	}{
		{"win reaches target", domain.Round{Bankroll: 50, CurrentBet: 50, Outcome: domain.Outcome{Kind: domain.OutcomeSuccess}}, 150, false, true},
		{"push", domain.Round{Bankroll: 50, CurrentBet: 50, Outcome: domain.Outcome{Kind: domain.OutcomeWarning}}, 100, false, false},
		{"plain loss", domain.Round{Bankroll: 50, CurrentBet: 50, Outcome: domain.Outcome{Kind: domain.OutcomeDanger}}, 50, false, false},
		{"broke", domain.Round{Bankroll: 0, CurrentBet: 100, Outcome: domain.Outcome{Kind: domain.OutcomeDanger}}, 100, true, false},
		{"timed out", domain.Round{Bankroll: 90, CurrentBet: 10, TimeRemaining: domain.IntPtr(0)}, 100, true, false},
	}
	svc := stackedService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.round
			got := svc.Settle(&r, scenario)
			if got.NextBankroll != tt.next || got.LevelFailed != tt.failed || got.LevelCompleted != tt.completed {
				t.Fatalf("settle = %+v", got)
			}
		})
	}
}
