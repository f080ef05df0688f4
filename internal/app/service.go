package app

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"blackjack/internal/domain"
)

// Service contains the round use-cases operating on domain state.
type Service struct {
	rng   *rand.Rand
	newID func() string
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, newID: uuid.NewString}
}

// NewRound creates a fresh round awaiting a bet with a new identity.
func (s *Service) NewRound(bankroll int, timeRemaining *int) *domain.Round {
	return domain.NewRound(s.newID(), bankroll, timeRemaining)
}

// PlaceBet moves one chip from the bankroll into the bet zone.
func (s *Service) PlaceBet(r *domain.Round, denomination int) ([]Event, error) {
	if r.Phase != domain.PhaseAwaitingBet || r.IsAllIn {
		return nil, ErrBetLocked
	}
	if !domain.IsDenomination(denomination) {
		return nil, ErrUnknownDenomination
	}
	if denomination > r.Bankroll {
		return nil, ErrInsufficientBankroll
	}

	r.Bankroll -= denomination
	r.CurrentBet += denomination
	r.ChipsInBetZone[denomination]++
	return []Event{betChanged(r)}, nil
}

// ClearBet returns the whole bet to the bankroll.
func (s *Service) ClearBet(r *domain.Round) ([]Event, error) {
	if r.Phase != domain.PhaseAwaitingBet {
		return nil, ErrBetLocked
	}

	r.Bankroll += r.CurrentBet
	r.CurrentBet = 0
	r.ChipsInBetZone = map[int]int{}
	r.IsAllIn = false
	return []Event{betChanged(r)}, nil
}

// GoAllIn adds the entire bankroll to the bet as its chip decomposition.
func (s *Service) GoAllIn(r *domain.Round) ([]Event, error) {
	if r.Phase != domain.PhaseAwaitingBet || r.IsAllIn {
		return nil, ErrBetLocked
	}
	if r.Bankroll <= 0 {
		return nil, ErrEmptyBankroll
	}

	amount := r.Bankroll
	for _, chip := range domain.Decompose(amount) {
		r.ChipsInBetZone[chip]++
	}
	r.CurrentBet += amount
	r.Bankroll = 0
	r.IsAllIn = true
	return []Event{betChanged(r)}, nil
}

// Deal locks the bet and deals two cards to the player and one to the dealer.
// A natural ends the round immediately.
func (s *Service) Deal(r *domain.Round) ([]Event, error) {
	if r.Phase != domain.PhaseAwaitingBet {
		return nil, ErrBetLocked
	}
	if r.CurrentBet <= 0 {
		return nil, ErrNoBet
	}

	r.IsBetPlaced = true
	r.Phase = domain.PhaseInPlay

	events := make([]Event, 0, 4)
	for _, seat := range []string{SeatPlayer, SeatPlayer, SeatDealer} {
		ev, err := s.dealTo(r, seat)
		if err != nil {
			return append(events, s.finish(r, domain.DeckExhaustedOutcome())), nil
		}
		events = append(events, ev)
	}

	if out, done := domain.NaturalOutcome(r.PlayerHand, r.DealerHand, r.CurrentBet); done {
		events = append(events, s.finish(r, out))
	}
	return events, nil
}

// Hit draws one card for the player. Bust loses and 21 wins on the spot.
func (s *Service) Hit(r *domain.Round) ([]Event, error) {
	if r.Phase != domain.PhaseInPlay {
		return nil, ErrNotInPlay
	}

	ev, err := s.dealTo(r, SeatPlayer)
	if err != nil {
		return []Event{s.finish(r, domain.DeckExhaustedOutcome())}, nil
	}
	events := []Event{ev}
	if out, done := domain.HitOutcome(r.PlayerHand, r.CurrentBet); done {
		events = append(events, s.finish(r, out))
	}
	return events, nil
}

// Stand hands play to the dealer, who draws below 17, then settles the showdown.
func (s *Service) Stand(r *domain.Round) ([]Event, error) {
	if r.Phase != domain.PhaseInPlay {
		return nil, ErrNotInPlay
	}

	r.HasStood = true
	r.Phase = domain.PhaseDealerTurn

	var events []Event
	for domain.DealerShouldDraw(r.DealerHand) {
		ev, err := s.dealTo(r, SeatDealer)
		if err != nil {
			return append(events, s.finish(r, domain.DeckExhaustedOutcome())), nil
		}
		events = append(events, ev)
	}
	return append(events, s.finish(r, domain.ShowdownOutcome(r.PlayerHand, r.DealerHand, r.CurrentBet))), nil
}

// Settlement is the bankroll consequence of a finished (or timed out) round.
type Settlement struct {
	Outcome        domain.Outcome
	NextBankroll   int
	LevelFailed    bool
	LevelCompleted bool
}

// Settle computes what the next round starts with. A level failure restores
// the scenario's starting amount; reaching the target completes the level.
func (s *Service) Settle(r *domain.Round, scenario domain.Scenario) Settlement {
	next, failed := domain.SettleBankroll(r.Outcome.Kind, r.Bankroll, r.CurrentBet, r.TimedOut())
	if failed {
		next = scenario.StartingAmount
	}
	return Settlement{
		Outcome:        r.Outcome,
		NextBankroll:   next,
		LevelFailed:    failed,
		LevelCompleted: next >= scenario.EndWithAmount,
	}
}

func (s *Service) dealTo(r *domain.Round, seat string) (Event, error) {
	card, rest, err := r.Deck.Draw(s.rng)
	if err != nil {
		return Event{}, err
	}
	r.Deck = rest

	var value int
	if seat == SeatDealer {
		r.DealerHand = append(r.DealerHand, card)
		value = r.DealerHand.Value()
	} else {
		r.PlayerHand = append(r.PlayerHand, card)
		value = r.PlayerHand.Value()
	}
	return Event{
		Kind:    EventCardDealt,
		Payload: CardDealtPayload{Seat: seat, Card: card, HandValue: value},
	}, nil
}

func (s *Service) finish(r *domain.Round, out domain.Outcome) Event {
	r.IsGameOver = true
	r.Phase = domain.PhaseRoundOver
	r.Outcome = out
	return Event{
		Kind: EventRoundOver,
		Payload: RoundOverPayload{
			Outcome:     out,
			PlayerValue: r.PlayerHand.Value(),
			DealerValue: r.DealerHand.Value(),
		},
	}
}

func betChanged(r *domain.Round) Event {
	chips := make(map[int]int, len(r.ChipsInBetZone))
	for k, v := range r.ChipsInBetZone {
		chips[k] = v
	}
	return Event{
		Kind: EventBetChanged,
		Payload: BetChangedPayload{
			Bankroll:       r.Bankroll,
			CurrentBet:     r.CurrentBet,
			ChipsInBetZone: chips,
			IsAllIn:        r.IsAllIn,
		},
	}
}
