package domain

// Phase is the lifecycle stage of a round.
type Phase string

const (
	// PhaseAwaitingBet accepts chip placement, clearing and all-in.
	PhaseAwaitingBet Phase = "awaiting_bet"
	// PhaseInPlay accepts hit and stand.
	PhaseInPlay Phase = "in_play"
	// PhaseDealerTurn is transient while the dealer draws.
	PhaseDealerTurn Phase = "dealer_turn"
	// PhaseRoundOver holds a fixed outcome until a new game starts.
	PhaseRoundOver Phase = "round_over"
)

// OutcomeKind classifies a round result.
type OutcomeKind string

const (
	OutcomeNone    OutcomeKind = ""
	OutcomeSuccess OutcomeKind = "success"
	OutcomeDanger  OutcomeKind = "danger"
	OutcomeWarning OutcomeKind = "warning"
)

// Outcome is the terminal result shown to the player.
type Outcome struct {
	Message string      `json:"message"`
	Kind    OutcomeKind `json:"kind"`
}

// Round is the state of one round within a scenario attempt.
type Round struct {
	ID             string
	Phase          Phase
	Bankroll       int
	CurrentBet     int
	ChipsInBetZone map[int]int
	IsAllIn        bool
	Deck           Deck
	PlayerHand     Hand
	DealerHand     Hand
	IsBetPlaced    bool
	IsGameOver     bool
	HasStood       bool
	Outcome        Outcome
	TimeRemaining  *int
}

// NewRound returns a fresh round awaiting a bet.
func NewRound(id string, bankroll int, timeRemaining *int) *Round {
	return &Round{
		ID:             id,
		Phase:          PhaseAwaitingBet,
		Bankroll:       bankroll,
		ChipsInBetZone: map[int]int{},
		Deck:           NewDeck(),
		PlayerHand:     Hand{},
		DealerHand:     Hand{},
		TimeRemaining:  copyInt(timeRemaining),
	}
}

// Committed is bankroll plus the chips on the table.
func (r *Round) Committed() int { return r.Bankroll + r.CurrentBet }

// TimedOut reports whether a running countdown has reached zero.
func (r *Round) TimedOut() bool {
	return r.TimeRemaining != nil && *r.TimeRemaining == 0
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
