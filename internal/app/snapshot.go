package app

import "blackjack/internal/domain"

// Snapshot is the renderer-facing view of the session.
type Snapshot struct {
	RoundID         string          `json:"roundId"`
	Phase           domain.Phase    `json:"phase"`
	Bankroll        int             `json:"bankroll"`
	CurrentBet      int             `json:"currentBet"`
	ChipsInBetZone  map[int]int     `json:"chipsInBetZone"`
	TrayChips       []int           `json:"trayChips"`
	IsAllIn         bool            `json:"isAllIn"`
	IsBetPlaced     bool            `json:"isBetPlaced"`
	IsGameOver      bool            `json:"isGameOver"`
	HasStood        bool            `json:"hasStood"`
	PlayerHand      []domain.Card   `json:"playerHand"`
	DealerHand      []domain.Card   `json:"dealerHand"`
	PlayerValue     int             `json:"playerValue"`
	DealerValue     int             `json:"dealerValue"`
	Outcome         domain.Outcome  `json:"outcome"`
	TimeRemaining   *int            `json:"timeRemaining"`
	DeckRemaining   int             `json:"deckRemaining"`
	Scenario        domain.Scenario `json:"scenario"`
	Header          string          `json:"header"`
	LevelIndex      int             `json:"levelIndex"`
	LevelCount      int             `json:"levelCount"`
	AllLevelsBeaten bool            `json:"allLevelsBeaten"`
	Distraction     DistractionView `json:"distraction"`
	MenuOpen        bool            `json:"menuOpen"`
	Intro           *IntroView      `json:"intro,omitempty"`
}

// DistractionView describes the distraction overlay.
type DistractionView struct {
	Showing bool `json:"showing"`
	Count   int  `json:"count"`
}

// IntroView carries the first-run message while it is pending.
type IntroView struct {
	Message string `json:"message"`
}

// Snapshot builds the current view. Derived values are computed on every call.
func (s *Session) Snapshot() Snapshot {
	r := s.round
	chips := make(map[int]int, len(r.ChipsInBetZone))
	for k, v := range r.ChipsInBetZone {
		chips[k] = v
	}
	snap := Snapshot{
		RoundID:         r.ID,
		Phase:           r.Phase,
		Bankroll:        r.Bankroll,
		CurrentBet:      r.CurrentBet,
		ChipsInBetZone:  chips,
		TrayChips:       domain.TrayChips(r.Bankroll),
		IsAllIn:         r.IsAllIn,
		IsBetPlaced:     r.IsBetPlaced,
		IsGameOver:      r.IsGameOver,
		HasStood:        r.HasStood,
		PlayerHand:      append([]domain.Card{}, r.PlayerHand...),
		DealerHand:      append([]domain.Card{}, r.DealerHand...),
		PlayerValue:     r.PlayerHand.Value(),
		DealerValue:     r.DealerHand.Value(),
		Outcome:         r.Outcome,
		TimeRemaining:   copyTime(r.TimeRemaining),
		DeckRemaining:   r.Deck.Remaining(),
		Scenario:        s.campaign.Current(),
		Header:          s.campaign.Header(),
		LevelIndex:      s.campaign.Index(),
		LevelCount:      s.campaign.Len(),
		AllLevelsBeaten: s.campaign.AllLevelsBeaten(),
		Distraction:     DistractionView{Showing: s.distraction.showing, Count: s.distraction.count},
		MenuOpen:        s.menuOpen,
	}
	if s.introPending {
		snap.Intro = &IntroView{Message: IntroMessage}
	}
	return snap
}
