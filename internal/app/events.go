package app

import "blackjack/internal/domain"

// EventKind identifies emitted events for dispatch to the renderer.
type EventKind string

const (
	EventBetChanged           EventKind = "bet_changed"
	EventCardDealt            EventKind = "card_dealt"
	EventRoundOver            EventKind = "round_over"
	EventRoundStarted         EventKind = "round_started"
	EventTimerTicked          EventKind = "timer_ticked"
	EventLevelFailed          EventKind = "level_failed"
	EventLevelCompleted       EventKind = "level_completed"
	EventCampaignAdvanced     EventKind = "campaign_advanced"
	EventDistractionShown     EventKind = "distraction_shown"
	EventDistractionDismissed EventKind = "distraction_dismissed"
	EventMenuChanged          EventKind = "menu_changed"
	EventNotice               EventKind = "notice"
	EventIntroAcknowledged    EventKind = "intro_acknowledged"
	EventProgressReset        EventKind = "progress_reset"
)

// Event is an app event with a kind-specific payload.
type Event struct {
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload,omitempty"`
}

// Hand owners for CardDealtPayload.
const (
	SeatPlayer = "player"
	SeatDealer = "dealer"
)

type BetChangedPayload struct {
	Bankroll       int         `json:"bankroll"`
	CurrentBet     int         `json:"currentBet"`
	ChipsInBetZone map[int]int `json:"chipsInBetZone"`
	IsAllIn        bool        `json:"isAllIn"`
}

type CardDealtPayload struct {
	Seat      string      `json:"seat"`
	Card      domain.Card `json:"card"`
	HandValue int         `json:"handValue"`
}

type RoundOverPayload struct {
	Outcome     domain.Outcome `json:"outcome"`
	PlayerValue int            `json:"playerValue"`
	DealerValue int            `json:"dealerValue"`
}

type RoundStartedPayload struct {
	RoundID       string            `json:"roundId"`
	ScenarioID    domain.ScenarioID `json:"scenarioId"`
	Bankroll      int               `json:"bankroll"`
	TimeRemaining *int              `json:"timeRemaining"`
}

type TimerTickedPayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

type LevelFailedPayload struct {
	ScenarioID domain.ScenarioID `json:"scenarioId"`
	TimedOut   bool              `json:"timedOut"`
}

type LevelCompletedPayload struct {
	ScenarioID domain.ScenarioID `json:"scenarioId"`
	ElapsedMs  int64             `json:"elapsedMs"`
}

type CampaignAdvancedPayload struct {
	Index           int               `json:"index"`
	ScenarioID      domain.ScenarioID `json:"scenarioId"`
	AllLevelsBeaten bool              `json:"allLevelsBeaten"`
	Reshuffled      bool              `json:"reshuffled"`
}

type DistractionPayload struct {
	Count int `json:"count"`
}

type MenuChangedPayload struct {
	Open bool `json:"open"`
}

// NoticePayload is a transient message, shown briefly by the renderer.
type NoticePayload struct {
	Kind    domain.OutcomeKind `json:"kind"`
	Message string             `json:"message"`
}
