package app

import "errors"

// Precondition failures. A command returning one of these changed nothing.
var (
	ErrBetLocked            = errors.New("bet can no longer be changed this round")
	ErrInsufficientBankroll = errors.New("chip value exceeds bankroll")
	ErrUnknownDenomination  = errors.New("unknown chip denomination")
	ErrEmptyBankroll        = errors.New("bankroll is empty")
	ErrNoBet                = errors.New("no bet placed")
	ErrNotInPlay            = errors.New("round is not in play")
	ErrRoundNotOver         = errors.New("round is not over")
	ErrNoScenarios          = errors.New("no blackjack scenarios available")
)

// IsPrecondition reports whether err is a rejected command rather than a fault.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrBetLocked, ErrInsufficientBankroll, ErrUnknownDenomination,
		ErrEmptyBankroll, ErrNoBet, ErrNotInPlay, ErrRoundNotOver,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
