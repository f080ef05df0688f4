package domain

import "fmt"

// Payout returns what a winning bet pays back: the stake plus an equal win.
func Payout(bet int) int { return bet * 2 }

// NaturalOutcome reports the outcome right after the initial deal, if the
// round ends there. A player 21 wins; a dealer 21 loses. The dealer starts
// with a single card, so the dealer branch only fires for larger dealer hands.
func NaturalOutcome(player, dealer []Card, bet int) (Outcome, bool) {
	if HandValue(player) == Blackjack {
		return Outcome{Message: fmt.Sprintf("You have Blackjack! YOU WIN %d!", Payout(bet)), Kind: OutcomeSuccess}, true
	}
	if HandValue(dealer) == Blackjack {
		return Outcome{Message: "Dealer has Blackjack! YOU LOSE!", Kind: OutcomeDanger}, true
	}
	return Outcome{}, false
}

// HitOutcome reports whether a hit ended the round.
func HitOutcome(player []Card, bet int) (Outcome, bool) {
	switch v := HandValue(player); {
	case v > Blackjack:
		return Outcome{Message: "You went over 21! YOU LOSE!", Kind: OutcomeDanger}, true
	case v == Blackjack:
		return Outcome{Message: fmt.Sprintf("You have Blackjack! YOU WIN %d!", Payout(bet)), Kind: OutcomeSuccess}, true
	}
	return Outcome{}, false
}

// ShowdownOutcome compares totals after the dealer has stopped drawing.
func ShowdownOutcome(player, dealer []Card, bet int) Outcome {
	pv := HandValue(player)
	dv := HandValue(dealer)
	switch {
	case dv > Blackjack:
		return Outcome{Message: fmt.Sprintf("Dealer went over 21! YOU WIN %d!", Payout(bet)), Kind: OutcomeSuccess}
	case dv > pv:
		return Outcome{Message: "Dealer wins! YOU LOSE!", Kind: OutcomeDanger}
	case dv < pv:
		return Outcome{Message: fmt.Sprintf("YOU WIN %d!", Payout(bet)), Kind: OutcomeSuccess}
	default:
		return Outcome{Message: "It's a tie! Your bet RETURNS!", Kind: OutcomeWarning}
	}
}

// DeckExhaustedOutcome is the loss recorded when the deck runs dry mid-round.
func DeckExhaustedOutcome() Outcome {
	return Outcome{Message: "The deck ran out of cards! YOU LOSE!", Kind: OutcomeDanger}
}

// SettleBankroll computes the bankroll for the next round from a finished
// one. levelFailed is true when a loss left the player broke or out of time.
func SettleBankroll(kind OutcomeKind, bankroll, bet int, timedOut bool) (next int, levelFailed bool) {
	switch kind {
	case OutcomeSuccess:
		return bankroll + Payout(bet), false
	case OutcomeWarning:
		return bankroll + bet, false
	}
	if bankroll == 0 || timedOut {
		return bankroll, true
	}
	return bankroll, false
}
