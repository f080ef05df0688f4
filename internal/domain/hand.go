package domain

// Blackjack is the target total.
const Blackjack = 21

// DealerStandsOn is the total at which the dealer stops drawing.
const DealerStandsOn = 17

// Hand is an ordered sequence of cards. Order only matters for display.
type Hand []Card

// HandValue computes the best blackjack total: the highest total <= 21
// reachable by promoting aces from 1 to 11, else the minimal total.
func HandValue(cards []Card) int {
	total := 0
	soft := 0
	for _, c := range cards {
		total += c.ValueMin
		if c.IsSoft() {
			soft++
		}
	}
	for soft > 0 && total+10 <= Blackjack {
		total += 10
		soft--
	}
	return total
}

// Value is HandValue of the hand.
func (h Hand) Value() int { return HandValue(h) }

// IsBust reports whether the hand exceeds 21.
func (h Hand) IsBust() bool { return h.Value() > Blackjack }

// DealerShouldDraw reports whether the dealer policy requires another card.
func DealerShouldDraw(cards []Card) bool {
	return HandValue(cards) < DealerStandsOn
}
