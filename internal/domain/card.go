package domain

import "strconv"

// Suits in deck-construction order.
var Suits = []string{"♠", "♥", "♦", "♣"}

// Ranks in deck-construction order.
var Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Card is a single immutable playing card with its blackjack value range.
type Card struct {
	Rank     string `json:"rank"`
	Suit     string `json:"suit"`
	ValueMin int    `json:"valueMin"`
	ValueMax int    `json:"valueMax"`
}

// CardValue returns the low and high value of a rank. Aces count 1 or 11,
// faces 10, numerals their face value. Unknown ranks are worth 0.
func CardValue(rank string) (min, max int) {
	switch rank {
	case "A":
		return 1, 11
	case "J", "Q", "K":
		return 10, 10
	}
	n, err := strconv.Atoi(rank)
	if err != nil || n < 2 || n > 10 {
		return 0, 0
	}
	return n, n
}

// NewCard builds a card for the given rank and suit.
func NewCard(rank, suit string) Card {
	min, max := CardValue(rank)
	return Card{Rank: rank, Suit: suit, ValueMin: min, ValueMax: max}
}

// IsSoft reports whether the card can be promoted (an ace).
func (c Card) IsSoft() bool { return c.ValueMax > c.ValueMin }

func (c Card) String() string { return c.Rank + c.Suit }
