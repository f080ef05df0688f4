package domain

import (
	"errors"
	"math/rand"
)

// ErrDeckExhausted is returned when drawing from an empty deck.
var ErrDeckExhausted = errors.New("deck exhausted")

// DeckSize is the number of cards in a fresh deck.
const DeckSize = 52

// Deck is an unordered multiset of cards; draws pick a uniformly random card.
type Deck []Card

// NewDeck returns all 52 rank x suit combinations. No shuffle is needed
// because Draw picks a random index.
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, NewCard(r, s))
		}
	}
	return deck
}

// Draw removes and returns a uniformly random card. The receiver is left
// untouched and the remaining cards are returned as a new deck.
func (d Deck) Draw(rng *rand.Rand) (Card, Deck, error) {
	if len(d) == 0 {
		return Card{}, d, ErrDeckExhausted
	}
	i := rng.Intn(len(d))
	card := d[i]

	rest := make(Deck, 0, len(d)-1)
	rest = append(rest, d[:i]...)
	rest = append(rest, d[i+1:]...)
	return card, rest, nil
}

// Remaining returns the number of cards left.
func (d Deck) Remaining() int { return len(d) }
