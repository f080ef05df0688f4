package app

import (
	"math/rand"
	"time"

	"blackjack/internal/domain"
)

// zeroSource makes every Intn return 0, so draws take the top of a stacked deck.
// Never use it with rand.Shuffle on more than two elements.
type zeroSource struct{}

func (zeroSource) Int63() int64    { return 0 }
func (zeroSource) Seed(seed int64) {}

func stackedService() *Service {
	svc := NewService(rand.New(zeroSource{}))
	n := 0
	svc.newID = func() string {
		n++
		return "round-" + string(rune('a'+n-1))
	}
	return svc
}

func stack(ranks ...string) domain.Deck {
	deck := make(domain.Deck, len(ranks))
	for i, r := range ranks {
		deck[i] = domain.NewCard(r, "♥")
	}
	return deck
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}
