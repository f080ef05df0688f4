package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"blackjack/internal/domain"
	"blackjack/internal/records"
)

// Distraction timing for tiers that have them.
const (
	DistractionMinDelay = 2 * time.Second
	DistractionMaxDelay = 4 * time.Second
	DistractionChance   = 0.9
)

// Notice texts.
const (
	IntroMessage       = "Welcome to Blackjack! Beat the dealer by getting as close to 21 as possible without going over. For more info, check out the rules in the menu. Good luck!"
	LevelFailedMessage = "OOPS.... You FAILED! Resetting level..."
)

// SessionConfig wires a Session. Scenarios must already be filtered and
// validated. Rng and Now default to a time-seeded source and time.Now.
type SessionConfig struct {
	Scenarios  []domain.Scenario
	Repository *records.Repository
	Rng        *rand.Rand
	Now        func() time.Time
}

// Session is one player's game: the campaign, the active round and the
// scheduler driving its countdown and distractions. It is not safe for
// concurrent use; callers serialize commands.
type Session struct {
	catalogue []domain.Scenario
	repo      *records.Repository
	rng       *rand.Rand
	now       func() time.Time
	svc       *Service
	sched     *Scheduler

	campaign     *Campaign
	round        *domain.Round
	menuOpen     bool
	introPending bool
	distraction  distractionState

	levelStart   time.Time
	attemptStart time.Time
}

type distractionState struct {
	showing   bool
	count     int
	lastShown time.Time
}

// NewSession loads stored records and starts the current level.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if len(cfg.Scenarios) == 0 {
		return nil, ErrNoScenarios
	}
	if cfg.Repository == nil {
		return nil, fmt.Errorf("session requires a repository")
	}
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		catalogue: cfg.Scenarios,
		repo:      cfg.Repository,
		rng:       rng,
		now:       now,
		svc:       NewService(rng),
		sched:     NewScheduler(),
	}
	s.load(ctx)
	return s, nil
}

func (s *Session) load(ctx context.Context) {
	now := s.now()

	initial, campaign := restoreCampaign(ctx, s.repo, s.catalogue, s.rng)
	s.repo.SeedCampaignOrder(ctx, domain.ScenarioIDs(initial))
	s.campaign = campaign
	s.repo.SaveRun(ctx, s.campaign.Record(now))

	s.introPending = !s.repo.FirstRunSeen(ctx)
	s.menuOpen = false
	s.startLevel(now)
}

// restoreCampaign rebuilds the campaign from stored records. initial is the
// permanent order when it still matches the catalogue, else a fresh one.
func restoreCampaign(ctx context.Context, repo *records.Repository, catalogue []domain.Scenario, rng *rand.Rand) ([]domain.Scenario, *Campaign) {
	initial := InitialOrder(catalogue, rng)
	if permanent, ok := repo.LoadCampaignOrder(ctx); ok {
		if resolved, ok := domain.ResolveScenarios(permanent, catalogue); ok {
			initial = resolved
		}
	}
	run, hasRun := repo.LoadRun(ctx)
	return initial, HydrateCampaign(catalogue, initial, run, hasRun, rng)
}

// ReadProgress lists the stored progress of a player without writing
// anything. It serves readers that do not own a live session.
func ReadProgress(ctx context.Context, repo *records.Repository, catalogue []domain.Scenario, rng *rand.Rand) (Progress, error) {
	if len(catalogue) == 0 {
		return Progress{}, ErrNoScenarios
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	_, campaign := restoreCampaign(ctx, repo, catalogue, rng)
	permanent, _ := repo.LoadCampaignOrder(ctx)
	return campaign.Progress(permanent, repo.LoadStats(ctx)), nil
}

func (s *Session) startLevel(now time.Time) {
	scenario := s.campaign.Current()
	s.levelStart = now
	s.attemptStart = now
	s.distraction = distractionState{}
	s.sched.CancelAll()
	s.round = s.svc.NewRound(scenario.StartingAmount, scenario.TimeLimit)
	s.rearm(now)
}

// Scenario returns the active scenario.
func (s *Session) Scenario() domain.Scenario { return s.campaign.Current() }

// PlaceBet moves one chip of the given denomination into the bet zone.
func (s *Session) PlaceBet(ctx context.Context, denomination int) ([]Event, error) {
	return s.apply(func(r *domain.Round) ([]Event, error) { return s.svc.PlaceBet(r, denomination) })
}

// ClearBet returns the bet to the bankroll.
func (s *Session) ClearBet(ctx context.Context) ([]Event, error) {
	return s.apply(s.svc.ClearBet)
}

// GoAllIn bets the entire bankroll.
func (s *Session) GoAllIn(ctx context.Context) ([]Event, error) {
	return s.apply(s.svc.GoAllIn)
}

// Deal locks the bet and deals the opening cards.
func (s *Session) Deal(ctx context.Context) ([]Event, error) {
	return s.apply(s.svc.Deal)
}

// Hit draws a card for the player.
func (s *Session) Hit(ctx context.Context) ([]Event, error) {
	return s.apply(s.svc.Hit)
}

// Stand plays out the dealer and settles the round.
func (s *Session) Stand(ctx context.Context) ([]Event, error) {
	return s.apply(s.svc.Stand)
}

func (s *Session) apply(cmd func(*domain.Round) ([]Event, error)) ([]Event, error) {
	events, err := cmd(s.round)
	if err != nil {
		return nil, err
	}
	s.rearm(s.now())
	return events, nil
}

// StartNewGame settles a finished round and starts the next one.
func (s *Session) StartNewGame(ctx context.Context) ([]Event, error) {
	if !s.round.IsGameOver {
		return nil, ErrRoundNotOver
	}
	return s.restart(ctx, s.now()), nil
}

// restart settles the current round and replaces it. A level failure resets
// the bankroll and timer; reaching the target advances the campaign.
func (s *Session) restart(ctx context.Context, now time.Time) []Event {
	scenario := s.campaign.Current()
	settlement := s.svc.Settle(s.round, scenario)
	timeRemaining := s.round.TimeRemaining

	var events []Event
	if settlement.LevelFailed {
		s.repo.UpdateStats(ctx, func(st domain.Stats) domain.Stats {
			return domain.RecordResult(st, domain.OutcomeDanger, nil, s.attemptSeconds(now))
		})
		s.attemptStart = now
		timeRemaining = scenario.TimeLimit
		events = append(events,
			Event{Kind: EventLevelFailed, Payload: LevelFailedPayload{ScenarioID: scenario.ID, TimedOut: s.round.TimedOut()}},
			Event{Kind: EventNotice, Payload: NoticePayload{Kind: domain.OutcomeWarning, Message: LevelFailedMessage}},
		)
	}

	if settlement.LevelCompleted {
		elapsed := now.Sub(s.levelStart)
		s.repo.UpdateStats(ctx, func(st domain.Stats) domain.Stats {
			return domain.RecordResult(st, domain.OutcomeSuccess, &domain.LevelResult{
				ScenarioID: scenario.ID,
				ElapsedMs:  elapsed.Milliseconds(),
			}, s.attemptSeconds(now))
		})
		reshuffled := s.campaign.Advance()
		s.repo.SaveRun(ctx, s.campaign.Record(now))

		next := s.campaign.Current()
		events = append(events,
			Event{Kind: EventLevelCompleted, Payload: LevelCompletedPayload{ScenarioID: scenario.ID, ElapsedMs: elapsed.Milliseconds()}},
			Event{Kind: EventNotice, Payload: NoticePayload{
				Kind:    domain.OutcomeSuccess,
				Message: fmt.Sprintf("Congrats! You beat this level in %s. Proceeding to the next level!", domain.FormatElapsed(elapsed.Milliseconds())),
			}},
			Event{Kind: EventCampaignAdvanced, Payload: CampaignAdvancedPayload{
				Index:           s.campaign.Index(),
				ScenarioID:      next.ID,
				AllLevelsBeaten: s.campaign.AllLevelsBeaten(),
				Reshuffled:      reshuffled,
			}},
		)
		s.startLevel(now)
		return append(events, s.roundStarted())
	}

	s.sched.CancelAll()
	s.distraction = distractionState{lastShown: now}
	s.round = s.svc.NewRound(settlement.NextBankroll, timeRemaining)
	s.rearm(now)
	return append(events, s.roundStarted())
}

// Tick advances scheduled tasks to now. The countdown reaching zero fails
// the level at once.
func (s *Session) Tick(ctx context.Context, now time.Time) ([]Event, error) {
	var events []Event
	for _, task := range s.sched.Due(now, s.round.ID) {
		switch task.Kind {
		case TaskCountdown:
			if s.round.TimeRemaining == nil || *s.round.TimeRemaining <= 0 {
				continue
			}
			*s.round.TimeRemaining--
			events = append(events, Event{Kind: EventTimerTicked, Payload: TimerTickedPayload{TimeRemaining: *s.round.TimeRemaining}})
			if s.round.TimedOut() {
				return append(events, s.restart(ctx, now)...), nil
			}
			s.sched.Schedule(Task{Kind: TaskCountdown, RoundID: s.round.ID, Due: task.Due.Add(time.Second)})
		case TaskDistraction:
			if task.Appear && !s.distraction.showing && now.Sub(s.distraction.lastShown) > DistractionMinDelay {
				s.distraction.showing = true
				s.distraction.count++
				s.distraction.lastShown = now
				events = append(events, Event{Kind: EventDistractionShown, Payload: DistractionPayload{Count: s.distraction.count}})
			}
		}
	}
	s.rearm(now)
	return events, nil
}

// rearm reconciles pending tasks with the state. The countdown runs while a
// timed round is unfinished and the menu is closed. A distraction is armed
// once betting is locked in on a tier that has them and none is showing.
func (s *Session) rearm(now time.Time) {
	r := s.round
	wantCountdown := r.TimeRemaining != nil && *r.TimeRemaining > 0 && !r.IsGameOver && !s.menuOpen
	switch {
	case !wantCountdown:
		s.sched.Cancel(TaskCountdown)
	case !s.sched.Pending(TaskCountdown):
		s.sched.Schedule(Task{Kind: TaskCountdown, RoundID: r.ID, Due: now.Add(time.Second)})
	}

	wantDistraction := s.campaign.Current().Difficulty.HasDistractions() &&
		r.IsBetPlaced && !r.IsGameOver && !s.distraction.showing && !s.menuOpen
	switch {
	case !wantDistraction:
		s.sched.Cancel(TaskDistraction)
	case !s.sched.Pending(TaskDistraction):
		spread := float64(DistractionMaxDelay - DistractionMinDelay)
		delay := DistractionMinDelay + time.Duration(s.rng.Float64()*spread)
		s.sched.Schedule(Task{
			Kind:    TaskDistraction,
			RoundID: r.ID,
			Due:     now.Add(delay),
			Appear:  s.rng.Float64() < DistractionChance,
		})
	}
}

// SetMenuOpen pauses the countdown and distractions while the menu is open.
func (s *Session) SetMenuOpen(ctx context.Context, open bool) ([]Event, error) {
	if s.menuOpen == open {
		return nil, nil
	}
	s.menuOpen = open
	s.rearm(s.now())
	return []Event{{Kind: EventMenuChanged, Payload: MenuChangedPayload{Open: open}}}, nil
}

// DismissDistraction hides a showing distraction. It is a no-op otherwise.
func (s *Session) DismissDistraction(ctx context.Context) ([]Event, error) {
	if !s.distraction.showing {
		return nil, nil
	}
	s.distraction.showing = false
	s.rearm(s.now())
	return []Event{{Kind: EventDistractionDismissed, Payload: DistractionPayload{Count: s.distraction.count}}}, nil
}

// AcknowledgeIntro records that the first-run intro was seen.
func (s *Session) AcknowledgeIntro(ctx context.Context) ([]Event, error) {
	if !s.introPending {
		return nil, nil
	}
	s.repo.MarkFirstRunSeen(ctx)
	s.introPending = false
	return []Event{{Kind: EventIntroAcknowledged}}, nil
}

// ResetProgress deletes every record and starts over from a fresh campaign.
func (s *Session) ResetProgress(ctx context.Context) ([]Event, error) {
	s.repo.Reset(ctx)
	s.load(ctx)
	return []Event{{Kind: EventProgressReset}, s.roundStarted()}, nil
}

// IntroPending reports whether the first-run intro should be shown.
func (s *Session) IntroPending() bool { return s.introPending }

// Stats returns the stored statistics.
func (s *Session) Stats(ctx context.Context) domain.Stats { return s.repo.LoadStats(ctx) }

// Progress returns the level listing.
func (s *Session) Progress(ctx context.Context) Progress {
	permanent, _ := s.repo.LoadCampaignOrder(ctx)
	return s.campaign.Progress(permanent, s.repo.LoadStats(ctx))
}

func (s *Session) attemptSeconds(now time.Time) int64 {
	return int64(now.Sub(s.attemptStart) / time.Second)
}

func (s *Session) roundStarted() Event {
	return Event{Kind: EventRoundStarted, Payload: RoundStartedPayload{
		RoundID:       s.round.ID,
		ScenarioID:    s.campaign.Current().ID,
		Bankroll:      s.round.Bankroll,
		TimeRemaining: copyTime(s.round.TimeRemaining),
	}}
}

func copyTime(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
