package horse_racing

import (
	"fmt"
	"time"
)

// Phase is where a race sits in its lifecycle.
type Phase string

const (
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhaseRacing            Phase = "racing"
	PhaseFinished          Phase = "finished"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTrackLength         = 800.0
	DefaultStartingMoney int64 = 1000
	DefaultMinBet        int64 = 10
	DefaultBet           int64 = 50
)

// Options configures a new Race.
type Options struct {
	Roster        []HorseSpec
	TrackLength   float64
	StartingMoney int64
	MinBet        int64
	DefaultBet    int64
	RNG           RNG
	Presenter     Presenter
	Clock         func() time.Time
}

// Race is the controller for one bettor: it owns the roster, the balance and the
// wager, and drives a race tick by tick. A Race is not safe for concurrent use;
// callers that share one across goroutines must serialize access.
type Race struct {
	horses        []*Horse
	trackLength   float64
	startingMoney int64
	minBet        int64

	money         int64
	selected      *Horse
	bet           int64
	finishOrder   []*Horse
	phase         Phase
	raceNumber    int
	ticks         int
	settlement    *Settlement
	bankrollReset bool

	rng       RNG
	presenter Presenter
	now       func() time.Time
}

// NewRace builds a race awaiting selection with the starting balance.
func NewRace(opts Options) (*Race, error) {
	roster := opts.Roster
	if roster == nil {
		roster = DefaultRoster()
	}
	if err := ValidateRoster(roster); err != nil {
		return nil, err
	}
	if opts.TrackLength == 0 {
		opts.TrackLength = DefaultTrackLength
	}
	if opts.TrackLength < 0 {
		return nil, fmt.Errorf("track length must be positive, got %v", opts.TrackLength)
	}
	if opts.MinBet == 0 {
		opts.MinBet = DefaultMinBet
	}
	if opts.MinBet < 0 {
		return nil, fmt.Errorf("minimum bet must be positive, got %d", opts.MinBet)
	}
	if opts.StartingMoney == 0 {
		opts.StartingMoney = DefaultStartingMoney
	}
	if opts.StartingMoney < opts.MinBet {
		return nil, fmt.Errorf("starting money %d is below the minimum bet %d", opts.StartingMoney, opts.MinBet)
	}
	if opts.DefaultBet == 0 {
		opts.DefaultBet = DefaultBet
	}
	if opts.RNG == nil {
		opts.RNG = NewRandomRNG()
	}
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	horses := make([]*Horse, 0, len(roster))
	for i, spec := range roster {
		horses = append(horses, NewHorse(i, spec.Name, spec.Color, spec.Odds))
	}

	return &Race{
		horses:        horses,
		trackLength:   opts.TrackLength,
		startingMoney: opts.StartingMoney,
		minBet:        opts.MinBet,
		money:         opts.StartingMoney,
		bet:           opts.DefaultBet,
		phase:         PhaseAwaitingSelection,
		raceNumber:    1,
		rng:           opts.RNG,
		presenter:     opts.Presenter,
		now:           opts.Clock,
	}, nil
}

// SetPresenter swaps the display sink.
func (r *Race) SetPresenter(p Presenter) {
	if p == nil {
		p = NopPresenter{}
	}
	r.presenter = p
}

// SetBalance replaces the balance, for example with one loaded from storage.
// A balance below the minimum bet marks a bankroll reset as pending.
func (r *Race) SetBalance(money int64) error {
	if r.phase == PhaseRacing {
		return ErrRaceInProgress
	}
	if money < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBalance, money)
	}
	r.money = money
	r.bankrollReset = money < r.minBet
	return nil
}

// SelectHorse picks the horse the bettor backs.
func (r *Race) SelectHorse(id int) error {
	if err := r.checkAwaiting(); err != nil {
		return err
	}
	h := r.horse(id)
	if h == nil {
		return fmt.Errorf("%w: %d", ErrUnknownHorse, id)
	}
	r.selected = h
	return nil
}

// SetBet records the wager. It is validated when the race starts.
func (r *Race) SetBet(amount int64) error {
	if err := r.checkAwaiting(); err != nil {
		return err
	}
	r.bet = amount
	return nil
}

// StartRace validates the wager, takes the stake and puts every horse at the gate.
// A rejected start changes nothing.
func (r *Race) StartRace() error {
	if err := r.checkAwaiting(); err != nil {
		return err
	}
	if r.selected == nil {
		return ErrNoHorseSelected
	}
	if r.bet > r.money {
		return fmt.Errorf("%w: bet %d, balance %d", ErrInsufficientFunds, r.bet, r.money)
	}
	if r.bet < r.minBet {
		return fmt.Errorf("%w: bet %d, minimum %d", ErrBetBelowMinimum, r.bet, r.minBet)
	}

	r.money -= r.bet
	for _, h := range r.horses {
		h.Reset()
	}
	r.finishOrder = make([]*Horse, 0, len(r.horses))
	r.settlement = nil
	r.ticks = 0
	r.phase = PhaseRacing

	r.presenter.ShowPhase(r.phase)
	r.presenter.ShowRoster(r.Horses())
	return nil
}

// Tick advances the race by one step and reports whether it is over.
// It does nothing unless the race is running.
func (r *Race) Tick() bool {
	if r.phase != PhaseRacing {
		return r.phase == PhaseFinished
	}
	r.ticks++
	now := r.now()
	// horses are kept in ascending id order, which is also the tie-break
	for _, h := range r.horses {
		if h.Finished {
			continue
		}
		h.Update(r.rng)
		if h.Position >= r.trackLength {
			h.Finished = true
			h.FinishTime = now
			r.finishOrder = append(r.finishOrder, h)
		}
	}
	r.presenter.ShowRoster(r.Horses())

	if len(r.finishOrder) < len(r.horses) {
		return false
	}
	r.phase = PhaseFinished
	s := r.settle()
	r.presenter.ShowPhase(r.phase)
	r.presenter.ShowSettlement(s)
	return true
}

func (r *Race) settle() Settlement {
	winner := r.finishOrder[0]
	s := Settlement{
		RaceNumber: r.raceNumber,
		Outcome:    OutcomeLoss,
		Winner:     winner.View(),
		Selected:   r.selected.View(),
		Bet:        r.bet,
		Standings:  r.FinishOrder(),
		Ticks:      r.ticks,
	}
	if winner.ID == r.selected.ID {
		s.Outcome = OutcomeWin
		s.Winnings = Winnings(r.bet, r.selected.Odds)
		r.money += r.bet + s.Winnings
	}
	s.Money = r.money
	if r.money < r.minBet {
		r.bankrollReset = true
		s.BankrollReset = true
	}
	r.settlement = &s
	return s
}

// RestoreBankroll refills the balance to the starting amount when a bankroll
// reset is pending. It returns the balance and whether a reset happened.
func (r *Race) RestoreBankroll() (int64, bool) {
	if !r.bankrollReset {
		return r.money, false
	}
	r.money = r.startingMoney
	r.bankrollReset = false
	return r.money, true
}

// BankrollResetPending reports whether the balance fell below the minimum bet
// and has not been restored yet.
func (r *Race) BankrollResetPending() bool {
	return r.bankrollReset
}

// NextRace clears the selection, redraws every horse's odds and returns to
// awaiting selection.
func (r *Race) NextRace() error {
	if r.phase != PhaseFinished {
		return ErrRaceNotOver
	}
	r.selected = nil
	for _, h := range r.horses {
		h.Odds = RandomOdds(r.rng)
	}
	r.settlement = nil
	r.raceNumber++
	r.phase = PhaseAwaitingSelection

	r.presenter.ShowPhase(r.phase)
	r.presenter.ShowRoster(r.Horses())
	return nil
}

func (r *Race) checkAwaiting() error {
	switch r.phase {
	case PhaseRacing:
		return ErrRaceInProgress
	case PhaseFinished:
		return ErrRaceNotReady
	}
	return nil
}

func (r *Race) horse(id int) *Horse {
	for _, h := range r.horses {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// Horses returns the roster in lane order.
func (r *Race) Horses() []HorseView {
	views := make([]HorseView, 0, len(r.horses))
	for _, h := range r.horses {
		views = append(views, h.View())
	}
	return views
}

// FinishOrder returns the horses that have crossed the line, first place first.
func (r *Race) FinishOrder() []HorseView {
	views := make([]HorseView, 0, len(r.finishOrder))
	for _, h := range r.finishOrder {
		views = append(views, h.View())
	}
	return views
}

// Selected returns the backed horse, if any.
func (r *Race) Selected() (HorseView, bool) {
	if r.selected == nil {
		return HorseView{}, false
	}
	return r.selected.View(), true
}

// Settlement returns the result of the last race while it is finished.
func (r *Race) Settlement() (Settlement, bool) {
	if r.settlement == nil {
		return Settlement{}, false
	}
	return *r.settlement, true
}

func (r *Race) Phase() Phase { return r.phase }
func (r *Race) Money() int64 { return r.money }
func (r *Race) Bet() int64 { return r.bet }
func (r *Race) MinBet() int64 { return r.minBet }
func (r *Race) StartingMoney() int64 { return r.startingMoney }
func (r *Race) RaceNumber() int { return r.raceNumber }
func (r *Race) Ticks() int { return r.ticks }
func (r *Race) TrackLength() float64 { return r.trackLength }

// Snapshot is a serializable view of the whole controller.
type Snapshot struct {
	RaceNumber  int         `json:"race_number"`
	Phase       Phase       `json:"phase"`
	Money       int64       `json:"money"`
	Bet         int64       `json:"bet"`
	SelectedID  *int        `json:"selected_id,omitempty"`
	TrackLength float64     `json:"track_length"`
	Ticks       int         `json:"ticks"`
	Horses      []HorseView `json:"horses"`
	FinishOrder []int       `json:"finish_order"`
}

// Snapshot captures the current state.
func (r *Race) Snapshot() Snapshot {
	snap := Snapshot{
		RaceNumber:  r.raceNumber,
		Phase:       r.phase,
		Money:       r.money,
		Bet:         r.bet,
		TrackLength: r.trackLength,
		Ticks:       r.ticks,
		Horses:      r.Horses(),
		FinishOrder: make([]int, 0, len(r.finishOrder)),
	}
	if r.selected != nil {
		id := r.selected.ID
		snap.SelectedID = &id
	}
	for _, h := range r.finishOrder {
		snap.FinishOrder = append(snap.FinishOrder, h.ID)
	}
	return snap
}
