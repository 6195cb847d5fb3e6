// Package stats runs headless races in bulk and reports how the roster's
// odds compare with observed win rates.
package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"derby-go/games/horse_racing"

	"github.com/cheggaaa/pb/v3"
)

// RotateHorses backs each horse in turn instead of a single one.
const RotateHorses = -1

var (
	ErrNoRaces     = errors.New("races must be > 0")
	ErrInvalidBet  = errors.New("bet must be > 0")
	ErrInvalidPick = errors.New("horse id out of range")
)

// SimOptions configures a Monte Carlo run.
type SimOptions struct {
	Races       int
	Seed        int64
	Roster      []horse_racing.HorseSpec
	TrackLength float64
	Bet         int64
	// HorseID is the horse backed every race, or RotateHorses.
	HorseID    int
	Confidence float64
	// Progress receives the progress bar; nil hides it.
	Progress io.Writer
	// Presenter, if set, sees every race, for example to record a replay.
	Presenter horse_racing.Presenter
}

func (o *SimOptions) normalize() error {
	if o.Races < 1 {
		return ErrNoRaces
	}
	if o.Roster == nil {
		o.Roster = horse_racing.DefaultRoster()
	}
	if err := horse_racing.ValidateRoster(o.Roster); err != nil {
		return err
	}
	if o.Bet == 0 {
		o.Bet = horse_racing.DefaultBet
	}
	if o.Bet < 0 {
		return ErrInvalidBet
	}
	if o.HorseID != RotateHorses && (o.HorseID < 0 || o.HorseID >= len(o.Roster)) {
		return fmt.Errorf("%w: %d", ErrInvalidPick, o.HorseID)
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		o.Confidence = 0.95
	}
	return nil
}

// Simulate runs opts.Races races from opts.Seed. The same options always give
// the same report.
func Simulate(ctx context.Context, opts SimOptions) (*Report, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	rng := horse_racing.NewRNG(opts.Seed)
	rec := newRecorder(opts)
	start := time.Now()

	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := pb.New(opts.Races).SetWriter(progress).Start()
	defer bar.Finish()

	for i := 0; i < opts.Races; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pick := opts.HorseID
		if pick == RotateHorses {
			pick = i % len(opts.Roster)
		}
		s, err := runOne(opts, rng, pick)
		if err != nil {
			return nil, fmt.Errorf("race %d: %w", i+1, err)
		}
		rec.record(s)
		bar.Increment()
	}
	return rec.done(time.Since(start)), nil
}

func runOne(opts SimOptions, rng horse_racing.RNG, pick int) (horse_racing.Settlement, error) {
	r, err := horse_racing.NewRace(horse_racing.Options{
		Roster:        opts.Roster,
		TrackLength:   opts.TrackLength,
		StartingMoney: opts.Bet,
		MinBet:        1,
		DefaultBet:    opts.Bet,
		RNG:           rng,
		Presenter:     opts.Presenter,
	})
	if err != nil {
		return horse_racing.Settlement{}, err
	}
	if err := r.SelectHorse(pick); err != nil {
		return horse_racing.Settlement{}, err
	}
	if err := r.StartRace(); err != nil {
		return horse_racing.Settlement{}, err
	}
	if err := horse_racing.Run(context.Background(), r, 0); err != nil {
		return horse_racing.Settlement{}, err
	}
	s, _ := r.Settlement()
	return s, nil
}
