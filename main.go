package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"derby-go/cogs"
	"derby-go/games/horse_racing"
	"derby-go/recorder"
	"derby-go/stats"
	"derby-go/utils"

	"github.com/rs/zerolog/log"
)

type flags struct {
	mode    string
	envFile string
	seed    int64
	races   int
	horse   int
	bet     int64
	replay  string
}

func parseFlags(args []string) (*flags, map[string]bool, error) {
	f := &flags{}
	fs := flag.NewFlagSet("derby", flag.ContinueOnError)
	fs.StringVar(&f.mode, "mode", "console", "console, discord or sim")
	fs.StringVar(&f.envFile, "env", ".env", "dotenv file to load")
	fs.Int64Var(&f.seed, "seed", 0, "random seed, overrides SEED (0 draws a random one)")
	fs.IntVar(&f.races, "races", 10000, "races to run in sim mode")
	fs.IntVar(&f.horse, "horse", 0, "horse to back in sim mode, 1-based (0 backs each in turn)")
	fs.Int64Var(&f.bet, "bet", 0, "flat bet in sim mode (defaults to DEFAULT_BET)")
	fs.StringVar(&f.replay, "replay", "", "write a zstd replay of every race to this file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

func main() {
	f, set, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	utils.SetupLogger("info", true)
	if err := utils.LoadEnvFile(f.envFile); err != nil {
		log.Fatal().Err(err).Msgf("failed to load %s", f.envFile)
	}
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if set["seed"] {
		cfg.Seed = f.seed
	}
	utils.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	roster, err := loadRoster(cfg.RosterFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load roster")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch f.mode {
	case "console":
		err = runConsole(ctx, cfg, roster, f.replay)
	case "sim":
		err = runSim(ctx, cfg, roster, f)
	case "discord":
		err = runDiscord(ctx, cfg, roster)
	default:
		err = fmt.Errorf("unknown mode %q, want console, discord or sim", f.mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Str("mode", f.mode).Msg("derby stopped")
	}
}

func loadRoster(path string) ([]horse_racing.HorseSpec, error) {
	if path == "" {
		return horse_racing.DefaultRoster(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return horse_racing.LoadRoster(data)
}

func newRNG(seed int64) horse_racing.RNG {
	if seed == 0 {
		return horse_racing.NewRandomRNG()
	}
	return horse_racing.NewRNG(seed)
}

func saveReplay(rec *recorder.RaceRecorder, path string) {
	if rec == nil {
		return
	}
	if err := rec.SaveFile(path); err != nil {
		utils.BotErrorf("REPLAY", err, "failed to write %s", path)
		return
	}
	utils.BotLogf("REPLAY", "wrote %d events to %s", rec.Len(), path)
}

func closeReplay(rec *recorder.RaceRecorder, out *os.File, path string) {
	err := rec.Close()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		utils.BotErrorf("REPLAY", err, "failed to write %s", path)
		return
	}
	utils.BotLogf("REPLAY", "streamed %d events to %s", rec.Len(), path)
}

func runConsole(ctx context.Context, cfg *utils.Config, roster []horse_racing.HorseSpec, replay string) error {
	ledger, err := utils.OpenLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer ledger.Close()

	presenters := horse_racing.Presenters{cogs.NewConsolePresenter(os.Stdout, cfg.TrackLength)}
	var rec *recorder.RaceRecorder
	if replay != "" {
		rec = recorder.New()
		presenters = append(presenters, rec)
		defer saveReplay(rec, replay)
	}

	race, err := horse_racing.NewRace(horse_racing.Options{
		Roster:        roster,
		TrackLength:   cfg.TrackLength,
		StartingMoney: cfg.StartingMoney,
		MinBet:        cfg.MinBet,
		DefaultBet:    cfg.DefaultBet,
		RNG:           newRNG(cfg.Seed),
		Presenter:     presenters,
	})
	if err != nil {
		return err
	}

	return cogs.NewConsole(cogs.ConsoleOptions{
		Race:         race,
		Ledger:       ledger,
		In:           os.Stdin,
		Out:          os.Stdout,
		TickInterval: cfg.TickInterval,
	}).Run(ctx)
}

func runSim(ctx context.Context, cfg *utils.Config, roster []horse_racing.HorseSpec, f *flags) error {
	opts := stats.SimOptions{
		Races:       f.races,
		Seed:        cfg.Seed,
		Roster:      roster,
		TrackLength: cfg.TrackLength,
		Bet:         f.bet,
		HorseID:     f.horse - 1,
		Progress:    os.Stderr,
	}
	if opts.Bet == 0 {
		opts.Bet = cfg.DefaultBet
	}
	if f.replay != "" {
		out, err := os.Create(f.replay)
		if err != nil {
			return fmt.Errorf("create replay: %w", err)
		}
		rec, err := recorder.NewStream(out)
		if err != nil {
			_ = out.Close()
			return err
		}
		opts.Presenter = rec
		defer closeReplay(rec, out, f.replay)
	}

	rep, err := stats.Simulate(ctx, opts)
	if err != nil {
		return err
	}
	return rep.Fprint(os.Stdout)
}
