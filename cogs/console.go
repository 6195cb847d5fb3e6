package cogs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"derby-go/games/horse_racing"
	"derby-go/models"
	"derby-go/utils"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// ConsolePlayerID is the wallet the terminal front end plays with.
const ConsolePlayerID = "console"

const laneWidth = 40

var (
	titleColor = color.New(color.FgHiYellow, color.Bold)
	winColor   = color.New(color.FgHiGreen, color.Bold)
	lossColor  = color.New(color.FgHiRed)
	noteColor  = color.New(color.FgHiCyan)
)

// ConsolePresenter draws a race into a terminal.
type ConsolePresenter struct {
	w           io.Writer
	trackLength float64
	phase       horse_racing.Phase
	drawn       int
	nameWidth   int
}

func NewConsolePresenter(w io.Writer, trackLength float64) *ConsolePresenter {
	return &ConsolePresenter{w: w, trackLength: trackLength, phase: horse_racing.PhaseAwaitingSelection}
}

func (p *ConsolePresenter) ShowPhase(phase horse_racing.Phase) {
	p.phase = phase
	p.drawn = 0
	if phase == horse_racing.PhaseRacing {
		fmt.Fprintln(p.w, titleColor.Sprint("🏇 And they're off!"))
	}
}

// ShowRoster redraws the lanes in place while a race is running.
func (p *ConsolePresenter) ShowRoster(horses []horse_racing.HorseView) {
	if p.phase != horse_racing.PhaseRacing {
		return
	}
	if p.nameWidth == 0 {
		p.nameWidth = nameWidth(horses)
	}
	if p.drawn > 0 {
		fmt.Fprintf(p.w, "\x1b[%dA", p.drawn)
	}
	for _, h := range horses {
		fmt.Fprintln(p.w, p.lane(h))
	}
	p.drawn = len(horses)
}

func (p *ConsolePresenter) lane(h horse_racing.HorseView) string {
	filled := int(h.Position / p.trackLength * laneWidth)
	filled = max(0, min(filled, laneWidth))
	track := strings.Repeat("=", filled) + ">" + strings.Repeat(".", laneWidth-filled)
	end := "|"
	if h.Finished {
		end = "🏁"
	}
	return fmt.Sprintf("%2d. %s [%s]%s", h.ID+1, horseColor(h.Color).Sprint(padName(h.Name, p.nameWidth)), track, end)
}

// ShowSettlement prints the standings and what the bettor won or lost.
func (p *ConsolePresenter) ShowSettlement(s horse_racing.Settlement) {
	width := nameWidth(s.Standings)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, titleColor.Sprintf("🏁 Race %d result", s.RaceNumber))
	for i, h := range s.Standings {
		fmt.Fprintf(p.w, "  %d. %s  %sx\n", i+1, horseColor(h.Color).Sprint(padName(h.Name, width)), h.Odds.StringFixed(1))
	}
	if s.Won() {
		fmt.Fprintln(p.w, winColor.Sprintf("%s won! You collect %s %s.", s.Selected.Name, utils.FormatChips(s.Bet+s.Winnings), utils.ChipsEmoji))
	} else {
		fmt.Fprintln(p.w, lossColor.Sprintf("%s came in behind %s. You lose %s %s.", s.Selected.Name, s.Winner.Name, utils.FormatChips(s.Bet), utils.ChipsEmoji))
	}
	fmt.Fprintf(p.w, "Balance: %s %s (%s)\n", utils.FormatChips(s.Money), utils.ChipsEmoji, utils.FormatSignedChips(s.Net()))
	p.nameWidth = 0
}

func nameWidth(horses []horse_racing.HorseView) int {
	w := 0
	for _, h := range horses {
		w = max(w, runewidth.StringWidth(h.Name))
	}
	return w
}

func padName(name string, width int) string {
	return runewidth.FillRight(name, width)
}

// horseColor turns a #RRGGBB roster color into a terminal color.
func horseColor(hex string) *color.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return color.New(color.Reset)
	}
	return color.RGB(int(v>>16&0xFF), int(v>>8&0xFF), int(v&0xFF))
}

// ConsoleOptions wires a terminal session.
type ConsoleOptions struct {
	Race         *horse_racing.Race
	Ledger       utils.Ledger
	PlayerID     string
	In           io.Reader
	Out          io.Writer
	TickInterval time.Duration
}

// Console is an interactive betting session on a terminal.
type Console struct {
	race     *horse_racing.Race
	ledger   utils.Ledger
	playerID string
	in       *bufio.Scanner
	out      io.Writer
	interval time.Duration
}

func NewConsole(opts ConsoleOptions) *Console {
	if opts.PlayerID == "" {
		opts.PlayerID = ConsolePlayerID
	}
	return &Console{
		race:     opts.Race,
		ledger:   opts.Ledger,
		playerID: opts.PlayerID,
		in:       bufio.NewScanner(opts.In),
		out:      opts.Out,
		interval: opts.TickInterval,
	}
}

var errQuit = errors.New("quit")

// Run plays races until the input ends, the player quits or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	if err := c.loadWallet(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, titleColor.Sprintf("🏇 Welcome to the %s!", utils.BotName))

	for {
		err := c.playOne(ctx)
		if errors.Is(err, errQuit) {
			c.goodbye()
			return nil
		}
		if err != nil {
			return err
		}
		if !c.confirm("Another race? [Y/n]: ") {
			c.goodbye()
			return nil
		}
		if err := c.race.NextRace(); err != nil {
			return err
		}
	}
}

func (c *Console) goodbye() {
	fmt.Fprintf(c.out, "Thanks for playing. Final balance: %s %s\n", utils.FormatChips(c.race.Money()), utils.ChipsEmoji)
}

func (c *Console) loadWallet(ctx context.Context) error {
	w, err := c.ledger.GetWallet(ctx, c.playerID)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	if err := c.race.SetBalance(w.Chips); err != nil {
		return err
	}
	c.restoreBankroll(ctx)
	return nil
}

func (c *Console) playOne(ctx context.Context) error {
	for {
		c.printCard()
		line, ok := c.prompt(fmt.Sprintf("Pick a horse (1-%d), h for history, q to quit: ", len(c.race.Horses())))
		if !ok {
			return errQuit
		}
		switch strings.ToLower(line) {
		case "q", "quit", "exit":
			return errQuit
		case "h", "history":
			c.printHistory(ctx)
			continue
		}

		n, err := strconv.Atoi(line)
		if err != nil {
			c.reject(fmt.Errorf("%q is not a horse number", line))
			continue
		}
		if err := c.race.SelectHorse(n - 1); err != nil {
			c.reject(err)
			continue
		}

		line, ok = c.prompt(fmt.Sprintf("Bet (default %s, min %s, e.g. 100, 1k, half, all): ",
			utils.FormatChips(c.race.Bet()), utils.FormatChips(c.race.MinBet())))
		if !ok {
			return errQuit
		}
		if line != "" {
			bet, err := utils.ParseBet(line, c.race.Money())
			if err != nil {
				c.reject(err)
				continue
			}
			if err := c.race.SetBet(bet); err != nil {
				c.reject(err)
				continue
			}
		}

		if err := c.race.StartRace(); err != nil {
			c.reject(err)
			continue
		}
		if _, err := c.ledger.UpdateWallet(ctx, c.playerID, utils.StakeUpdate(c.race.Bet())); err != nil {
			utils.BotErrorf("CONSOLE", err, "failed to take stake from %s", c.playerID)
		}
		break
	}

	if err := horse_racing.Run(ctx, c.race, c.interval); err != nil {
		return err
	}
	s, ok := c.race.Settlement()
	if !ok {
		return horse_racing.ErrRaceNotOver
	}
	c.persist(ctx, s)
	c.restoreBankroll(ctx)
	return nil
}

func (c *Console) persist(ctx context.Context, s horse_racing.Settlement) {
	w, err := c.ledger.UpdateWallet(ctx, c.playerID, utils.SettlementUpdate(s.Payout(), s.Won()))
	if err != nil {
		utils.BotErrorf("CONSOLE", err, "failed to update wallet for %s", c.playerID)
	} else if err := c.race.SetBalance(w.Chips); err != nil {
		utils.BotErrorf("CONSOLE", err, "failed to sync balance for %s", c.playerID)
	}
	if err := c.ledger.RecordRace(ctx, models.NewRaceRecord(c.playerID, s)); err != nil {
		utils.BotErrorf("CONSOLE", err, "failed to record race %d for %s", s.RaceNumber, c.playerID)
	}
}

func (c *Console) restoreBankroll(ctx context.Context) {
	balance, reset := c.race.RestoreBankroll()
	if !reset {
		return
	}
	if _, err := c.ledger.UpdateWallet(ctx, c.playerID, utils.WalletUpdate{Chips: &balance}); err != nil {
		utils.BotErrorf("CONSOLE", err, "failed to restore bankroll for %s", c.playerID)
	}
	fmt.Fprintln(c.out, noteColor.Sprintf(utils.BankrollResetMessage, utils.FormatChips(balance), utils.ChipsEmoji))
}

func (c *Console) printCard() {
	horses := c.race.Horses()
	width := nameWidth(horses)
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, titleColor.Sprintf("Race %d", c.race.RaceNumber()))
	for _, h := range horses {
		fmt.Fprintf(c.out, "  %d. %s  %sx\n", h.ID+1, horseColor(h.Color).Sprint(padName(h.Name, width)), h.Odds.StringFixed(1))
	}
	fmt.Fprintf(c.out, "Balance: %s %s\n", utils.FormatChips(c.race.Money()), utils.ChipsEmoji)
}

func (c *Console) printHistory(ctx context.Context) {
	records, err := c.ledger.RecentRaces(ctx, c.playerID, utils.RecentRacesShown)
	if err != nil {
		c.reject(err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No races yet.")
		return
	}
	for _, r := range records {
		fmt.Fprintf(c.out, "  #%d %s on %s at %sx: %s (balance %s)\n",
			r.RaceNumber, utils.FormatChips(r.Bet), r.HorseName, r.Odds.StringFixed(1),
			utils.FormatSignedChips(r.Net()), utils.FormatChips(r.Balance))
	}
}

func (c *Console) reject(err error) {
	fmt.Fprintln(c.out, lossColor.Sprintf("✗ %v", err))
}

// prompt reads one trimmed line. It reports false once the input is exhausted.
func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) confirm(label string) bool {
	line, ok := c.prompt(label)
	if !ok {
		return false
	}
	switch strings.ToLower(line) {
	case "", "y", "yes":
		return true
	}
	return false
}
