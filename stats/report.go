package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"derby-go/games/horse_racing"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang = language.English

// CI is a confidence interval.
type CI struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// HorseReport compares one horse's odds with how often it actually won.
type HorseReport struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Wins    int     `json:"wins"`
	WinProb float64 `json:"win_prob"`
	WinCI   CI      `json:"win_ci"`
	// FairOdds is 1/p - 1; +Inf when the horse never won.
	FairOdds float64 `json:"fair_odds"`
	Odds     float64 `json:"odds"`
	// ExpectedReturn is p*(1+odds) per chip staked.
	ExpectedReturn float64 `json:"expected_return"`
}

// BettorReport sums the flat bettor's results.
type BettorReport struct {
	Bets     int     `json:"bets"`
	Wins     int     `json:"wins"`
	Staked   int64   `json:"staked"`
	Returned int64   `json:"returned"`
	Net      int64   `json:"net"`
	RTP      float64 `json:"rtp"`
}

// Report is the outcome of Simulate.
type Report struct {
	Races      int           `json:"races"`
	Seed       int64         `json:"seed"`
	Confidence float64       `json:"confidence"`
	Horses     []HorseReport `json:"horses"`
	Bettor     BettorReport  `json:"bettor"`
	TicksMean  float64       `json:"ticks_mean"`
	TicksStd   float64       `json:"ticks_std"`
	TicksMin   int           `json:"ticks_min"`
	TicksMax   int           `json:"ticks_max"`
	Elapsed    time.Duration `json:"elapsed"`
}

type recorder struct {
	opts   SimOptions
	wins   []int
	ticks  []float64
	bettor BettorReport
}

func newRecorder(opts SimOptions) *recorder {
	return &recorder{
		opts:  opts,
		wins:  make([]int, len(opts.Roster)),
		ticks: make([]float64, 0, opts.Races),
	}
}

func (r *recorder) record(s horse_racing.Settlement) {
	r.wins[s.Winner.ID]++
	r.ticks = append(r.ticks, float64(s.Ticks))
	r.bettor.Bets++
	r.bettor.Staked += s.Bet
	if s.Won() {
		r.bettor.Wins++
		r.bettor.Returned += s.Bet + s.Winnings
	}
}

func (r *recorder) done(elapsed time.Duration) *Report {
	n := len(r.ticks)
	rep := &Report{
		Races:      n,
		Seed:       r.opts.Seed,
		Confidence: r.opts.Confidence,
		Bettor:     r.bettor,
		Elapsed:    elapsed,
	}
	rep.Bettor.Net = rep.Bettor.Returned - rep.Bettor.Staked
	if rep.Bettor.Staked > 0 {
		rep.Bettor.RTP = float64(rep.Bettor.Returned) / float64(rep.Bettor.Staked)
	}

	z := distuv.UnitNormal.Quantile(1 - (1-r.opts.Confidence)/2)
	for i, spec := range r.opts.Roster {
		odds := spec.Odds.InexactFloat64()
		p := float64(r.wins[i]) / float64(n)
		rep.Horses = append(rep.Horses, HorseReport{
			ID:             i,
			Name:           spec.Name,
			Wins:           r.wins[i],
			WinProb:        p,
			WinCI:          normalCI(p, n, z),
			FairOdds:       fairOdds(p),
			Odds:           odds,
			ExpectedReturn: p * (1 + odds),
		})
	}

	if n > 0 {
		rep.TicksMean, rep.TicksStd = stat.MeanStdDev(r.ticks, nil)
		if n == 1 {
			rep.TicksStd = 0
		}
		lo, hi := r.ticks[0], r.ticks[0]
		for _, t := range r.ticks[1:] {
			lo = math.Min(lo, t)
			hi = math.Max(hi, t)
		}
		rep.TicksMin, rep.TicksMax = int(lo), int(hi)
	}
	return rep
}

// normalCI is the Wald interval p ± z*sqrt(p(1-p)/n), clamped to [0, 1].
func normalCI(p float64, n int, z float64) CI {
	if n == 0 {
		return CI{}
	}
	half := z * math.Sqrt(p*(1-p)/float64(n))
	return CI{Lo: math.Max(0, p-half), Hi: math.Min(1, p+half)}
}

func fairOdds(p float64) float64 {
	if p <= 0 {
		return math.Inf(1)
	}
	return 1/p - 1
}

// Fprint writes the report as aligned tables.
func (r *Report) Fprint(w io.Writer) error {
	p := message.NewPrinter(lang)

	summary := map[string]string{
		"Races":      p.Sprintf("%d", r.Races),
		"Seed":       p.Sprintf("%d", r.Seed),
		"Ticks":      p.Sprintf("%.1f ± %.1f (%d..%d)", r.TicksMean, r.TicksStd, r.TicksMin, r.TicksMax),
		"Bets":       p.Sprintf("%d (%d won)", r.Bettor.Bets, r.Bettor.Wins),
		"Staked":     p.Sprintf("%d", r.Bettor.Staked),
		"Returned":   p.Sprintf("%d", r.Bettor.Returned),
		"Net":        p.Sprintf("%+d", r.Bettor.Net),
		"RTP":        p.Sprintf("%.2f%%", r.Bettor.RTP*100),
		"Time taken": r.Elapsed.Round(time.Millisecond).String(),
	}
	keys := []string{"Races", "Seed", "Ticks", "Bets", "Staked", "Returned", "Net", "RTP", "Time taken"}

	header := []string{"#", "Horse", "Wins", "P(win)", p.Sprintf("%.0f%% CI", r.Confidence*100), "Fair", "Odds", "E[return]"}
	rows := make([][]string, 0, len(r.Horses))
	for _, h := range r.Horses {
		fair := "∞"
		if !math.IsInf(h.FairOdds, 1) {
			fair = p.Sprintf("%.2f", h.FairOdds)
		}
		rows = append(rows, []string{
			p.Sprintf("%d", h.ID+1),
			h.Name,
			p.Sprintf("%d", h.Wins),
			p.Sprintf("%.4f", h.WinProb),
			p.Sprintf("[%.4f, %.4f]", h.WinCI.Lo, h.WinCI.Hi),
			fair,
			p.Sprintf("%.1f", h.Odds),
			p.Sprintf("%.3f", h.ExpectedReturn),
		})
	}

	_, err := fmt.Fprint(w, fmtTable("Derby Simulation", keys, summary)+fmtGrid(header, rows))
	return err
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	maxKeyLen, maxValLen := 0, 0
	for _, k := range keys {
		maxKeyLen = max(maxKeyLen, runewidth.StringWidth(k))
		maxValLen = max(maxValLen, runewidth.StringWidth(msg[k]))
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	inner := maxKeyLen + maxValLen + 1
	left := (inner - runewidth.StringWidth(title)) / 2
	right := inner - runewidth.StringWidth(title) - left

	var b strings.Builder
	b.WriteString(top)
	b.WriteString("|" + blank(left) + title + blank(right) + "|\n")
	b.WriteString(divider)
	for _, k := range keys {
		b.WriteString("| " + pad(k, maxKeyLen-2) + " | " + pad(msg[k], maxValLen-2) + " |\n")
	}
	b.WriteString(divider)
	return b.String()
}

func fmtGrid(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var divider strings.Builder
	divider.WriteString("+")
	for _, w := range widths {
		divider.WriteString(strings.Repeat("-", w+2) + "+")
	}
	divider.WriteString("\n")

	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range cells {
			b.WriteString(" " + pad(c, widths[i]) + " |")
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	b.WriteString(divider.String())
	b.WriteString(line(header))
	b.WriteString(divider.String())
	for _, row := range rows {
		b.WriteString(line(row))
	}
	b.WriteString(divider.String())
	return b.String()
}

func pad(s string, w int) string {
	return s + blank(w-runewidth.StringWidth(s))
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
