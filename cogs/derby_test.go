package cogs

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"derby-go/games/horse_racing"
	"derby-go/models"
	"derby-go/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
)

func testDerby(t *testing.T) (*Derby, utils.Ledger) {
	t.Helper()
	ledger := utils.NewMemoryLedger(1000)
	cache := utils.NewWalletCache(ledger, time.Minute, 0)
	t.Cleanup(cache.Close)
	cfg := &utils.Config{
		TrackLength:         800,
		StartingMoney:       1000,
		MinBet:              10,
		DefaultBet:          50,
		DiscordEditInterval: time.Second,
		Seed:                7,
	}
	return NewDerby(cfg, horse_racing.DefaultRoster(), cache, ledger), ledger
}

func testSession(t *testing.T, fast int) *derbySession {
	t.Helper()
	race, err := horse_racing.NewRace(horse_racing.Options{RNG: favorLane(6, fast)})
	if err != nil {
		t.Fatalf("NewRace: %v", err)
	}
	return &derbySession{
		channelID: "chan-1",
		ownerID:   "user-1",
		ownerName: "Ana",
		race:      race,
		throttle:  utils.NewEditThrottle(time.Second),
	}
}

func finish(t *testing.T, r *horse_racing.Race) {
	t.Helper()
	if err := horse_racing.Run(context.Background(), r, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func buttons(t *testing.T, row discordgo.MessageComponent) []discordgo.Button {
	t.Helper()
	ar, ok := row.(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("component %T is not an action row", row)
	}
	out := make([]discordgo.Button, 0, len(ar.Components))
	for _, c := range ar.Components {
		b, ok := c.(discordgo.Button)
		if !ok {
			t.Fatalf("component %T is not a button", c)
		}
		out = append(out, b)
	}
	return out
}

func TestCardBeforeSelection(t *testing.T) {
	sess := testSession(t, 0)

	embed := cardEmbed(sess)
	if !strings.Contains(embed.Title, "Ana's Derby") || !strings.Contains(embed.Title, "Race 1") {
		t.Fatalf("title = %q", embed.Title)
	}
	if !strings.Contains(embed.Description, "**THUNDER** `3.5x`") {
		t.Fatalf("description missing odds:\n%s", embed.Description)
	}
	if embed.Fields[0].Value != "1,000 🪙" || embed.Fields[1].Value != "50 🪙" || embed.Fields[2].Value != "None yet" {
		t.Fatalf("fields = %+v %+v %+v", embed.Fields[0], embed.Fields[1], embed.Fields[2])
	}

	comps := cardComponents(sess)
	if len(comps) != 2 {
		t.Fatalf("got %d rows, want 2", len(comps))
	}
	menu := comps[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if menu.CustomID != derbyHorseSelect || len(menu.Options) != 6 {
		t.Fatalf("menu = %+v", menu)
	}
	for _, b := range buttons(t, comps[1]) {
		if b.CustomID == derbyStart && !b.Disabled {
			t.Fatal("start enabled without a horse")
		}
	}
}

func TestCardAfterSelection(t *testing.T) {
	sess := testSession(t, 0)
	if err := sess.race.SelectHorse(2); err != nil {
		t.Fatalf("SelectHorse: %v", err)
	}

	embed := cardEmbed(sess)
	if embed.Fields[2].Value != "STORM (4.2x)" {
		t.Fatalf("horse field = %q", embed.Fields[2].Value)
	}
	if !strings.Contains(embed.Description, "▶️ `3.` **STORM**") {
		t.Fatalf("selection not marked:\n%s", embed.Description)
	}

	comps := cardComponents(sess)
	menu := comps[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	for _, o := range menu.Options {
		if o.Default != (o.Value == "2") {
			t.Fatalf("option %s default=%v", o.Value, o.Default)
		}
	}
	for _, b := range buttons(t, comps[1]) {
		if b.CustomID == derbyStart && b.Disabled {
			t.Fatal("start disabled after selecting a horse")
		}
	}
}

func TestCardFinishedOffersNextRace(t *testing.T) {
	sess := testSession(t, 0)
	_ = sess.race.SelectHorse(0)
	if err := sess.race.StartRace(); err != nil {
		t.Fatalf("StartRace: %v", err)
	}
	finish(t, sess.race)

	comps := cardComponents(sess)
	if len(comps) != 1 || buttons(t, comps[0])[0].CustomID != derbyNext {
		t.Fatalf("finished components = %+v", comps)
	}
}

func TestTrackDisplay(t *testing.T) {
	horses := []horse_racing.HorseView{
		{ID: 0, Name: "THUNDER", Position: 400},
		{ID: 1, Name: "STORM", Position: 900, Finished: true},
		{ID: 2, Name: "COMET"},
	}
	lines := strings.Split(trackDisplay(horses, 800), "\n")
	want := []string{
		"`1.[" + strings.Repeat("=", 10) + ">" + strings.Repeat("-", 10) + "]` 🏁 THUNDER",
		"`2.[" + strings.Repeat("=", 20) + ">]` ✅ STORM",
		"`3.[>" + strings.Repeat("-", 20) + "]` 🏁 COMET",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSettlementEmbed(t *testing.T) {
	thunder := horse_racing.HorseView{ID: 0, Name: "THUNDER", Odds: decimal.RequireFromString("3.5")}
	storm := horse_racing.HorseView{ID: 2, Name: "STORM", Odds: decimal.RequireFromString("4.2")}
	won := horse_racing.Settlement{
		RaceNumber: 3, Outcome: horse_racing.OutcomeWin, Winner: thunder, Selected: thunder,
		Bet: 100, Winnings: 350, Standings: []horse_racing.HorseView{thunder, storm}, Money: 1250, Ticks: 210,
	}

	embed := settlementEmbed(won, "Ana")
	if embed.Title != "🏁 Race 3: THUNDER Wins!" || embed.Color != utils.ColorWinner {
		t.Fatalf("title %q color %x", embed.Title, embed.Color)
	}
	if !strings.Contains(embed.Description, "🥇 **THUNDER**") || !strings.Contains(embed.Description, "Ana won 350") {
		t.Fatalf("description:\n%s", embed.Description)
	}
	if embed.Fields[0].Value != "+350 🪙" || embed.Fields[1].Value != "1,250 🪙" || embed.Fields[2].Value != "210" {
		t.Fatalf("fields = %+v %+v %+v", embed.Fields[0], embed.Fields[1], embed.Fields[2])
	}

	lost := won
	lost.Outcome = horse_racing.OutcomeLoss
	lost.Selected = storm
	lost.Winnings = 0
	lost.Money = 900
	embed = settlementEmbed(lost, "Ana")
	if embed.Color != utils.ColorError || !strings.Contains(embed.Description, "Ana lost 100") {
		t.Fatalf("loss embed: %x %s", embed.Color, embed.Description)
	}
	if embed.Fields[0].Value != "-100 🪙" {
		t.Fatalf("net = %q", embed.Fields[0].Value)
	}
}

func TestRejectionEmbed(t *testing.T) {
	sess := testSession(t, 0)
	tests := []struct {
		err   error
		title string
	}{
		{horse_racing.ErrInsufficientFunds, "Not Enough Chips"},
		{horse_racing.ErrBetBelowMinimum, "Bet Too Small"},
		{horse_racing.ErrNoHorseSelected, "No Horse Selected"},
		{horse_racing.ErrRaceInProgress, "Race Running"},
		{horse_racing.ErrRaceNotReady, "Race Over"},
		{errors.New("boom"), "🏇 Derby"},
	}
	for _, tt := range tests {
		got := rejectionEmbed(tt.err, sess.race)
		if got.Title != tt.title {
			t.Errorf("%v: title %q, want %q", tt.err, got.Title, tt.title)
		}
	}
}

func TestBetModal(t *testing.T) {
	sess := testSession(t, 0)
	resp := betModal(sess)
	if resp.Type != discordgo.InteractionResponseModal || resp.Data.CustomID != "derby_bet_modal_chan-1" {
		t.Fatalf("modal = %+v", resp.Data)
	}

	rows := []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: "other", Value: "x"},
			&discordgo.TextInput{CustomID: derbyBetInput, Value: "  1.5k "},
		}},
	}
	if got := modalValue(rows, derbyBetInput); got != "1.5k" {
		t.Fatalf("modalValue = %q", got)
	}
	if got := modalValue(rows, "missing"); got != "" {
		t.Fatalf("modalValue(missing) = %q", got)
	}
}

func TestHistoryEmbed(t *testing.T) {
	if got := historyEmbed(nil).Description; got != "No races yet." {
		t.Fatalf("empty history = %q", got)
	}
	records := []*models.RaceRecord{
		{RaceNumber: 2, HorseName: "STORM", Odds: decimal.RequireFromString("4.2"), Bet: 100, Outcome: horse_racing.OutcomeLoss, Balance: 900},
		{RaceNumber: 1, HorseName: "THUNDER", Odds: decimal.RequireFromString("3.5"), Bet: 100, Outcome: horse_racing.OutcomeWin, Winnings: 350, Balance: 1250},
	}
	desc := historyEmbed(records).Description
	if !strings.Contains(desc, "❌ Race 2: 100 on **STORM** `4.2x` → -100 (balance 900)") {
		t.Fatalf("missing loss line:\n%s", desc)
	}
	if !strings.Contains(desc, "✅ Race 1: 100 on **THUNDER** `3.5x` → +350 (balance 1,250)") {
		t.Fatalf("missing win line:\n%s", desc)
	}
}

func TestSettleStoresResult(t *testing.T) {
	d, ledger := testDerby(t)
	sess := testSession(t, 1)
	_ = sess.race.SelectHorse(1)
	_ = sess.race.SetBet(100)
	if err := d.placeStake(context.Background(), sess); err != nil {
		t.Fatalf("placeStake: %v", err)
	}
	finish(t, sess.race)

	d.settle(nil, nil, sess)

	ctx := context.Background()
	w, err := ledger.GetWallet(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if w.Chips != 1280 || w.Wins != 1 || w.Races != 1 {
		t.Fatalf("wallet = %+v", w)
	}
	records, err := ledger.RecentRaces(ctx, "user-1", 5)
	if err != nil || len(records) != 1 {
		t.Fatalf("records = %v, %v", records, err)
	}
	if records[0].HorseName != "LIGHTNING" || !records[0].Won() {
		t.Fatalf("record = %+v", records[0])
	}
}

func stake(t *testing.T, d *Derby, sess *derbySession, horse int, bet int64) error {
	t.Helper()
	if err := sess.race.SelectHorse(horse); err != nil {
		t.Fatalf("SelectHorse: %v", err)
	}
	if err := sess.race.SetBet(bet); err != nil {
		t.Fatalf("SetBet: %v", err)
	}
	return d.placeStake(context.Background(), sess)
}

func chips(t *testing.T, ledger utils.Ledger, playerID string) int64 {
	t.Helper()
	w, err := ledger.GetWallet(context.Background(), playerID)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	return w.Chips
}

func TestPlaceStakeDebitsWallet(t *testing.T) {
	d, ledger := testDerby(t)
	sess := testSession(t, 2)
	if err := stake(t, d, sess, 2, 100); err != nil {
		t.Fatalf("placeStake: %v", err)
	}
	if got := chips(t, ledger, "user-1"); got != 900 {
		t.Fatalf("wallet = %d after the stake, want 900", got)
	}
	if sess.ticket.raceNumber != 1 || sess.ticket.horse.Name != "STORM" || sess.ticket.bet != 100 {
		t.Fatalf("ticket = %+v", sess.ticket)
	}
}

func TestCancelledRaceKeepsStake(t *testing.T) {
	d, ledger := testDerby(t)
	sess := testSession(t, 0)
	if err := stake(t, d, sess, 0, 100); err != nil {
		t.Fatalf("placeStake: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := horse_racing.RunFunc(ctx, time.Millisecond, func() bool {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.race.Tick()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunFunc = %v, want context.Canceled", err)
	}
	if got := chips(t, ledger, "user-1"); got != 900 {
		t.Fatalf("wallet = %d after a cancelled race, want 900", got)
	}

	// a fresh session for the same owner sees the stake gone
	race, err := d.openRace(context.Background(), &derbySession{ownerID: "user-1"})
	if err != nil {
		t.Fatalf("openRace: %v", err)
	}
	if race.Money() != 900 {
		t.Fatalf("reopened race money = %d, want 900", race.Money())
	}
}

func TestSessionsShareWallet(t *testing.T) {
	d, ledger := testDerby(t)
	a := testSession(t, 0)
	a.channelID = "chan-A"
	b := testSession(t, 1)
	b.channelID = "chan-B"

	for _, sess := range []*derbySession{a, b} {
		if err := stake(t, d, sess, 0, 100); err != nil {
			t.Fatalf("placeStake in %s: %v", sess.channelID, err)
		}
	}
	if got := chips(t, ledger, "user-1"); got != 800 {
		t.Fatalf("wallet = %d with two stakes out, want 800", got)
	}
	finish(t, a.race)
	finish(t, b.race)
	d.settle(nil, nil, a)
	d.settle(nil, nil, b)

	w, err := ledger.GetWallet(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	// THUNDER at 3.5x wins in A (+350), loses in B (-100)
	if w.Chips != 1250 || w.Wins != 1 || w.Losses != 1 || w.Races != 2 {
		t.Fatalf("wallet = %+v, want 1250 chips with one win and one loss", w)
	}
	if a.race.Money() != 1250 || b.race.Money() != 1250 {
		t.Fatalf("session balances = %d, %d, want both synced to 1250", a.race.Money(), b.race.Money())
	}
}

func TestStakeCannotBeSpentTwice(t *testing.T) {
	d, ledger := testDerby(t)
	a := testSession(t, 0)
	a.channelID = "chan-A"
	b := testSession(t, 0)
	b.channelID = "chan-B"

	if err := stake(t, d, a, 0, 1000); err != nil {
		t.Fatalf("placeStake in A: %v", err)
	}
	err := stake(t, d, b, 0, 50)
	if !errors.Is(err, horse_racing.ErrInsufficientFunds) {
		t.Fatalf("placeStake in B = %v, want ErrInsufficientFunds", err)
	}
	if b.race.Phase() != horse_racing.PhaseAwaitingSelection || b.ticket.raceNumber != 0 {
		t.Fatalf("rejected stake changed the session: phase=%s ticket=%+v", b.race.Phase(), b.ticket)
	}
	if got := chips(t, ledger, "user-1"); got != 0 {
		t.Fatalf("wallet = %d, want 0", got)
	}
}

func TestRestoreBankroll(t *testing.T) {
	d, ledger := testDerby(t)
	sess := testSession(t, 0)
	if err := sess.race.SetBalance(5); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}

	balance, reset := d.restoreBankroll(context.Background(), sess)
	if !reset || balance != 1000 {
		t.Fatalf("restoreBankroll = %d, %v", balance, reset)
	}
	w, _ := ledger.GetWallet(context.Background(), "user-1")
	if w.Chips != 1000 {
		t.Fatalf("wallet chips = %d", w.Chips)
	}
	if _, reset := d.restoreBankroll(context.Background(), sess); reset {
		t.Fatal("second restore reported a reset")
	}
}

func TestOpenRaceUsesWallet(t *testing.T) {
	d, ledger := testDerby(t)
	chips := int64(420)
	if _, err := ledger.UpdateWallet(context.Background(), "user-2", utils.WalletUpdate{Chips: &chips}); err != nil {
		t.Fatalf("UpdateWallet: %v", err)
	}

	race, err := d.openRace(context.Background(), &derbySession{ownerID: "user-2"})
	if err != nil {
		t.Fatalf("openRace: %v", err)
	}
	if race.Money() != 420 || race.MinBet() != 10 || race.Bet() != 50 {
		t.Fatalf("race money=%d min=%d bet=%d", race.Money(), race.MinBet(), race.Bet())
	}
}

func TestSeededSessionsDiffer(t *testing.T) {
	d, _ := testDerby(t)
	a, b := d.newRNG().Float64(), d.newRNG().Float64()
	if a == b {
		t.Fatal("two sessions drew the same first value")
	}
	again, _ := testDerby(t)
	if again.newRNG().Float64() != a {
		t.Fatal("same seed did not reproduce the first session")
	}
}

func TestActiveRaces(t *testing.T) {
	d, _ := testDerby(t)
	sess := testSession(t, 0)
	d.sessions[sess.channelID] = sess
	d.sessions["loading"] = &derbySession{channelID: "loading"}

	active := d.ActiveRaces()
	if len(active) != 1 {
		t.Fatalf("got %d active races, want 1", len(active))
	}
	if active[0].ChannelID != "chan-1" || active[0].Phase != horse_racing.PhaseAwaitingSelection || active[0].Money != 1000 {
		t.Fatalf("active = %+v", active[0])
	}

	raw, err := json.Marshal(active[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"channel_id":"chan-1"`, `"race_number":1`, `"horses":[`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("json missing %s: %s", key, raw)
		}
	}

	d.Close()
	if len(d.ActiveRaces()) != 0 {
		t.Fatal("Close left sessions behind")
	}
}

func TestDiscordPresenterTracksPhase(t *testing.T) {
	sess := testSession(t, 0)
	p := &discordPresenter{sess: sess, trackLength: 800}

	p.ShowPhase(horse_racing.PhaseRacing)
	if !p.racing {
		t.Fatal("presenter did not enter racing")
	}
	if !p.atGate {
		t.Fatal("presenter should skip the gate frame")
	}
	p.ShowRoster(sess.race.Horses())
	if p.atGate {
		t.Fatal("gate frame not consumed")
	}
	if sess.throttle.Allow() {
		t.Fatal("phase change should count as an edit")
	}
	p.ShowPhase(horse_racing.PhaseFinished)
	if p.racing {
		t.Fatal("presenter still racing after the finish")
	}
	// no message yet, so nothing is sent
	p.ShowRoster(sess.race.Horses())
	p.ShowSettlement(horse_racing.Settlement{Winner: sess.race.Horses()[0], Selected: sess.race.Horses()[0]})
}
