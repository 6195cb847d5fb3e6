package cogs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"derby-go/games/horse_racing"
	"derby-go/models"
	"derby-go/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	derbyPrefix      = "derby_"
	derbyHorseSelect = "derby_horse"
	derbyBetButton   = "derby_bet"
	derbyStart       = "derby_start"
	derbyNext        = "derby_next"
	derbyHistory     = "derby_history"
	derbyCancel      = "derby_cancel"
	derbyBetModal    = "derby_bet_modal_"
	derbyBetInput    = "bet_amount"

	discordLaneWidth = 20
	storeTimeout     = 5 * time.Second
)

// ActiveRace is what the status server reports for a running derby.
type ActiveRace struct {
	ChannelID string `json:"channel_id"`
	OwnerID   string `json:"owner_id"`
	Owner     string `json:"owner"`
	horse_racing.Snapshot
}

// ticket is the wager fixed at the start of a race.
type ticket struct {
	raceNumber int
	horse      horse_racing.HorseView
	bet        int64
}

type derbySession struct {
	mu        sync.Mutex
	channelID string
	messageID string
	ownerID   string
	ownerName string
	race      *horse_racing.Race
	ticket    ticket
	throttle  *utils.EditThrottle
	timer     *time.Timer
	closed    bool
}

func (sess *derbySession) animationID() string {
	return derbyPrefix + sess.channelID
}

// Derby runs one betting session per channel, each owned by the user who
// opened it.
type Derby struct {
	cfg     *utils.Config
	roster  []horse_racing.HorseSpec
	wallets *utils.WalletCache
	ledger  utils.Ledger
	seeds   atomic.Int64

	// stakeMu serializes stakes across sessions sharing a wallet.
	stakeMu sync.Mutex

	mu       sync.RWMutex
	sessions map[string]*derbySession
}

func NewDerby(cfg *utils.Config, roster []horse_racing.HorseSpec, wallets *utils.WalletCache, ledger utils.Ledger) *Derby {
	return &Derby{
		cfg:      cfg,
		roster:   roster,
		wallets:  wallets,
		ledger:   ledger,
		sessions: make(map[string]*derbySession),
	}
}

// RegisterDerbyCommand describes the /derby slash command.
func RegisterDerbyCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "derby",
		Description: "Open a horse race betting table in this channel.",
	}
}

// Register routes the derby components and modal through cm.
func (d *Derby) Register(cm *utils.ComponentManager) {
	cm.RegisterHandler(derbyPrefix, d.HandleComponent)
	cm.RegisterHandler(derbyBetModal, d.HandleModal)
}

func (d *Derby) newRNG() horse_racing.RNG {
	if d.cfg.Seed == 0 {
		return horse_racing.NewRandomRNG()
	}
	return horse_racing.NewRNG(d.cfg.Seed + d.seeds.Add(1) - 1)
}

// HandleCommand opens a derby in the channel.
func (d *Derby) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		utils.BotErrorf("DERBY", err, "failed to defer /derby")
		return
	}

	chID := i.ChannelID
	userID := utils.InteractionUserID(i)

	d.mu.Lock()
	if _, exists := d.sessions[chID]; exists {
		d.mu.Unlock()
		_, _ = utils.EditOriginalInteraction(s, i, utils.ErrorEmbed("🏇 Derby", "There is already an active derby in this channel."), nil)
		return
	}
	// reserve the channel while the wallet loads
	sess := &derbySession{channelID: chID, ownerID: userID, ownerName: utils.InteractionUserName(i)}
	d.sessions[chID] = sess
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	race, err := d.openRace(ctx, sess)
	if err != nil {
		d.drop(sess)
		utils.BotErrorf("DERBY", err, "failed to open derby for %s", userID)
		_, _ = utils.EditOriginalInteraction(s, i, utils.ErrorEmbed("🏇 Derby", "Failed to load your wallet."), nil)
		return
	}

	sess.mu.Lock()
	sess.race = race
	sess.throttle = utils.NewEditThrottle(d.cfg.DiscordEditInterval)
	race.SetPresenter(&discordPresenter{s: s, sess: sess, trackLength: race.TrackLength()})
	restored, reset := d.restoreBankroll(ctx, sess)
	embed, comps := cardEmbed(sess), cardComponents(sess)
	sess.mu.Unlock()

	msg, err := utils.EditOriginalInteraction(s, i, embed, comps)
	if err != nil {
		d.drop(sess)
		utils.BotErrorf("DERBY", err, "failed to post derby in %s", chID)
		return
	}
	sess.mu.Lock()
	sess.messageID = msg.ID
	sess.timer = time.AfterFunc(utils.SessionTimeout, func() { d.expire(s, sess) })
	sess.mu.Unlock()

	if reset {
		_ = utils.NotifyUser(s, i, utils.BankrollResetEmbed(restored))
	}
	utils.BotLogf("DERBY", "%s opened a derby in %s", sess.ownerName, chID)
}

func (d *Derby) openRace(ctx context.Context, sess *derbySession) (*horse_racing.Race, error) {
	wallet, err := d.wallets.GetCachedWallet(ctx, sess.ownerID)
	if err != nil {
		return nil, err
	}
	race, err := horse_racing.NewRace(horse_racing.Options{
		Roster:        d.roster,
		TrackLength:   d.cfg.TrackLength,
		StartingMoney: d.cfg.StartingMoney,
		MinBet:        d.cfg.MinBet,
		DefaultBet:    d.cfg.DefaultBet,
		RNG:           d.newRNG(),
	})
	if err != nil {
		return nil, err
	}
	if err := race.SetBalance(wallet.Chips); err != nil {
		return nil, err
	}
	return race, nil
}

// restoreBankroll refills a broke wallet. The session lock must be held.
func (d *Derby) restoreBankroll(ctx context.Context, sess *derbySession) (int64, bool) {
	balance, reset := sess.race.RestoreBankroll()
	if !reset {
		return balance, false
	}
	if _, err := d.wallets.UpdateCachedWallet(ctx, sess.ownerID, utils.WalletUpdate{Chips: &balance}); err != nil {
		utils.BotErrorf("DERBY", err, "failed to restore bankroll for %s", sess.ownerID)
	}
	return balance, true
}

func (d *Derby) session(channelID string) *derbySession {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sessions[channelID]
}

// drop forgets the session and stops its timer and race loop.
func (d *Derby) drop(sess *derbySession) {
	d.mu.Lock()
	if d.sessions[sess.channelID] == sess {
		delete(d.sessions, sess.channelID)
	}
	d.mu.Unlock()

	sess.mu.Lock()
	sess.closed = true
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.mu.Unlock()
	utils.Animations.CancelAnimation(sess.animationID())
}

// touch pushes the inactivity deadline back. The session lock must be held.
func (sess *derbySession) touch() {
	if sess.timer != nil {
		sess.timer.Reset(utils.SessionTimeout)
	}
}

// owned resolves the interaction's session and answers it directly when the
// caller may not use it.
func (d *Derby) owned(s *discordgo.Session, i *discordgo.InteractionCreate, channelID string) *derbySession {
	sess := d.session(channelID)
	ready := false
	if sess != nil {
		sess.mu.Lock()
		ready = sess.race != nil && !sess.closed
		sess.mu.Unlock()
	}
	if !ready {
		_ = utils.SendInteractionResponse(s, i, utils.ErrorEmbed("🏇 Derby", "There is no active derby here."), nil, true)
		return nil
	}
	if utils.InteractionUserID(i) != sess.ownerID {
		_ = utils.SendInteractionResponse(s, i, utils.ErrorEmbed("🏇 Derby", utils.NotYourRaceMessage), nil, true)
		return nil
	}
	return sess
}

// HandleComponent answers the derby buttons and the horse menu.
func (d *Derby) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.MessageComponentData()
	sess := d.owned(s, i, i.ChannelID)
	if sess == nil {
		return nil
	}

	switch data.CustomID {
	case derbyHorseSelect:
		if len(data.Values) == 0 {
			return nil
		}
		n, err := strconv.Atoi(data.Values[0])
		if err != nil {
			return fmt.Errorf("bad horse value %q: %w", data.Values[0], err)
		}
		return d.update(s, i, sess, func(r *horse_racing.Race) error { return r.SelectHorse(n) })

	case derbyBetButton:
		return s.InteractionRespond(i.Interaction, betModal(sess))

	case derbyNext:
		return d.update(s, i, sess, (*horse_racing.Race).NextRace)

	case derbyHistory:
		return d.showHistory(s, i, sess)

	case derbyCancel:
		sess.mu.Lock()
		if sess.race.Phase() == horse_racing.PhaseRacing {
			sess.mu.Unlock()
			return utils.SendInteractionResponse(s, i, utils.ErrorEmbed("🏇 Derby", "Wait for the horses to cross the line."), nil, true)
		}
		balance := sess.race.Money()
		sess.mu.Unlock()
		d.drop(sess)
		embed := utils.CreateBrandedEmbed("🏇 Derby Closed", fmt.Sprintf("Thanks for playing! Your balance is %s %s.", utils.FormatChips(balance), utils.ChipsEmoji), utils.BotColor)
		return utils.UpdateComponentInteraction(s, i, embed, []discordgo.MessageComponent{})

	case derbyStart:
		return d.start(s, i, sess)
	}
	return fmt.Errorf("unknown derby component: %s", data.CustomID)
}

// update applies fn to the race and redraws the card, or tells the owner why
// fn was refused.
func (d *Derby) update(s *discordgo.Session, i *discordgo.InteractionCreate, sess *derbySession, fn func(*horse_racing.Race) error) error {
	sess.mu.Lock()
	sess.touch()
	if err := fn(sess.race); err != nil {
		embed := rejectionEmbed(err, sess.race)
		sess.mu.Unlock()
		return utils.SendInteractionResponse(s, i, embed, nil, true)
	}
	embed, comps := cardEmbed(sess), cardComponents(sess)
	sess.mu.Unlock()
	return utils.UpdateComponentInteraction(s, i, embed, comps)
}

func (d *Derby) start(s *discordgo.Session, i *discordgo.InteractionCreate, sess *derbySession) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	sess.mu.Lock()
	sess.touch()
	if err := d.placeStake(ctx, sess); err != nil {
		embed := rejectionEmbed(err, sess.race)
		sess.mu.Unlock()
		return utils.SendInteractionResponse(s, i, embed, nil, true)
	}
	r := sess.race
	embed := raceEmbed(sess.ticket, r.Horses(), r.TrackLength(), sess.ownerName)
	sess.mu.Unlock()

	if err := utils.UpdateComponentInteraction(s, i, embed, []discordgo.MessageComponent{}); err != nil {
		utils.BotErrorf("DERBY", err, "failed to acknowledge start in %s", sess.channelID)
	}

	utils.Animations.StartAnimation(sess.animationID(), func(ctx context.Context) {
		err := horse_racing.RunFunc(ctx, d.cfg.TickInterval, func() bool {
			sess.mu.Lock()
			defer sess.mu.Unlock()
			return sess.race.Tick()
		})
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				utils.BotErrorf("DERBY", err, "race loop in %s stopped", sess.channelID)
			}
			return
		}
		d.settle(s, i, sess)
	})
	return nil
}

// placeStake starts the race and takes the stake out of the owner's wallet.
// The balance is reloaded from the wallet first. The session lock must be held.
func (d *Derby) placeStake(ctx context.Context, sess *derbySession) error {
	d.stakeMu.Lock()
	defer d.stakeMu.Unlock()

	r := sess.race
	if r.Phase() == horse_racing.PhaseAwaitingSelection {
		wallet, err := d.wallets.GetCachedWallet(ctx, sess.ownerID)
		if err != nil {
			return fmt.Errorf("load wallet: %w", err)
		}
		if err := r.SetBalance(wallet.Chips); err != nil {
			return err
		}
	}

	prev := sess.ticket
	horse, _ := r.Selected()
	sess.ticket = ticket{raceNumber: r.RaceNumber(), horse: horse, bet: r.Bet()}
	if err := r.StartRace(); err != nil {
		sess.ticket = prev
		return err
	}
	if _, err := d.wallets.UpdateCachedWallet(ctx, sess.ownerID, utils.StakeUpdate(sess.ticket.bet)); err != nil {
		utils.BotErrorf("DERBY", err, "failed to take stake of %d from %s", sess.ticket.bet, sess.ownerID)
	}
	return nil
}

// settle stores the result of a finished race and refills a broke bankroll.
func (d *Derby) settle(s *discordgo.Session, i *discordgo.InteractionCreate, sess *derbySession) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()
	st, ok := sess.race.Settlement()
	if !ok {
		return
	}
	wallet, err := d.wallets.UpdateCachedWallet(ctx, sess.ownerID, utils.SettlementUpdate(st.Payout(), st.Won()))
	if err != nil {
		utils.BotErrorf("DERBY", err, "failed to update wallet for %s", sess.ownerID)
	} else if err := sess.race.SetBalance(wallet.Chips); err != nil {
		utils.BotErrorf("DERBY", err, "failed to sync balance for %s", sess.ownerID)
	}
	if err := d.ledger.RecordRace(ctx, models.NewRaceRecord(sess.ownerID, st)); err != nil {
		utils.BotErrorf("DERBY", err, "failed to record race %d for %s", st.RaceNumber, sess.ownerID)
	}
	utils.BotLogf("DERBY", "%s race %d: %s won, %s %s", sess.ownerName, st.RaceNumber, st.Winner.Name, st.Outcome, utils.FormatSignedChips(st.Net()))

	if balance, reset := d.restoreBankroll(ctx, sess); reset {
		go func() {
			if err := utils.NotifyUser(s, i, utils.BankrollResetEmbed(balance)); err != nil {
				utils.BotErrorf("DERBY", err, "failed to send bankroll notice to %s", sess.ownerID)
			}
		}()
	}
}

// HandleModal takes the amount typed into the bet modal.
func (d *Derby) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	sess := d.owned(s, i, strings.TrimPrefix(data.CustomID, derbyBetModal))
	if sess == nil {
		return nil
	}

	raw := modalValue(data.Components, derbyBetInput)
	sess.mu.Lock()
	amount, err := utils.ParseBet(raw, sess.race.Money())
	sess.mu.Unlock()
	if err != nil {
		return utils.SendInteractionResponse(s, i, utils.ErrorEmbed("Bet Error", "Try a number like 100, 1k, half or all."), nil, true)
	}
	return d.update(s, i, sess, func(r *horse_racing.Race) error { return r.SetBet(amount) })
}

func (d *Derby) showHistory(s *discordgo.Session, i *discordgo.InteractionCreate, sess *derbySession) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	records, err := d.ledger.RecentRaces(ctx, sess.ownerID, utils.RecentRacesShown)
	if err != nil {
		utils.BotErrorf("DERBY", err, "failed to load history for %s", sess.ownerID)
		return utils.SendInteractionResponse(s, i, utils.ErrorEmbed("🏇 Derby", "Failed to load your races."), nil, true)
	}
	return utils.SendInteractionResponse(s, i, historyEmbed(records), nil, true)
}

// expire closes a session that has seen no activity for the timeout.
func (d *Derby) expire(s *discordgo.Session, sess *derbySession) {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	if sess.race.Phase() == horse_racing.PhaseRacing {
		sess.touch()
		sess.mu.Unlock()
		return
	}
	balance := sess.race.Money()
	sess.mu.Unlock()

	d.drop(sess)
	if err := utils.EditChannelMessage(s, sess.channelID, sess.messageID, utils.SessionCleanupEmbed(balance), []discordgo.MessageComponent{}); err != nil {
		utils.BotErrorf("DERBY", err, "failed to close idle derby in %s", sess.channelID)
	}
	utils.BotLogf("DERBY", "closed idle derby in %s", sess.channelID)
}

// ActiveRaces snapshots every open derby.
func (d *Derby) ActiveRaces() []ActiveRace {
	d.mu.RLock()
	sessions := make([]*derbySession, 0, len(d.sessions))
	for _, sess := range d.sessions {
		sessions = append(sessions, sess)
	}
	d.mu.RUnlock()

	out := make([]ActiveRace, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.race != nil {
			out = append(out, ActiveRace{
				ChannelID: sess.channelID,
				OwnerID:   sess.ownerID,
				Owner:     sess.ownerName,
				Snapshot:  sess.race.Snapshot(),
			})
		}
		sess.mu.Unlock()
	}
	return out
}

// Close stops every race loop and idle timer.
func (d *Derby) Close() {
	d.mu.RLock()
	sessions := make([]*derbySession, 0, len(d.sessions))
	for _, sess := range d.sessions {
		sessions = append(sessions, sess)
	}
	d.mu.RUnlock()
	for _, sess := range sessions {
		d.drop(sess)
	}
}

// discordPresenter edits the derby message as the race runs. It is called
// with the session lock held.
type discordPresenter struct {
	s           *discordgo.Session
	sess        *derbySession
	trackLength float64
	racing      bool
	// atGate is set between the start and the first tick. The start
	// acknowledgement already shows the horses at the gate.
	atGate bool
}

func (p *discordPresenter) ShowPhase(phase horse_racing.Phase) {
	p.racing = phase == horse_racing.PhaseRacing
	p.atGate = p.racing
	if p.racing {
		p.sess.throttle.Force()
	}
}

func (p *discordPresenter) ShowRoster(horses []horse_racing.HorseView) {
	if p.atGate {
		p.atGate = false
		return
	}
	if !p.racing || !p.sess.throttle.Allow() {
		return
	}
	embed := raceEmbed(p.sess.ticket, horses, p.trackLength, p.sess.ownerName)
	p.edit(embed, []discordgo.MessageComponent{})
}

func (p *discordPresenter) ShowSettlement(st horse_racing.Settlement) {
	p.sess.throttle.Force()
	p.edit(settlementEmbed(st, p.sess.ownerName), finishedComponents())
}

func (p *discordPresenter) edit(embed *discordgo.MessageEmbed, comps []discordgo.MessageComponent) {
	if p.sess.messageID == "" {
		return
	}
	if err := utils.EditChannelMessage(p.s, p.sess.channelID, p.sess.messageID, embed, comps); err != nil {
		utils.BotErrorf("DERBY", err, "failed to edit race in %s", p.sess.channelID)
	}
}

// cardEmbed shows the field, odds and wager while awaiting a selection.
func cardEmbed(sess *derbySession) *discordgo.MessageEmbed {
	r := sess.race
	selected, picked := r.Selected()

	var b strings.Builder
	b.WriteString("**Pick a horse, set your bet and start the race!**\n\n")
	for _, h := range r.Horses() {
		marker := "▫️"
		if picked && h.ID == selected.ID {
			marker = "▶️"
		}
		fmt.Fprintf(&b, "%s `%d.` **%s** `%sx`\n", marker, h.ID+1, h.Name, h.Odds.StringFixed(1))
	}

	pick := "None yet"
	if picked {
		pick = fmt.Sprintf("%s (%sx)", selected.Name, selected.Odds.StringFixed(1))
	}
	embed := utils.CreateBrandedEmbed(fmt.Sprintf("🏇 %s's Derby · Race %d", sess.ownerName, r.RaceNumber()), b.String(), utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Balance", Value: fmt.Sprintf("%s %s", utils.FormatChips(r.Money()), utils.ChipsEmoji), Inline: true},
		{Name: "Bet", Value: fmt.Sprintf("%s %s", utils.FormatChips(r.Bet()), utils.ChipsEmoji), Inline: true},
		{Name: "Horse", Value: pick, Inline: true},
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Minimum bet %s · closes after %d idle minutes", utils.FormatChips(r.MinBet()), int(utils.SessionTimeout.Minutes()))}
	return embed
}

func cardComponents(sess *derbySession) []discordgo.MessageComponent {
	r := sess.race
	if r.Phase() == horse_racing.PhaseFinished {
		return finishedComponents()
	}
	selected, picked := r.Selected()
	options := make([]discordgo.SelectMenuOption, 0, len(r.Horses()))
	for _, h := range r.Horses() {
		options = append(options, discordgo.SelectMenuOption{
			Label:       fmt.Sprintf("%d. %s", h.ID+1, h.Name),
			Value:       strconv.Itoa(h.ID),
			Description: fmt.Sprintf("Pays %sx", h.Odds.StringFixed(1)),
			Default:     picked && h.ID == selected.ID,
		})
	}
	return []discordgo.MessageComponent{
		utils.CreateActionRow(utils.CreateSelectMenu(derbyHorseSelect, "Choose your horse", options, false)),
		utils.CreateActionRow(
			utils.CreateButton(derbyBetButton, "Place Bet", discordgo.PrimaryButton, false, &discordgo.ComponentEmoji{Name: "🪙"}),
			utils.CreateButton(derbyStart, "Start Race", discordgo.SuccessButton, !picked, &discordgo.ComponentEmoji{Name: "🏁"}),
			utils.CreateButton(derbyHistory, "History", discordgo.SecondaryButton, false, nil),
			utils.CreateButton(derbyCancel, "Cancel", discordgo.DangerButton, false, nil),
		),
	}
}

func finishedComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton(derbyNext, "Next Race", discordgo.SuccessButton, false, &discordgo.ComponentEmoji{Name: "🏇"}),
			utils.CreateButton(derbyHistory, "History", discordgo.SecondaryButton, false, nil),
			utils.CreateButton(derbyCancel, "Cash Out", discordgo.DangerButton, false, nil),
		),
	}
}

func betModal(sess *derbySession) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: derbyBetModal + sess.channelID,
			Title:    "Place Your Bet",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{
						CustomID:    derbyBetInput,
						Label:       "Bet Amount",
						Style:       discordgo.TextInputShort,
						Placeholder: "e.g. 100, 1k, half, all",
						Required:    true,
						MinLength:   1,
						MaxLength:   12,
					},
				}},
			},
		},
	}
}

func modalValue(rows []discordgo.MessageComponent, customID string) string {
	for _, row := range rows {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok && ti.CustomID == customID {
				return strings.TrimSpace(ti.Value)
			}
		}
	}
	return ""
}

// rejectionEmbed explains why the race refused an action.
func rejectionEmbed(err error, r *horse_racing.Race) *discordgo.MessageEmbed {
	switch {
	case errors.Is(err, horse_racing.ErrInsufficientFunds):
		return utils.InsufficientChipsEmbed(r.Bet(), r.Money())
	case errors.Is(err, horse_racing.ErrBetBelowMinimum):
		return utils.ErrorEmbed("Bet Too Small", fmt.Sprintf("The minimum bet is %s %s.", utils.FormatChips(r.MinBet()), utils.ChipsEmoji))
	case errors.Is(err, horse_racing.ErrNoHorseSelected):
		return utils.ErrorEmbed("No Horse Selected", "Choose a horse from the menu first.")
	case errors.Is(err, horse_racing.ErrRaceInProgress):
		return utils.ErrorEmbed("Race Running", "Wait for the horses to cross the line.")
	case errors.Is(err, horse_racing.ErrRaceNotReady):
		return utils.ErrorEmbed("Race Over", "Press Next Race to bet again.")
	case errors.Is(err, horse_racing.ErrRaceNotOver):
		return utils.ErrorEmbed("Race Not Over", "The current race has not finished yet.")
	}
	return utils.ErrorEmbed("🏇 Derby", err.Error())
}

// trackDisplay draws one lane per horse.
func trackDisplay(horses []horse_racing.HorseView, trackLength float64) string {
	rows := make([]string, 0, len(horses))
	for _, h := range horses {
		filled := int(h.Position / trackLength * discordLaneWidth)
		filled = max(0, min(filled, discordLaneWidth))
		end := "🏁"
		if h.Finished {
			end = "✅"
		}
		// ASCII inside the code span keeps lanes aligned
		rows = append(rows, fmt.Sprintf("`%d.[%s>%s]` %s %s", h.ID+1,
			strings.Repeat("=", filled), strings.Repeat("-", discordLaneWidth-filled), end, h.Name))
	}
	return strings.Join(rows, "\n")
}

func raceEmbed(t ticket, horses []horse_racing.HorseView, trackLength float64, owner string) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("**%s has %s %s on %s!**\n\n%s", owner, utils.FormatChips(t.bet), utils.ChipsEmoji, t.horse.Name, trackDisplay(horses, trackLength))
	return utils.CreateBrandedEmbed(fmt.Sprintf("🏇 Race %d · The Race is On!", t.raceNumber), desc, utils.ColorRacing)
}

func settlementEmbed(st horse_racing.Settlement, owner string) *discordgo.MessageEmbed {
	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString("**Final Placements:**\n")
	for i, h := range st.Standings {
		place := fmt.Sprintf("`%d.`", i+1)
		if i < len(medals) {
			place = medals[i]
		}
		fmt.Fprintf(&b, "%s **%s** `%sx`\n", place, h.Name, h.Odds.StringFixed(1))
	}

	color := utils.ColorError
	result := fmt.Sprintf("%s lost %s %s on %s.", owner, utils.FormatChips(st.Bet), utils.ChipsEmoji, st.Selected.Name)
	if st.Won() {
		color = utils.ColorWinner
		result = fmt.Sprintf("%s won %s %s on %s!", owner, utils.FormatChips(st.Winnings), utils.ChipsEmoji, st.Selected.Name)
	}
	b.WriteString("\n" + result)

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("🏁 Race %d: %s Wins!", st.RaceNumber, st.Winner.Name), b.String(), color)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Net", Value: fmt.Sprintf("%s %s", utils.FormatSignedChips(st.Net()), utils.ChipsEmoji), Inline: true},
		{Name: "Balance", Value: fmt.Sprintf("%s %s", utils.FormatChips(st.Money), utils.ChipsEmoji), Inline: true},
		{Name: "Ticks", Value: strconv.Itoa(st.Ticks), Inline: true},
	}
	return embed
}

func historyEmbed(records []*models.RaceRecord) *discordgo.MessageEmbed {
	if len(records) == 0 {
		return utils.CreateBrandedEmbed("📜 Recent Races", "No races yet.", utils.BotColor)
	}
	var b strings.Builder
	for _, r := range records {
		icon := "❌"
		if r.Won() {
			icon = "✅"
		}
		fmt.Fprintf(&b, "%s Race %d: %s on **%s** `%sx` → %s (balance %s)\n",
			icon, r.RaceNumber, utils.FormatChips(r.Bet), r.HorseName, r.Odds.StringFixed(1),
			utils.FormatSignedChips(r.Net()), utils.FormatChips(r.Balance))
	}
	return utils.CreateBrandedEmbed("📜 Recent Races", b.String(), utils.BotColor)
}
