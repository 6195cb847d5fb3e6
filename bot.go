package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"derby-go/cogs"
	"derby-go/games/horse_racing"
	"derby-go/utils"

	"github.com/bwmarrin/discordgo"
)

// bot holds what the Discord handlers need.
type bot struct {
	derby   *cogs.Derby
	wallets *utils.WalletCache
	status  *cogs.Status
}

func runDiscord(ctx context.Context, cfg *utils.Config, roster []horse_racing.HorseSpec) error {
	status := cogs.NewStatus("derby-bot")
	statusErr := make(chan error, 1)
	go func() { statusErr <- status.Serve(ctx, cfg.Port) }()

	ledger, err := utils.OpenLedger(ctx, cfg)
	if err != nil {
		status.Set("ledger_failed")
		return err
	}
	defer ledger.Close()

	wallets := utils.NewWalletCache(ledger, utils.WalletCacheTTL, utils.WalletCacheCleanup)
	defer wallets.Close()

	b := &bot{
		derby:   cogs.NewDerby(cfg, roster, wallets, ledger),
		wallets: wallets,
		status:  status,
	}
	defer b.derby.Close()
	defer utils.Animations.CancelAll()
	b.derby.Register(utils.Components)
	status.SetRaces(b.derby)

	if cfg.BotToken == "" {
		utils.BotLogf("BOT", "BOT_TOKEN not set, Discord bot will not connect")
		status.Set("no_token")
		return waitStatus(ctx, statusErr)
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		status.Set("error")
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)

	if err := session.Open(); err != nil {
		status.Set("connection_failed")
		return fmt.Errorf("open discord connection: %w", err)
	}
	defer session.Close()

	utils.BotLogf("BOT", "bot is now running, press CTRL+C to exit")
	status.Set("running")

	err = waitStatus(ctx, statusErr)
	utils.BotLogf("BOT", "gracefully shutting down")
	status.Set("shutting_down")
	return err
}

// waitStatus blocks until ctx ends or the status server fails.
func waitStatus(ctx context.Context, statusErr <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-statusErr:
		return fmt.Errorf("status server: %w", err)
	}
}

func (b *bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	utils.BotLogf("BOT", "logged in as %s (ID: %s)", event.User.Username, event.User.ID)
	b.status.Set("online")

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{{Name: "the derby", Type: discordgo.ActivityTypeWatching}},
		Status:     "online",
	}); err != nil {
		utils.BotErrorf("BOT", err, "failed to update status")
	}

	if err := registerSlashCommands(s); err != nil {
		utils.BotErrorf("BOT", err, "failed to register slash commands")
	}
}

func registerSlashCommands(s *discordgo.Session) error {
	commands := []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Check bot latency and status"},
		{Name: "balance", Description: "Check your chip balance and record"},
		cogs.RegisterDerbyCommand(),
	}
	for _, command := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", command); err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}
	utils.BotLogf("BOT", "registered %d slash commands", len(commands))
	return nil
}

func (b *bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "ping":
			b.handlePing(s, i)
		case "balance":
			b.handleBalance(s, i)
		case "derby":
			b.derby.HandleCommand(s, i)
		}
	case discordgo.InteractionMessageComponent, discordgo.InteractionModalSubmit:
		if err := utils.Components.HandleInteraction(s, i); err != nil {
			utils.BotErrorf("BOT", err, "component interaction failed")
		}
	}
}

func (b *bot) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	start := time.Now()
	embed := utils.CreateBrandedEmbed("🏓 Pong!", "", utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Latency", Value: fmt.Sprintf("%dms", s.HeartbeatLatency().Milliseconds()), Inline: true},
		{Name: "Status", Value: "✅ " + b.status.State(), Inline: true},
		{Name: "Response Time", Value: fmt.Sprintf("%dms", time.Since(start).Milliseconds()), Inline: true},
	}
	if err := utils.SendInteractionResponse(s, i, embed, nil, false); err != nil {
		utils.BotErrorf("BOT", err, "failed to answer /ping")
	}
}

func (b *bot) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), utils.InteractionDeadline)
	defer cancel()

	wallet, err := b.wallets.GetCachedWallet(ctx, utils.InteractionUserID(i))
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			utils.BotErrorf("BOT", err, "failed to load wallet")
		}
		_ = utils.SendInteractionResponse(s, i, utils.ErrorEmbed("❌ Balance", "Error accessing your wallet. Try again in a moment."), nil, true)
		return
	}

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("💰 %s's Balance", utils.InteractionUserName(i)),
		fmt.Sprintf("You currently have **%s** %s", utils.FormatChips(wallet.Chips), utils.ChipsEmoji), utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "🏁 Races", Value: fmt.Sprintf("%d", wallet.Races), Inline: true},
		{Name: "🎯 Wins", Value: fmt.Sprintf("%d", wallet.Wins), Inline: true},
		{Name: "📊 Win Rate", Value: fmt.Sprintf("%.1f%%", wallet.WinRate()), Inline: true},
		{Name: "📈 Net", Value: fmt.Sprintf("%s %s", utils.FormatSignedChips(wallet.NetProfit()), utils.ChipsEmoji), Inline: true},
	}
	if err := utils.SendInteractionResponse(s, i, embed, nil, true); err != nil {
		utils.BotErrorf("BOT", err, "failed to answer /balance")
	}
}
