package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CreateBrandedEmbed creates a basic embed with bot branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: BotName,
		},
	}
}

// ErrorEmbed is a red embed with a short reason
func ErrorEmbed(title, reason string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(title, reason, ColorError)
}

// InsufficientChipsEmbed creates an embed for a bet the balance can't cover
func InsufficientChipsEmbed(requiredChips, currentBalance int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"Not Enough Chips",
		fmt.Sprintf("You don't have enough chips for that bet.\n**Your balance:** %s %s\n**Required:** %s %s",
			FormatChips(currentBalance), ChipsEmoji,
			FormatChips(requiredChips), ChipsEmoji),
		ColorError,
	)
}

// SessionCleanupEmbed replaces a derby message closed for inactivity
func SessionCleanupEmbed(balance int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"🧹 Derby Closed",
		fmt.Sprintf(SessionCleanupMessage, int(SessionTimeout.Minutes()), FormatChips(balance), ChipsEmoji),
		ColorWarning,
	)
}

// BankrollResetEmbed tells the bettor their balance was refilled
func BankrollResetEmbed(balance int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"💸 Bankroll Reset",
		fmt.Sprintf(BankrollResetMessage, FormatChips(balance), ChipsEmoji),
		ColorWarning,
	)
}

// FormatChips renders an amount with thousands separators
func FormatChips(amount int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", amount)
}

// FormatSignedChips always carries a sign
func FormatSignedChips(amount int64) string {
	if amount > 0 {
		return "+" + FormatChips(amount)
	}
	return FormatChips(amount)
}
