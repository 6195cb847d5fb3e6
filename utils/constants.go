package utils

import "time"

// Branding
const (
	BotName    = "Derby"
	BotColor   = 0x5865F2
	ChipsEmoji = "🪙"
)

// Embed colors
const (
	ColorError   = 0xE74C3C
	ColorSuccess = 0x2ECC71
	ColorWarning = 0xF39C12
	ColorRacing  = 0x8E44AD
	ColorWinner  = 0xF1C40F
)

// Sessions
const (
	SessionTimeout      = 5 * time.Minute
	WalletCacheTTL      = 10 * time.Minute
	WalletCacheCleanup  = 5 * time.Minute
	RecentRacesShown    = 5
	InteractionDeadline = 2 * time.Second
)

// UI Messages
const (
	SessionCleanupMessage = "This derby was closed after %d minutes of inactivity. Your balance of %s %s is saved."
	BankrollResetMessage  = "You're out of chips! Your balance has been reset to %s %s."
	NotYourRaceMessage    = "This derby belongs to someone else. Start your own with /derby."
)
