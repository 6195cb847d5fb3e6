package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

var ErrInvalidBet = errors.New("invalid bet amount")

// ComponentHandler represents a function that handles component interactions
type ComponentHandler func(*discordgo.Session, *discordgo.InteractionCreate) error

// ComponentManager routes component and modal interactions by custom ID prefix
type ComponentManager struct {
	mu       sync.RWMutex
	handlers map[string]ComponentHandler
}

// Global component manager
var Components = NewComponentManager()

func NewComponentManager() *ComponentManager {
	return &ComponentManager{handlers: make(map[string]ComponentHandler)}
}

// RegisterHandler registers a handler for every custom ID starting with prefix
func (cm *ComponentManager) RegisterHandler(prefix string, handler ComponentHandler) {
	cm.mu.Lock()
	cm.handlers[prefix] = handler
	cm.mu.Unlock()
}

// HandleInteraction dispatches to the handler with the longest matching prefix
func (cm *ComponentManager) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	var customID string
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		customID = i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		customID = i.ModalSubmitData().CustomID
	default:
		return fmt.Errorf("not a component interaction: %v", i.Type)
	}

	handler := cm.lookup(customID)
	if handler == nil {
		return fmt.Errorf("no handler registered for component: %s", customID)
	}
	return handler(s, i)
}

func (cm *ComponentManager) lookup(customID string) ComponentHandler {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	var (
		best    ComponentHandler
		bestLen = -1
	)
	for prefix, h := range cm.handlers {
		if strings.HasPrefix(customID, prefix) && len(prefix) > bestLen {
			best, bestLen = h, len(prefix)
		}
	}
	return best
}

// CreateActionRow creates an action row with components
func CreateActionRow(components ...discordgo.MessageComponent) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: components,
	}
}

// CreateButton creates a button component
func CreateButton(customID, label string, style discordgo.ButtonStyle, disabled bool, emoji *discordgo.ComponentEmoji) discordgo.MessageComponent {
	button := discordgo.Button{
		CustomID: customID,
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}
	if emoji != nil {
		button.Emoji = emoji
	}
	return button
}

// CreateSelectMenu creates a single-choice select menu
func CreateSelectMenu(customID, placeholder string, options []discordgo.SelectMenuOption, disabled bool) discordgo.MessageComponent {
	one := 1
	return discordgo.SelectMenu{
		CustomID:    customID,
		Placeholder: placeholder,
		Options:     options,
		MinValues:   &one,
		MaxValues:   1,
		Disabled:    disabled,
	}
}

// SendInteractionResponse sends an interaction response with embed and components
func SendInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return respondWithin(InteractionDeadline, "SendInteractionResponse", func() error {
		return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	})
}

// respondWithin runs call and gives up waiting after timeout
func respondWithin(timeout time.Duration, operation string, call func() error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- call()
	}()

	select {
	case err := <-resultCh:
		TrackPerformance(operation, time.Since(start), err == nil, false)
		if err != nil {
			BotLogf("DISCORD_API", "%s failed: %v", operation, err)
		}
		return err
	case <-ctx.Done():
		TrackPerformance(operation, time.Since(start), false, true)
		BotLogf("DISCORD_API", "%s timed out after %v", operation, timeout)
		return ctx.Err()
	}
}

// UpdateComponentInteraction updates the message a component belongs to
func UpdateComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return respondWithin(InteractionDeadline, "UpdateComponentInteraction", func() error {
		return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
				Components: components,
			},
		})
	})
}

// DeferInteractionResponse defers an interaction response
func DeferInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

// EditOriginalInteraction edits the original interaction response (slash command message)
func EditOriginalInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	edit := &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
		Components: &components,
	}
	return s.InteractionResponseEdit(i.Interaction, edit)
}

// EditChannelMessage replaces the embed and components of a message
func EditChannelMessage(s *discordgo.Session, channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	embeds := []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)}
	edit := &discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Embeds:     &embeds,
		Components: &components,
	}
	start := time.Now()
	_, err := s.ChannelMessageEditComplex(edit)
	TrackPerformance("EditChannelMessage", time.Since(start), err == nil, false)
	return err
}

// SendFollowupMessage sends a followup message
func SendFollowupMessage(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) error {
	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	return respondWithin(InteractionDeadline, "SendFollowupMessage", func() error {
		_, err := s.FollowupMessageCreate(i.Interaction, true, params)
		return err
	})
}

// NotifyUser sends an ephemeral notice, falling back to a channel message once
// the interaction token has expired.
func NotifyUser(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	err := SendFollowupMessage(s, i, embed, true)
	if err == nil || !isWebhookExpiredError(err) || i.ChannelID == "" {
		return err
	}
	_, err = s.ChannelMessageSendEmbed(i.ChannelID, embed)
	return err
}

// InteractionUserID returns the invoking user's id in guilds and DMs
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// InteractionUserName returns the invoking user's display name
func InteractionUserName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "Unknown"
}

// isWebhookExpiredError checks if the error indicates an expired interaction token
func isWebhookExpiredError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Webhook") ||
		strings.Contains(msg, "\"code\": 10015") ||
		strings.Contains(msg, "404") ||
		strings.Contains(msg, "Unknown interaction")
}

// OptimizeEmbedPayload trims whitespace and drops empty parts of an embed
func OptimizeEmbedPayload(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return embed
	}

	optimized := &discordgo.MessageEmbed{
		Title:       strings.TrimSpace(embed.Title),
		Description: strings.TrimSpace(embed.Description),
		Color:       embed.Color,
		Timestamp:   embed.Timestamp,
	}
	if embed.Footer != nil && strings.TrimSpace(embed.Footer.Text) != "" {
		optimized.Footer = &discordgo.MessageEmbedFooter{
			Text:    strings.TrimSpace(embed.Footer.Text),
			IconURL: embed.Footer.IconURL,
		}
	}
	if embed.Thumbnail != nil && embed.Thumbnail.URL != "" {
		optimized.Thumbnail = embed.Thumbnail
	}
	for _, field := range embed.Fields {
		if field != nil && strings.TrimSpace(field.Name) != "" && strings.TrimSpace(field.Value) != "" {
			optimized.Fields = append(optimized.Fields, &discordgo.MessageEmbedField{
				Name:   strings.TrimSpace(field.Name),
				Value:  strings.TrimSpace(field.Value),
				Inline: field.Inline,
			})
		}
	}
	return optimized
}

// ParseBet parses a bet string against a balance. It accepts plain numbers,
// k/m suffixes, percentages, "half" and "all".
func ParseBet(betStr string, balance int64) (int64, error) {
	betStr = strings.TrimSpace(strings.ToLower(betStr))
	betStr = strings.ReplaceAll(betStr, ",", "")
	betStr = strings.ReplaceAll(betStr, "_", "")

	switch betStr {
	case "":
		return 0, fmt.Errorf("%w: empty", ErrInvalidBet)
	case "all", "allin", "max":
		return balance, nil
	case "half":
		return balance / 2, nil
	}

	if strings.HasSuffix(betStr, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(betStr, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidBet, betStr)
		}
		if !(percent >= 0 && percent <= 100) {
			return 0, fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidBet)
		}
		return int64(float64(balance) * percent / 100), nil
	}

	multiplier := int64(1)
	if strings.HasSuffix(betStr, "k") {
		multiplier = 1000
		betStr = strings.TrimSuffix(betStr, "k")
	} else if strings.HasSuffix(betStr, "m") {
		multiplier = 1000000
		betStr = strings.TrimSuffix(betStr, "m")
	}

	if multiplier > 1 && strings.Contains(betStr, ".") {
		f, err := strconv.ParseFloat(betStr, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidBet, betStr)
		}
		v := f * float64(multiplier)
		if math.IsNaN(v) || v >= math.MaxInt64 || v <= math.MinInt64 {
			return 0, fmt.Errorf("%w: %s out of range", ErrInvalidBet, betStr)
		}
		return int64(v), nil
	}

	bet, err := strconv.ParseInt(betStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidBet, betStr)
	}
	if bet > math.MaxInt64/multiplier || bet < math.MinInt64/multiplier {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidBet, betStr)
	}
	return bet * multiplier, nil
}
