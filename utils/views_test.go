package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestOptimizeEmbedPayload(t *testing.T) {
	if result := OptimizeEmbedPayload(nil); result != nil {
		t.Errorf("Expected nil for nil input, got %v", result)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "  Race 3  ",
		Description: "  And they're off!  ",
		Color:       ColorRacing,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "  Derby  ",
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "  Balance  ", Value: "  1,000  ", Inline: true},
			{Name: "", Value: "Empty Name"},
			{Name: "Bet", Value: ""},
		},
	}

	result := OptimizeEmbedPayload(embed)
	if result.Title != "Race 3" {
		t.Errorf("Expected 'Race 3', got '%s'", result.Title)
	}
	if result.Description != "And they're off!" {
		t.Errorf("Expected trimmed description, got '%s'", result.Description)
	}
	if result.Color != ColorRacing {
		t.Errorf("Expected color %d, got %d", ColorRacing, result.Color)
	}
	if result.Footer == nil || result.Footer.Text != "Derby" {
		t.Errorf("Expected trimmed footer text 'Derby', got %v", result.Footer)
	}
	if len(result.Fields) != 1 || result.Fields[0].Name != "Balance" || result.Fields[0].Value != "1,000" {
		t.Errorf("Expected only the Balance field, got %+v", result.Fields)
	}
}

func TestIsWebhookExpiredError(t *testing.T) {
	if isWebhookExpiredError(nil) {
		t.Error("Expected false for nil error")
	}

	expiredErrors := []string{
		"Unknown Webhook",
		"\"code\": 10015",
		"404 not found",
		"Unknown interaction",
	}
	for _, errMsg := range expiredErrors {
		if !isWebhookExpiredError(&MockError{Message: errMsg}) {
			t.Errorf("Expected error '%s' to be webhook expired", errMsg)
		}
	}

	normalErrors := []string{
		"network timeout",
		"500 internal server error",
		"connection refused",
	}
	for _, errMsg := range normalErrors {
		if isWebhookExpiredError(&MockError{Message: errMsg}) {
			t.Errorf("Expected error '%s' to not be webhook expired", errMsg)
		}
	}
}

func TestParseBet(t *testing.T) {
	tests := []struct {
		input   string
		balance int64
		want    int64
	}{
		{"50", 1000, 50},
		{" 1,500 ", 5000, 1500},
		{"2k", 5000, 2000},
		{"1.5k", 5000, 1500},
		{"1m", 0, 1000000},
		{"half", 1175, 587},
		{"ALL", 1175, 1175},
		{"max", 15, 15},
		{"10%", 1000, 100},
		{"-5", 1000, -5},
	}
	for _, tt := range tests {
		got, err := ParseBet(tt.input, tt.balance)
		if err != nil {
			t.Errorf("ParseBet(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBet(%q, %d) = %d, want %d", tt.input, tt.balance, got, tt.want)
		}
	}

	for _, bad := range []string{"", "lots", "150%", "k", "1.2.3k", "nan%", "9223372036854776k", "-9223372036854776k", "9223372036854.8m", "1e400.k"} {
		if _, err := ParseBet(bad, 1000); !errors.Is(err, ErrInvalidBet) {
			t.Errorf("ParseBet(%q): expected ErrInvalidBet, got %v", bad, err)
		}
	}
}

func TestFormatChips(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1175, "1,175"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}
	for _, tt := range tests {
		if got := FormatChips(tt.in); got != tt.want {
			t.Errorf("FormatChips(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatSignedChips(175); got != "+175" {
		t.Errorf("FormatSignedChips(175) = %q", got)
	}
}

func TestComponentManagerPrefixRouting(t *testing.T) {
	cm := NewComponentManager()
	var hit string
	cm.RegisterHandler("derby_", func(*discordgo.Session, *discordgo.InteractionCreate) error {
		hit = "derby"
		return nil
	})
	cm.RegisterHandler("derby_bet_modal_", func(*discordgo.Session, *discordgo.InteractionCreate) error {
		hit = "modal"
		return nil
	})

	component := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "derby_start"},
	}}
	if err := cm.HandleInteraction(nil, component); err != nil || hit != "derby" {
		t.Errorf("Expected derby handler, got %q (%v)", hit, err)
	}

	modal := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionModalSubmit,
		Data: discordgo.ModalSubmitInteractionData{CustomID: "derby_bet_modal_123"},
	}}
	if err := cm.HandleInteraction(nil, modal); err != nil || hit != "modal" {
		t.Errorf("Expected modal handler, got %q (%v)", hit, err)
	}

	unknown := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "poker_fold"},
	}}
	if err := cm.HandleInteraction(nil, unknown); err == nil {
		t.Error("Expected an error for an unregistered component")
	}
}

func TestEditThrottle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	th := NewEditThrottle(1500 * time.Millisecond)
	th.now = func() time.Time { return now }

	if !th.Allow() {
		t.Fatal("First edit should pass")
	}
	now = now.Add(time.Second)
	if th.Allow() {
		t.Error("Edit within the interval should be held back")
	}
	now = now.Add(600 * time.Millisecond)
	if !th.Allow() {
		t.Error("Edit after the interval should pass")
	}
	th.Force()
	now = now.Add(time.Second)
	if th.Allow() {
		t.Error("A forced edit restarts the interval")
	}
}

func TestTrackPerformance(t *testing.T) {
	ResetPerformanceMetrics()
	TrackPerformance("op", 20*time.Millisecond, true, false)
	TrackPerformance("op", 80*time.Millisecond, false, true)

	m := GetPerformanceMetrics()
	if m.TotalCalls != 2 || m.SuccessfulCalls != 1 || m.FailedCalls != 1 || m.TimeoutCalls != 1 {
		t.Errorf("Unexpected counters: %+v", m)
	}
	if m.MinDuration != 20*time.Millisecond || m.MaxDuration != 80*time.Millisecond {
		t.Errorf("Unexpected durations: %+v", m)
	}
}

// MockError for testing
type MockError struct {
	Message string
}

func (e *MockError) Error() string {
	return e.Message
}
