package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/oddsticker/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Price: $100.50", "Price: $100\\.50"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// The chat ID is parsed before the bot token is checked against the API.
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil || !strings.Contains(err.Error(), "invalid chat ID") {
		t.Errorf("Expected invalid chat ID error, got %v", err)
	}
}

func TestFormatMovers(t *testing.T) {
	doc := &models.MoverDocument{
		ID:        "doc-1",
		Timestamp: "2025-11-20T19:00:00Z",
		Items: []models.MoverItem{
			{Ticker: "KXCFP-26-UGA", Old: 0.35, New: 0.34, Change: -0.01},
			{Ticker: "KXCFP-26-OSU", Old: 0.40, New: 0.45, Change: 0.05},
		},
	}

	msg := formatMovers(doc, models.ScaleProbability, time.UTC)

	for _, want := range []string{
		"🚨 *Notable Odds Movements*",
		"📅 Detected: 2025\\-11\\-20 19:00:00 UTC",
		"1\\. *OSU* 📈 \\+5\\.0% \\(40\\.0% → 45\\.0%\\)",
		"2\\. *UGA* 📉 \\-1\\.0% \\(35\\.0% → 34\\.0%\\)",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatMovers_Points(t *testing.T) {
	doc := &models.MoverDocument{
		ID:        "doc-2",
		Timestamp: "2025-11-20T19:00:00Z",
		Items:     []models.MoverItem{{Ticker: "KXCFP-26-OSU", Old: 40, New: 42.5, Change: 2.5}},
	}
	msg := formatMovers(doc, models.ScalePoints, nil)
	if want := "*OSU* 📈 \\+2\\.5 pts \\(40 → 42\\.5\\)"; !strings.Contains(msg, want) {
		t.Errorf("message missing %q:\n%s", want, msg)
	}
}

func TestSendMovers_NothingToSend(t *testing.T) {
	c := &Client{}
	if err := c.SendMovers(nil, models.ScaleProbability, time.UTC); err != nil {
		t.Errorf("SendMovers(nil) = %v", err)
	}
	if err := c.SendMovers(&models.MoverDocument{ID: "x"}, models.ScaleProbability, time.UTC); err != nil {
		t.Errorf("SendMovers(empty) = %v", err)
	}
}

func TestCommandReply(t *testing.T) {
	c := &Client{}

	if reply, ok := c.commandReply("ping"); !ok || reply != "Pong" {
		t.Errorf("ping = %q/%v", reply, ok)
	}
	if reply, ok := c.commandReply("status"); !ok || reply != "No cycle has run yet." {
		t.Errorf("status before provider = %q/%v", reply, ok)
	}

	c.SetStatusProvider(func() string { return "12 markets, 3 movers" })
	if reply, _ := c.commandReply("status"); reply != "12 markets, 3 movers" {
		t.Errorf("status = %q", reply)
	}
	if _, ok := c.commandReply("unknown"); ok {
		t.Error("unknown command should not reply")
	}
}
