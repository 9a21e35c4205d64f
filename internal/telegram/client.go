// Package telegram provides a client for sending notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/oddsticker/internal/display"
	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/rewired-gh/oddsticker/internal/monitor"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration

	mu     sync.RWMutex
	status func() string
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID: %w", err)
	}
	return id, nil
}

// SetStatusProvider registers the function that answers /status.
func (c *Client) SetStatusProvider(fn func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = fn
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	if reply, ok := c.commandReply(msg.Command()); ok {
		c.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)) //nolint:errcheck
	}
}

func (c *Client) commandReply(command string) (string, bool) {
	switch command {
	case "ping":
		return "Pong", true
	case "status":
		c.mu.RLock()
		fn := c.status
		c.mu.RUnlock()
		if fn == nil {
			return "No cycle has run yet.", true
		}
		return fn(), true
	}
	return "", false
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a monitoring error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Ticker error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Ticker recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendMovers sends one mover document. A nil or empty document is not sent.
func (c *Client) SendMovers(doc *models.MoverDocument, scale models.Scale, loc *time.Location) error {
	if doc == nil || len(doc.Items) == 0 {
		return nil
	}
	return c.sendMarkdownV2(formatMovers(doc, scale, loc))
}

// formatMovers formats a mover document into a Telegram MarkdownV2 message.
// Items are listed by magnitude, largest first.
func formatMovers(doc *models.MoverDocument, scale models.Scale, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	b.WriteString("🚨 *Notable Odds Movements*\n\n")

	if at, err := models.ParseTimestamp(doc.Timestamp); err == nil {
		dateStr := escapeMarkdownV2(at.In(loc).Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&b, "📅 Detected: %s\n\n", dateStr)
	}

	items := make([]models.MoverItem, len(doc.Items))
	copy(items, doc.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return math.Abs(items[i].Change) > math.Abs(items[j].Change)
	})

	for i, item := range items {
		directionEmoji := "📈"
		if item.Change < 0 {
			directionEmoji = "📉"
		}

		deltaStr := escapeMarkdownV2(display.DeltaText(models.SomeFloat(item.Change), scale))
		oldStr := escapeMarkdownV2(display.ValueText(models.SomeFloat(item.Old), scale))
		newStr := escapeMarkdownV2(display.ValueText(models.SomeFloat(item.New), scale))

		fmt.Fprintf(&b, "%d\\. *%s* %s %s \\(%s → %s\\)\n",
			i+1, escapeMarkdownV2(monitor.DisplayName(item.Ticker)),
			directionEmoji, deltaStr, oldStr, newStr)
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
