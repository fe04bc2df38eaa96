package telegram

import (
	"log"
	"strconv"
	"strings"
	"time"

	"cybershield/backend/internal/dialogue"
	"cybershield/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client implements dialogue.Client for one Telegram chat. Only bot
// messages are forwarded; the user's own text is already in the chat.
type Client struct {
	ChatID int64
	BotAPI Sender
	// OnFiled is called with the tracking code of a submitted complaint.
	OnFiled func(chatID int64, c *models.Complaint)
	// Sleep waits out a reply delay; tests replace it.
	Sleep func(time.Duration)

	send chan dialogue.Frame
	done chan struct{}
}

func NewClient(chatID int64, bot Sender, onFiled func(int64, *models.Complaint)) *Client {
	return &Client{
		ChatID:  chatID,
		BotAPI:  bot,
		OnFiled: onFiled,
		Sleep:   time.Sleep,
		send:    make(chan dialogue.Frame, 32),
		done:    make(chan struct{}),
	}
}

// SessionID is the hub session key of a chat.
func SessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// ChatIDFromSession reverses SessionID.
func ChatIDFromSession(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, "tg:")
	if !ok {
		return 0, false
	}
	chatID, err := strconv.ParseInt(rest, 10, 64)
	return chatID, err == nil
}

func (c *Client) SessionID() string           { return SessionID(c.ChatID) }
func (c *Client) Send() chan<- dialogue.Frame { return c.send }

// Run starts the write pump. Updates are read centrally by BotService.
func (c *Client) Run() {
	go c.writePump()
}

// Close closes the Send channel.
func (c *Client) Close() {
	close(c.send)
}

// Done is closed once every queued frame has been handled.
func (c *Client) Done() <-chan struct{} { return c.done }

// writePump listens on Send and forwards bot messages to Telegram.
func (c *Client) writePump() {
	defer close(c.done)

	for frame := range c.send {
		switch frame.Type {
		case dialogue.FrameMessage:
			if frame.Message == nil || frame.Message.Sender != models.SenderBot {
				continue
			}
			if frame.DelayMs > 0 {
				c.Sleep(time.Duration(frame.DelayMs) * time.Millisecond)
			}
			msg := tgbotapi.NewMessage(c.ChatID, frame.Message.Content)
			if _, err := c.BotAPI.Send(msg); err != nil {
				log.Printf("ERROR: Failed to send Telegram message to %d: %v", c.ChatID, err)
			}

		case dialogue.FrameComplaint:
			if frame.Complaint != nil && c.OnFiled != nil {
				c.OnFiled(c.ChatID, frame.Complaint)
			}

		case dialogue.FrameError:
			log.Printf("WARNING: dialogue error for Telegram chat %d: %s", c.ChatID, frame.Error)
		}
		// speech directives have no meaning in Telegram
	}
}
