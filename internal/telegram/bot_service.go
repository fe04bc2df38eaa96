// Package telegram handles the integration with the Telegram Bot API.
// It receives updates from Telegram, feeds them to the dialogue hub and
// relays the assistant's replies back to the chat.
package telegram

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"cybershield/backend/internal/dialogue"
	"cybershield/backend/internal/events"
	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/speech"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	langCallbackPrefix = "set_lang_"
	keyboardColumns    = 3

	inboxSize = 16
	inboxIdle = 2 * time.Minute
)

// Hub is the part of the dialogue hub the bot drives.
type Hub interface {
	Open(ctx context.Context, id string, lang models.Language, method models.InputMethod) (*dialogue.Session, []speech.Directive, error)
	Turn(ctx context.Context, id, text string) (dialogue.Turn, *dialogue.Session, error)
	Reset(ctx context.Context, id string) (*dialogue.Session, error)
	Register(c dialogue.Client)
}

// BotService is responsible for receiving Telegram updates and routing them to the hub.
type BotService struct {
	BotAPI     Sender
	Hub        Hub
	Complaints TrackStorage
	Localizer  *localization.Localizer

	mu        sync.Mutex
	languages map[int64]models.Language
	// filed maps tracking codes to the chat that filed them.
	filed map[string]int64
	// inbox queues texts per chat; one worker drains each queue in order.
	inbox map[int64]chan string
}

// NewBotService authorizes against the Bot API and returns a ready service.
func NewBotService(token string, hub Hub, complaints TrackStorage, loc *localization.Localizer) (*BotService, *tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	return newBotService(bot, hub, complaints, loc), bot, nil
}

func newBotService(bot Sender, hub Hub, complaints TrackStorage, loc *localization.Localizer) *BotService {
	return &BotService{
		BotAPI:     bot,
		Hub:        hub,
		Complaints: complaints,
		Localizer:  loc,
		languages:  make(map[int64]models.Language),
		filed:      make(map[string]int64),
		inbox:      make(map[int64]chan string),
	}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx
// is cancelled or the update channel closes.
func (s *BotService) Run(ctx context.Context, bot *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		s.HandleUpdate(ctx, &update)
	}
}

// HandleUpdate dispatches one update. Dialogue turns are queued per chat
// because a submitting turn blocks until the complaint is filed, and turns
// of one chat must reach the hub in the order they were sent.
func (s *BotService) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		s.handleCallbackQuery(ctx, update.CallbackQuery)

	case update.Message != nil && update.Message.IsCommand():
		chatID := update.Message.Chat.ID
		switch update.Message.Command() {
		case "start", "language":
			s.handleLanguageCommand(chatID)
		case "track":
			HandleTrackCommand(ctx, update, s.language(chatID), s.Complaints, s.Localizer, s.BotAPI)
		case "new":
			s.handleNewCommand(ctx, chatID)
		default:
			s.reply(chatID, s.Localizer.GetString(s.language(chatID), "unknown_command"))
		}

	case update.Message != nil:
		msg := update.Message
		text := msg.Text
		if text == "" {
			text = msg.Caption
		}
		s.enqueue(ctx, msg.Chat.ID, text)
	}
}

// enqueue hands text to the chat's worker, starting one if needed.
func (s *BotService) enqueue(ctx context.Context, chatID int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.inbox[chatID]
	if !ok {
		q = make(chan string, inboxSize)
		s.inbox[chatID] = q
		go s.drain(ctx, chatID, q)
	}
	select {
	case q <- text:
	default:
		log.Printf("WARNING: inbox for chat %d is full, dropping message", chatID)
	}
}

// drain runs the chat's turns one at a time. It exits once the queue has
// stayed empty for inboxIdle.
func (s *BotService) drain(ctx context.Context, chatID int64, q chan string) {
	idle := time.NewTimer(inboxIdle)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			delete(s.inbox, chatID)
			s.mu.Unlock()
			return
		case text := <-q:
			s.handleText(ctx, chatID, text)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(inboxIdle)
		case <-idle.C:
			s.mu.Lock()
			if len(q) == 0 {
				delete(s.inbox, chatID)
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			idle.Reset(inboxIdle)
		}
	}
}

func (s *BotService) language(chatID int64) models.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lang, ok := s.languages[chatID]; ok {
		return lang
	}
	return models.DefaultLanguage
}

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.BotAPI.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("ERROR: Failed to send Telegram message to %d: %v", chatID, err)
	}
}

// languageKeyboard lists the catalog in rows of three.
func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, info := range localization.Catalog() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(info.Name, langCallbackPrefix+info.Code))
		if len(row) == keyboardColumns {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// handleLanguageCommand sends a message with a keyboard to choose a language.
func (s *BotService) handleLanguageCommand(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, s.Localizer.GetString(s.language(chatID), "choose_language"))
	msg.ReplyMarkup = languageKeyboard()
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send language picker to %d: %v", chatID, err)
	}
}

func (s *BotService) handleCallbackQuery(ctx context.Context, callbackQuery *tgbotapi.CallbackQuery) {
	// Respond to the callback query to remove the "loading" state
	if _, err := s.BotAPI.Request(tgbotapi.NewCallback(callbackQuery.ID, "")); err != nil {
		log.Printf("failed to send callback response: %v", err)
	}

	code, ok := strings.CutPrefix(callbackQuery.Data, langCallbackPrefix)
	if !ok || callbackQuery.From == nil {
		return
	}
	lang, ok := models.ParseLanguage(code)
	if !ok {
		log.Printf("WARNING: unknown language code %q in callback", code)
		return
	}

	// The bot only serves private chats, where the chat ID is the user ID.
	chatID := callbackQuery.From.ID

	s.mu.Lock()
	s.languages[chatID] = lang
	s.mu.Unlock()

	s.startDialogue(ctx, chatID, lang)
}

// startDialogue opens a fresh session for the chat and attaches a client.
// Registering replays the welcome message.
func (s *BotService) startDialogue(ctx context.Context, chatID int64, lang models.Language) {
	if _, _, err := s.Hub.Open(ctx, SessionID(chatID), lang, models.InputText); err != nil {
		log.Printf("ERROR: Failed to open dialogue for chat %d: %v", chatID, err)
		return
	}
	client := NewClient(chatID, s.BotAPI, s.rememberFiled)
	client.Run()
	s.Hub.Register(client)
}

func (s *BotService) handleText(ctx context.Context, chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		s.reply(chatID, s.Localizer.GetString(s.language(chatID), "unsupported_message_type"))
		return
	}
	_, _, err := s.Hub.Turn(ctx, SessionID(chatID), text)
	switch {
	case errors.Is(err, dialogue.ErrSessionNotFound):
		s.reply(chatID, s.Localizer.GetString(s.language(chatID), "start_first"))
	case err != nil:
		log.Printf("ERROR: dialogue turn for chat %d failed: %v", chatID, err)
	}
}

func (s *BotService) handleNewCommand(ctx context.Context, chatID int64) {
	lang := s.language(chatID)
	_, err := s.Hub.Reset(ctx, SessionID(chatID))
	switch {
	case errors.Is(err, dialogue.ErrSessionNotFound):
		// A filed complaint ends its session; start over in the same language.
		s.startDialogue(ctx, chatID, lang)
	case errors.Is(err, dialogue.ErrSubmissionInFlight):
		s.reply(chatID, s.Localizer.GetString(lang, localization.KeySubmitting))
	case err != nil:
		log.Printf("ERROR: Failed to reset dialogue for chat %d: %v", chatID, err)
	}
}

func (s *BotService) rememberFiled(chatID int64, c *models.Complaint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filed[c.TrackingCode] = chatID
}

// NotifyStatus tells the filing chat about a status change of its complaint.
// Events for complaints not filed through this bot are ignored.
func (s *BotService) NotifyStatus(e events.Event) {
	if e.Type != events.TypeStatusChanged {
		return
	}
	s.mu.Lock()
	chatID, ok := s.filed[e.TrackingCode]
	lang := s.languages[chatID]
	s.mu.Unlock()
	if !ok {
		return
	}
	if !lang.Valid() {
		lang = e.Language
	}
	s.reply(chatID, statusText(s.Localizer, lang, e.TrackingCode, e.Status))
}
