package telegram

import (
	"context"
	"testing"
	"time"

	"cybershield/backend/internal/dialogue"
	"cybershield/backend/internal/events"
	"cybershield/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionID_RoundTrip(t *testing.T) {
	id := SessionID(123456789)

	chatID, ok := ChatIDFromSession(id)

	assert.Equal(t, "tg:123456789", id)
	assert.True(t, ok)
	assert.Equal(t, int64(123456789), chatID)

	_, ok = ChatIDFromSession("3f1c2a")
	assert.False(t, ok)
}

func TestLanguageKeyboard_CoversCatalog(t *testing.T) {
	kb := languageKeyboard()

	require.Len(t, kb.InlineKeyboard, 8)
	assert.Len(t, kb.InlineKeyboard[0], 3)
	assert.Len(t, kb.InlineKeyboard[7], 2)
	require.NotNil(t, kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "set_lang_hi", *kb.InlineKeyboard[0][1].CallbackData)
}

func TestHandleUpdate_LanguageChoiceOpensDialogue(t *testing.T) {
	// Arrange
	bot := &fakeSender{}
	hub := new(MockHub)
	hub.On("Open", mock.Anything, "tg:42", models.LanguageTamil, models.InputText).Return(nil)
	hub.On("Register", mock.AnythingOfType("*telegram.Client")).Return()
	s := newBotService(bot, hub, new(MockTrackStorage), newLocalizer(t))
	update := &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: 42},
		Data: "set_lang_ta",
	}}

	// Act
	s.HandleUpdate(context.Background(), update)

	// Assert
	hub.AssertExpectations(t)
	assert.Equal(t, models.LanguageTamil, s.language(42))
	assert.Len(t, bot.requests, 1, "callback is answered")
}

func TestHandleUpdate_UnknownLanguageIgnored(t *testing.T) {
	hub := new(MockHub)
	s := newBotService(&fakeSender{}, hub, new(MockTrackStorage), newLocalizer(t))

	s.HandleUpdate(context.Background(), &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb-2", From: &tgbotapi.User{ID: 42}, Data: "set_lang_xx",
	}})

	hub.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleUpdate_StartSendsPicker(t *testing.T) {
	bot := &fakeSender{}
	s := newBotService(bot, new(MockHub), new(MockTrackStorage), newLocalizer(t))

	s.HandleUpdate(context.Background(), commandUpdate(9, "/start", "/start"))

	require.Len(t, bot.messages, 1)
	assert.NotNil(t, bot.messages[0].ReplyMarkup)
}

func TestHandleText_WithoutSession(t *testing.T) {
	// Arrange
	bot := &fakeSender{}
	hub := new(MockHub)
	hub.On("Turn", mock.Anything, "tg:9", "my account was hacked").Return(dialogue.ErrSessionNotFound)
	loc := newLocalizer(t)
	s := newBotService(bot, hub, new(MockTrackStorage), loc)

	// Act
	s.handleText(context.Background(), 9, "my account was hacked")

	// Assert
	assert.Equal(t, []string{loc.GetString(models.LanguageEnglish, "start_first")}, bot.texts())
}

func TestHandleUpdate_TextsOfOneChatRunInOrder(t *testing.T) {
	// Arrange
	hub := &recordingHub{}
	s := newBotService(&fakeSender{}, hub, new(MockTrackStorage), newLocalizer(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	textUpdate := func(text string) *tgbotapi.Update {
		return &tgbotapi.Update{Message: &tgbotapi.Message{Text: text, Chat: tgbotapi.Chat{ID: 9}}}
	}

	// Act
	s.HandleUpdate(ctx, textUpdate("a@b.c"))
	s.HandleUpdate(ctx, textUpdate("9876"))

	// Assert
	assert.Eventually(t, func() bool {
		texts, _ := hub.seen()
		return len(texts) == 2
	}, time.Second, 5*time.Millisecond)
	texts, peak := hub.seen()
	assert.Equal(t, []string{"a@b.c", "9876"}, texts)
	assert.Equal(t, 1, peak, "turns of one chat never overlap")
}

func TestHandleNewCommand_RestartsEndedSession(t *testing.T) {
	hub := new(MockHub)
	hub.On("Reset", mock.Anything, "tg:9").Return(dialogue.ErrSessionNotFound)
	hub.On("Open", mock.Anything, "tg:9", models.LanguageEnglish, models.InputText).Return(nil)
	hub.On("Register", mock.Anything).Return()
	s := newBotService(&fakeSender{}, hub, new(MockTrackStorage), newLocalizer(t))

	s.handleNewCommand(context.Background(), 9)

	hub.AssertExpectations(t)
}

func TestNotifyStatus(t *testing.T) {
	// Arrange
	bot := &fakeSender{}
	loc := newLocalizer(t)
	s := newBotService(bot, new(MockHub), new(MockTrackStorage), loc)
	s.rememberFiled(42, &models.Complaint{TrackingCode: "CS-ABCD1234"})
	at := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	// Act
	s.NotifyStatus(events.Event{Type: events.TypeStatusChanged, TrackingCode: "CS-ABCD1234", Status: models.StatusResolved, At: at})
	s.NotifyStatus(events.Event{Type: events.TypeStatusChanged, TrackingCode: "CS-OTHER999", Status: models.StatusResolved, At: at})
	s.NotifyStatus(events.Event{Type: events.TypeCreated, TrackingCode: "CS-ABCD1234", At: at})

	// Assert
	require.Len(t, bot.messages, 1)
	assert.Equal(t, int64(42), bot.messages[0].ChatID)
	assert.Equal(t, loc.Format(models.LanguageEnglish, "status_update", "CS-ABCD1234", "Resolved"), bot.messages[0].Text)
}
