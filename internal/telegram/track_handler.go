package telegram

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
	"cybershield/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TrackStorage is the lookup the /track command needs.
type TrackStorage interface {
	Track(ctx context.Context, code string) (*models.Complaint, error)
}

// Sender is the part of the Bot API used to reply. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// HandleTrackCommand processes "/track <code>" and replies with the
// complaint status in lang.
func HandleTrackCommand(ctx context.Context, update *tgbotapi.Update, lang models.Language, s TrackStorage, loc *localization.Localizer, bot Sender) {
	if update.Message == nil {
		return
	}

	code := strings.ToUpper(strings.TrimSpace(update.Message.CommandArguments()))
	var responseText string

	switch {
	case code == "":
		responseText = loc.GetString(lang, "track_usage")
	case len(code) < models.MinTrackingCodeLength:
		responseText = loc.GetString(lang, "track_invalid")
	default:
		c, err := s.Track(ctx, code)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			responseText = loc.GetString(lang, "track_not_found")
		case err != nil:
			log.Printf("Error tracking complaint %s: %v", code, err)
			responseText = "An error occurred while processing your request."
		default:
			responseText = loc.Format(lang, "track_result",
				c.TrackingCode, c.Status.Label(), c.IncidentType.Label(), c.CreatedAt.Format(time.DateOnly))
		}
	}

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, responseText)
	if _, err := bot.Send(msg); err != nil {
		log.Printf("Error sending track reply: %v", err)
	}
}

// statusText formats a lifecycle notification.
func statusText(loc *localization.Localizer, lang models.Language, code string, status models.Status) string {
	return loc.Format(lang, "status_update", code, status.Label())
}
