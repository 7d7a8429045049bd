package repository

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts run summaries to a chat.
type TelegramNotifier struct {
	api          messageSender
	chatID       int64
	failuresOnly bool
	title        string
}

var _ domrepo.Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier connects to the Bot API. notifyOn is "always" or
// "failures".
func NewTelegramNotifier(token string, chatID int64, notifyOn, title string) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramNotifier(api, chatID, notifyOn, title), nil
}

func newTelegramNotifier(api messageSender, chatID int64, notifyOn, title string) *TelegramNotifier {
	if title == "" {
		title = "Economic Indicators"
	}
	return &TelegramNotifier{api: api, chatID: chatID, failuresOnly: notifyOn != "always", title: title}
}

func (n *TelegramNotifier) Notify(ctx context.Context, s *models.RunSummary) error {
	if s == nil || (n.failuresOnly && s.Status == models.RunSuccess) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatSummary(n.title, s))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatSummary renders a run summary as Telegram HTML.
func FormatSummary(title string, s *models.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> update %s\n", html.EscapeString(title), strings.ToUpper(string(s.Status)))
	fmt.Fprintf(&b, "%s, %s\n", s.UpdatedAt.Format("2006-01-02 15:04 MST"), s.UpdatedAt.Sub(s.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "updated %d, fresh %d, stale %d, failed %d\n",
		s.Count(models.StatusUpdated), s.Count(models.StatusFresh),
		s.Count(models.StatusStaleKept), s.Count(models.StatusFailed))

	for _, o := range s.Failures() {
		fmt.Fprintf(&b, "\n• <code>%s</code> %s", html.EscapeString(o.Indicator), o.Status)
		if o.Error != "" {
			e := o.Error
			if len(e) > 160 {
				e = e[:160] + "..."
			}
			fmt.Fprintf(&b, ": %s", html.EscapeString(e))
		}
	}
	var fb []string
	for _, o := range s.Outcomes {
		if o.Fallback {
			fb = append(fb, o.Indicator)
		}
	}
	if len(fb) > 0 {
		fmt.Fprintf(&b, "\n\nfallback data: %s", html.EscapeString(strings.Join(fb, ", ")))
	}
	return b.String()
}
