package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot API refuses downloads above 20 MB anyway.
const maxDownloadBytes = 20 << 20

// Telegram is the Messenger backed by the Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	client *http.Client
	log    *zap.Logger
}

func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	log.Info("bot authorized", zap.String("username", api.Self.UserName))
	return &Telegram{
		api:    api,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}, nil
}

// Updates long-polls the Bot API until ctx is done.
func (t *Telegram) Updates(ctx context.Context) <-chan Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	in := t.api.GetUpdatesChan(cfg)

	out := make(chan Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				t.api.StopReceivingUpdates()
				return
			case u, ok := <-in:
				if !ok {
					return
				}
				conv, ok := convertUpdate(u)
				if !ok {
					continue
				}
				select {
				case out <- conv:
				case <-ctx.Done():
					t.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}

func convertUpdate(u tgbotapi.Update) (Update, bool) {
	switch {
	case u.Message != nil && u.Message.From != nil && u.Message.Chat != nil:
		m := u.Message
		in := &Incoming{
			Ref:  messageRef(m),
			From: sender(m.From),
			Text: m.Text,
		}
		if len(m.Photo) > 0 {
			in.PhotoFileID = m.Photo[len(m.Photo)-1].FileID
		}
		return Update{Message: in}, true
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil && u.CallbackQuery.Message != nil:
		q := u.CallbackQuery
		return Update{Callback: &CallbackQuery{
			ID:      q.ID,
			From:    sender(q.From),
			Data:    q.Data,
			Message: messageRef(q.Message),
		}}, true
	}
	return Update{}, false
}

func messageRef(m *tgbotapi.Message) Ref {
	ref := Ref{MessageID: m.MessageID, Kind: TextMessage}
	if m.Chat != nil {
		ref.ChatID = m.Chat.ID
	}
	if len(m.Photo) > 0 {
		ref.Kind = PhotoMessage
	}
	return ref
}

func sender(u *tgbotapi.User) Sender {
	return Sender{ID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, v View) (Ref, error) {
	var sent tgbotapi.Message
	err := t.withFallback(v, func(mode string) error {
		msg := tgbotapi.NewMessage(chatID, v.Text)
		msg.ParseMode = mode
		msg.DisableWebPagePreview = v.NoPreview
		msg.ReplyToMessageID = v.ReplyTo
		if markup := replyMarkup(v); markup != nil {
			msg.ReplyMarkup = markup
		}
		var err error
		sent, err = t.api.Send(msg)
		return err
	})
	if err != nil {
		return Ref{}, err
	}
	return Ref{ChatID: chatID, MessageID: sent.MessageID, Kind: TextMessage}, nil
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, v View) (Ref, error) {
	var file tgbotapi.RequestFileData
	switch {
	case v.Photo.Path != "":
		file = tgbotapi.FilePath(v.Photo.Path)
	case v.Photo.URL != "":
		file = tgbotapi.FileURL(v.Photo.URL)
	default:
		return Ref{}, errors.New("send photo: no source")
	}
	var sent tgbotapi.Message
	err := t.withFallback(v, func(mode string) error {
		msg := tgbotapi.NewPhoto(chatID, file)
		msg.Caption = v.Text
		msg.ParseMode = mode
		msg.ReplyToMessageID = v.ReplyTo
		if markup := replyMarkup(v); markup != nil {
			msg.ReplyMarkup = markup
		}
		var err error
		sent, err = t.api.Send(msg)
		return err
	})
	if err != nil {
		return Ref{}, err
	}
	return Ref{ChatID: chatID, MessageID: sent.MessageID, Kind: PhotoMessage}, nil
}

func (t *Telegram) EditText(ctx context.Context, ref Ref, v View) error {
	return t.withFallback(v, func(mode string) error {
		edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, v.Text)
		edit.ParseMode = mode
		edit.DisableWebPagePreview = v.NoPreview
		if len(v.Inline) > 0 {
			kb := inlineMarkup(v.Inline)
			edit.ReplyMarkup = &kb
		}
		return t.request(edit)
	})
}

func (t *Telegram) EditCaption(ctx context.Context, ref Ref, v View) error {
	return t.withFallback(v, func(mode string) error {
		edit := tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, v.Text)
		edit.ParseMode = mode
		if len(v.Inline) > 0 {
			kb := inlineMarkup(v.Inline)
			edit.ReplyMarkup = &kb
		}
		return t.request(edit)
	})
}

func (t *Telegram) DeleteMessage(ctx context.Context, ref Ref) error {
	return t.request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return t.request(tgbotapi.NewCallback(callbackID, text))
}

func (t *Telegram) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(t.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, errors.New("download file: too large")
	}
	return data, nil
}

func (t *Telegram) request(c tgbotapi.Chattable) error {
	_, err := t.api.Request(c)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// withFallback retries a Markdown message as plain text when Telegram
// rejects its entities, which happens with user-supplied titles.
func (t *Telegram) withFallback(v View, do func(parseMode string) error) error {
	if !v.Markdown {
		return do("")
	}
	err := do(tgbotapi.ModeMarkdown)
	if err != nil && strings.Contains(err.Error(), "can't parse entities") {
		t.log.Debug("markdown rejected, sending plain", zap.Error(err))
		return do("")
	}
	return err
}

func replyMarkup(v View) any {
	switch {
	case len(v.Inline) > 0:
		return inlineMarkup(v.Inline)
	case v.Reply != nil:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(v.Reply.Rows))
		for _, r := range v.Reply.Rows {
			row := make([]tgbotapi.KeyboardButton, 0, len(r))
			for _, label := range r {
				row = append(row, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, row)
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.OneTimeKeyboard = v.Reply.OneTime
		return kb
	}
	return nil
}

func inlineMarkup(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, r := range kb {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var _ Messenger = (*Telegram)(nil)
