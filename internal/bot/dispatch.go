package bot

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"

	"coursebot/internal/models"
	"coursebot/internal/session"

	"go.uber.org/zap"
)

// Run handles updates until ctx is done or the channel closes, one goroutine
// per update, then waits for in-flight handlers.
func (f *Funnel) Run(ctx context.Context, updates <-chan Update) {
	var handlers sync.WaitGroup
	defer func() {
		handlers.Wait()
		f.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			handlers.Add(1)
			go func() {
				defer handlers.Done()
				f.Handle(ctx, u)
			}()
		}
	}
}

// Handle processes one update. It never panics.
func (f *Funnel) Handle(ctx context.Context, u Update) {
	defer func() {
		if r := recover(); r != nil {
			f.Log.Error("handler panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	switch {
	case u.Message != nil:
		f.Metrics.Update("message")
		f.handleMessage(ctx, u.Message)
	case u.Callback != nil:
		f.Metrics.Update("callback")
		f.handleCallback(ctx, u.Callback)
	}
}

// admit applies flood control, registers the sender and rejects banned users.
func (f *Funnel) admit(ctx context.Context, from Sender, chatID int64) (*models.User, bool) {
	if f.Limiter != nil && !f.Limiter.Allow(userKey(from.ID)) {
		f.Log.Debug("rate limited", zap.Int64("user_id", from.ID))
		return nil, false
	}
	user, err := f.ensureUser(from)
	if err != nil {
		f.Log.Error("ensure user", zap.Int64("user_id", from.ID), zap.Error(err))
		f.send(ctx, chatID, View{Text: msgGenericError})
		return nil, false
	}
	if user.IsBanned {
		text := msgBanned
		if user.BanReason != "" {
			text += "\nReason: " + user.BanReason
		}
		f.send(ctx, chatID, View{Text: text})
		return nil, false
	}
	return user, true
}

func (f *Funnel) handleMessage(ctx context.Context, in *Incoming) {
	user, ok := f.admit(ctx, in.From, in.Ref.ChatID)
	if !ok {
		return
	}
	if in.PhotoFileID != "" {
		f.OnPaymentProofPhoto(ctx, in, user)
		return
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return
	}
	if cmd, ok := parseCommand(text); ok {
		f.handleCommand(ctx, in, cmd)
		return
	}

	switch f.sessions.State(in.From.ID) {
	case session.AwaitingPassword:
		f.OnPasswordText(ctx, in)
		return
	case session.SearchingCourses:
		f.OnSearch(ctx, in, text)
		return
	case session.EnteringGiftCode:
		f.OnGiftCode(ctx, in, user, text)
		return
	case session.AwaitingCourseRequest:
		f.OnCourseRequestText(ctx, in, user, text)
		return
	}

	switch text {
	case btnBrowse:
		f.OnBrowseCourses(ctx, in.Ref.ChatID, in.From.ID, in.Ref.MessageID)
	case btnSearch:
		f.OnSearchPrompt(ctx, in)
	case btnCategories:
		f.OnCategoriesMenu(ctx, in.Ref.ChatID, in.From.ID, in.Ref.MessageID)
	case btnPurchases:
		f.OnShowPurchases(ctx, in, user)
	case btnRequest:
		f.OnRequestCourseButton(ctx, in)
	case btnDMCA:
		f.OnShowDmcaPolicy(ctx, in)
	case btnHelp:
		f.OnHelp(ctx, in)
	default:
		f.OnUnrecognized(ctx, in, text)
	}
}

func (f *Funnel) handleCommand(ctx context.Context, in *Incoming, cmd string) {
	switch cmd {
	case "start":
		f.OnStart(ctx, in)
	case "courses":
		f.OnBrowseCourses(ctx, in.Ref.ChatID, in.From.ID, in.Ref.MessageID)
	case "help":
		f.OnHelp(ctx, in)
	case "search":
		f.OnSearchPrompt(ctx, in)
	case "cancel":
		f.reset(in.From.ID)
		f.reply(ctx, in, msgCancelled, mainMenu())
	default:
		f.reply(ctx, in, msgUnknown, nil)
	}
}

// parseCommand extracts "start" from "/start" or "/start@SomeBot arg".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text[1:])
	if len(cmd) == 0 {
		return "", false
	}
	name, _, _ := strings.Cut(cmd[0], "@")
	return strings.ToLower(name), true
}

func (f *Funnel) handleCallback(ctx context.Context, cb *CallbackQuery) {
	defer func() {
		if err := f.msg.AnswerCallback(ctx, cb.ID, ""); err != nil {
			f.Log.Debug("answer callback", zap.Error(err))
		}
	}()
	if _, ok := f.admit(ctx, cb.From, cb.Message.ChatID); !ok {
		return
	}

	data := cb.Data
	switch {
	case data == cbBack:
		f.OnBack(ctx, cb)
	case data == cbCancel:
		f.OnCancel(ctx, cb)
	case data == cbAllCourses:
		f.OnBackToAllCourses(ctx, cb)
	case data == cbCategoryMenu:
		f.OnBackToCategories(ctx, cb)
	case strings.HasPrefix(data, cbCategory):
		f.OnViewCategory(ctx, cb, strings.TrimPrefix(data, cbCategory))
	case strings.HasPrefix(data, cbCourse):
		f.OnSelectCourse(ctx, cb, strings.TrimPrefix(data, cbCourse))
	case strings.HasPrefix(data, cbBuy):
		f.OnBuyNow(ctx, cb, strings.TrimPrefix(data, cbBuy))
	case strings.HasPrefix(data, cbPayment):
		method, id, _ := strings.Cut(strings.TrimPrefix(data, cbPayment), "_")
		f.OnSelectPaymentMethod(ctx, cb, method, id)
	default:
		f.Log.Debug("unknown callback", zap.String("data", data))
	}
}
