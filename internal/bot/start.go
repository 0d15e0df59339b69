package bot

import (
	"context"
	"fmt"

	"coursebot/internal/domain"
	"coursebot/internal/session"

	"go.uber.org/zap"
)

// OnStart greets the user, or asks for the password when one is configured.
func (f *Funnel) OnStart(ctx context.Context, in *Incoming) {
	settings := f.Settings.Current()
	if settings.Password != "" {
		f.setState(in.From.ID, session.AwaitingPassword)
		f.reply(ctx, in, msgPasswordPrompt, nil)
	} else {
		f.setState(in.From.ID, session.Idle)
		f.reply(ctx, in, fmt.Sprintf(msgWelcome, settings.WelcomeMessage), mainMenu())
	}
	f.logAction(in.From.ID, domain.ActionCommandStart, "")
}

// OnPasswordText checks a password attempt. The attempt is always deleted
// from the chat.
func (f *Funnel) OnPasswordText(ctx context.Context, in *Incoming) {
	defer f.delete(ctx, in.Ref)

	settings := f.Settings.Current()
	if settings.Password != "" && in.Text != settings.Password {
		f.reply(ctx, in, msgPasswordIncorrect, nil)
		f.logAction(in.From.ID, domain.ActionPasswordIncorrect, "")
		return
	}
	f.sessions.Update(in.From.ID, func(s *session.Session) {
		s.State = session.Idle
		s.Authenticated = true
	})
	f.Metrics.Transition(session.Idle.String())
	f.reply(ctx, in, fmt.Sprintf(msgPasswordCorrect, settings.WelcomeMessage), mainMenu())
	f.logAction(in.From.ID, domain.ActionPasswordCorrect, "")
}

func (f *Funnel) OnHelp(ctx context.Context, in *Incoming) {
	settings := f.Settings.Current()
	ref, ok := f.send(ctx, in.Ref.ChatID, View{Text: msgHelp, Markdown: true, ReplyTo: in.Ref.MessageID})
	if ok {
		f.autoDelete(ref, settings)
	}
	f.logAction(in.From.ID, domain.ActionCommandHelp, "")
}

// OnBack returns to the main menu and abandons any purchase in progress.
func (f *Funnel) OnBack(ctx context.Context, cb *CallbackQuery) {
	f.reset(cb.From.ID)
	f.show(ctx, cb.Message, View{Text: msgMainMenu})
}

func (f *Funnel) OnCancel(ctx context.Context, cb *CallbackQuery) {
	f.reset(cb.From.ID)
	f.show(ctx, cb.Message, View{Text: msgCancelled})
}

// OnUnrecognized answers free text that matched no button or pending prompt.
func (f *Funnel) OnUnrecognized(ctx context.Context, in *Incoming, text string) {
	if isSpam(text) {
		f.Log.Info("spam detected", zap.Int64("user_id", in.From.ID))
		f.reply(ctx, in, msgSpam, nil)
		f.logAction(in.From.ID, domain.ActionSpamDetected, "Spam message: "+truncateRunes(text, 50)+"...")
		return
	}
	f.reply(ctx, in, msgUnknown, nil)
}
