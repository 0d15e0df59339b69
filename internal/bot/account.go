package bot

import (
	"context"
	"fmt"
	"strings"

	"coursebot/internal/domain"
	"coursebot/internal/models"
	"coursebot/internal/session"

	"go.uber.org/zap"
)

// OnShowPurchases lists the user's approved payments, newest first.
func (f *Funnel) OnShowPurchases(ctx context.Context, in *Incoming, user *models.User) {
	defer f.logAction(in.From.ID, domain.ActionViewPurchases, "")

	payments, err := f.Payments.ListApprovedForUser(user.ID)
	if err != nil {
		f.Log.Error("list purchases", zap.Int64("user_id", in.From.ID), zap.Error(err))
		f.reply(ctx, in, msgPurchasesFailed, mainMenu())
		return
	}
	if len(payments) == 0 {
		f.reply(ctx, in, msgNoPurchases, mainMenu())
		return
	}

	// whole items only, so the Markdown of the last one shown stays balanced
	budget := maxMessageUnits - utf16Len(msgPurchasesTruncated)
	var b strings.Builder
	b.WriteString(msgPurchasesHeader)
	used := utf16Len(msgPurchasesHeader)
	truncated := false
	for i, p := range payments {
		date := p.SubmittedAt
		if p.ActionAt != nil {
			date = *p.ActionAt
		}
		day := date.Format("2006-01-02")
		var item string
		if p.Course == nil {
			item = fmt.Sprintf(msgPurchaseItemMissing, i+1, p.CourseID, day)
		} else {
			link := f.Shortener.Shorten(ctx, p.Course.FileLink)
			item = fmt.Sprintf(msgPurchaseItem, i+1, p.Course.Title, models.FormatRupees(p.Amount), day, link)
		}
		n := utf16Len(item)
		if used+n > budget {
			truncated = true
			break
		}
		b.WriteString(item)
		used += n
	}

	text := strings.TrimRight(b.String(), "\n")
	if truncated {
		text += msgPurchasesTruncated
	}
	f.send(ctx, in.Ref.ChatID, View{
		Text:      text,
		Markdown:  true,
		Reply:     mainMenu(),
		ReplyTo:   in.Ref.MessageID,
		NoPreview: true,
	})
}

func (f *Funnel) OnShowDmcaPolicy(ctx context.Context, in *Incoming) {
	settings := f.Settings.Current()
	f.send(ctx, in.Ref.ChatID, View{
		Text:      fmt.Sprintf(msgDMCA, settings.DMCAPolicy),
		Markdown:  true,
		Reply:     mainMenu(),
		ReplyTo:   in.Ref.MessageID,
		NoPreview: true,
	})
	f.logAction(in.From.ID, domain.ActionViewDMCAPolicy, "")
}

func (f *Funnel) OnRequestCourseButton(ctx context.Context, in *Incoming) {
	f.setState(in.From.ID, session.AwaitingCourseRequest)
	f.reply(ctx, in, msgRequestPrompt, cancelRequestKeyboard())
	f.logAction(in.From.ID, domain.ActionRequestCourseButton, "")
}

// OnCourseRequestText stores the free-text request. The user returns to Idle
// whether or not the write succeeds.
func (f *Funnel) OnCourseRequestText(ctx context.Context, in *Incoming, user *models.User, text string) {
	defer f.setState(in.From.ID, session.Idle)

	if isCancel(text) {
		f.reply(ctx, in, msgRequestCancelled, mainMenu())
		f.logAction(in.From.ID, domain.ActionCourseRequestCancelled, "")
		return
	}
	req := &models.CourseRequest{
		UserID:      user.ID,
		RequestText: text,
		Status:      domain.RequestStatusPending,
	}
	if err := f.Requests.Create(req); err != nil {
		f.Log.Error("create course request", zap.Int64("user_id", in.From.ID), zap.Error(err))
		f.reply(ctx, in, msgRequestFailed, mainMenu())
		return
	}
	f.publish("course_request.created", req)
	f.reply(ctx, in, msgRequestSaved, mainMenu())
	f.logAction(in.From.ID, domain.ActionCourseRequestSubmitted, truncateRunes(text, 200))
}
