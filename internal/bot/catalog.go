package bot

import (
	"context"
	"errors"
	"fmt"

	"coursebot/internal/domain"
	"coursebot/internal/models"
	"coursebot/internal/repository"
	"coursebot/internal/session"

	"go.uber.org/zap"
)

// OnBrowseCourses lists every active course. Unauthenticated users on a
// password protected bot are sent through OnStart instead.
func (f *Funnel) OnBrowseCourses(ctx context.Context, chatID, userID int64, replyTo int) {
	settings := f.Settings.Current()
	if !f.authorized(userID, settings) {
		f.OnStart(ctx, &Incoming{Ref: Ref{ChatID: chatID, MessageID: replyTo}, From: Sender{ID: userID}})
		return
	}
	courses, err := f.Courses.ListActive()
	if err != nil {
		f.Log.Error("list courses", zap.Error(err))
		f.send(ctx, chatID, View{Text: msgCoursesFailed, ReplyTo: replyTo})
		return
	}
	f.setState(userID, session.ViewingCourses)

	text := msgCourseList
	if len(courses) == 0 {
		text = msgNoCourses
	}
	ref, ok := f.send(ctx, chatID, View{
		Text:    text,
		Inline:  courseList(courses, backToMenuRow()),
		ReplyTo: replyTo,
	})
	if ok {
		f.autoDelete(ref, settings)
	}
	f.logAction(userID, domain.ActionCommandCourses, "")
}

func (f *Funnel) OnSearchPrompt(ctx context.Context, in *Incoming) {
	settings := f.Settings.Current()
	if !f.authorized(in.From.ID, settings) {
		f.OnStart(ctx, in)
		return
	}
	f.setState(in.From.ID, session.SearchingCourses)
	f.reply(ctx, in, msgSearchPrompt, nil)
	f.logAction(in.From.ID, domain.ActionCommandSearch, "")
}

// OnSearch matches the query against course titles and category names.
func (f *Funnel) OnSearch(ctx context.Context, in *Incoming, query string) {
	settings := f.Settings.Current()
	courses, err := f.Courses.SearchActive(query)
	if err != nil {
		f.Log.Error("search courses", zap.String("query", query), zap.Error(err))
		f.reset(in.From.ID)
		f.reply(ctx, in, msgSearchFailed, nil)
		return
	}
	f.setState(in.From.ID, session.ViewingCourses)

	if len(courses) == 0 {
		f.send(ctx, in.Ref.ChatID, View{
			Text:      fmt.Sprintf(msgSearchEmpty, settings.SearchFallbackLink),
			Reply:     mainMenu(),
			ReplyTo:   in.Ref.MessageID,
			NoPreview: true,
		})
	} else {
		f.send(ctx, in.Ref.ChatID, View{
			Text:    fmt.Sprintf(msgSearchResults, query, len(courses)),
			Inline:  courseList(courses, mainMenuRow()),
			ReplyTo: in.Ref.MessageID,
		})
	}
	f.logAction(in.From.ID, domain.ActionSearchCourses, fmt.Sprintf("Searched for: %s, Found: %d courses", query, len(courses)))
}

// OnSelectCourse shows a course's detail card in place of the pressed message.
func (f *Funnel) OnSelectCourse(ctx context.Context, cb *CallbackQuery, rawID string) {
	settings := f.Settings.Current()
	course, err := f.lookupCourse(rawID, true)
	if err != nil {
		f.Log.Error("get course", zap.String("course_id", rawID), zap.Error(err))
		f.show(ctx, cb.Message, View{Text: msgGenericError})
		return
	}
	if course == nil {
		f.showCourseNotFound(ctx, cb)
		return
	}

	f.show(ctx, cb.Message, courseView(course, settings.AdminContactURL))
	f.setState(cb.From.ID, session.ViewingCourses)
	f.logAction(cb.From.ID, domain.ActionViewCourse, "Viewed course: "+course.Title)
}

// showCourseNotFound replaces the message with a notice and the full list.
func (f *Funnel) showCourseNotFound(ctx context.Context, cb *CallbackQuery) {
	courses, err := f.Courses.ListActive()
	if err != nil {
		f.Log.Error("list courses", zap.Error(err))
	}
	f.show(ctx, cb.Message, View{
		Text:   msgCourseNotFound,
		Inline: courseList(courses, backToMenuRow()),
	})
}

func courseView(c *models.Course, adminURL string) View {
	v := View{
		Kind:     TextMessage,
		Text:     fmt.Sprintf(msgCourseDetail, c.Title, c.Description, c.PriceLabel(), c.CategoryName()),
		Markdown: true,
		Inline:   courseDetailKeyboard(c, adminURL),
	}
	switch {
	case c.ImageLink == "":
	case isPrivateHost(c.ImageLink):
		v.Text += noteImageOnWebsite
	default:
		v.Kind = PhotoMessage
		v.Photo = Photo{URL: c.ImageLink}
	}
	return v
}

// OnCategoriesMenu lists categories that have at least one active course.
func (f *Funnel) OnCategoriesMenu(ctx context.Context, chatID, userID int64, replyTo int) {
	all, err := f.Categories.ListWithCounts()
	if err != nil {
		f.Log.Error("list categories", zap.Error(err))
		f.send(ctx, chatID, View{Text: msgCategoriesFailed, ReplyTo: replyTo})
		return
	}
	cats := repository.NonEmpty(all)

	switch {
	case len(all) == 0:
		f.send(ctx, chatID, View{Text: msgNoCategories, Reply: mainMenu(), ReplyTo: replyTo})
	case len(cats) == 0:
		f.send(ctx, chatID, View{Text: msgCategoriesEmpty, Reply: mainMenu(), ReplyTo: replyTo})
	default:
		f.send(ctx, chatID, View{
			Text:     msgCategoriesMenu,
			Markdown: true,
			Inline:   categoriesKeyboard(cats),
			ReplyTo:  replyTo,
		})
	}
	f.logAction(userID, domain.ActionViewCategoriesMenu, "")
}

func (f *Funnel) OnViewCategory(ctx context.Context, cb *CallbackQuery, rawID string) {
	id := domain.ParseID(rawID)
	var cat *models.Category
	var err error
	if id.Valid {
		cat, err = f.Categories.GetByID(id.Value)
	}
	if !id.Valid || errors.Is(err, repository.ErrNotFound) {
		f.show(ctx, cb.Message, View{Text: msgCategoryNotFound, Inline: Keyboard{mainMenuRow()}})
		return
	}
	if err != nil {
		f.Log.Error("get category", zap.Uint("category_id", id.Value), zap.Error(err))
		f.show(ctx, cb.Message, View{Text: msgGenericError})
		return
	}

	courses, err := f.Courses.ListActiveByCategory(cat.ID)
	if err != nil {
		f.Log.Error("list category courses", zap.Uint("category_id", cat.ID), zap.Error(err))
		f.show(ctx, cb.Message, View{Text: msgCoursesFailed})
		return
	}
	if len(courses) == 0 {
		f.show(ctx, cb.Message, View{
			Text:     fmt.Sprintf(msgCategoryEmpty, cat.Name),
			Markdown: true,
			Inline:   Keyboard{backToCategoriesRow(), mainMenuRow()},
		})
	} else {
		f.show(ctx, cb.Message, View{
			Text:     fmt.Sprintf(msgCategoryCourses, cat.Name),
			Markdown: true,
			Inline:   courseList(courses, backToCategoriesRow(), mainMenuRow()),
		})
	}
	f.setState(cb.From.ID, session.ViewingCourses)
	f.logAction(cb.From.ID, domain.ActionViewCategoryCourses, "Viewed category: "+cat.Name)
}

func (f *Funnel) OnBackToCategories(ctx context.Context, cb *CallbackQuery) {
	f.delete(ctx, cb.Message)
	f.OnCategoriesMenu(ctx, cb.Message.ChatID, cb.From.ID, 0)
}

func (f *Funnel) OnBackToAllCourses(ctx context.Context, cb *CallbackQuery) {
	f.delete(ctx, cb.Message)
	f.OnBrowseCourses(ctx, cb.Message.ChatID, cb.From.ID, 0)
}
