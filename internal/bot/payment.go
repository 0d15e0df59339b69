package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursebot/internal/domain"
	"coursebot/internal/logger"
	"coursebot/internal/models"
	"coursebot/internal/repository"
	"coursebot/internal/service"
	"coursebot/internal/session"
	"coursebot/internal/storage"

	"go.uber.org/zap"
)

// availableMethods is the ordered list of methods offered for c. A course's
// own list narrows the choice, but methods that need an account still need
// one configured.
func availableMethods(c *models.Course, settings service.BotSettings) []string {
	own := c.PaymentMethods()
	if len(own) == 0 {
		return settings.DefaultMethods()
	}
	var out []string
	for _, m := range domain.PaymentMethods {
		if !contains(own, m) {
			continue
		}
		if needsAccount(m) && !settings.MethodConfigured(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func needsAccount(method string) bool {
	return method == domain.MethodUPI || method == domain.MethodCrypto || method == domain.MethodPayPal
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// OnBuyNow delivers free courses immediately and shows payment options otherwise.
func (f *Funnel) OnBuyNow(ctx context.Context, cb *CallbackQuery, rawID string) {
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

	if course.IsFree {
		if err := f.sendAccess(ctx, cb.Message.ChatID, cb.Message.MessageID, course, true); err != nil {
			f.Log.Warn("send free course", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		}
		f.reset(cb.From.ID)
		f.logAction(cb.From.ID, domain.ActionGetFreeCourse, "Got free course: "+course.Title)
		return
	}

	methods := availableMethods(course, settings)
	text := fmt.Sprintf(msgPaymentOptions, course.Title, models.FormatRupees(course.Price))
	if len(methods) == 0 {
		text += noteNoMethods
	} else if settings.AdminContactURL != "" {
		text += noteBuyFromAdmin
	}
	f.show(ctx, cb.Message, View{
		Text:     text,
		Markdown: true,
		Inline:   paymentKeyboard(course, methods, settings.AdminContactURL),
	})
	f.setState(cb.From.ID, session.SelectingPayment)
	f.logAction(cb.From.ID, domain.ActionSelectPayment, "Selecting payment for: "+course.Title)
}

// OnSelectPaymentMethod either prompts for a gift card code or shows payment
// instructions and waits for a screenshot.
func (f *Funnel) OnSelectPaymentMethod(ctx context.Context, cb *CallbackQuery, method, rawID string) {
	settings := f.Settings.Current()
	course, err := f.lookupCourse(rawID, true)
	if err != nil {
		f.Log.Error("get course", zap.String("course_id", rawID), zap.Error(err))
		f.show(ctx, cb.Message, View{Text: msgGenericError})
		return
	}
	if course == nil {
		f.show(ctx, cb.Message, View{Text: msgCourseNotFound, Inline: Keyboard{mainMenuRow()}})
		return
	}
	price := models.FormatRupees(course.Price)
	id := domain.FormatID(course.ID)

	if !domain.IsPaymentMethod(method) || !contains(availableMethods(course, settings), method) {
		name := methodNames[method]
		if name == "" {
			name = "This"
		}
		f.show(ctx, cb.Message, View{
			Text:   fmt.Sprintf(msgMethodUnavailable, name),
			Inline: Keyboard{{{Text: "⬅️ Back to Payment Options", Data: cbBuy + id}}},
		})
		return
	}

	if method == domain.MethodGift {
		f.sessions.Update(cb.From.ID, func(s *session.Session) {
			s.State = session.EnteringGiftCode
			s.Flow = session.Flow{CourseID: course.ID, Method: domain.MethodGift}
		})
		f.Metrics.Transition(session.EnteringGiftCode.String())
		f.show(ctx, cb.Message, View{
			Text:     fmt.Sprintf(msgGiftPrompt, course.Title, price),
			Markdown: true,
			Inline:   cancelKeyboard(),
		})
		f.logAction(cb.From.ID, domain.ActionGiftCardSelected, "Selected gift card for: "+course.Title)
		return
	}

	var details string
	switch method {
	case domain.MethodUPI:
		details = "UPI ID: " + settings.UPI
	case domain.MethodCrypto:
		details = "Crypto Address: " + settings.Crypto
	case domain.MethodPayPal:
		details = "PayPal: " + settings.PayPal
	case domain.MethodCOD:
		details = fmt.Sprintf(msgCODDetails, price)
	}

	// Flow data goes in before anything is sent so a fast screenshot finds it.
	f.sessions.Update(cb.From.ID, func(s *session.Session) {
		s.State = session.SendingProof
		s.Flow = session.Flow{CourseID: course.ID, Method: method}
	})
	f.Metrics.Transition(session.SendingProof.String())

	f.delete(ctx, cb.Message)
	instructions := fmt.Sprintf(msgPaymentInstructions, methodNames[method], course.Title, details, price)
	if method == domain.MethodUPI && course.QRCodeImage != "" {
		if path, ok := f.Proofs.QRPath(course.QRCodeImage); ok {
			_, err := f.msg.SendPhoto(ctx, cb.Message.ChatID, View{
				Kind:  PhotoMessage,
				Text:  fmt.Sprintf(msgQRCaption, price, course.Title),
				Photo: Photo{Path: path},
			})
			if err != nil {
				f.Log.Warn("send qr code", zap.Uint("course_id", course.ID), zap.Error(err))
				instructions += noteQRFailed
			}
		} else {
			f.Log.Warn("qr code missing", zap.Uint("course_id", course.ID), zap.String("file", course.QRCodeImage))
		}
	}
	f.send(ctx, cb.Message.ChatID, View{
		Text:      instructions,
		Markdown:  true,
		Inline:    cancelKeyboard(),
		NoPreview: true,
	})
	f.logAction(cb.From.ID, domain.ActionPaymentMethodSelected, fmt.Sprintf("Selected %s for: %s", method, course.Title))
}

// OnGiftCode records a gift card payment. The code message is deleted and the
// code never reaches the logs unmasked.
func (f *Funnel) OnGiftCode(ctx context.Context, in *Incoming, user *models.User, code string) {
	f.delete(ctx, in.Ref)
	sess, _ := f.sessions.Get(in.From.ID)
	defer f.reset(in.From.ID)

	if isCancel(code) {
		f.send(ctx, in.Ref.ChatID, View{Text: msgGiftCancelled, Reply: mainMenu()})
		f.logAction(in.From.ID, domain.ActionGiftCardCancelled, "")
		return
	}
	if sess.Flow.CourseID == 0 {
		f.send(ctx, in.Ref.ChatID, View{Text: msgGiftMissingCourse, Reply: mainMenu()})
		return
	}
	course, err := f.Courses.GetByID(sess.Flow.CourseID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			f.Log.Error("get course", zap.Uint("course_id", sess.Flow.CourseID), zap.Error(err))
		}
		f.send(ctx, in.Ref.ChatID, View{Text: msgGiftCourseGone, Reply: mainMenu()})
		return
	}

	masked := logger.MaskSecret(code)
	p := &models.Payment{
		UserID:      user.ID,
		CourseID:    course.ID,
		Method:      domain.MethodGift,
		Details:     "Gift Card Code: " + code,
		Amount:      course.Price,
		Status:      domain.PaymentStatusPending,
		SubmittedAt: f.now().UTC(),
	}
	if err := f.Payments.Create(p); err != nil {
		f.Log.Error("create gift payment", zap.Int64("user_id", in.From.ID), zap.String("code", masked), zap.Error(err))
		f.send(ctx, in.Ref.ChatID, View{Text: msgGiftFailed, Reply: mainMenu()})
		return
	}
	f.Metrics.Payment(p.Method, p.Status)
	f.Log.Info("gift card submitted", zap.Uint("payment_id", p.ID), zap.Int64("user_id", in.From.ID), zap.String("code", masked))
	f.publish("payment.submitted", p)

	f.send(ctx, in.Ref.ChatID, View{
		Text:     fmt.Sprintf(msgGiftSubmitted, course.Title, models.FormatRupees(course.Price), masked),
		Markdown: true,
		Reply:    mainMenu(),
	})
	f.logAction(in.From.ID, domain.ActionGiftCardSubmitted, "Submitted gift card for course: "+course.Title)
}

// OnPaymentProofPhoto accepts a payment screenshot while the user is in
// SendingProof. The proof is validated, checked for reuse by the same user,
// stored and recorded as a pending payment, then optionally auto-approved.
// Submissions from one user are handled one at a time so two copies of the
// same screenshot cannot both pass the duplicate check.
func (f *Funnel) OnPaymentProofPhoto(ctx context.Context, in *Incoming, user *models.User) {
	defer f.submits.lock(in.From.ID)()

	sess, _ := f.sessions.Get(in.From.ID)
	if sess.State != session.SendingProof || !sess.Flow.Complete() {
		f.reply(ctx, in, msgUnexpectedPhoto, nil)
		return
	}
	settings := f.Settings.Current()

	data, err := f.msg.DownloadFile(ctx, in.PhotoFileID)
	if err != nil {
		f.Log.Warn("download proof", zap.Int64("user_id", in.From.ID), zap.Error(err))
		f.reply(ctx, in, msgPhotoFailed, nil)
		return
	}
	format, err := storage.ValidateImage(data)
	if err != nil {
		f.reply(ctx, in, msgInvalidImage, nil)
		return
	}

	hash := storage.Hash(data)
	dup, err := f.Payments.HasProofHash(user.ID, hash)
	if err != nil {
		f.Log.Error("check proof hash", zap.Int64("user_id", in.From.ID), zap.Error(err))
		f.reply(ctx, in, msgProofDBFailed, nil)
		return
	}
	if dup {
		f.reply(ctx, in, msgDuplicateProof, nil)
		f.logAction(in.From.ID, domain.ActionDuplicatePayment, "Hash: "+hash)
		return
	}

	course, err := f.Courses.GetByID(sess.Flow.CourseID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			f.Log.Error("get course", zap.Uint("course_id", sess.Flow.CourseID), zap.Error(err))
		}
		f.reply(ctx, in, msgProofCourseGone, nil)
		return
	}

	saved, err := f.Proofs.Save(ctx, in.From.ID, data, storage.Extension(format))
	if err != nil {
		f.Log.Error("save proof", zap.Int64("user_id", in.From.ID), zap.Error(err))
		f.reply(ctx, in, msgProofSaveFailed, nil)
		return
	}

	defer f.reset(in.From.ID)
	p := &models.Payment{
		UserID:        user.ID,
		CourseID:      course.ID,
		Method:        sess.Flow.Method,
		ProofFilename: &saved.Filename,
		ProofURL:      saved.URL,
		ProofHash:     hash,
		Amount:        course.Price,
		Status:        domain.PaymentStatusPending,
		SubmittedAt:   f.now().UTC(),
	}
	if err := f.Payments.Create(p); err != nil {
		f.Log.Error("create payment", zap.Int64("user_id", in.From.ID), zap.String("file", saved.Filename), zap.Error(err))
		f.reply(ctx, in, msgProofDBFailed, nil)
		return
	}
	f.Metrics.Payment(p.Method, p.Status)
	f.publish("payment.submitted", p)

	if !settings.AutoApprove {
		f.reply(ctx, in, msgProofPending, nil)
		f.logAction(in.From.ID, domain.ActionPaymentSubmitted, "Payment for "+course.Title)
		return
	}

	now := f.now().UTC()
	ok, err := f.Payments.Transition(p.ID, domain.PaymentStatusApproved, now)
	if err != nil || !ok {
		f.Log.Warn("auto approve", zap.Uint("payment_id", p.ID), zap.Bool("transitioned", ok), zap.Error(err))
		f.reply(ctx, in, msgAutoApproveFail, nil)
		f.logAction(in.From.ID, domain.ActionAutoApproveFailed, "Payment for "+course.Title)
		return
	}
	p.Status = domain.PaymentStatusApproved
	p.ActionAt = &now
	f.Metrics.Payment(p.Method, p.Status)
	f.publish("payment.approved", p)

	if err := f.sendAccess(ctx, in.Ref.ChatID, in.Ref.MessageID, course, false); err != nil {
		f.Log.Error("deliver access", zap.Uint("payment_id", p.ID), zap.Error(err))
	}
	f.logAction(in.From.ID, domain.ActionPaymentAutoApproved, "Payment for "+course.Title)
}

func (f *Funnel) sendAccess(ctx context.Context, chatID int64, replyTo int, c *models.Course, free bool) error {
	link := f.Shortener.Shorten(ctx, c.FileLink)
	tmpl := msgAccessPaid
	if free {
		tmpl = msgAccessFree
	}
	_, err := f.msg.SendText(ctx, chatID, View{
		Text:      fmt.Sprintf(tmpl, c.Title, link),
		Markdown:  true,
		ReplyTo:   replyTo,
		NoPreview: true,
	})
	return err
}

// DeliverAccess sends the course link to a user whose payment an admin approved.
func (f *Funnel) DeliverAccess(ctx context.Context, telegramID int64, c *models.Course) error {
	if c == nil {
		return errors.New("deliver access: no course")
	}
	return f.sendAccess(ctx, telegramID, 0, c, c.IsFree)
}

// NotifyRejected tells a user an admin rejected their payment.
func (f *Funnel) NotifyRejected(ctx context.Context, telegramID int64, c *models.Course) error {
	title := "your course"
	if c != nil {
		title = strings.TrimSpace(c.Title)
	}
	_, err := f.msg.SendText(ctx, telegramID, View{
		Text:     fmt.Sprintf(msgRejected, title),
		Markdown: true,
	})
	return err
}

var _ service.AccessNotifier = (*Funnel)(nil)
