package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"coursebot/internal/domain"
	"coursebot/internal/logger"
	"coursebot/internal/models"
	"coursebot/internal/ratelimit"
	"coursebot/internal/repository"
	"coursebot/internal/session"
	"coursebot/internal/testutil"
)

const uid int64 = 1001

func TestPasswordGate(t *testing.T) {
	s := defaultSettings()
	s.Password = "secret"
	h := newHarness(t, s)

	h.text(uid, "/start")
	h.wantState(uid, session.AwaitingPassword)
	h.wantLast(msgPasswordPrompt)

	wrong := h.text(uid, "guess")
	h.wantLast(msgPasswordIncorrect)
	h.wantState(uid, session.AwaitingPassword)
	if !h.msg.deleted(wrong) {
		t.Error("wrong password message was not deleted")
	}

	right := h.text(uid, "secret")
	h.wantLast("✅ Password correct!")
	h.wantState(uid, session.Idle)
	if !h.msg.deleted(right) {
		t.Error("password message was not deleted")
	}
	if sess, _ := h.sessions.Get(uid); !sess.Authenticated {
		t.Error("session not marked authenticated")
	}

	testutil.MustCreate(t, h.db, testutil.Course("Go 101", "10.00"))
	h.text(uid, "/courses")
	c := h.wantLast(msgCourseList)
	if !hasButtonText(c.view.Inline, "Go 101 - ₹10.00") {
		t.Errorf("course list missing Go 101: %+v", c.view.Inline)
	}
	h.wantState(uid, session.ViewingCourses)

	actions := h.loggedActions(uid)
	for _, want := range []string{
		domain.ActionUserJoined,
		domain.ActionCommandStart,
		domain.ActionPasswordIncorrect,
		domain.ActionPasswordCorrect,
		domain.ActionCommandCourses,
	} {
		if !hasAction(actions, want) {
			t.Errorf("action %q not logged; got %v", want, actions)
		}
	}
}

func TestBrowseWithoutPasswordRedirectsToStart(t *testing.T) {
	s := defaultSettings()
	s.Password = "secret"
	h := newHarness(t, s)

	h.text(uid, btnBrowse)
	h.wantLast(msgPasswordPrompt)
	h.wantState(uid, session.AwaitingPassword)
}

func TestStartWithoutPassword(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, "/start")
	c := h.wantLast("Welcome to the shop!")
	if c.view.Reply == nil {
		t.Fatal("welcome has no main menu")
	}
	h.wantState(uid, session.Idle)

	h.text(uid, "/start")
	users, total, err := h.users.List("", nil, 1, 10)
	if err != nil || total != 1 || len(users) != 1 {
		t.Fatalf("users = %d (%v), want exactly one", total, err)
	}
}

func TestPurchaseWithManualReview(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)
	id := domain.FormatID(course.ID)

	h.text(uid, "/start")
	h.press(uid, cbCourse+id)
	c := h.wantLast("Python Basics")
	if c.op != "edit_text" {
		t.Errorf("course detail op = %s, want edit_text", c.op)
	}
	if !strings.Contains(c.view.Text, "₹29.99") {
		t.Errorf("detail missing price: %q", c.view.Text)
	}
	h.wantState(uid, session.ViewingCourses)

	h.press(uid, cbBuy+id)
	c = h.wantLast("Payment for: Python Basics")
	if !hasButton(c.view.Inline, "payment_upi_"+id) {
		t.Error("UPI button missing")
	}
	if !hasButton(c.view.Inline, "payment_gift_"+id) {
		t.Error("gift card button missing")
	}
	if hasButton(c.view.Inline, "payment_crypto_"+id) {
		t.Error("unconfigured crypto offered")
	}
	h.wantState(uid, session.SelectingPayment)

	h.press(uid, "payment_upi_"+id)
	h.wantLast("UPI ID: shop@upi")
	h.wantState(uid, session.SendingProof)
	if sess, _ := h.sessions.Get(uid); sess.Flow != (session.Flow{CourseID: course.ID, Method: domain.MethodUPI}) {
		t.Fatalf("flow = %+v", sess.Flow)
	}

	h.msg.files["proof-1"] = pngBytes(t, 10)
	h.photo(uid, "proof-1")
	h.wantLast(msgProofPending)
	h.wantState(uid, session.Idle)

	list, total, err := h.payments.List("", "", 1, 10)
	if err != nil || total != 1 {
		t.Fatalf("payments = %d (%v), want 1", total, err)
	}
	p := list[0]
	if p.Status != domain.PaymentStatusPending || p.Method != domain.MethodUPI {
		t.Errorf("payment = %s/%s", p.Status, p.Method)
	}
	if p.Amount.StringFixed(2) != "29.99" {
		t.Errorf("amount = %s", p.Amount)
	}
	if p.ProofFilename == nil {
		t.Fatal("proof filename not stored")
	}
	if !regexp.MustCompile(`^1001_\d{14}_[0-9a-f]{8}\.png$`).MatchString(*p.ProofFilename) {
		t.Errorf("proof filename = %q", *p.ProofFilename)
	}
	if _, err := os.Stat(filepath.Join(h.uploads, *p.ProofFilename)); err != nil {
		t.Errorf("proof file: %v", err)
	}
	if !contains(h.events.names(), "payment.submitted") {
		t.Error("payment.submitted not published")
	}

	// the same screenshot for another attempt is refused
	h.press(uid, "payment_upi_"+id)
	h.photo(uid, "proof-1")
	h.wantLast(msgDuplicateProof)
	h.wantState(uid, session.SendingProof)
	if _, total, _ := h.payments.List("", "", 1, 10); total != 1 {
		t.Errorf("payments after duplicate = %d, want 1", total)
	}
	if !hasAction(h.loggedActions(uid), domain.ActionDuplicatePayment) {
		t.Error("duplicate not logged")
	}
}

func TestPurchaseWithAutoApprove(t *testing.T) {
	s := defaultSettings()
	s.AutoApprove = true
	h := newHarness(t, s)
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)
	id := domain.FormatID(course.ID)

	h.press(uid, "payment_upi_"+id)
	h.msg.files["proof"] = pngBytes(t, 20)
	h.photo(uid, "proof")

	c := h.wantLast("Payment Approved!")
	if !strings.Contains(c.view.Text, "short:https://example.com/Python Basics") {
		t.Errorf("access link missing: %q", c.view.Text)
	}
	list, _, err := h.payments.List(domain.PaymentStatusApproved, "", 1, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("approved payments = %d (%v)", len(list), err)
	}
	if list[0].ActionAt == nil {
		t.Error("action_at not set")
	}
	if !hasAction(h.loggedActions(uid), domain.ActionPaymentAutoApproved) {
		t.Error("auto approval not logged")
	}
	if !contains(h.events.names(), "payment.approved") {
		t.Error("payment.approved not published")
	}
	h.wantState(uid, session.Idle)
}

func TestCategoriesHideEmpty(t *testing.T) {
	h := newHarness(t, defaultSettings())
	cats := repository.NewCategoryRepository(h.db)
	prog := &models.Category{Name: "Programming"}
	empty := &models.Category{Name: "Empty"}
	for _, c := range []*models.Category{prog, empty} {
		if err := cats.Create(c); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	course := testutil.Course("Go 101", "10.00")
	course.CategoryID = &prog.ID
	testutil.MustCreate(t, h.db, course)

	h.text(uid, btnCategories)
	c := h.wantLast("Course Categories")
	if !hasButtonText(c.view.Inline, "Programming (1)") {
		t.Errorf("Programming missing: %+v", c.view.Inline)
	}
	if hasButton(c.view.Inline, cbCategory+domain.FormatID(empty.ID)) {
		t.Error("empty category listed")
	}

	h.press(uid, cbCategory+domain.FormatID(prog.ID))
	c = h.wantLast("Courses in *Programming*")
	if !hasButton(c.view.Inline, cbCourse+domain.FormatID(course.ID)) {
		t.Error("category course missing")
	}
	if !hasButton(c.view.Inline, cbCategoryMenu) {
		t.Error("back to categories missing")
	}

	h.press(uid, cbCategory+"999")
	h.wantLast(msgCategoryNotFound)

	h.press(uid, cbCategoryMenu)
	h.wantLast("Course Categories")
}

func TestNoCategoriesAtAll(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, btnCategories)
	h.wantLast(msgNoCategories)
}

func TestGiftCardCode(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)

	h.press(uid, "payment_gift_"+domain.FormatID(course.ID))
	h.wantLast("Gift Card Redemption")
	h.wantState(uid, session.EnteringGiftCode)

	const code = "AMZN-1234-5678"
	mid := h.text(uid, code)
	if !h.msg.deleted(mid) {
		t.Error("gift code message was not deleted")
	}
	c := h.wantLast("gift card code has been submitted")
	if strings.Contains(c.view.Text, code) {
		t.Error("confirmation echoes the full code")
	}
	if !strings.Contains(c.view.Text, logger.MaskSecret(code)) {
		t.Errorf("confirmation lacks masked code: %q", c.view.Text)
	}
	h.wantState(uid, session.Idle)

	list, _, err := h.payments.List("", "", 1, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("payments = %d (%v)", len(list), err)
	}
	p := list[0]
	if p.Method != domain.MethodGift || p.ProofFilename != nil || p.Details != "Gift Card Code: "+code {
		t.Errorf("gift payment = %+v", p)
	}
	if p.Status != domain.PaymentStatusPending {
		t.Errorf("status = %s", p.Status)
	}
}

func TestGiftCardCancel(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)

	h.press(uid, "payment_gift_"+domain.FormatID(course.ID))
	h.text(uid, "Cancel")
	h.wantLast(msgGiftCancelled)
	h.wantState(uid, session.Idle)
	if _, total, _ := h.payments.List("", "", 1, 10); total != 0 {
		t.Errorf("payments = %d, want 0", total)
	}
}

func TestUnavailableMethodKeepsState(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)
	id := domain.FormatID(course.ID)

	h.press(uid, cbBuy+id)
	h.press(uid, "payment_crypto_"+id)
	c := h.wantLast("Crypto payment is currently unavailable")
	if !hasButton(c.view.Inline, cbBuy+id) {
		t.Error("no way back to payment options")
	}
	h.wantState(uid, session.SelectingPayment)
}

func TestPhotoOutsideProofState(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.msg.files["p"] = pngBytes(t, 1)
	h.photo(uid, "p")
	h.wantLast(msgUnexpectedPhoto)
	if _, total, _ := h.payments.List("", "", 1, 10); total != 0 {
		t.Errorf("payments = %d, want 0", total)
	}
}

func TestInvalidProofImage(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)

	h.press(uid, "payment_upi_"+domain.FormatID(course.ID))
	h.msg.files["bad"] = []byte("definitely not an image")
	h.photo(uid, "bad")
	h.wantLast(msgInvalidImage)
	h.wantState(uid, session.SendingProof)
}

func TestCourseNotFound(t *testing.T) {
	h := newHarness(t, defaultSettings())
	testutil.MustCreate(t, h.db, testutil.Course("Go 101", "10.00"))

	for _, raw := range []string{"abc", "9999", ""} {
		h.press(uid, cbCourse+raw)
		c := h.wantLast(msgCourseNotFound)
		if !hasButtonText(c.view.Inline, "Go 101 - ₹10.00") {
			t.Errorf("%q: course list not attached", raw)
		}
		h.wantState(uid, session.Idle)
	}
}

func TestInactiveCourseIsHidden(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Retired", "5.00")
	course.IsActive = false
	testutil.MustCreate(t, h.db, course)

	h.press(uid, cbBuy+domain.FormatID(course.ID))
	h.wantLast(msgCourseNotFound)
}

func TestFreeCourseDeliveredImmediately(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Intro", "0")
	course.IsFree = true
	testutil.MustCreate(t, h.db, course)
	id := domain.FormatID(course.ID)

	h.press(uid, cbCourse+id)
	c := h.wantLast("FREE")
	if !hasButtonText(c.view.Inline, "🎁 Get Now for FREE") {
		t.Error("free button missing")
	}

	h.press(uid, cbBuy+id)
	c = h.wantLast("Here is your free course!")
	if !strings.Contains(c.view.Text, "short:https://example.com/Intro") {
		t.Errorf("link missing: %q", c.view.Text)
	}
	if _, total, _ := h.payments.List("", "", 1, 10); total != 0 {
		t.Errorf("payments = %d, want 0", total)
	}
	h.wantState(uid, session.Idle)
	if !hasAction(h.loggedActions(uid), domain.ActionGetFreeCourse) {
		t.Error("free course not logged")
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)

	h.text(uid, "/search")
	h.wantState(uid, session.SearchingCourses)
	h.text(uid, "zzz")
	h.wantLast("@Available_course_list")
	h.wantState(uid, session.ViewingCourses)

	h.text(uid, btnSearch)
	h.text(uid, "python")
	c := h.wantLast("Found 1 courses")
	if !hasButton(c.view.Inline, cbCourse+domain.FormatID(course.ID)) {
		t.Error("result button missing")
	}
	h.wantState(uid, session.ViewingCourses)
}

func TestBannedUserIsTurnedAway(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, "/start")
	u, err := h.users.GetByTelegramID(uid)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if err := h.users.SetBan(u.ID, true, "fraud"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	h.text(uid, "/courses")
	c := h.wantLast(msgBanned)
	if !strings.Contains(c.view.Text, "fraud") {
		t.Errorf("reason missing: %q", c.view.Text)
	}
	h.wantState(uid, session.Idle)

	h.press(uid, cbAllCourses)
	h.wantLast(msgBanned)
	if h.msg.answered != 1 {
		t.Errorf("callbacks answered = %d, want 1", h.msg.answered)
	}
}

func TestSpamAndUnknownText(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, "claim your FREE MONEY now")
	h.wantLast(msgSpam)
	h.text(uid, "hello there")
	h.wantLast(msgUnknown)
	h.text(uid, "/frobnicate")
	h.wantLast(msgUnknown)
	if !hasAction(h.loggedActions(uid), domain.ActionSpamDetected) {
		t.Error("spam not logged")
	}
}

func TestCourseRequest(t *testing.T) {
	h := newHarness(t, defaultSettings())
	requests := repository.NewCourseRequestRepository(h.db)

	h.text(uid, btnRequest)
	c := h.wantLast(msgRequestPrompt)
	if c.view.Reply == nil || c.view.Reply.Rows[0][0] != btnCancelReq {
		t.Error("cancel keyboard missing")
	}
	h.wantState(uid, session.AwaitingCourseRequest)

	h.text(uid, btnCancelReq)
	h.wantLast(msgRequestCancelled)
	h.wantState(uid, session.Idle)

	h.text(uid, btnRequest)
	h.text(uid, "Kubernetes deep dive")
	h.wantLast(msgRequestSaved)
	h.wantState(uid, session.Idle)

	list, total, err := requests.List("", 1, 10)
	if err != nil || total != 1 {
		t.Fatalf("requests = %d (%v), want 1", total, err)
	}
	if list[0].RequestText != "Kubernetes deep dive" || list[0].Status != domain.RequestStatusPending {
		t.Errorf("request = %+v", list[0])
	}
}

func TestPurchases(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, btnPurchases)
	h.wantLast("You haven't purchased any courses yet")

	u, err := h.users.GetByTelegramID(uid)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	testutil.MustCreate(t, h.db, &models.Payment{
		UserID:      u.ID,
		CourseID:    course.ID,
		Method:      domain.MethodUPI,
		Amount:      course.Price,
		Status:      domain.PaymentStatusApproved,
		SubmittedAt: at,
		ActionAt:    &at,
	})

	h.text(uid, btnPurchases)
	c := h.wantLast("Your Purchases")
	for _, want := range []string{"1. *Python Basics*", "₹29.99", "2024-03-09", "short:https://example.com/Python Basics"} {
		if !strings.Contains(c.view.Text, want) {
			t.Errorf("purchases missing %q: %q", want, c.view.Text)
		}
	}
}

func TestDMCAPolicy(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, btnDMCA)
	h.wantLast("All content is licensed.")
}

func TestBackAndCancelClearFlow(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)

	h.press(uid, "payment_upi_"+domain.FormatID(course.ID))
	h.press(uid, cbCancel)
	h.wantLast(msgCancelled)
	if sess, _ := h.sessions.Get(uid); sess.State != session.Idle || sess.Flow.Complete() {
		t.Errorf("session after cancel = %+v", sess)
	}

	h.press(uid, "payment_gift_"+domain.FormatID(course.ID))
	h.press(uid, cbBack)
	h.wantLast(msgMainMenu)
	if sess, _ := h.sessions.Get(uid); sess.State != session.Idle || sess.Flow.CourseID != 0 {
		t.Errorf("session after back = %+v", sess)
	}
}

func TestCourseImageRendering(t *testing.T) {
	h := newHarness(t, defaultSettings())
	public := testutil.Course("Public", "1.00")
	public.ImageLink = "https://cdn.example.com/public.png"
	private := testutil.Course("Private", "1.00")
	private.ImageLink = "http://192.168.1.10/private.png"
	testutil.MustCreate(t, h.db, public)
	testutil.MustCreate(t, h.db, private)

	h.press(uid, cbCourse+domain.FormatID(public.ID))
	c := h.msg.last(t)
	if c.op != "send_photo" || c.view.Photo.URL != public.ImageLink {
		t.Errorf("public image: op=%s photo=%+v", c.op, c.view.Photo)
	}

	h.press(uid, cbCourse+domain.FormatID(private.ID))
	c = h.wantLast("Course image available on website")
	if c.op != "edit_text" {
		t.Errorf("private image op = %s", c.op)
	}

	h.msg.failPhoto = true
	h.press(uid, cbCourse+domain.FormatID(public.ID))
	c = h.wantLast("Course image could not be displayed")
	if c.op != "send_text" {
		t.Errorf("fallback op = %s", c.op)
	}
}

func TestAutoDeleteScheduling(t *testing.T) {
	s := defaultSettings()
	s.AutoDeleteSeconds = 300
	h := newHarness(t, s)
	h.text(uid, "/courses")
	h.text(uid, "/help")
	if len(h.scheduled) != 2 || h.scheduled[0] != 300*time.Second {
		t.Errorf("scheduled = %v", h.scheduled)
	}

	h2 := newHarness(t, defaultSettings())
	h2.text(uid, "/courses")
	if len(h2.scheduled) != 0 {
		t.Errorf("auto delete disabled but scheduled %v", h2.scheduled)
	}
}

func TestDeliverAccessAndRejection(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")

	if err := h.f.DeliverAccess(context.Background(), 42, course); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	c := h.wantLast("Payment Approved!")
	if c.ref.ChatID != 42 {
		t.Errorf("chat = %d, want 42", c.ref.ChatID)
	}

	if err := h.f.NotifyRejected(context.Background(), 42, course); err != nil {
		t.Fatalf("notify: %v", err)
	}
	h.wantLast("could not be verified")

	if err := h.f.DeliverAccess(context.Background(), 42, nil); err == nil {
		t.Error("nil course delivered")
	}
}

func TestRateLimitDropsFlood(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.f.Limiter = ratelimit.New(2, time.Minute)
	for i := 0; i < 5; i++ {
		h.text(uid, "/help")
	}
	if n := len(h.msg.snapshot()); n != 2 {
		t.Errorf("messages sent = %d, want 2", n)
	}
}

func TestRunDrainsUpdates(t *testing.T) {
	h := newHarness(t, defaultSettings())
	updates := make(chan Update, 2)
	for _, id := range []int64{1, 2} {
		updates <- Update{Message: &Incoming{
			Ref:  Ref{ChatID: id, MessageID: 1},
			From: testSender(id),
			Text: "/help",
		}}
	}
	close(updates)
	h.f.Run(context.Background(), updates)
	if n := len(h.msg.snapshot()); n != 2 {
		t.Errorf("messages sent = %d, want 2", n)
	}
}

func TestPurchasesTruncatedWithinLimit(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, "/start")
	u, err := h.users.GetByTelegramID(uid)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	for i := 0; i < 80; i++ {
		course := testutil.Course(fmt.Sprintf("Course %02d %s", i, strings.Repeat("x", 30)), "19.99")
		testutil.MustCreate(t, h.db, course)
		testutil.MustCreate(t, h.db, &models.Payment{
			UserID:      u.ID,
			CourseID:    course.ID,
			Method:      domain.MethodUPI,
			Amount:      course.Price,
			Status:      domain.PaymentStatusApproved,
			SubmittedAt: at,
			ActionAt:    &at,
		})
	}

	h.text(uid, btnPurchases)
	c := h.wantLast("Your Purchases")
	text := c.view.Text
	if n := utf16Len(text); n > maxMessageUnits {
		t.Fatalf("purchases message is %d UTF-16 units, limit %d", n, maxMessageUnits)
	}
	if !strings.HasSuffix(text, msgPurchasesTruncated) {
		t.Fatalf("no truncation notice at the end: %q", text[len(text)-80:])
	}
	if !strings.Contains(text, "1. *Course") || strings.Contains(text, "80. *Course") {
		t.Error("expected the first items and not the last one")
	}
	body := strings.TrimSuffix(text, msgPurchasesTruncated)
	if strings.Count(body, "*")%2 != 0 || strings.Count(body, "[Access Course](") != strings.Count(body, "🔗") {
		t.Error("list was cut inside an item")
	}
}

func TestGiftCodeWithoutCourse(t *testing.T) {
	h := newHarness(t, defaultSettings())
	h.text(uid, "/start")
	h.sessions.Set(uid, session.EnteringGiftCode)

	h.text(uid, "AMZN-0000-1111")
	h.wantLast(msgGiftMissingCourse)
	h.wantState(uid, session.Idle)
	if _, total, _ := h.payments.List("", "", 1, 10); total != 0 {
		t.Errorf("payments = %d, want 0", total)
	}
}

func TestGiftDisabledIsUnavailable(t *testing.T) {
	s := defaultSettings()
	s.GiftCardEnabled = false
	h := newHarness(t, s)
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)
	id := domain.FormatID(course.ID)

	h.press(uid, cbBuy+id)
	h.press(uid, "payment_gift_"+id)
	c := h.wantLast("Gift Card payment is currently unavailable")
	if !hasButton(c.view.Inline, cbBuy+id) {
		t.Error("no way back to payment options")
	}
	h.wantState(uid, session.SelectingPayment)
}

func TestConcurrentIdenticalProofsRecordOnePayment(t *testing.T) {
	h := newHarness(t, defaultSettings())
	course := testutil.Course("Python Basics", "29.99")
	testutil.MustCreate(t, h.db, course)
	id := domain.FormatID(course.ID)

	h.press(uid, cbBuy+id)
	h.press(uid, "payment_upi_"+id)
	h.wantState(uid, session.SendingProof)
	h.msg.files["same"] = pngBytes(t, 42)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(mid int) {
			defer wg.Done()
			h.f.Handle(context.Background(), Update{Message: &Incoming{
				Ref:         Ref{ChatID: uid, MessageID: mid, Kind: PhotoMessage},
				From:        testSender(uid),
				PhotoFileID: "same",
			}})
		}(900 + i)
	}
	wg.Wait()

	if _, total, _ := h.payments.List("", "", 1, 10); total != 1 {
		t.Fatalf("payments = %d, want 1", total)
	}
	if n := h.f.submits.len(); n != 0 {
		t.Errorf("submit locks left behind: %d", n)
	}
}

func TestUserLocksSerializeSameUser(t *testing.T) {
	var l userLocks
	unlock := l.lock(7)

	acquired := make(chan struct{})
	go func() {
		release := l.lock(7)
		close(acquired)
		release()
	}()
	other := l.lock(8) // a different user is not blocked
	other()

	select {
	case <-acquired:
		t.Fatal("second lock for the same user acquired while held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
	// the goroutine releases right after signalling
	deadline := time.Now().Add(time.Second)
	for l.len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := l.len(); n != 0 {
		t.Errorf("locks left = %d", n)
	}
}
