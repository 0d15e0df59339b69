package bot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"coursebot/internal/repository"
	"coursebot/internal/service"
	"coursebot/internal/session"
	"coursebot/internal/storage"
	"coursebot/internal/testutil"

	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type call struct {
	op   string // send_text, send_photo, edit_text, edit_caption, delete
	ref  Ref
	view View
}

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	calls     []call
	answered  int
	files     map[string][]byte
	failPhoto bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 5000, files: make(map[string][]byte)}
}

func (m *fakeMessenger) record(op string, ref Ref, v View) Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op == "send_text" || op == "send_photo" {
		m.nextID++
		ref.MessageID = m.nextID
	}
	m.calls = append(m.calls, call{op: op, ref: ref, view: v})
	return ref
}

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, v View) (Ref, error) {
	return m.record("send_text", Ref{ChatID: chatID, Kind: TextMessage}, v), nil
}

func (m *fakeMessenger) SendPhoto(_ context.Context, chatID int64, v View) (Ref, error) {
	if m.failPhoto {
		return Ref{}, errors.New("wrong file identifier/HTTP URL specified")
	}
	return m.record("send_photo", Ref{ChatID: chatID, Kind: PhotoMessage}, v), nil
}

func (m *fakeMessenger) EditText(_ context.Context, ref Ref, v View) error {
	m.record("edit_text", ref, v)
	return nil
}

func (m *fakeMessenger) EditCaption(_ context.Context, ref Ref, v View) error {
	m.record("edit_caption", ref, v)
	return nil
}

func (m *fakeMessenger) DeleteMessage(_ context.Context, ref Ref) error {
	m.record("delete", ref, View{})
	return nil
}

func (m *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *fakeMessenger) AnswerCallback(context.Context, string, string) error {
	m.mu.Lock()
	m.answered++
	m.mu.Unlock()
	return nil
}

func (m *fakeMessenger) snapshot() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

// last returns the most recent call that put content on screen.
func (m *fakeMessenger) last(t *testing.T) call {
	t.Helper()
	calls := m.snapshot()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].op != "delete" {
			return calls[i]
		}
	}
	t.Fatal("no message shown")
	return call{}
}

func (m *fakeMessenger) deleted(messageID int) bool {
	for _, c := range m.snapshot() {
		if c.op == "delete" && c.ref.MessageID == messageID {
			return true
		}
	}
	return false
}

type fakeSettings struct {
	mu sync.Mutex
	s  service.BotSettings
}

func (f *fakeSettings) Current() service.BotSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}

type fakeShortener struct{}

func (fakeShortener) Shorten(_ context.Context, link string) string { return "short:" + link }

type recordedEvent struct {
	name    string
	payload any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *fakeEvents) Publish(event string, payload any) {
	e.mu.Lock()
	e.events = append(e.events, recordedEvent{event, payload})
	e.mu.Unlock()
}

func (e *fakeEvents) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.name)
	}
	return out
}

type harness struct {
	t         *testing.T
	f         *Funnel
	msg       *fakeMessenger
	db        *gorm.DB
	settings  *fakeSettings
	sessions  *session.Store
	events    *fakeEvents
	payments  *repository.PaymentRepository
	users     *repository.UserRepository
	logs      *repository.ActionLogRepository
	uploads   string
	scheduled []time.Duration
	nextMsgID int
}

func defaultSettings() service.BotSettings {
	return service.BotSettings{
		WelcomeMessage:     "Welcome to the shop!",
		UPI:                "shop@upi",
		GiftCardEnabled:    true,
		DMCAPolicy:         "All content is licensed.",
		SearchFallbackLink: "@Available_course_list",
	}
}

func newHarness(t *testing.T, s service.BotSettings) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	db := testutil.NewDB(t)
	uploads := t.TempDir()
	proofs, err := storage.NewProofStore(uploads, nil, log)
	if err != nil {
		t.Fatalf("proof store: %v", err)
	}

	h := &harness{
		t:         t,
		msg:       newFakeMessenger(),
		db:        db,
		settings:  &fakeSettings{s: s},
		sessions:  session.NewStore(),
		events:    &fakeEvents{},
		payments:  repository.NewPaymentRepository(db),
		users:     repository.NewUserRepository(db),
		logs:      repository.NewActionLogRepository(db),
		uploads:   uploads,
		nextMsgID: 100,
	}
	h.f = NewFunnel(h.msg, h.sessions, Deps{
		Users:      h.users,
		Courses:    repository.NewCourseRepository(db),
		Categories: repository.NewCategoryRepository(db),
		Payments:   h.payments,
		Requests:   repository.NewCourseRequestRepository(db),
		Logs:       h.logs,
		Settings:   h.settings,
		Proofs:     proofs,
		Shortener:  fakeShortener{},
		Events:     h.events,
		Log:        log,
	})
	h.f.after = func(d time.Duration, _ func()) { h.scheduled = append(h.scheduled, d) }
	t.Cleanup(h.f.Wait)
	return h
}

func (h *harness) msgID() int {
	h.nextMsgID++
	return h.nextMsgID
}

func testSender(id int64) Sender {
	return Sender{ID: id, Username: "learner", FirstName: "Ada"}
}

// text sends a text message from user id and returns its message id.
func (h *harness) text(id int64, text string) int {
	mid := h.msgID()
	h.f.Handle(context.Background(), Update{Message: &Incoming{
		Ref:  Ref{ChatID: id, MessageID: mid, Kind: TextMessage},
		From: testSender(id),
		Text: text,
	}})
	return mid
}

func (h *harness) photo(id int64, fileID string) {
	h.f.Handle(context.Background(), Update{Message: &Incoming{
		Ref:         Ref{ChatID: id, MessageID: h.msgID(), Kind: PhotoMessage},
		From:        testSender(id),
		PhotoFileID: fileID,
	}})
}

func (h *harness) press(id int64, data string) {
	h.f.Handle(context.Background(), Update{Callback: &CallbackQuery{
		ID:      "cb",
		From:    testSender(id),
		Data:    data,
		Message: Ref{ChatID: id, MessageID: h.msgID(), Kind: TextMessage},
	}})
}

func (h *harness) state(id int64) session.State { return h.sessions.State(id) }

func (h *harness) wantState(id int64, want session.State) {
	h.t.Helper()
	if got := h.state(id); got != want {
		h.t.Fatalf("state = %s, want %s", got, want)
	}
}

func (h *harness) wantLast(substr string) call {
	h.t.Helper()
	c := h.msg.last(h.t)
	if !strings.Contains(c.view.Text, substr) {
		h.t.Fatalf("last message %q does not contain %q", c.view.Text, substr)
	}
	return c
}

func (h *harness) loggedActions(id int64) []string {
	h.t.Helper()
	h.f.Wait()
	logs, _, err := h.logs.List(id, "", 1, 100)
	if err != nil {
		h.t.Fatalf("list logs: %v", err)
	}
	var out []string
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}

func hasAction(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func pngBytes(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: shade, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func hasButton(kb Keyboard, data string) bool {
	for _, row := range kb {
		for _, b := range row {
			if b.Data == data {
				return true
			}
		}
	}
	return false
}

func hasButtonText(kb Keyboard, text string) bool {
	for _, row := range kb {
		for _, b := range row {
			if b.Text == text {
				return true
			}
		}
	}
	return false
}
