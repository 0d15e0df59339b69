package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coursebot/config"
	"coursebot/internal/domain"
	"coursebot/internal/models"
	"coursebot/internal/repository"
	"coursebot/internal/testutil"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type memSettings struct {
	values map[string]string
	err    error
	reads  int
}

func (m *memSettings) Map() (map[string]string, error) {
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memSettings) SetMany(values map[string]string) error {
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Hour, Issuer: "coursebot"},
		Bot: config.BotConfig{
			WelcomeMessage:    "env welcome",
			AutoDeleteSeconds: 300,
			SettingsCacheTTL:  time.Minute,
		},
		Payment: config.PaymentConfig{UPI: "env@upi"},
	}
}

func TestSettingsService_OverlayAndCache(t *testing.T) {
	store := &memSettings{values: map[string]string{
		domain.SettingWelcomeMessage: "db welcome",
		domain.SettingAutoApprove:    "yes",
		domain.SettingCODEnabled:     "1",
	}}
	svc := NewSettingsService(testConfig(), store, zaptest.NewLogger(t))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	got := svc.Current()
	if got.WelcomeMessage != "db welcome" || !got.AutoApprove || got.AutoDeleteSeconds != 300 || got.UPI != "env@upi" {
		t.Fatalf("settings = %+v", got)
	}
	if got.DMCAPolicy != defaultDMCAPolicy {
		t.Fatalf("dmca = %q", got.DMCAPolicy)
	}
	if want := []string{domain.MethodUPI, domain.MethodCOD}; len(got.DefaultMethods()) != 2 ||
		got.DefaultMethods()[0] != want[0] || got.DefaultMethods()[1] != want[1] {
		t.Fatalf("default methods = %v", got.DefaultMethods())
	}

	svc.Current()
	if store.reads != 1 {
		t.Fatalf("reads = %d, want cached", store.reads)
	}
	now = now.Add(2 * time.Minute)
	svc.Current()
	if store.reads != 2 {
		t.Fatalf("reads = %d, want reload after ttl", store.reads)
	}
}

func TestSettingsService_UpdateInvalidatesCache(t *testing.T) {
	store := &memSettings{values: map[string]string{}}
	svc := NewSettingsService(testConfig(), store, zaptest.NewLogger(t))
	if svc.Current().Password != "" {
		t.Fatal("unexpected password")
	}
	if err := svc.Update(map[string]string{domain.SettingBotPassword: "letmein"}); err != nil {
		t.Fatal(err)
	}
	if svc.Current().Password != "letmein" {
		t.Fatal("update not visible")
	}
	if err := svc.Update(map[string]string{"NOPE": "x"}); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("err = %v", err)
	}
	if err := svc.Update(map[string]string{domain.SettingAutoDeleteSeconds: "-1"}); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("negative auto delete: err = %v", err)
	}
}

func TestSettingsService_StoreErrorFallsBackToEnv(t *testing.T) {
	store := &memSettings{err: errors.New("db down")}
	svc := NewSettingsService(testConfig(), store, zaptest.NewLogger(t))
	if got := svc.Current(); got.WelcomeMessage != "env welcome" {
		t.Fatalf("settings = %+v", got)
	}
}

type recordingNotifier struct {
	mu        sync.Mutex
	delivered []int64
	rejected  []int64
}

func (r *recordingNotifier) DeliverAccess(_ context.Context, tgID int64, _ *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, tgID)
	return nil
}

func (r *recordingNotifier) NotifyRejected(_ context.Context, tgID int64, _ *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, tgID)
	return nil
}

type recordingEvents struct{ events []string }

func (r *recordingEvents) Publish(event string, _ any) { r.events = append(r.events, event) }

func newPendingPayment(t *testing.T, repo *repository.PaymentRepository, userID, courseID uint) *models.Payment {
	t.Helper()
	p := &models.Payment{
		UserID: userID, CourseID: courseID, Method: domain.MethodUPI,
		Status: domain.PaymentStatusPending, SubmittedAt: time.Now().UTC(),
	}
	if err := repo.Create(p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPaymentService_ApproveOnce(t *testing.T) {
	db := testutil.NewDB(t)
	u, _, _ := repository.NewUserRepository(db).GetOrCreate(&models.User{TelegramID: 555})
	c := testutil.Course("Go", "10")
	testutil.MustCreate(t, db, c)
	payments := repository.NewPaymentRepository(db)
	p := newPendingPayment(t, payments, u.ID, c.ID)

	notifier := &recordingNotifier{}
	events := &recordingEvents{}
	svc := NewPaymentService(payments, notifier, events, nil, zaptest.NewLogger(t))

	got, err := svc.Approve(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.PaymentStatusApproved || got.ActionAt == nil {
		t.Fatalf("payment = %+v", got)
	}
	if _, err := svc.Approve(context.Background(), p.ID); !errors.Is(err, ErrPaymentNotPending) {
		t.Fatalf("second approve err = %v", err)
	}
	if _, err := svc.Reject(context.Background(), p.ID); !errors.Is(err, ErrPaymentNotPending) {
		t.Fatalf("reject after approve err = %v", err)
	}
	if len(notifier.delivered) != 1 || notifier.delivered[0] != 555 {
		t.Fatalf("delivered = %v", notifier.delivered)
	}
	if len(events.events) != 1 || events.events[0] != "payment.approved" {
		t.Fatalf("events = %v", events.events)
	}

	if _, err := svc.Redeliver(context.Background(), p.ID); err != nil {
		t.Fatal(err)
	}
	if len(notifier.delivered) != 2 {
		t.Fatalf("redeliver did not send, delivered = %v", notifier.delivered)
	}
	if _, err := svc.Approve(context.Background(), 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing payment err = %v", err)
	}
}

func TestPaymentService_Reject(t *testing.T) {
	db := testutil.NewDB(t)
	u, _, _ := repository.NewUserRepository(db).GetOrCreate(&models.User{TelegramID: 9})
	c := testutil.Course("Go", "10")
	testutil.MustCreate(t, db, c)
	payments := repository.NewPaymentRepository(db)
	p := newPendingPayment(t, payments, u.ID, c.ID)
	notifier := &recordingNotifier{}
	svc := NewPaymentService(payments, notifier, nil, nil, zaptest.NewLogger(t))

	if _, err := svc.Reject(context.Background(), p.ID); err != nil {
		t.Fatal(err)
	}
	if len(notifier.rejected) != 1 || len(notifier.delivered) != 0 {
		t.Fatalf("notifier = %+v", notifier)
	}
	if _, err := svc.Redeliver(context.Background(), p.ID); !errors.Is(err, ErrPaymentNotApproved) {
		t.Fatalf("redeliver rejected err = %v", err)
	}
}

func TestTinyURLShortener(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("url") != "https://example.com/course" {
			t.Errorf("url param = %q", r.URL.Query().Get("url"))
		}
		_, _ = w.Write([]byte("https://tinyurl.com/abc\n"))
	}))
	defer srv.Close()

	s := NewTinyURLShortener(zaptest.NewLogger(t))
	s.endpoint = srv.URL

	if got := s.Shorten(context.Background(), "https://example.com/course"); got != "https://tinyurl.com/abc" {
		t.Fatalf("short = %q", got)
	}
	fail.Store(true)
	if got := s.Shorten(context.Background(), "https://example.com/other"); got != "https://example.com/other" {
		t.Fatalf("fallback = %q", got)
	}
	if got := s.Shorten(context.Background(), "https://example.com/course"); got != "https://tinyurl.com/abc" {
		t.Fatalf("cached = %q", got)
	}
	if got := s.Shorten(context.Background(), "#"); got != "#" {
		t.Fatalf("non-url = %q", got)
	}
}

func TestAuthService_Login(t *testing.T) {
	db := testutil.NewDB(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	testutil.MustCreate(t, db, &models.Admin{Username: "admin", Email: "a@example.com", PasswordHash: string(hash)})
	svc := NewAuthService(testConfig(), repository.NewAdminRepository(db))

	a, token, err := svc.Login("admin", "admin123")
	if err != nil || token == "" || a.LastLoginAt == nil {
		t.Fatalf("login: admin=%+v token=%q err=%v", a, token, err)
	}
	if _, _, err := svc.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, _, err := svc.Login("ghost", "admin123"); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("unknown user err = %v", err)
	}
}
