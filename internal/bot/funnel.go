// Package bot runs the chat-side purchase funnel: a per-user state machine
// that walks users from discovery to payment proof and delivers course links.
package bot

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"coursebot/internal/domain"
	"coursebot/internal/metrics"
	"coursebot/internal/models"
	"coursebot/internal/ratelimit"
	"coursebot/internal/repository"
	"coursebot/internal/service"
	"coursebot/internal/session"
	"coursebot/internal/storage"

	"go.uber.org/zap"
)

const (
	actionLogTimeout = 5 * time.Second
	deleteTimeout    = 10 * time.Second
)

type SettingsSource interface {
	Current() service.BotSettings
}

type ProofStore interface {
	Save(ctx context.Context, telegramID int64, data []byte, ext string) (storage.SavedProof, error)
	QRPath(name string) (string, bool)
}

type Shortener interface {
	Shorten(ctx context.Context, link string) string
}

// Deps are the collaborators of a Funnel. Events, Metrics and Limiter may be nil.
type Deps struct {
	Users      *repository.UserRepository
	Courses    *repository.CourseRepository
	Categories *repository.CategoryRepository
	Payments   *repository.PaymentRepository
	Requests   *repository.CourseRequestRepository
	Logs       *repository.ActionLogRepository
	Settings   SettingsSource
	Proofs     ProofStore
	Shortener  Shortener
	Events     service.EventPublisher
	Metrics    *metrics.Metrics
	Limiter    *ratelimit.Limiter
	Log        *zap.Logger
}

// Funnel handles chat updates. Handlers for different users run concurrently;
// everything shared goes through the session store or the database.
type Funnel struct {
	Deps
	msg      Messenger
	sessions *session.Store
	now      func() time.Time
	after    func(d time.Duration, fn func())

	pending sync.WaitGroup
	submits userLocks
}

func NewFunnel(msg Messenger, sessions *session.Store, deps Deps) *Funnel {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Funnel{
		Deps:     deps,
		msg:      msg,
		sessions: sessions,
		now:      time.Now,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Wait blocks until background work started by handlers, such as action
// logging, has finished.
func (f *Funnel) Wait() { f.pending.Wait() }

func (f *Funnel) setState(userID int64, st session.State) {
	f.sessions.Set(userID, st)
	f.Metrics.Transition(st.String())
}

func (f *Funnel) reset(userID int64) {
	f.sessions.Reset(userID)
	f.Metrics.Transition(session.Idle.String())
}

// logAction writes an audit row without holding up the reply.
func (f *Funnel) logAction(telegramID int64, action, details string) {
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), actionLogTimeout)
		defer cancel()
		err := f.Logs.Create(ctx, &models.ActionLog{
			TelegramID: telegramID,
			Action:     action,
			Details:    details,
			CreatedAt:  f.now().UTC(),
		})
		if err != nil {
			f.Log.Warn("action log", zap.Int64("user_id", telegramID), zap.String("action", action), zap.Error(err))
		}
	}()
}

func (f *Funnel) publish(event string, payload any) {
	if f.Events != nil {
		f.Events.Publish(event, payload)
	}
}

// send posts a new text message and logs a failure.
func (f *Funnel) send(ctx context.Context, chatID int64, v View) (Ref, bool) {
	v.Kind = TextMessage
	ref, err := f.msg.SendText(ctx, chatID, v)
	if err != nil {
		f.Log.Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return Ref{}, false
	}
	return ref, true
}

func (f *Funnel) reply(ctx context.Context, in *Incoming, text string, kb *ReplyKeyboard) (Ref, bool) {
	return f.send(ctx, in.Ref.ChatID, View{Text: text, Reply: kb, ReplyTo: in.Ref.MessageID})
}

func (f *Funnel) delete(ctx context.Context, ref Ref) {
	if err := f.msg.DeleteMessage(ctx, ref); err != nil {
		f.Log.Debug("delete message", zap.Int64("chat_id", ref.ChatID), zap.Int("message_id", ref.MessageID), zap.Error(err))
	}
}

// show replaces origin with v. Text can only be edited into a text message and
// a caption only into a photo, so any other pairing deletes origin and sends anew.
func (f *Funnel) show(ctx context.Context, origin Ref, v View) Ref {
	if v.Kind == TextMessage {
		if origin.Kind == TextMessage && origin.MessageID != 0 {
			err := f.msg.EditText(ctx, origin, v)
			if err == nil {
				return origin
			}
			f.Log.Debug("edit text", zap.Int("message_id", origin.MessageID), zap.Error(err))
		}
		f.delete(ctx, origin)
		ref, _ := f.send(ctx, origin.ChatID, v)
		return ref
	}

	if origin.Kind == PhotoMessage {
		if err := f.msg.EditCaption(ctx, origin, v); err == nil {
			return origin
		}
	}
	f.delete(ctx, origin)
	ref, err := f.msg.SendPhoto(ctx, origin.ChatID, v)
	if err == nil {
		return ref
	}
	f.Log.Warn("send photo", zap.Int64("chat_id", origin.ChatID), zap.Error(err))
	v.Kind = TextMessage
	v.Text += noteImageFailed
	ref, _ = f.send(ctx, origin.ChatID, v)
	return ref
}

// autoDelete removes ref after the configured delay. Zero disables it.
func (f *Funnel) autoDelete(ref Ref, settings service.BotSettings) {
	if settings.AutoDeleteSeconds <= 0 || ref.MessageID == 0 {
		return
	}
	f.after(time.Duration(settings.AutoDeleteSeconds)*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()
		f.delete(ctx, ref)
	})
}

// ensureUser returns the stored user for s, creating it on first contact.
func (f *Funnel) ensureUser(s Sender) (*models.User, error) {
	u, created, err := f.Users.GetOrCreate(&models.User{
		TelegramID: s.ID,
		Username:   s.Username,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
	})
	if err != nil {
		return nil, err
	}
	if created {
		f.Log.Info("new user", zap.Int64("user_id", s.ID), zap.String("username", s.Username))
		f.logAction(s.ID, domain.ActionUserJoined, "New user registered")
	}
	return u, nil
}

// authorized reports whether the user may browse. Only a configured password
// gates access, and a correct answer is remembered for the session.
func (f *Funnel) authorized(userID int64, settings service.BotSettings) bool {
	if settings.Password == "" {
		return true
	}
	sess, _ := f.sessions.Get(userID)
	return sess.Authenticated
}

// lookupCourse resolves raw callback data to an active course. A nil course
// with nil error means the id was malformed or no such active course exists.
func (f *Funnel) lookupCourse(raw string, activeOnly bool) (*models.Course, error) {
	id := domain.ParseID(raw)
	if !id.Valid {
		f.Log.Debug("malformed course id", zap.String("raw", raw))
		return nil, nil
	}
	get := f.Courses.GetByID
	if activeOnly {
		get = f.Courses.GetActive
	}
	c, err := get(id.Value)
	if errors.Is(err, repository.ErrNotFound) {
		f.Log.Debug("course not found", zap.Uint("course_id", id.Value))
		return nil, nil
	}
	return c, err
}

// isPrivateHost reports whether link points at a host Telegram cannot fetch.
func isPrivateHost(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast()
}

func userKey(id int64) string { return strconv.FormatInt(id, 10) }

// userLocks hands out one mutex per user id. Entries are dropped when no
// goroutine holds or waits for them. The zero value is ready to use.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the caller owns userID's mutex and returns the release func.
func (l *userLocks) lock(userID int64) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*userLock)
	}
	ul := l.locks[userID]
	if ul == nil {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
