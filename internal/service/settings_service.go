package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"coursebot/config"
	"coursebot/internal/domain"

	"go.uber.org/zap"
)

const defaultDMCAPolicy = "No DMCA/Policy text has been set by the admin yet."

var (
	ErrUnknownSetting = errors.New("unknown setting key")
	ErrInvalidSetting = errors.New("invalid setting value")
)

// BotSettings is the effective bot configuration: env defaults overlaid with
// whatever admins stored in bot_settings.
type BotSettings struct {
	WelcomeMessage     string
	AutoDeleteSeconds  int
	AutoApprove        bool
	Password           string
	UPI                string
	Crypto             string
	PayPal             string
	CODEnabled         bool
	GiftCardEnabled    bool
	AdminContactURL    string
	DMCAPolicy         string
	SearchFallbackLink string
}

// MethodConfigured reports whether a method can currently take payments.
func (s BotSettings) MethodConfigured(method string) bool {
	switch method {
	case domain.MethodUPI:
		return s.UPI != ""
	case domain.MethodCrypto:
		return s.Crypto != ""
	case domain.MethodPayPal:
		return s.PayPal != ""
	case domain.MethodCOD:
		return s.CODEnabled
	case domain.MethodGift:
		return s.GiftCardEnabled
	}
	return false
}

// DefaultMethods is the global method list used by courses without their own.
func (s BotSettings) DefaultMethods() []string {
	var out []string
	for _, m := range domain.PaymentMethods {
		if s.MethodConfigured(m) {
			out = append(out, m)
		}
	}
	return out
}

type settingsStore interface {
	Map() (map[string]string, error)
	SetMany(values map[string]string) error
}

// SettingsService serves BotSettings with a short cache so every chat update
// does not hit the database.
type SettingsService struct {
	cfg   *config.Config
	store settingsStore
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	cached   BotSettings
	loadedAt time.Time
	loaded   bool
}

func NewSettingsService(cfg *config.Config, store settingsStore, log *zap.Logger) *SettingsService {
	return &SettingsService{
		cfg:   cfg,
		store: store,
		ttl:   cfg.Bot.SettingsCacheTTL,
		log:   log,
		now:   time.Now,
	}
}

// Current never fails: on a store error it logs and serves the last good
// value, or the env defaults if nothing was loaded yet.
func (s *SettingsService) Current() BotSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && s.ttl > 0 && s.now().Sub(s.loadedAt) < s.ttl {
		return s.cached
	}
	stored, err := s.store.Map()
	if err != nil {
		s.log.Warn("load bot settings", zap.Error(err))
		if s.loaded {
			return s.cached
		}
		return s.overlay(nil)
	}
	s.cached = s.overlay(stored)
	s.loadedAt = s.now()
	s.loaded = true
	return s.cached
}

// Effective returns every editable key with its effective string value, for the settings page.
func (s *SettingsService) Effective() (map[string]string, error) {
	stored, err := s.store.Map()
	if err != nil {
		return nil, err
	}
	cur := s.overlay(stored)
	out := map[string]string{
		domain.SettingWelcomeMessage:    cur.WelcomeMessage,
		domain.SettingAutoDeleteSeconds: strconv.Itoa(cur.AutoDeleteSeconds),
		domain.SettingAutoApprove:       strconv.FormatBool(cur.AutoApprove),
		domain.SettingBotPassword:       cur.Password,
		domain.SettingUPI:               cur.UPI,
		domain.SettingCrypto:            cur.Crypto,
		domain.SettingPayPal:            cur.PayPal,
		domain.SettingCODEnabled:        strconv.FormatBool(cur.CODEnabled),
		domain.SettingGiftCardEnabled:   strconv.FormatBool(cur.GiftCardEnabled),
		domain.SettingAdminContactURL:   cur.AdminContactURL,
		domain.SettingDMCAPolicy:        cur.DMCAPolicy,
	}
	return out, nil
}

// Update validates and stores values, then drops the cache.
func (s *SettingsService) Update(values map[string]string) error {
	for k, v := range values {
		if !isSettingKey(k) {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, k)
		}
		if k == domain.SettingAutoDeleteSeconds {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err != nil || n < 0 {
				return fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidSetting, k)
			}
		}
	}
	if err := s.store.SetMany(values); err != nil {
		return err
	}
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
	return nil
}

func (s *SettingsService) overlay(stored map[string]string) BotSettings {
	b := BotSettings{
		WelcomeMessage:     s.cfg.Bot.WelcomeMessage,
		AutoDeleteSeconds:  s.cfg.Bot.AutoDeleteSeconds,
		AutoApprove:        s.cfg.Bot.AutoApprove,
		Password:           s.cfg.Bot.Password,
		UPI:                s.cfg.Payment.UPI,
		Crypto:             s.cfg.Payment.Crypto,
		PayPal:             s.cfg.Payment.PayPal,
		CODEnabled:         s.cfg.Payment.CODEnabled,
		GiftCardEnabled:    s.cfg.Payment.GiftCardEnabled,
		AdminContactURL:    s.cfg.Bot.AdminContactURL,
		DMCAPolicy:         defaultDMCAPolicy,
		SearchFallbackLink: s.cfg.Bot.SearchFallbackLink,
	}
	for k, v := range stored {
		switch k {
		case domain.SettingWelcomeMessage:
			if v != "" {
				b.WelcomeMessage = v
			}
		case domain.SettingAutoDeleteSeconds:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				b.AutoDeleteSeconds = n
			}
		case domain.SettingAutoApprove:
			b.AutoApprove = config.ParseBool(v)
		case domain.SettingBotPassword:
			b.Password = v
		case domain.SettingUPI:
			b.UPI = strings.TrimSpace(v)
		case domain.SettingCrypto:
			b.Crypto = strings.TrimSpace(v)
		case domain.SettingPayPal:
			b.PayPal = strings.TrimSpace(v)
		case domain.SettingCODEnabled:
			b.CODEnabled = config.ParseBool(v)
		case domain.SettingGiftCardEnabled:
			b.GiftCardEnabled = config.ParseBool(v)
		case domain.SettingAdminContactURL:
			b.AdminContactURL = strings.TrimSpace(v)
		case domain.SettingDMCAPolicy:
			if strings.TrimSpace(v) != "" {
				b.DMCAPolicy = v
			}
		}
	}
	return b
}

func isSettingKey(k string) bool {
	for _, known := range domain.SettingKeys {
		if k == known {
			return true
		}
	}
	return false
}
