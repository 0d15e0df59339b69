package service

import (
	"errors"
	"time"

	"coursebot/config"
	"coursebot/internal/auth"
	"coursebot/internal/domain"
	"coursebot/internal/models"
	"coursebot/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCreds = errors.New("invalid username or password")

type AuthService struct {
	cfg       *config.Config
	adminRepo *repository.AdminRepository
}

func NewAuthService(cfg *config.Config, adminRepo *repository.AdminRepository) *AuthService {
	return &AuthService{cfg: cfg, adminRepo: adminRepo}
}

// Login checks the admin's password and returns a signed access token.
func (s *AuthService) Login(username, password string) (*models.Admin, string, error) {
	a, err := s.adminRepo.GetByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCreds
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}
	token, err := auth.GenerateAccessToken(&s.cfg.JWT, a.ID, a.Username, domain.RoleAdmin)
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	if err := s.adminRepo.TouchLogin(a.ID, now); err == nil {
		a.LastLoginAt = &now
	}
	return a, token, nil
}
