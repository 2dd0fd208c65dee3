package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opticshop/backend/internal/models"
)

// AdminService authenticates back-office accounts.
type AdminService struct {
	mu      sync.RWMutex
	admins  map[string]*models.Admin
	byEmail map[string]string
}

func NewAdminService() *AdminService {
	return &AdminService{
		admins:  make(map[string]*models.Admin),
		byEmail: make(map[string]string),
	}
}

// Seed registers an account, replacing the password of an existing one.
func (s *AdminService) Seed(email, password string) (*models.Admin, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	if id, exists := s.byEmail[key]; exists {
		s.admins[id].PasswordHash = string(hashed)
		return s.admins[id], nil
	}

	admin := &models.Admin{
		ID:           uuid.New().String(),
		Email:        key,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now().UTC(),
	}
	s.admins[admin.ID] = admin
	s.byEmail[key] = admin.ID
	return admin, nil
}

// Login returns ErrInvalidCredentials for an unknown email as well as a wrong
// password.
func (s *AdminService) Login(ctx context.Context, req *models.LoginRequest) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	if !exists {
		return nil, ErrInvalidCredentials
	}
	admin := s.admins[id]
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	out := *admin
	return &out, nil
}

func (s *AdminService) GetByID(id string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, exists := s.admins[id]
	if !exists {
		return nil, ErrInvalidCredentials
	}
	out := *admin
	return &out, nil
}
