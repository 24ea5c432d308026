package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"metrix-portal/internal/models"
	"metrix-portal/internal/phone"
	"metrix-portal/internal/repository"

	"github.com/google/uuid"
)

type IAuthService interface {
	Login(ctx context.Context, rawPhone string) (*models.User, string, error)
	Restore(ctx context.Context, sessionID string) (*models.User, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthService resolves a phone number to a stable user id and remembers
// the raw phone behind a session id so a later launch can silently log the
// visitor back in. This is identification, not authentication: no
// credential is ever verified.
type AuthService struct {
	userRepo    repository.IUserRepository
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

func NewAuthService(userRepo repository.IUserRepository, sessionRepo repository.SessionRepository) IAuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// Login upserts the user keyed by the normalized phone digits and returns
// the user plus a session id remembering the raw input. Idempotent: the
// same phone always lands on the same user document.
func (s *AuthService) Login(ctx context.Context, rawPhone string) (*models.User, string, error) {
	user, err := s.loginUser(ctx, rawPhone)
	if err != nil {
		return nil, "", err
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Phone:     rawPhone,
		CreatedAt: s.now(),
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, "", err
	}

	return user, session.ID, nil
}

func (s *AuthService) loginUser(ctx context.Context, rawPhone string) (*models.User, error) {
	userID := phone.Normalize(rawPhone)
	if userID == "" {
		return nil, fmt.Errorf("phone %q contains no digits", rawPhone)
	}

	now := s.now()

	user, err := s.userRepo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user != nil {
		user.ID = userID
		user.LastLogin = now
	} else {
		// The display phone keeps the user's original spelling; only the
		// document id is normalized.
		user = &models.User{
			ID:        userID,
			Phone:     rawPhone,
			CreatedAt: now,
			LastLogin: now,
			IsAdmin:   false,
		}
	}

	if err := s.userRepo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Restore re-runs login from the phone remembered behind sessionID.
// Best-effort by contract: any failure clears the stored session and
// reports "no user" rather than an error, leaving the visitor logged out.
func (s *AuthService) Restore(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil
	}

	user, err := s.loginUser(ctx, session.Phone)
	if err != nil {
		log.Printf("session restore failed, clearing session %s: %v", sessionID, err)
		if delErr := s.sessionRepo.DeleteSession(ctx, sessionID); delErr != nil {
			log.Printf("failed to clear session %s: %v", sessionID, delErr)
		}
		return nil, nil
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.DeleteSession(ctx, sessionID)
}
