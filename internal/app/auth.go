package app

import (
	"fmt"
	"strings"
	"time"

	"farmconnect/internal/util"
	"farmconnect/pkg/auth"
	"farmconnect/pkg/domain"
)

// SignUp creates a password account and opens a session.
func (a *App) SignUp(email, password, displayName string) (domain.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	if !strings.Contains(email, "@") {
		return domain.User{}, "", invalidField("email", "must be a valid email address")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		Provider:     domain.ProviderPassword,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	if err := a.store.SaveProfile(defaultProfile(user.ID, now)); err != nil {
		return domain.User{}, "", fmt.Errorf("save profile: %w", err)
	}
	return a.openSession(user)
}

// Login verifies password credentials and opens a session.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = normalizeEmail(email)
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if user.Status == domain.StatusDisabled {
		return domain.User{}, "", ErrUserDisabled
	}
	if user.PasswordHash == "" || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	return a.openSession(user)
}

// LoginWithProvider signs a user in with an identity already verified by an
// external provider (Google or Facebook), creating the account on first use.
func (a *App) LoginWithProvider(provider domain.AuthProvider, email, displayName string) (domain.User, string, error) {
	if provider != domain.ProviderGoogle && provider != domain.ProviderFacebook {
		return domain.User{}, "", invalidField("provider", "must be google or facebook")
	}
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, "", ErrEmailRequired
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if found {
		if user.Status == domain.StatusDisabled {
			return domain.User{}, "", ErrUserDisabled
		}
		if user.DisplayName == "" && strings.TrimSpace(displayName) != "" {
			user.DisplayName = strings.TrimSpace(displayName)
			user.UpdatedAt = time.Now().UTC()
			if err := a.store.SaveUser(user); err != nil {
				return domain.User{}, "", fmt.Errorf("save user: %w", err)
			}
		}
		return a.openSession(user)
	}
	now := time.Now().UTC()
	user = domain.User{
		ID:          util.NewID(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		Provider:    provider,
		Status:      domain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	if err := a.store.SaveProfile(defaultProfile(user.ID, now)); err != nil {
		return domain.User{}, "", fmt.Errorf("save profile: %w", err)
	}
	return a.openSession(user)
}

func (a *App) openSession(user domain.User) (domain.User, string, error) {
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

func defaultProfile(userID string, now time.Time) domain.Profile {
	return domain.Profile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
