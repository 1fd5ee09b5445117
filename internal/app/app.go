package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmconnect/pkg/domain"
	"farmconnect/pkg/feed"
	"farmconnect/pkg/storage"
	"farmconnect/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	Store          store.Store
	Sessions       store.SessionStore
	Objects        storage.ObjectStore
	RedisAddr      string
	RedisPassword  string
	SessionTTL     time.Duration
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	JWTLeeway      time.Duration
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioPublicURL string
	MinioUseSSL    bool
	MapsAPIKey     string
}

// App is the core application service wiring together storage and domain logic.
type App struct {
	store      store.Store
	objects    storage.ObjectStore
	sessions   store.SessionStore
	hub        *feed.Hub
	contacts   *ContactDirectory
	mapsAPIKey string
}

// New constructs the application with database-backed record storage and
// MinIO-backed asset storage. Pre-built collaborators in cfg take precedence.
func New(cfg Config) (*App, error) {
	objects := cfg.Objects
	if objects == nil {
		minioStore, err := storage.NewMinioStore(context.Background(), cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
		objects = minioStore
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessions := cfg.Sessions
	if sessions == nil {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("jwt secret required")
		}
		var revoker store.TokenRevoker
		if cfg.RedisAddr != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
		var err error
		sessions, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker, store.JWTOptions{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   cfg.JWTLeeway,
		})
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
	}

	return &App{
		store:      dataStore,
		objects:    objects,
		sessions:   sessions,
		hub:        feed.NewHub(),
		contacts:   NewContactDirectory(dataStore),
		mapsAPIKey: cfg.MapsAPIKey,
	}, nil
}

// Hub exposes the change broadcaster for watch endpoints.
func (a *App) Hub() *feed.Hub { return a.hub }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserFromToken resolves a session token to its account.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	userID, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil || !found {
		return domain.User{}, false
	}
	if user.Status == domain.StatusDisabled {
		return domain.User{}, false
	}
	return user, true
}

// Logout invalidates the session token.
func (a *App) Logout(token string) error {
	if token == "" {
		return nil
	}
	return a.sessions.DeleteSession(token)
}
